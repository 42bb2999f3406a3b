package sim

import (
	"errors"

	"github.com/chiuau/spicomp/internal/rng"
)

// HeadlessSim is a simulation harness used by the tests and by cmd/headless:
// no viewer dependency, a deterministic seed by default, and a tick counter
// tests can assert against. Mirrors the teacher's functional-options test harness shape,
// collapsed to the single configuration pass this domain needs — nothing
// here depends on a prior pass the way soldiers depend on a built nav grid.
type HeadlessSim struct {
	SceneSizeX, SceneSizeY, SceneSizeZ float64
	Seed                               uint64
	Sim                                *Simulator
	Tick                               int
}

type headlessConfig struct {
	sceneSizeX, sceneSizeY, sceneSizeZ float64
	droneNum                           int
	seed                               uint64
	trajectory                         []Pos3D
}

// SimOption configures a HeadlessSim at construction.
type SimOption struct {
	fn func(*headlessConfig)
}

// WithSeed sets the RNG seed for a deterministic run.
func WithSeed(seed uint64) SimOption {
	return SimOption{func(c *headlessConfig) { c.seed = seed }}
}

// WithSceneSize sets the scene bounds hidden drones are scattered across.
func WithSceneSize(x, y, z float64) SimOption {
	return SimOption{func(c *headlessConfig) { c.sceneSizeX, c.sceneSizeY, c.sceneSizeZ = x, y, z }}
}

// WithDroneNum overrides the fleet size for scenarios that want to force a
// tight pool (e.g. to provoke ErrPlanInfeasible).
func WithDroneNum(n int) SimOption {
	return SimOption{func(c *headlessConfig) { c.droneNum = n }}
}

// WithTrajectory injects a fixed gun trajectory instead of deriving one from
// the seed, for tests that want to reason about exact drone positions
// without also reasoning about the trajectory perturbation draws.
func WithTrajectory(trajectory []Pos3D) SimOption {
	return SimOption{func(c *headlessConfig) { c.trajectory = trajectory }}
}

// NewHeadlessSim builds and resets a HeadlessSim from the given options.
func NewHeadlessSim(opts ...SimOption) (*HeadlessSim, error) {
	cfg := headlessConfig{
		sceneSizeX: 2000,
		sceneSizeY: 2000,
		sceneSizeZ: 1000,
		droneNum:   DroneNum,
		seed:       1,
	}
	for _, o := range opts {
		o.fn(&cfg)
	}

	r := rng.New(cfg.seed)
	sim, err := newSimulatorWithDroneNum(cfg.sceneSizeX, cfg.sceneSizeY, cfg.sceneSizeZ, cfg.droneNum, r, cfg.trajectory)
	if err != nil {
		return nil, err
	}
	return &HeadlessSim{
		SceneSizeX: cfg.sceneSizeX,
		SceneSizeY: cfg.sceneSizeY,
		SceneSizeZ: cfg.sceneSizeZ,
		Seed:       cfg.seed,
		Sim:        sim,
	}, nil
}

// Reset rebuilds the underlying Simulator from scratch and zeroes the tick
// counter. Simulator.NextStep already resets itself internally on failure so
// the tree-shape/plan invariant never stays broken, but h.Tick and any
// per-run bookkeeping a caller keeps alongside it do not follow that
// internal reset automatically — callers that want to keep driving a
// HeadlessSim past a recoverable error call Reset (or RunTicksRecoverable,
// which does it for them) rather than just looping on a desynchronized tick
// count.
func (h *HeadlessSim) Reset() error {
	if err := h.Sim.Reset(); err != nil {
		return err
	}
	h.Tick = 0
	return nil
}

// RunTicks advances the simulation n ticks, returning the first error
// unchanged. Use RunTicksRecoverable instead of a bare retry loop around
// this if ErrPlanInfeasible/ErrInvariantViolation should reset and continue
// rather than abort the run.
func (h *HeadlessSim) RunTicks(n int) error {
	for i := 0; i < n; i++ {
		if err := h.Sim.NextStep(); err != nil {
			return err
		}
		h.Tick++
	}
	return nil
}

// RunTicksRecoverable advances the simulation n ticks, implementing
// spec.md's "a logged message and a reset" policy end to end: whenever
// NextStep reports ErrPlanInfeasible or ErrInvariantViolation, it resets the
// HeadlessSim and continues ticking rather than aborting the run. Any other
// error (e.g. a reset that itself fails) aborts immediately. Returns the
// number of resets triggered, so callers can log or assert on how often
// recovery kicked in.
func (h *HeadlessSim) RunTicksRecoverable(n int) (resets int, err error) {
	for i := 0; i < n; i++ {
		if err := h.Sim.NextStep(); err != nil {
			if !errors.Is(err, ErrPlanInfeasible) && !errors.Is(err, ErrInvariantViolation) {
				return resets, err
			}
			if rerr := h.Reset(); rerr != nil {
				return resets, rerr
			}
			resets++
			continue
		}
		h.Tick++
	}
	return resets, nil
}

// RunUntil advances the simulation up to maxTicks, stopping early if
// predicate returns true. Returns the tick at which the predicate was
// satisfied, or -1 if it never was.
func (h *HeadlessSim) RunUntil(predicate func(*HeadlessSim) bool, maxTicks int) (int, error) {
	for i := 0; i < maxTicks; i++ {
		if err := h.Sim.NextStep(); err != nil {
			return -1, err
		}
		h.Tick++
		if predicate(h) {
			return h.Tick, nil
		}
	}
	return -1, nil
}
