package sim

import (
	"errors"
	"fmt"

	"github.com/chiuau/spicomp/internal/config"
)

// The error taxonomy of the contingency-planning core. Every error a caller
// needs to branch on is a sentinel wrapped with fmt.Errorf("...: %w", ErrX),
// checked with errors.Is — the same pattern the teacher's cmd/game uses for
// ErrQuit/ErrRestart.
var (
	// ErrInvariantViolation marks a tree-arena operation that would break
	// (or found broken) a FrameTree/GameStateTree structural invariant:
	// unknown id, duplicated child option, dangling parent link. It also
	// marks a fleet too small for the pixels it must cover. Simulator.NextStep
	// recovers from it with a reset, like any other error it returns.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrPlanInfeasible marks a kinematic-bound violation in the planner's
	// earliest-available flight computation (Step 4 of compute_formation_plan):
	// a hopping drone cannot reach its assigned pixel within its available
	// flight time under MAX_DRONE_FLIGHT_DISTANCE_PER_FRAME.
	ErrPlanInfeasible = errors.New("plan infeasible")

	// ErrConfigError marks a missing or malformed configuration key,
	// re-exported here so callers that only import package sim can still
	// errors.Is against it without reaching into internal/config.
	ErrConfigError = config.ErrConfigError
)

// wrapInvariant formats msg and wraps it with ErrInvariantViolation.
func wrapInvariant(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrInvariantViolation)...)
}

// wrapInfeasible formats msg and wraps it with ErrPlanInfeasible.
func wrapInfeasible(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrPlanInfeasible)...)
}
