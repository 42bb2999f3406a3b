package sim

import (
	"errors"
	"testing"
)

// TestScenario_LinearFormationTracksPixelsAcrossHops covers S1 with the
// default fleet and the canonical trajectory: in the current plan the drones
// tracking the gun's first two pixels are distinct and not hidden at the
// start of the edge, and the frame tree stays valid after one tick.
func TestScenario_LinearFormationTracksPixelsAcrossHops(t *testing.T) {
	trajectory := CanonicalGunTrajectory()
	h, err := NewHeadlessSim(WithSeed(21), WithTrajectory(trajectory), WithDroneNum(DroneNum))
	if err != nil {
		t.Fatalf("NewHeadlessSim: %v", err)
	}

	fplan, err := h.Sim.currentFormationPlan()
	if err != nil {
		t.Fatalf("current formation plan: %v", err)
	}
	if fplan.Assignment1[0] == fplan.Assignment1[1] {
		t.Fatalf("pixels 0 and 1 assigned to the same drone: %d", fplan.Assignment1[0])
	}

	drone0 := fplan.Assignment1[0]
	drone1 := fplan.Assignment1[1]
	if fplan.Formation1[drone0].IsHidden() {
		t.Fatalf("drone %d tracking pixel 0 should not be hidden", drone0)
	}
	if fplan.Formation1[drone1].IsHidden() {
		t.Fatalf("drone %d tracking pixel 1 should not be hidden", drone1)
	}

	if err := h.RunTicks(1); err != nil {
		t.Fatalf("tick: %v", err)
	}
	checkTreeValid(t, h, "post-tick")
}

// TestScenario_DecisionFrameBranchesAndPopFrontDiscardsOffDefault covers
// S2: the init frame tree's root game state is a decision state exactly
// every 4th step (power_level_id cycles mod 4, decision at level 2), so a
// long enough initial tree is guaranteed to contain at least one decision
// frame. Running ticks past it and then discarding via pop_front (inside
// NextStep) must never corrupt tree validity, a decision frame must be seen
// at the root along the way, and if the starting root is a decision frame
// its default option must be 1 (fire).
func TestScenario_DecisionFrameBranchesAndPopFrontDiscardsOffDefault(t *testing.T) {
	h, err := NewHeadlessSim(WithSeed(4))
	if err != nil {
		t.Fatalf("NewHeadlessSim: %v", err)
	}

	tree := h.Sim.buffer.FrameTree()
	rootID := tree.RootFrameID()
	foundDecision := false
	if tree.IsDecisionFrame(rootID) {
		foundDecision = true
		dv := tree.DecisionVariableOf(rootID)
		if dv.Default != 1 {
			t.Fatalf("expected default option 1 (fire), got %d", dv.Default)
		}
	}

	for i := 0; i < MicroFrameNum*8; i++ {
		if err := h.RunTicks(1); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		checkTreeValid(t, h, "post-tick")
		if h.Sim.buffer.FrameTree().IsDecisionFrame(h.Sim.buffer.FrameTree().RootFrameID()) {
			foundDecision = true
		}
	}
	if !foundDecision {
		t.Fatalf("never observed a decision frame over %d ticks", MicroFrameNum*8)
	}
}

// TestScenario_TightFleetReportsPlanInfeasible covers S3: a scene large
// enough that hidden drones can spawn arbitrarily far from the gun's
// trajectory, combined with a fleet of 15 (the gun's 13 pixels plus the two
// pixels of the first fired bullet, so both spare drones must fly in), must
// surface ErrPlanInfeasible rather than silently producing an impossible
// flight plan.
func TestScenario_TightFleetReportsPlanInfeasible(t *testing.T) {
	_, err := NewHeadlessSim(WithSeed(17), WithDroneNum(15), WithSceneSize(5_000_000, 5_000_000, 5_000_000))
	if err == nil {
		t.Fatalf("expected an error, got nil")
	}
	if !errors.Is(err, ErrPlanInfeasible) {
		t.Fatalf("expected ErrPlanInfeasible, got: %v", err)
	}
}

// TestScenario_TrackerPersistsAcrossManyTicks covers S4: a drone that is
// assigned to a pixel should never instantaneously teleport between
// consecutive micro-frames — each step's displacement must stay within the
// per-micro-frame kinematic cap.
func TestScenario_TrackerPersistsAcrossManyTicks(t *testing.T) {
	h, err := NewHeadlessSim(WithSeed(8), WithTrajectory(CanonicalGunTrajectory()))
	if err != nil {
		t.Fatalf("NewHeadlessSim: %v", err)
	}

	maxStep := MaxDroneFlightDistancePerFrame / float64(MicroFrameNum)
	prev, err := h.Sim.GetCurrentMicroFrame()
	if err != nil {
		t.Fatalf("get current micro frame: %v", err)
	}
	for i := 0; i < 50; i++ {
		if err := h.RunTicks(1); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
		cur, err := h.Sim.GetCurrentMicroFrame()
		if err != nil {
			t.Fatalf("get current micro frame at tick %d: %v", i, err)
		}
		if len(cur.Pixels) != len(prev.Pixels) {
			t.Fatalf("tick %d: pixel count changed from %d to %d", i, len(prev.Pixels), len(cur.Pixels))
		}
		for j := range cur.Pixels {
			d := cur.Pixels[j].Pos.Distance(prev.Pixels[j].Pos)
			// Hopping drones move at most maxStep per micro-frame; tracking
			// and go-dark drones move less.
			if d > maxStep+Epsilon {
				t.Fatalf("tick %d pixel %d moved %.2f, exceeding the kinematic bound", i, j, d)
			}
		}
		prev = cur
	}
}

// TestScenario_SameSeedProducesBitIdenticalRuns covers S5: two independently
// constructed HeadlessSims from the same seed must render identical
// micro-frames at every tick over a long run.
func TestScenario_SameSeedProducesBitIdenticalRuns(t *testing.T) {
	const ticks = 200

	build := func() *HeadlessSim {
		h, err := NewHeadlessSim(WithSeed(2026))
		if err != nil {
			t.Fatalf("NewHeadlessSim: %v", err)
		}
		return h
	}

	a := build()
	b := build()

	for i := 0; i < ticks; i++ {
		fa, err := a.Sim.GetCurrentMicroFrame()
		if err != nil {
			t.Fatalf("a: get current micro frame at tick %d: %v", i, err)
		}
		fb, err := b.Sim.GetCurrentMicroFrame()
		if err != nil {
			t.Fatalf("b: get current micro frame at tick %d: %v", i, err)
		}
		if len(fa.Pixels) != len(fb.Pixels) {
			t.Fatalf("tick %d: pixel count diverged: %d vs %d", i, len(fa.Pixels), len(fb.Pixels))
		}
		for j := range fa.Pixels {
			if !fa.Pixels[j].Pos.Equal(fb.Pixels[j].Pos) || fa.Pixels[j].Color != fb.Pixels[j].Color {
				t.Fatalf("tick %d pixel %d diverged between identically-seeded runs", i, j)
			}
		}
		if err := a.RunTicks(1); err != nil {
			t.Fatalf("a: tick %d: %v", i, err)
		}
		if err := b.RunTicks(1); err != nil {
			t.Fatalf("b: tick %d: %v", i, err)
		}
	}
}
