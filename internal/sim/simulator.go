package sim

import (
	"fmt"

	"github.com/chiuau/spicomp/internal/rng"
)

// DroneNum is the fixed fleet size every Simulator plans over.
const DroneNum = 100

// MicroFrameNum is the number of rendered micro-frames between two
// consecutive frames; each NextStep (one sim step) advances one micro-frame.
const MicroFrameNum = 5

// TimeStepDuration is the wall-clock duration, in seconds, of one sim step.
const TimeStepDuration = 0.02

// Simulator ties the gun/bullet game-state process, the frame-tree buffer,
// and the contingency planner together into one tick-driven loop: each
// NextStep either advances within the current frame's micro-frames, or
// (on the last micro-frame) commits to the branch time took, grows the
// buffer by one more generation, and replans from there.
type Simulator struct {
	sceneSizeX, sceneSizeY, sceneSizeZ float64
	droneNum                           int
	microFrameNum                      int
	simStepCount                       int
	microFrameStepCount                int
	controller                         *GameController
	buffer                             *FrameBuffer
	cfPlan                             *ContingencyFormationPlan
	rng                                *rng.Source
	trajectory                         []Pos3D // nil: derive a fresh one from rng on every Reset
}

// NewSimulator builds a Simulator over a scene of the given size and
// immediately resets it, seeding the initial fleet formation and plan from
// r. trajectory overrides the gun's flight path (tests that want a known,
// reproducible path should pass CanonicalGunTrajectory()); nil derives one
// from r via GunTrajectory. Returns ErrInvariantViolation if the fleet is
// smaller than the first frame's pixel count, and otherwise any error the
// first planning pass returns (such as ErrPlanInfeasible).
func NewSimulator(sceneSizeX, sceneSizeY, sceneSizeZ float64, r *rng.Source, trajectory []Pos3D) (*Simulator, error) {
	return newSimulatorWithDroneNum(sceneSizeX, sceneSizeY, sceneSizeZ, DroneNum, r, trajectory)
}

// newSimulatorWithDroneNum is NewSimulator with the fleet size exposed, used
// by the test harness's WithDroneNum option to force a tight pool.
func newSimulatorWithDroneNum(sceneSizeX, sceneSizeY, sceneSizeZ float64, droneNum int, r *rng.Source, trajectory []Pos3D) (*Simulator, error) {
	if MicroFrameNum > MaxMicroFrameNum {
		return nil, wrapInvariant("simulator: micro_frame_num %d exceeds the cap %d", MicroFrameNum, MaxMicroFrameNum)
	}
	s := &Simulator{
		sceneSizeX:    sceneSizeX,
		sceneSizeY:    sceneSizeY,
		sceneSizeZ:    sceneSizeZ,
		droneNum:      droneNum,
		microFrameNum: MicroFrameNum,
		rng:           r,
		trajectory:    trajectory,
	}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset rebuilds the game controller, frame buffer, and contingency plan
// from scratch: a fresh gun trajectory (unless overridden at construction),
// an initial frame tree InitFrameTreeLength+1 generations deep, the fleet
// placed on the first frame's pixels with the remainder scattered hidden
// across the scene, and the first full contingency plan over that tree.
func (s *Simulator) Reset() error {
	s.simStepCount = 0
	s.microFrameStepCount = 0

	trajectory := s.trajectory
	if trajectory == nil {
		trajectory = GunTrajectory(s.rng)
	}
	s.controller = NewGameController(s.microFrameNum, trajectory)
	s.buffer = NewFrameBuffer()

	initTree, err := s.controller.GetInitFrameTree()
	if err != nil {
		return err
	}
	s.buffer.SetFrameTree(initTree)

	firstFrame := s.buffer.FrameTree().Frame(s.buffer.FrameTree().RootFrameID())
	if s.droneNum < len(firstFrame.Pixels) {
		return wrapInvariant("simulator: drone_num %d is smaller than the first frame's pixel count %d", s.droneNum, len(firstFrame.Pixels))
	}

	formation := make(Formation, 0, s.droneNum)
	assignment := make(DroneAssignment, 0, len(firstFrame.Pixels))
	for i, pixel := range firstFrame.Pixels {
		formation = append(formation, DroneState{Pos: pixel.Pos, Color: pixel.Color})
		assignment = append(assignment, i)
	}
	for len(formation) < s.droneNum {
		formation = append(formation, DroneState{
			Pos: NewPos3D(
				s.rng.UniformRange(-s.sceneSizeX/2, s.sceneSizeX/2),
				s.rng.UniformRange(-s.sceneSizeY/2, s.sceneSizeY/2),
				s.rng.UniformRange(0, s.sceneSizeZ),
			),
			Color: ColorHidden,
		})
	}

	s.cfPlan = NewContingencyFormationPlan()
	planner, err := NewPlanner(s.droneNum, s.microFrameNum, s.buffer.FrameTree(), formation, assignment, s.cfPlan, s.controller.PixelTrajectoryTrackingNum(), s.rng)
	if err != nil {
		return err
	}
	s.cfPlan = planner.ContingencyFormationPlan()
	return nil
}

// IsStopped always reports false: the simulator runs forever, matching
// spec.md §9's note that there is no terminal condition.
func (s *Simulator) IsStopped() bool { return false }

// TimeStepDuration returns the wall-clock duration of one sim step.
func (s *Simulator) TimeStepDuration() float64 { return TimeStepDuration }

// SimStepCount returns the number of sim steps completed so far.
func (s *Simulator) SimStepCount() int { return s.simStepCount }

// CurrentFrameTree returns the buffer's underlying frame tree, for callers
// (reporting tools, the viewer) that need to inspect tree shape without
// reaching into the simulator's internals.
func (s *Simulator) CurrentFrameTree() *FrameTree { return s.buffer.FrameTree() }

// GetCurrentMicroFrame renders the fleet's pixel cloud for the micro-frame
// about to be displayed. Call before NextStep, not after.
func (s *Simulator) GetCurrentMicroFrame() (Frame, error) {
	fplan, err := s.currentFormationPlan()
	if err != nil {
		return Frame{}, err
	}
	return fplan.MicroFormation(s.microFrameStepCount).MakeFrame(0), nil
}

// NextStep advances the simulator by one micro-frame. On the last
// micro-frame of a sim step it commits to the branch time took (popping both
// the game-state tree and the frame buffer), extends the buffer with newly
// generated frames, and replans the contingency plan over the extended tree.
//
// Every mutation in that commit-and-replan sequence happens against shared
// controller/buffer state that has no per-step undo; if the replan fails
// partway through, the tree shape and s.cfPlan would otherwise disagree with
// each other from that point on. Per spec.md's "a logged message and a
// reset" policy for user-visible failures, any error in this sequence is
// handled by fully resetting the simulator before it's returned, so the
// invariant holds again the moment NextStep returns — the caller still sees
// the original error (wrapped, so errors.Is against ErrPlanInfeasible/
// ErrInvariantViolation keeps working) and is responsible for logging it.
func (s *Simulator) NextStep() error {
	if s.microFrameStepCount == s.microFrameNum-1 {
		fplan, err := s.currentFormationPlan()
		if err != nil {
			return err
		}
		currentFormation := fplan.Formation2()
		currentAssignment := fplan.Assignment2

		s.controller.RemoveFirstGameState()
		if err := s.buffer.RemoveFirstFrame(); err != nil {
			return s.recoverWithReset(err)
		}

		newTrees, err := s.controller.GetNewFrameTrees()
		if err != nil {
			return s.recoverWithReset(err)
		}

		if len(newTrees) > 0 {
			for _, t := range newTrees {
				if err := s.buffer.AttachFrameTree(t); err != nil {
					return s.recoverWithReset(err)
				}
			}
			planner, err := NewPlanner(s.droneNum, s.microFrameNum, s.buffer.FrameTree(), currentFormation, currentAssignment, s.cfPlan, s.controller.PixelTrajectoryTrackingNum(), s.rng)
			if err != nil {
				return s.recoverWithReset(err)
			}
			s.cfPlan = planner.ContingencyFormationPlan()
		}
		s.microFrameStepCount = 0
	} else {
		s.microFrameStepCount++
	}

	s.controller.NextStep()
	s.buffer.NextStep()
	s.simStepCount++

	if s.controller.Size() != s.buffer.Size() {
		return s.recoverWithReset(wrapInvariant("simulator: game controller size %d diverged from frame buffer size %d", s.controller.Size(), s.buffer.Size()))
	}
	return nil
}

// recoverWithReset restores the tree-shape/plan invariant after cause broke
// it mid-tick, by resetting the simulator to a fresh tree and a fresh plan
// rather than trying to undo each already-applied mutation individually.
// cause is preserved with %w so the caller can still errors.Is against it.
func (s *Simulator) recoverWithReset(cause error) error {
	if err := s.Reset(); err != nil {
		return fmt.Errorf("reset after %w also failed: %w", cause, err)
	}
	return fmt.Errorf("recovered with a reset after: %w", cause)
}

// currentFormationPlan returns the plan for the edge out of the buffer's
// current root frame, following the default option at a decision frame.
func (s *Simulator) currentFormationPlan() (*FormationPlan, error) {
	tree := s.buffer.FrameTree()
	if tree.Empty() {
		return nil, wrapInvariant("simulator: frame buffer is empty")
	}
	frameID := tree.RootFrameID()
	if tree.IsTerminalFrame(frameID) {
		return nil, wrapInvariant("simulator: root frame %d is terminal", frameID)
	}
	var childID int
	if tree.IsDecisionFrame(frameID) {
		childID = tree.DefaultChildFrameID(frameID)
	} else {
		childID = tree.UniqueChildFrameID(frameID)
	}
	return s.cfPlan.Get(frameID, childID), nil
}
