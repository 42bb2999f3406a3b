package sim

import (
	"sort"

	"github.com/chiuau/spicomp/internal/rng"
)

// MaxDroneFlightDistancePerFrame bounds how far a hopping drone may travel
// between two consecutive frames (micro_frame_num micro-frames), applied as
// an equal per-micro-frame share.
const MaxDroneFlightDistancePerFrame = 1000.0

// Planner runs the depth-first contingency-planning search once over a
// FrameTree: for every frame1 -> frame2 edge it produces a FormationPlan
// describing how the drone fleet moves between the two frames, branching at
// every decision frame so every possible future has its own plan.
type Planner struct {
	droneNum                   int
	microFrameNum              int
	pixelTrajectoryTrackingNum int
	frameTree                  *FrameTree
	previousCFPlan             *ContingencyFormationPlan
	rng                        *rng.Source
	cfPlan                     *ContingencyFormationPlan
}

// NewPlanner builds a Planner and immediately runs the search starting from
// frameTree's root, seeded with the fleet's initial formation and assignment.
// previousCFPlan is carried for parity with the constructor signature this
// is ported from; see DESIGN.md's Open Question entry for why nothing in
// this port currently reads from it.
func NewPlanner(droneNum, microFrameNum int, frameTree *FrameTree, initFormation Formation, initAssignment DroneAssignment, previousCFPlan *ContingencyFormationPlan, pixelTrajectoryTrackingNum int, r *rng.Source) (*Planner, error) {
	if len(initFormation) != droneNum {
		return nil, wrapInvariant("planner: initial formation has %d drones, want %d", len(initFormation), droneNum)
	}
	p := &Planner{
		droneNum:                   droneNum,
		microFrameNum:              microFrameNum,
		pixelTrajectoryTrackingNum: pixelTrajectoryTrackingNum,
		frameTree:                  frameTree,
		previousCFPlan:             previousCFPlan,
		rng:                        r,
		cfPlan:                     NewContingencyFormationPlan(),
	}
	if err := p.solve(frameTree.RootFrameID(), initFormation, initAssignment); err != nil {
		return nil, err
	}
	return p, nil
}

// ContingencyFormationPlan returns the plan computed by the search.
func (p *Planner) ContingencyFormationPlan() *ContingencyFormationPlan {
	return p.cfPlan
}

// solve walks the frame tree depth-first, computing one FormationPlan per
// edge. Children are visited in ascending option order: frameTree.ChildrenOf
// is a Go map, whose iteration order is randomized per process, but the RNG
// draws inside computeFormationPlan must happen in a fixed order for two
// Planners built from the same seed to agree — so we sort rather than range
// directly, which is the one place this port must diverge from the
// original's unordered_map iteration to keep determinism (testable property
// 8) intact.
func (p *Planner) solve(frameID int, formation Formation, assignment DroneAssignment) error {
	if p.frameTree.IsTerminalFrame(frameID) {
		return nil
	}
	children := p.frameTree.ChildrenOf(frameID)
	options := make([]int, 0, len(children))
	for option := range children {
		options = append(options, option)
	}
	sort.Ints(options)

	for _, option := range options {
		childID := children[option]
		fplan, err := p.cfPlan.Emplace(frameID, childID)
		if err != nil {
			return err
		}
		if err := p.computeFormationPlan(fplan, p.frameTree.Frame(frameID), p.frameTree.Frame(childID), formation, assignment); err != nil {
			return err
		}
		if err := p.solve(childID, fplan.Formation2(), fplan.Assignment2); err != nil {
			return err
		}
	}
	return nil
}

// computeFormationPlan fills in a freshly emplaced, empty plan for the edge
// frame1 -> frame2: the assignment-carrying "tracking" pixels keep their
// drone across the edge, the remaining "hopping" pixels are filled from the
// pool of currently-unassigned drones by weighted random draw, and every
// drone's per-micro-frame trajectory is computed accordingly.
func (p *Planner) computeFormationPlan(fplan *FormationPlan, frame1, frame2 Frame, formation1 Formation, assignment1 DroneAssignment) error {
	if len(frame1.Pixels) != len(assignment1) {
		return wrapInvariant("compute formation plan: frame %d has %d pixels but assignment1 has %d entries", frame1.ID, len(frame1.Pixels), len(assignment1))
	}

	for i := 0; i < p.microFrameNum; i++ {
		fplan.MicroFormations = append(fplan.MicroFormations, append(Formation(nil), formation1...))
	}
	fplan.Formation1 = formation1
	fplan.Assignment1 = assignment1

	if len(frame1.Pixels) < p.pixelTrajectoryTrackingNum || len(frame2.Pixels) < p.pixelTrajectoryTrackingNum {
		return wrapInvariant("compute formation plan: frame %d or %d has fewer pixels than the tracking count %d", frame1.ID, frame2.ID, p.pixelTrajectoryTrackingNum)
	}

	assignment2 := make(DroneAssignment, len(frame2.Pixels))
	for i := range assignment2 {
		assignment2[i] = -1
	}
	for pixelID := 0; pixelID < p.pixelTrajectoryTrackingNum; pixelID++ {
		assignment2[pixelID] = assignment1[pixelID]
	}
	fplan.Assignment2 = assignment2

	earliestAvailable := map[int][]int{}

	if len(assignment2) > p.pixelTrajectoryTrackingNum {
		unassigned := p.findUnassignedDroneIDs(assignment2)
		for _, droneID := range unassigned {
			list, err := p.findEarliestAvailableFrameID(fplan, droneID)
			if err != nil {
				return err
			}
			earliestAvailable[droneID] = append(list, frame2.ID)
		}

		for pixelID := p.pixelTrajectoryTrackingNum; pixelID < len(assignment2); pixelID++ {
			pixel := frame2.Pixels[pixelID]
			idx, err := p.findRandomEarliestAvailableDroneID(pixel.Pos, formation1, unassigned, earliestAvailable)
			if err != nil {
				return err
			}
			assignment2[pixelID] = unassigned[idx]
			unassigned = append(unassigned[:idx], unassigned[idx+1:]...)
		}
	}
	fplan.Assignment2 = assignment2

	for pixel2ID := 0; pixel2ID < len(assignment2); pixel2ID++ {
		droneID := assignment2[pixel2ID]
		droneState := formation1[droneID]

		pixel1 := droneState.Pixel()
		if pixel2ID >= p.pixelTrajectoryTrackingNum {
			pixel1 = Pixel{Pos: pixel1.Pos, Color: ColorHidden}
		}
		pixel2 := frame2.Pixels[pixel2ID]

		if isDroneAssigned(droneID, assignment1) {
			p.computeLinearMicroFormations(fplan, droneID, pixel1, pixel2)
		} else {
			if err := p.computeEarliestAvailableMicroFormations(fplan, droneID, pixel2, pixel2ID, earliestAvailable[droneID]); err != nil {
				return err
			}
		}
	}

	for _, droneID := range p.findUnassignedDroneIDs(assignment2) {
		p.computeGoDarkMicroFormations(fplan, droneID, formation1[droneID].Pixel())
	}

	return nil
}

// computeEarliestAvailableMicroFormations flies a newly recruited hopping
// drone, hidden, from where it stood at the start of the earliest edge in
// parentIDList toward pixel2, moving at most the per-micro-frame share of
// MaxDroneFlightDistancePerFrame each micro-frame and holding at pixel2 once
// it arrives; it takes pixel2's color only on the very last micro-frame.
// parentIDList is the chain of frame
// ids from that earliest edge's frame1 through the current edge's frame2,
// inclusive (see SPEC_FULL.md §5.1).
func (p *Planner) computeEarliestAvailableMicroFormations(fplan *FormationPlan, droneID int, pixel2 Pixel, pixel2ID int, parentIDList []int) error {
	fplan.Assignment2[pixel2ID] = -1 // drone_id must look unassigned to its own earlier edges while we rebuild them

	if len(parentIDList) < 2 {
		return wrapInvariant("earliest available micro formation: parent id list too short for drone %d", droneID)
	}
	flightTimeStep := len(parentIDList) - 1

	firstFplan := p.cfPlan.Get(parentIDList[0], parentIDList[1])
	firstPos := firstFplan.Formation1[droneID].Pos

	dist := firstPos.Distance(pixel2.Pos)
	maxDist := MaxDroneFlightDistancePerFrame * float64(flightTimeStep)
	if dist > maxDist {
		return wrapInfeasible("drone %d cannot cover %.2f within %d frame(s) (cap %.2f)", droneID, dist, flightTimeStep, maxDist)
	}

	maxPerMicroFrame := MaxDroneFlightDistancePerFrame / float64(p.microFrameNum)

	currentPos := firstPos
	for i := 0; i < flightTimeStep; i++ {
		tmpFplan := p.cfPlan.Get(parentIDList[i], parentIDList[i+1])
		if i > 0 {
			tmpFplan.Formation1 = p.cfPlan.Get(parentIDList[i-1], parentIDList[i]).Formation2()
		}

		for microFrameID := 0; microFrameID < p.microFrameNum; microFrameID++ {
			if !currentPos.Equal(pixel2.Pos) {
				d := currentPos.Distance(pixel2.Pos)
				if d > maxPerMicroFrame {
					dx := (pixel2.Pos.X - currentPos.X) * maxPerMicroFrame / d
					dy := (pixel2.Pos.Y - currentPos.Y) * maxPerMicroFrame / d
					dz := (pixel2.Pos.Z - currentPos.Z) * maxPerMicroFrame / d
					currentPos = currentPos.Translated(dx, dy, dz)
				} else {
					currentPos = pixel2.Pos
				}
			}
			color := ColorHidden
			if i == flightTimeStep-1 && microFrameID == p.microFrameNum-1 {
				color = pixel2.Color
			}
			tmpFplan.MicroFormations[microFrameID][droneID] = DroneState{Pos: currentPos, Color: color}
		}
	}

	fplan.Assignment2[pixel2ID] = droneID
	return nil
}

// computeLinearMicroFormations flies an already-tracking drone in a straight
// line from pixel1 to pixel2 over the edge's micro-frames.
func (p *Planner) computeLinearMicroFormations(fplan *FormationPlan, droneID int, pixel1, pixel2 Pixel) {
	for microFrameID := 0; microFrameID < p.microFrameNum; microFrameID++ {
		var pos Pos3D
		var color Color
		if microFrameID == p.microFrameNum-1 {
			pos, color = pixel2.Pos, pixel2.Color
		} else {
			frac := float64(microFrameID+1) / float64(p.microFrameNum)
			pos = NewPos3D(
				pixel1.Pos.X+(pixel2.Pos.X-pixel1.Pos.X)*frac,
				pixel1.Pos.Y+(pixel2.Pos.Y-pixel1.Pos.Y)*frac,
				pixel1.Pos.Z+(pixel2.Pos.Z-pixel1.Pos.Z)*frac,
			)
			color = pixel1.Color
		}
		fplan.MicroFormations[microFrameID][droneID] = DroneState{Pos: pos, Color: color}
	}
}

// computeGoDarkMicroFormations parks a drone that stays unassigned through
// this whole edge in place, hidden.
func (p *Planner) computeGoDarkMicroFormations(fplan *FormationPlan, droneID int, pixel1 Pixel) {
	for microFrameID := 0; microFrameID < p.microFrameNum; microFrameID++ {
		fplan.MicroFormations[microFrameID][droneID] = DroneState{Pos: pixel1.Pos, Color: ColorHidden}
	}
}

// findUnassignedDroneIDs returns every drone id (in ascending order) that
// does not appear anywhere in assignment2.
func (p *Planner) findUnassignedDroneIDs(assignment2 DroneAssignment) []int {
	assigned := make([]bool, p.droneNum)
	for _, droneID := range assignment2 {
		if droneID >= 0 {
			assigned[droneID] = true
		}
	}
	var out []int
	for droneID := 0; droneID < p.droneNum; droneID++ {
		if !assigned[droneID] {
			out = append(out, droneID)
		}
	}
	return out
}

// findRandomEarliestAvailableDroneID draws an index into unassigned,
// weighted inversely by each candidate's average distance-per-flight-step
// to pixelPos: drones that can cover the ground more slowly (more edges to
// spread the flight over, or already closer) are more likely to be picked.
func (p *Planner) findRandomEarliestAvailableDroneID(pixelPos Pos3D, formation1 Formation, unassigned []int, earliestAvailable map[int][]int) (int, error) {
	if len(unassigned) == 0 {
		return 0, wrapInvariant("no unassigned drone left for the pixel at (%.2f, %.2f, %.2f)", pixelPos.X, pixelPos.Y, pixelPos.Z)
	}
	weights := make([]float64, len(unassigned))
	for i, droneID := range unassigned {
		pos := formation1[droneID].Pos
		flightTimeStep := len(earliestAvailable[droneID]) - 1
		if flightTimeStep <= 0 {
			return 0, wrapInvariant("drone %d has no earliest-available flight window", droneID)
		}
		avgDistance := pixelPos.Distance(pos) / float64(flightTimeStep)
		weights[i] = 1.0 / (avgDistance + Epsilon)
	}
	return p.rng.WeightedIndex(weights), nil
}

// findEarliestAvailableFrameID walks up the chain of already-computed
// ancestor edges (in this same DFS) to find the edge where droneID was last
// given a real assignment, returning the frame ids from there down through
// the current edge's frame2, inclusive.
func (p *Planner) findEarliestAvailableFrameID(fplan *FormationPlan, droneID int) ([]int, error) {
	var list []int
	if err := p.findEarliestAvailableFrameIDRec(&list, fplan, droneID); err != nil {
		return nil, err
	}
	for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
		list[i], list[j] = list[j], list[i]
	}
	return list, nil
}

func (p *Planner) findEarliestAvailableFrameIDRec(list *[]int, fplan *FormationPlan, droneID int) error {
	if isDroneAssigned(droneID, fplan.Assignment2) {
		return nil
	}
	frame1ID := fplan.Frame1ID
	*list = append(*list, frame1ID)

	if !p.frameTree.HasParent(frame1ID) {
		return nil
	}
	parentID := p.frameTree.ParentFrameID(frame1ID)
	if !p.cfPlan.Exists(parentID, frame1ID) {
		return wrapInvariant("earliest available frame lookup: missing ancestor plan %d->%d", parentID, frame1ID)
	}
	return p.findEarliestAvailableFrameIDRec(list, p.cfPlan.Get(parentID, frame1ID), droneID)
}

// isDroneAssigned reports whether droneID appears anywhere in assignment.
func isDroneAssigned(droneID int, assignment DroneAssignment) bool {
	for _, d := range assignment {
		if d == droneID {
			return true
		}
	}
	return false
}
