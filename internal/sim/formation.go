package sim

// DroneState is one drone's instantaneous position and color. IsHidden
// derives from color so the two never drift out of sync.
type DroneState struct {
	Pos   Pos3D
	Color Color
}

// IsHidden reports whether this drone should be invisible to the renderer.
func (d DroneState) IsHidden() bool {
	return d.Color == ColorHidden
}

// Pixel returns the drone's state as a Pixel.
func (d DroneState) Pixel() Pixel {
	return Pixel{Pos: d.Pos, Color: d.Color}
}

// Formation is the whole fleet's state at one instant, indexed by drone id.
type Formation []DroneState

// DroneAssignment maps a frame's pixel index to the drone id tracking it,
// or -1 for "not yet assigned" during construction.
type DroneAssignment []int

// Unassigned reports whether any -1 remains in the assignment.
func (a DroneAssignment) Unassigned() bool {
	for _, d := range a {
		if d == -1 {
			return true
		}
	}
	return false
}

// MakeFrame projects a formation into a Frame of the given id, one pixel per
// drone, in drone-id order.
func (f Formation) MakeFrame(id int) Frame {
	frame := NewFrame(id)
	for _, d := range f {
		frame.AddPixel(d.Pixel())
	}
	return frame
}

// FormationPlan is the per-parent-to-child-edge trajectory plan: the drone
// states at the edge's start and end, the intermediate micro-formations
// between them, and the endpoint assignments.
type FormationPlan struct {
	Frame1ID, Frame2ID int
	Formation1         Formation
	MicroFormations    []Formation
	Assignment1        DroneAssignment
	Assignment2        DroneAssignment
}

// NewFormationPlan returns an empty plan for the edge frame1 -> frame2.
func NewFormationPlan(frame1, frame2 int) FormationPlan {
	return FormationPlan{Frame1ID: frame1, Frame2ID: frame2}
}

// Formation2 returns the formation at the end of the edge: the last
// micro-formation.
func (p FormationPlan) Formation2() Formation {
	return p.MicroFormations[len(p.MicroFormations)-1]
}

// MicroFormation returns the i-th intermediate formation.
func (p FormationPlan) MicroFormation(i int) Formation {
	return p.MicroFormations[i]
}

// ContingencyFormationPlan is a sparse map keyed by directed edge
// (frame1Id, frame2Id). Emplace inserts an empty plan; inserting twice for
// the same edge is a bug (the planner's DFS never revisits an edge). Plans
// are stored by pointer — the planner mutates a plan in place across several
// steps while it is already reachable from ancestor edges' lookups, the same
// reference-into-the-arena pattern the original gets from C++ map references.
type ContingencyFormationPlan struct {
	plans map[int]map[int]*FormationPlan
}

// NewContingencyFormationPlan returns an empty contingency plan.
func NewContingencyFormationPlan() *ContingencyFormationPlan {
	return &ContingencyFormationPlan{plans: map[int]map[int]*FormationPlan{}}
}

// Clear empties the plan.
func (c *ContingencyFormationPlan) Clear() {
	c.plans = map[int]map[int]*FormationPlan{}
}

// Exists reports whether an edge already has a plan.
func (c *ContingencyFormationPlan) Exists(frame1, frame2 int) bool {
	m, ok := c.plans[frame1]
	if !ok {
		return false
	}
	_, ok = m[frame2]
	return ok
}

// Get returns the plan for an edge. Panics if it does not exist.
func (c *ContingencyFormationPlan) Get(frame1, frame2 int) *FormationPlan {
	p, ok := c.plans[frame1][frame2]
	if !ok {
		panic("contingency plan: no plan for edge")
	}
	return p
}

// Emplace inserts an empty plan for frame1 -> frame2 and returns it. Returns
// ErrInvariantViolation if the edge is already planned.
func (c *ContingencyFormationPlan) Emplace(frame1, frame2 int) (*FormationPlan, error) {
	if c.Exists(frame1, frame2) {
		return nil, wrapInvariant("formation plan for edge %d->%d already exists", frame1, frame2)
	}
	if c.plans[frame1] == nil {
		c.plans[frame1] = map[int]*FormationPlan{}
	}
	p := NewFormationPlan(frame1, frame2)
	c.plans[frame1][frame2] = &p
	return c.plans[frame1][frame2], nil
}

// Edges returns every (frame1, frame2) pair with a stored plan, for tests
// that want to walk the whole contingency plan.
func (c *ContingencyFormationPlan) Edges() [][2]int {
	var out [][2]int
	for f1, m := range c.plans {
		for f2 := range m {
			out = append(out, [2]int{f1, f2})
		}
	}
	return out
}
