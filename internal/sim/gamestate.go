package sim

import "github.com/chiuau/spicomp/internal/rng"

// BulletJumpDistance is the z-distance a fired bullet advances per game
// step before being dropped.
const BulletJumpDistance = 50.0

// BulletMaxDistance is the z-distance at which a bullet is dropped.
const BulletMaxDistance = 600.0

// GunTrajectory returns the fixed list of points the gun cycles through, a
// perturbed square loop in the z=0 plane. The canonical (un-perturbed) loop
// is translated by a uniform-random offset in [-100, 100]^2 per point, drawn
// from the shared seeded adapter — fixing the original's bug of using an
// independent, unseeded std::random_device for this step (see SPEC_FULL.md
// §4): two simulators built from the same seed now reproduce the same
// trajectory, closing determinism end-to-end. Tests that need a reproducible
// but un-perturbed trajectory should call CanonicalGunTrajectory directly.
func GunTrajectory(r *rng.Source) []Pos3D {
	trajectory := CanonicalGunTrajectory()
	out := make([]Pos3D, len(trajectory))
	for i, p := range trajectory {
		dx := r.UniformRange(-100.0, 100.0)
		dy := r.UniformRange(-100.0, 100.0)
		out[i] = p.Translated(dx, dy, 0.0)
	}
	return out
}

// CanonicalGunTrajectory returns the un-perturbed square loop, used by tests
// that want to inject a known trajectory (per spec.md §9's note that tests
// should inject a trajectory to avoid randomness pitfalls).
func CanonicalGunTrajectory() []Pos3D {
	return []Pos3D{
		NewPos3D(0, -200, 0), NewPos3D(200, -200, 0), NewPos3D(200, 0, 0),
		NewPos3D(200, 200, 0), NewPos3D(0, 200, 0), NewPos3D(-200, 200, 0),
		NewPos3D(-200, 0, 0),

		NewPos3D(0, -200, 0), NewPos3D(200, -200, 0), NewPos3D(200, 0, 0),
		NewPos3D(0, 200, 0), NewPos3D(-200, 200, 0), NewPos3D(-200, 0, 0),
		NewPos3D(-200, -200, 0),

		NewPos3D(0, -200, 0), NewPos3D(200, -200, 0), NewPos3D(200, 0, 0),
		NewPos3D(0, 200, 0), NewPos3D(-200, 200, 0), NewPos3D(-200, 0, 0),
		NewPos3D(-200, -200, 0),
	}
}

// GameState is one step of the upstream gun/bullet process: a position
// index into the gun trajectory, a power-level cycle of period 4, and the
// set of live bullets. A state is a decision state iff power_level_id == 2,
// the moment the simulator must branch on whether a bullet is fired.
type GameState struct {
	ID           int
	PosID        int
	PowerLevelID int
	Bullets      []Pos3D
}

// IsDecisionState reports whether this state branches into two possible
// successors.
func (g GameState) IsDecisionState() bool {
	return g.PowerLevelID == 2
}

// NewDecisionVariable returns the {0,1} decision variable for this state,
// tagged with the given id. Option 1 ("fire") is always the default.
func (g GameState) NewDecisionVariable(id int) DecisionVariable {
	dv, err := NewDecisionVariable(id, []int{0, 1}, 1)
	if err != nil {
		panic(err) // {0,1} with default 1 can never fail NewDecisionVariable's checks
	}
	return dv
}

// NextStates returns the two possible successor states keyed by the
// decision option (0 = no bullet fired, 1 = bullet fired), minting each new
// state's id from nextID.
func (g GameState) NextStates(nextID *int) map[int]GameState {
	nextPosID := (g.PosID + 1) % len(CanonicalGunTrajectory())
	nextPowerLevelID := (g.PowerLevelID + 1) % 4

	advanced := advanceBullets(g.Bullets)

	noFire := mintState(nextID, nextPosID, nextPowerLevelID, advanced)

	trajectory := CanonicalGunTrajectory()
	newBulletPos := trajectory[nextPosID].Translated(50.0, 50.0, 125.0)
	withFire := mintState(nextID, nextPosID, nextPowerLevelID, append(append([]Pos3D(nil), advanced...), newBulletPos))

	return map[int]GameState{0: noFire, 1: withFire}
}

// NextState returns the sole successor state for a non-decision state.
func (g GameState) NextState(nextID *int) GameState {
	nextPosID := (g.PosID + 1) % len(CanonicalGunTrajectory())
	nextPowerLevelID := (g.PowerLevelID + 1) % 4
	return mintState(nextID, nextPosID, nextPowerLevelID, advanceBullets(g.Bullets))
}

func mintState(nextID *int, posID, powerLevelID int, bullets []Pos3D) GameState {
	id := *nextID
	*nextID++
	return GameState{ID: id, PosID: posID, PowerLevelID: powerLevelID, Bullets: bullets}
}

func advanceBullets(bullets []Pos3D) []Pos3D {
	var out []Pos3D
	for _, b := range bullets {
		if b.Z+BulletJumpDistance <= BulletMaxDistance {
			out = append(out, b.Translated(0, 0, BulletJumpDistance))
		} // else the bullet is dropped
	}
	return out
}

// MakeFrame emits the frame this game state targets: the 13-pixel gun
// (8 pixels at height 0, 4 at height 50, 1 at height 100; all green except
// the layer indexed by power_level_id, which is red, unless
// power_level_id == 3, when none is red), translated by the gun's current
// trajectory position, followed by two orange-red pixels per live bullet
// straddling its position by BulletJumpDistance/4.
func (g GameState) MakeFrame(trajectory []Pos3D) Frame {
	layerColor := [3]Color{ColorGreen, ColorGreen, ColorGreen}
	if g.PowerLevelID < 3 {
		layerColor[g.PowerLevelID] = ColorRed
	}

	gun := []Pixel{
		{Pos: NewPos3D(0, 0, 0), Color: layerColor[0]},
		{Pos: NewPos3D(50, 0, 0), Color: layerColor[0]},
		{Pos: NewPos3D(100, 0, 0), Color: layerColor[0]},
		{Pos: NewPos3D(0, 50, 0), Color: layerColor[0]},
		{Pos: NewPos3D(0, 100, 0), Color: layerColor[0]},
		{Pos: NewPos3D(50, 100, 0), Color: layerColor[0]},
		{Pos: NewPos3D(100, 50, 0), Color: layerColor[0]},
		{Pos: NewPos3D(100, 100, 0), Color: layerColor[0]},

		{Pos: NewPos3D(25, 25, 50), Color: layerColor[1]},
		{Pos: NewPos3D(75, 25, 50), Color: layerColor[1]},
		{Pos: NewPos3D(25, 75, 50), Color: layerColor[1]},
		{Pos: NewPos3D(75, 75, 50), Color: layerColor[1]},

		{Pos: NewPos3D(50, 50, 100), Color: layerColor[2]},
	}

	origin := trajectory[g.PosID]
	frame := NewFrame(g.ID)
	for _, p := range gun {
		frame.AddPixel(p.Translated(origin.X, origin.Y, origin.Z))
	}
	for _, b := range g.Bullets {
		frame.AddPixel(Pixel{Pos: b.Translated(0, 0, -BulletJumpDistance/4), Color: ColorOrangeRed})
		frame.AddPixel(Pixel{Pos: b.Translated(0, 0, BulletJumpDistance/4), Color: ColorOrangeRed})
	}
	return frame
}

// GameStateTree is an arena analogous to FrameTree for the upstream
// game-state generator. It needs no parent back-pointers: nothing walks it
// upward the way the planner walks the FrameTree.
type GameStateTree struct {
	root        int
	states      map[int]GameState
	decisionVar map[int]DecisionVariable
	children    map[int]map[int]int
}

// NewGameStateTree returns an empty tree.
func NewGameStateTree() *GameStateTree {
	return &GameStateTree{
		root:        -1,
		states:      map[int]GameState{},
		decisionVar: map[int]DecisionVariable{},
		children:    map[int]map[int]int{},
	}
}

func (t *GameStateTree) Empty() bool { return t.root == -1 }
func (t *GameStateTree) Size() int   { return len(t.states) }

func (t *GameStateTree) Clear() {
	t.root = -1
	t.states = map[int]GameState{}
	t.decisionVar = map[int]DecisionVariable{}
	t.children = map[int]map[int]int{}
}

func (t *GameStateTree) SetRootStateID(id int) { t.root = id }
func (t *GameStateTree) RootStateID() int      { return t.root }
func (t *GameStateTree) RootState() GameState  { return t.states[t.root] }

func (t *GameStateTree) AddState(s GameState) { t.states[s.ID] = s }
func (t *GameStateTree) State(id int) GameState {
	return t.states[id]
}

func (t *GameStateTree) SetDecisionVariable(id int, dv DecisionVariable) { t.decisionVar[id] = dv }
func (t *GameStateTree) IsDecisionState(id int) bool {
	_, ok := t.decisionVar[id]
	return ok
}
func (t *GameStateTree) DecisionVariableOf(id int) DecisionVariable { return t.decisionVar[id] }

func (t *GameStateTree) AddChildID(parent, option, child int) {
	if t.children[parent] == nil {
		t.children[parent] = map[int]int{}
	}
	t.children[parent][option] = child
}
func (t *GameStateTree) AddUniqueChildID(parent, child int) {
	t.AddChildID(parent, NilOption, child)
}
func (t *GameStateTree) ChildrenOf(id int) map[int]int { return t.children[id] }
func (t *GameStateTree) IsTerminal(id int) bool        { return len(t.children[id]) == 0 }

// TerminalStateIDs returns every state id with no children.
func (t *GameStateTree) TerminalStateIDs() []int {
	var out []int
	for id := range t.states {
		if t.IsTerminal(id) {
			out = append(out, id)
		}
	}
	return out
}

// PopFront mirrors FrameTree.PopFront: keep the default (or unique) child's
// subtree, discard the rest, and make it the new root.
func (t *GameStateTree) PopFront() {
	if t.Empty() {
		return
	}
	if t.Size() == 1 {
		t.Clear()
		return
	}
	rootID := t.root
	if t.IsDecisionState(rootID) {
		dv := t.DecisionVariableOf(rootID)
		nextID := t.children[rootID][dv.Default]
		for _, option := range dv.Domain {
			if option != dv.Default {
				t.deleteSubtree(t.children[rootID][option])
			}
		}
		delete(t.states, rootID)
		delete(t.decisionVar, rootID)
		delete(t.children, rootID)
		t.root = nextID
	} else {
		nextID := t.children[rootID][NilOption]
		delete(t.states, rootID)
		delete(t.children, rootID)
		t.root = nextID
	}
}

func (t *GameStateTree) deleteSubtree(id int) {
	if !t.IsTerminal(id) {
		for _, childID := range t.ChildrenOf(id) {
			t.deleteSubtree(childID)
		}
	}
	delete(t.states, id)
	delete(t.decisionVar, id)
	delete(t.children, id)
}
