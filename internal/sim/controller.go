package sim

// MaxMicroFrameNum is the upper bound a GameController/Simulator's configured
// micro-frame count must stay under.
const MaxMicroFrameNum = 100

// InitFrameTreeLength is how many generations of the upstream gun/bullet
// process a freshly reset controller unrolls into the first frame tree on
// top of the root's own first generation.
const InitFrameTreeLength = 20

// GameController owns the upstream GameStateTree that the gun/bullet process
// advances independently of drone planning, and derives FrameTrees from it:
// one single-generation tree per terminal game state every time the
// currently-playing game state is consumed, and an initial one
// InitFrameTreeLength+1 generations deep at reset.
type GameController struct {
	microFrameNum              int
	simStepCount               int
	nextGameStateID            int
	nextDecisionVariableID     int
	pixelTrajectoryTrackingNum int
	decisionVars               map[int]DecisionVariable
	tree                       *GameStateTree
	trajectory                 []Pos3D
}

// NewGameController builds and resets a controller against the given gun
// trajectory (already perturbed by the caller's seeded RNG, or the canonical
// unperturbed one for tests).
func NewGameController(microFrameNum int, trajectory []Pos3D) *GameController {
	c := &GameController{microFrameNum: microFrameNum}
	c.Reset(trajectory)
	return c
}

// Reset rebuilds the game-state tree down to a single root state and
// recomputes the tracking-pixel count from that root's rendered frame.
func (c *GameController) Reset(trajectory []Pos3D) {
	c.simStepCount = 0
	c.nextGameStateID = 0
	c.nextDecisionVariableID = 0
	c.decisionVars = map[int]DecisionVariable{}
	c.trajectory = trajectory

	c.tree = NewGameStateTree()
	root := GameState{ID: c.mintGameStateID()}
	c.tree.AddState(root)
	c.tree.SetRootStateID(root.ID)
	c.pixelTrajectoryTrackingNum = root.MakeFrame(c.trajectory).Size()
}

func (c *GameController) mintGameStateID() int {
	id := c.nextGameStateID
	c.nextGameStateID++
	return id
}

// NextStep advances the sim-step counter; the game-state tree itself only
// changes when RemoveFirstGameState is called.
func (c *GameController) NextStep() { c.simStepCount++ }

// Size returns the number of game states currently held.
func (c *GameController) Size() int { return c.tree.Size() }

// PixelTrajectoryTrackingNum returns the pixel count of the root game
// state's rendered frame, the number of "tracking" pixels every formation
// plan keeps on the same drone across edges.
func (c *GameController) PixelTrajectoryTrackingNum() int { return c.pixelTrajectoryTrackingNum }

// GetInitFrameTree returns a FrameTree rooted at the current game state,
// unrolled one generation and then InitFrameTreeLength more.
func (c *GameController) GetInitFrameTree() (*FrameTree, error) {
	tree := NewFrameTree()
	if err := c.makeFrameTree(tree, c.tree.RootStateID()); err != nil {
		return nil, err
	}
	for i := 0; i < InitFrameTreeLength; i++ {
		if err := c.extendFrameTree(tree); err != nil {
			return nil, err
		}
	}
	return tree, nil
}

// GetNewFrameTrees returns one single-generation FrameTree per currently
// terminal game state, but only on the sim step where the simulator's
// micro-frame counter is about to roll over; every other step it returns
// nothing, since the existing frame buffer still has enough depth queued.
func (c *GameController) GetNewFrameTrees() ([]*FrameTree, error) {
	if c.simStepCount%c.microFrameNum != c.microFrameNum-1 {
		return nil, nil
	}
	var out []*FrameTree
	for _, stateID := range c.tree.TerminalStateIDs() {
		tree := NewFrameTree()
		if err := c.makeFrameTree(tree, stateID); err != nil {
			return nil, err
		}
		out = append(out, tree)
	}
	return out, nil
}

// RemoveFirstGameState pops the game-state tree's root, committing to
// whichever branch (if any) was taken.
func (c *GameController) RemoveFirstGameState() {
	c.tree.PopFront()
}

// makeFrameTree renders stateID's frame as the new tree's root, then
// generates its successor state(s) (branching at a decision state) and adds
// each as a child exactly one level down, growing both the game-state tree
// and the frame tree in lockstep.
func (c *GameController) makeFrameTree(tree *FrameTree, stateID int) error {
	state := c.tree.State(stateID)
	frame1 := state.MakeFrame(c.trajectory)
	if err := tree.AddFrame(frame1); err != nil {
		return err
	}
	tree.SetRootFrameID(frame1.ID)

	if state.IsDecisionState() {
		dv := state.NewDecisionVariable(c.mintDecisionVariableID())
		c.decisionVars[dv.ID] = dv
		c.tree.SetDecisionVariable(state.ID, dv)
		if err := tree.SetDecisionVariable(frame1.ID, dv); err != nil {
			return err
		}
		for option, nextState := range state.NextStates(&c.nextGameStateID) {
			frame2 := nextState.MakeFrame(c.trajectory)
			c.tree.AddState(nextState)
			if err := tree.AddFrame(frame2); err != nil {
				return err
			}
			c.tree.AddChildID(state.ID, option, nextState.ID)
			if err := tree.AddChildID(frame1.ID, option, frame2.ID); err != nil {
				return err
			}
		}
	} else {
		nextState := state.NextState(&c.nextGameStateID)
		frame2 := nextState.MakeFrame(c.trajectory)
		c.tree.AddState(nextState)
		if err := tree.AddFrame(frame2); err != nil {
			return err
		}
		c.tree.AddUniqueChildID(state.ID, nextState.ID)
		if err := tree.AddUniqueChildID(frame1.ID, frame2.ID); err != nil {
			return err
		}
	}
	return nil
}

func (c *GameController) mintDecisionVariableID() int {
	id := c.nextDecisionVariableID
	c.nextDecisionVariableID++
	return id
}

// extendFrameTree grows tree by one more generation at every current
// terminal frame, generated against the game-state tree (which is extended
// the same way as a side effect of makeFrameTree).
func (c *GameController) extendFrameTree(tree *FrameTree) error {
	for _, stateID := range c.tree.TerminalStateIDs() {
		sub := NewFrameTree()
		if err := c.makeFrameTree(sub, stateID); err != nil {
			return err
		}
		if err := tree.AttachSubtreeToTerminal(sub, sub.RootFrameID()); err != nil {
			return err
		}
	}
	return nil
}
