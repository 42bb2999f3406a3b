package sim

// FrameBuffer owns the FrameTree the planner plans over and the simulator
// renders from: a thin wrapper that keeps its own step counter in lockstep
// with GameController's.
type FrameBuffer struct {
	simStepCount int
	tree         *FrameTree
}

// NewFrameBuffer returns a freshly reset buffer.
func NewFrameBuffer() *FrameBuffer {
	b := &FrameBuffer{}
	b.Reset()
	return b
}

// Reset empties the buffer's frame tree and step counter.
func (b *FrameBuffer) Reset() {
	b.simStepCount = 0
	b.tree = NewFrameTree()
}

// NextStep advances the buffer's step counter.
func (b *FrameBuffer) NextStep() { b.simStepCount++ }

// Size returns the number of frames currently buffered.
func (b *FrameBuffer) Size() int { return b.tree.Size() }

// FrameTree returns the buffer's underlying tree.
func (b *FrameBuffer) FrameTree() *FrameTree { return b.tree }

// SetFrameTree replaces the buffer's tree outright, used once at reset.
func (b *FrameBuffer) SetFrameTree(tree *FrameTree) { b.tree = tree }

// AttachFrameTree grafts newTree onto the buffer's tree at the terminal
// frame matching newTree's root id.
func (b *FrameBuffer) AttachFrameTree(newTree *FrameTree) error {
	return b.tree.AttachSubtreeToTerminal(newTree, newTree.RootFrameID())
}

// RemoveFirstFrame pops the buffer's tree root, committing to whichever
// branch was taken.
func (b *FrameBuffer) RemoveFirstFrame() error {
	return b.tree.PopFront()
}
