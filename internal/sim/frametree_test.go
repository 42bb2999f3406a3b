package sim

import "testing"

// buildLinearTree returns a 3-frame non-branching chain: 0 -> 1 -> 2.
func buildLinearTree(t *testing.T) *FrameTree {
	t.Helper()
	tree := NewFrameTree()
	for _, id := range []int{0, 1, 2} {
		if err := tree.AddFrame(NewFrame(id)); err != nil {
			t.Fatalf("AddFrame(%d): %v", id, err)
		}
	}
	tree.SetRootFrameID(0)
	if err := tree.AddUniqueChildID(0, 1); err != nil {
		t.Fatalf("AddUniqueChildID(0,1): %v", err)
	}
	if err := tree.AddUniqueChildID(1, 2); err != nil {
		t.Fatalf("AddUniqueChildID(1,2): %v", err)
	}
	return tree
}

func TestFrameTree_LinearChainIsValid(t *testing.T) {
	tree := buildLinearTree(t)
	if !tree.IsValid() {
		t.Fatalf("expected a linear 3-frame chain to be valid")
	}
	if tree.Size() != 3 {
		t.Fatalf("expected size 3, got %d", tree.Size())
	}
}

func TestFrameTree_AddFrameRejectsDuplicateID(t *testing.T) {
	tree := NewFrameTree()
	if err := tree.AddFrame(NewFrame(5)); err != nil {
		t.Fatalf("first AddFrame: %v", err)
	}
	if err := tree.AddFrame(NewFrame(5)); err == nil {
		t.Fatalf("expected an error inserting a duplicate frame id")
	}
}

func TestFrameTree_AddChildIDRejectsDuplicateOption(t *testing.T) {
	tree := NewFrameTree()
	for _, id := range []int{0, 1, 2} {
		if err := tree.AddFrame(NewFrame(id)); err != nil {
			t.Fatalf("AddFrame(%d): %v", id, err)
		}
	}
	tree.SetRootFrameID(0)
	if err := tree.AddChildID(0, 1, 1); err != nil {
		t.Fatalf("AddChildID(0,1,1): %v", err)
	}
	if err := tree.AddChildID(0, 1, 2); err == nil {
		t.Fatalf("expected an error reusing option 1 on frame 0")
	}
}

func TestFrameTree_PopFrontNonDecisionAdvancesRoot(t *testing.T) {
	tree := buildLinearTree(t)
	if err := tree.PopFront(); err != nil {
		t.Fatalf("PopFront: %v", err)
	}
	if tree.RootFrameID() != 1 {
		t.Fatalf("expected new root 1, got %d", tree.RootFrameID())
	}
	if tree.FrameExists(0) {
		t.Fatalf("frame 0 should have been discarded")
	}
	if !tree.IsValid() {
		t.Fatalf("tree should remain valid after pop_front")
	}
}

// TestFrameTree_PopFrontDecisionDiscardsNonDefaultBranch covers S2's
// invariant directly at the data-structure level: pop_front on a decision
// frame must keep only the default option's subtree and delete every sibling
// branch entirely, not just detach it.
func TestFrameTree_PopFrontDecisionDiscardsNonDefaultBranch(t *testing.T) {
	tree := NewFrameTree()
	for _, id := range []int{0, 1, 2, 3} {
		if err := tree.AddFrame(NewFrame(id)); err != nil {
			t.Fatalf("AddFrame(%d): %v", id, err)
		}
	}
	tree.SetRootFrameID(0)
	dv, err := NewDecisionVariable(99, []int{0, 1}, 1)
	if err != nil {
		t.Fatalf("NewDecisionVariable: %v", err)
	}
	if err := tree.SetDecisionVariable(0, dv); err != nil {
		t.Fatalf("SetDecisionVariable: %v", err)
	}
	if err := tree.AddChildID(0, 0, 1); err != nil {
		t.Fatalf("AddChildID(0,0,1): %v", err)
	}
	if err := tree.AddChildID(0, 1, 2); err != nil {
		t.Fatalf("AddChildID(0,1,2): %v", err)
	}
	if err := tree.AddUniqueChildID(2, 3); err != nil {
		t.Fatalf("AddUniqueChildID(2,3): %v", err)
	}

	if err := tree.PopFront(); err != nil {
		t.Fatalf("PopFront: %v", err)
	}
	if tree.RootFrameID() != 2 {
		t.Fatalf("expected the default option's child (2) to become root, got %d", tree.RootFrameID())
	}
	if tree.FrameExists(1) {
		t.Fatalf("non-default branch frame 1 should have been deleted, not just detached")
	}
	if !tree.FrameExists(3) {
		t.Fatalf("default branch's descendant frame 3 should have survived")
	}
	if !tree.IsValid() {
		t.Fatalf("tree should remain valid after a decision pop_front")
	}
}

func TestFrameTree_AttachSubtreeToTerminalRejectsNonTerminal(t *testing.T) {
	tree := buildLinearTree(t)
	sub := NewFrameTree()
	if err := sub.AddFrame(NewFrame(1)); err != nil {
		t.Fatalf("AddFrame: %v", err)
	}
	sub.SetRootFrameID(1)

	if err := tree.AttachSubtreeToTerminal(sub, 1); err == nil {
		t.Fatalf("expected an error attaching to a non-terminal frame")
	}
}

func TestFrameTree_AttachSubtreeToTerminalGrowsTheTree(t *testing.T) {
	tree := buildLinearTree(t)
	sub := NewFrameTree()
	if err := sub.AddFrame(NewFrame(2)); err != nil {
		t.Fatalf("AddFrame(2): %v", err)
	}
	if err := sub.AddFrame(NewFrame(3)); err != nil {
		t.Fatalf("AddFrame(3): %v", err)
	}
	sub.SetRootFrameID(2)
	if err := sub.AddUniqueChildID(2, 3); err != nil {
		t.Fatalf("AddUniqueChildID(2,3): %v", err)
	}

	if err := tree.AttachSubtreeToTerminal(sub, 2); err != nil {
		t.Fatalf("AttachSubtreeToTerminal: %v", err)
	}
	if tree.Size() != 4 {
		t.Fatalf("expected size 4 after attach, got %d", tree.Size())
	}
	if tree.IsTerminalFrame(2) {
		t.Fatalf("frame 2 should no longer be terminal")
	}
	if !tree.IsValid() {
		t.Fatalf("tree should remain valid after attach")
	}
}

func TestFrameTree_DeleteSubtreeRemovesEveryDescendant(t *testing.T) {
	tree := buildLinearTree(t)
	if err := tree.DeleteSubtree(1); err != nil {
		t.Fatalf("DeleteSubtree: %v", err)
	}
	if tree.FrameExists(1) || tree.FrameExists(2) {
		t.Fatalf("frames 1 and 2 should both be gone")
	}
	if !tree.IsTerminalFrame(0) {
		t.Fatalf("frame 0 should be terminal after its subtree is deleted")
	}
	if !tree.IsValid() {
		t.Fatalf("tree should remain valid after delete_subtree")
	}
}
