package mcts

// propagateSolver re-derives idx's solver status from its children, then
// stops — the caller's backprop loop is already walking from leaf to
// root, so a single-level check at each visited node is enough to
// eventually flood a forced result to the root across enough visits
// (spec §4.7, SPEC_FULL.md Open Question resolution #2).
//
// Rules (from the mover's perspective at idx):
//   - any child ProvenLoss (a loss for the opponent who moves there) ⇒
//     idx is a ProvenWin: idx's mover can force that reply.
//   - every child ProvenWin (a win for the opponent at every reply) ⇒
//     idx is a ProvenLoss, but only once idx is fully expanded: an
//     unexpanded legal move might still be a saving reply no node has
//     explored yet.
//   - every child is ProvenDraw or ProvenWin with at least one
//     ProvenDraw, none ProvenLoss, and idx is fully expanded ⇒ ProvenDraw.
func (t *Tree) propagateSolver(idx Naughty) {
	n := t.Node(idx)
	if n.Solver() != Unsolved {
		return
	}
	if !n.HasChildren() {
		return
	}

	children := t.Children(n.children, n.NumChildren())
	sawLoss := false
	sawDraw := false
	allWin := true
	for _, kid := range children {
		switch t.Node(kid).Solver() {
		case ProvenLoss:
			sawLoss = true
		case ProvenDraw:
			sawDraw = true
			allWin = false
		case ProvenWin:
			// contributes to allWin remaining true
		default:
			allWin = false
		}
	}

	switch {
	case sawLoss:
		n.SetSolver(ProvenWin)
	case allWin && n.FullyExpanded():
		n.SetSolver(ProvenLoss)
	case !sawLoss && sawDraw && n.FullyExpanded() && allChildrenDrawOrWin(t, children):
		n.SetSolver(ProvenDraw)
	}
}

func allChildrenDrawOrWin(t *Tree, children []Naughty) bool {
	for _, kid := range children {
		s := t.Node(kid).Solver()
		if s != ProvenDraw && s != ProvenWin {
			return false
		}
	}
	return true
}
