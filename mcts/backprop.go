package mcts

// Backpropagate walks path from its deepest entry back to its first
// (inclusive), undoing each node's Virtual Loss and applying the real
// result, flipping the value's sign at every step (spec §4.7).
//
// leafValue is the evaluation of path's last node, from that node's own
// side-to-move's perspective (the convention the CNN oracle and Rollout
// both return). Since a node's scoreSum stores Q(parent, move-into-node)
// — the edge value from the parent's mover's perspective — the very
// first update already requires one flip relative to the raw leaf
// evaluation.
func (t *Tree) Backpropagate(path []Naughty, leafValue float32) {
	value := -leafValue
	for i := len(path) - 1; i >= 0; i-- {
		n := t.Node(path[i])
		n.undoVirtualLoss()
		n.backpropUpdate(value)
		if t.cfg.EnableSolver {
			t.propagateSolver(path[i])
		}
		value = -value
	}
}
