package mcts

import "github.com/dama-zero/engine/board"

// Evaluator scores a leaf position, returning a policy over its legal
// moves (board.Generate order) and a value from the position's own
// side-to-move perspective (spec §4.6, §6). search.RolloutEvaluator and
// search.BatcherEvaluator adapt Rollout and the CNN batcher to this
// signature.
type Evaluator func(s *board.State) Evaluation

// Simulate runs one full MCTS iteration starting at idx: select down to
// a leaf (applying Virtual Loss along the way), expand it if it was not
// already expanded, evaluate it, and backpropagate the result (spec
// §4.4-§4.7). It is safe to call concurrently from many worker
// goroutines sharing the same Tree.
func (t *Tree) Simulate(idx Naughty, eval Evaluator) {
	path := t.Select(idx)
	leaf := t.Node(path[len(path)-1])

	if leaf.IsTerminal() || leaf.Solver() != Unsolved {
		t.Backpropagate(path, terminalOrSolvedValue(leaf))
		return
	}

	value, _ := t.Expand(path[len(path)-1], func(s *board.State) Evaluation {
		return eval(s)
	})
	t.Backpropagate(path, value)
}

// terminalOrSolvedValue resolves a leaf that is already known-terminal
// or solver-proven to a value in [-1,1] from its own side-to-move
// perspective, without re-running generation or evaluation.
func terminalOrSolvedValue(leaf *Node) float32 {
	switch leaf.Solver() {
	case ProvenWin:
		return 1
	case ProvenLoss:
		return -1
	case ProvenDraw:
		return 0
	}
	return terminalValue(leaf.State(), leaf.State().Side)
}
