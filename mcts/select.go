package mcts

import (
	"github.com/chewxy/math32"
)

// Select walks the tree from idx down to an unexpanded or terminal node,
// applying Virtual Loss to every traversed node (spec §4.5), and returns
// the full path from (but not including) the starting node's parent down
// to the selected leaf, inclusive of idx.
func (t *Tree) Select(idx Naughty) []Naughty {
	path := []Naughty{idx}
	cur := idx
	for {
		n := t.Node(cur)
		n.applyVirtualLoss()
		if n.IsTerminal() || n.Solver() != Unsolved || !n.HasChildren() {
			return path
		}
		next := t.selectChild(n)
		if next == NilNode {
			return path
		}
		cur = next
		path = append(path, cur)
	}
}

// selectChild picks the best child of n per the configured tree policy,
// skipping over any child already proven a loss for its own mover
// (equivalently a certain win for n, which a solver-aware search should
// always prefer) and treating a proven win for the child as a move to
// avoid once any unsolved or better-proven sibling exists (spec §4.7).
func (t *Tree) selectChild(n *Node) Naughty {
	children := t.Children(n.children, n.NumChildren())
	if len(children) == 0 {
		return NilNode
	}

	// A child proven to be a loss for the side to move there is a
	// forced win for n's mover: take it immediately.
	for _, kid := range children {
		if t.Node(kid).Solver() == ProvenLoss {
			return kid
		}
	}

	var parentVisits uint32
	for _, kid := range children {
		parentVisits += t.Node(kid).Visits()
	}

	var best Naughty = NilNode
	var bestScore float32 = math32.Inf(-1)
	for _, kid := range children {
		child := t.Node(kid)
		// A child already proven a win for its own mover is a loss for
		// n's mover; never select it while an alternative remains.
		if child.Solver() == ProvenWin && len(children) > 1 {
			continue
		}
		score := t.scoreChild(n, child, parentVisits)
		if score > bestScore {
			bestScore = score
			best = kid
		}
	}
	if best == NilNode {
		// Every child is a proven win for the opponent: no escape: take
		// the first so the loss still propagates up to the solver.
		best = children[0]
	}
	return best
}

func (t *Tree) scoreChild(parent, child *Node, parentVisits uint32) float32 {
	visits := child.Visits()
	if visits == 0 {
		return t.cfg.FPUValue + t.progressiveBias(child, visits)
	}

	switch t.cfg.Selection {
	case UCB1Tuned:
		return t.ucb1Tuned(child, visits, parentVisits) + t.progressiveBias(child, visits)
	default:
		return t.puct(child, visits, parentVisits) + t.progressiveBias(child, visits)
	}
}

// puct is the AlphaZero-style PUCT term: Q(s,a) + c*P(s,a)*sqrt(N(s))/(1+N(s,a)).
func (t *Tree) puct(child *Node, visits, parentVisits uint32) float32 {
	q := child.QSA()
	u := t.cfg.CPuct * child.PSA() * math32.Sqrt(float32(parentVisits)) / (1 + float32(visits))
	return q + u
}

// ucb1Tuned implements the UCB1-Tuned bound, which tightens the
// exploration term by the sample variance of the child's returns (spec
// §4.5's selection-policy alternative).
func (t *Tree) ucb1Tuned(child *Node, visits, parentVisits uint32) float32 {
	q := child.QSA()
	lnN := math32.Log(float32(parentVisits))
	n := float32(visits)
	// V_j(n): the child's real sample variance plus the correction term,
	// ceilinged at 1/4 (the maximum variance of a [-1,1]-ranged reward) —
	// the ceiling only ever bites when the computed bound itself exceeds
	// 1/4, never as a floor.
	variance := float32(child.Variance()) + math32.Sqrt(2*lnN/n)
	if variance > 0.25 {
		variance = 0.25
	}
	explore := math32.Sqrt(lnN / n * variance)
	return q + t.cfg.UCBC*explore
}

// progressiveBias adds a heuristic term that decays as the child
// accumulates real visits, steering early exploration before the
// statistics become reliable (spec §4.5, §9).
func (t *Tree) progressiveBias(child *Node, visits uint32) float32 {
	if t.cfg.ProgressiveBiasWeight == 0 {
		return 0
	}
	decay := t.cfg.ProgressiveBiasDecay
	if decay == 0 {
		decay = 1
	}
	// Heuristic scores the child position for its side to move, which is
	// the opponent of the player choosing among these children.
	h := -Heuristic(child.State(), &t.cfg.RolloutWeights)
	return t.cfg.ProgressiveBiasWeight * h / float32(1+visits/decay)
}
