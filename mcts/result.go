package mcts

import (
	"math"

	"golang.org/x/exp/rand"

	"github.com/dama-zero/engine/board"
)

// BestChild returns the move and child index the search judges best at
// idx: a ProvenLoss child (forced win) takes absolute priority, then the
// most-visited unsolved or ProvenDraw child, skipping ProvenWin children
// (losses for idx's mover) whenever any alternative exists (spec §4.7,
// §4.9).
func (t *Tree) BestChild(idx Naughty) (board.Move, Naughty, bool) {
	n := t.Node(idx)
	children := t.Children(n.children, n.NumChildren())
	if len(children) == 0 {
		return board.Move{}, NilNode, false
	}

	for _, kid := range children {
		if t.Node(kid).Solver() == ProvenLoss {
			return t.Node(kid).Move(), kid, true
		}
	}

	var best Naughty = NilNode
	var bestVisits uint32
	for _, kid := range children {
		c := t.Node(kid)
		if c.Solver() == ProvenWin && len(children) > 1 {
			continue
		}
		if best == NilNode || c.Visits() > bestVisits {
			best = kid
			bestVisits = c.Visits()
		}
	}
	if best == NilNode {
		best = children[0]
	}
	return t.Node(best).Move(), best, true
}

// VisitDistribution returns the visit-count-proportional policy over
// idx's children, tempered by 1/temperature (temperature=1 is the raw
// proportion; temperature→0 approaches one-hot on the most-visited
// child), for callers that want the MCTS-improved policy rather than
// just the single best move (spec §4.9's "training-adjacent" hook, and
// SPEC_FULL.md's Supplement section).
func (t *Tree) VisitDistribution(idx Naughty, temperature float32) []float32 {
	n := t.Node(idx)
	children := t.Children(n.children, n.NumChildren())
	out := make([]float32, len(children))
	if len(children) == 0 {
		return out
	}
	if temperature <= 1e-3 {
		var best int
		var bestVisits uint32
		for i, kid := range children {
			if v := t.Node(kid).Visits(); v > bestVisits {
				bestVisits = v
				best = i
			}
		}
		out[best] = 1
		return out
	}

	var total float64
	exp := float64(1) / float64(temperature)
	raw := make([]float64, len(children))
	for i, kid := range children {
		v := float64(t.Node(kid).Visits())
		if v <= 0 {
			continue
		}
		raw[i] = math.Pow(v, exp)
		total += raw[i]
	}
	if total == 0 {
		u := float32(1) / float32(len(children))
		for i := range out {
			out[i] = u
		}
		return out
	}
	for i := range out {
		out[i] = float32(raw[i] / total)
	}
	return out
}

// SampleChild draws one of idx's children with probability
// VisitDistribution(idx, temperature), the opening-diversity supplement
// (SPEC_FULL.md) that lets early-game play vary across self-play games
// instead of always taking BestChild's single most-visited line.
func (t *Tree) SampleChild(idx Naughty, temperature float32, rng *rand.Rand) (board.Move, Naughty, bool) {
	n := t.Node(idx)
	children := t.Children(n.children, n.NumChildren())
	if len(children) == 0 {
		return board.Move{}, NilNode, false
	}
	dist := t.VisitDistribution(idx, temperature)

	r := rng.Float32()
	var acc float32
	for i, p := range dist {
		acc += p
		if r <= acc {
			return t.Node(children[i]).Move(), children[i], true
		}
	}
	last := children[len(children)-1]
	return t.Node(last).Move(), last, true
}
