package mcts

import (
	"sync/atomic"

	"github.com/dama-zero/engine/board"
)

// Evaluation is the result of evaluating a leaf, either by a CNN oracle
// or by the heuristic rollout fallback (spec §4.6, §6).
type Evaluation struct {
	// Policy holds a prior probability per legal move, in the same order
	// as board.Generate's output. A nil Policy means "use a uniform
	// prior over legal moves" (spec §4.4's no-policy-network fallback).
	Policy []float32
	Value  float32
}

// Expand generates n's legal moves, allocates one child per move and
// publishes them under n's own lock (spec §4.4: "expansion is guarded by
// the node's mutex; idempotent — a second caller that wins the race
// observes already-published children and returns immediately"). It
// returns the evaluation's value, mapped to n's own side-to-move
// perspective, along with whether this call actually performed the
// expansion (false if another goroutine had already won the race).
func (t *Tree) Expand(idx Naughty, eval func(s *board.State) Evaluation) (value float32, didExpand bool) {
	n := t.Node(idx)
	n.Lock()
	defer n.Unlock()

	if n.HasChildren() || n.terminal {
		// QSA is stored from the parent's mover's perspective.
		return -n.QSA(), false
	}

	moves := board.Generate(&n.state)
	if len(moves) == 0 || n.state.IsDrawn() {
		n.terminal = true
		n.legalMoveCount = 0
		v := terminalValue(&n.state, n.state.Side)
		t.maybeResolveTerminal(n, v)
		return v, true
	}

	var ev Evaluation
	if reused, ok := t.reuseFromTranspositionTable(n, len(moves)); ok {
		ev = reused
	} else {
		ev = eval(&n.state)
	}
	policy := ev.Policy
	if policy == nil {
		policy = t.uniform(len(moves))
	} else {
		policy = t.normalizeTo(policy, len(moves))
	}

	n.legalMoveCount = len(moves)
	for i, m := range moves {
		next := n.state.Apply(m)
		child := t.alloc(next, m, true, idx, policy[i])
		t.appendChild(n, child)
	}
	// Release fence: numChildren is published last and read with an
	// acquire load by HasChildren/NumChildren (spec §4.4).
	atomic.StoreInt32(&n.numChildren, int32(len(moves)))

	if t.tt != nil {
		t.tt.Store(n.state.Hash, n.state, idx, func(other Naughty) uint32 { return t.Node(other).Visits() })
	}

	return ev.Value, true
}

// reuseFromTranspositionTable looks up another node already expanded at
// the same Zobrist hash and, if its children count matches the legal
// move count just generated here (board.Generate is deterministic for a
// given position, so transposed arrivals produce children in the same
// order barring a Zobrist collision), reuses its priors and value
// estimate instead of paying for a second CNN/rollout evaluation — the
// transposition-table reuse named in spec §4.4/§9.
func (t *Tree) reuseFromTranspositionTable(n *Node, numMoves int) (Evaluation, bool) {
	if t.tt == nil {
		return Evaluation{}, false
	}
	other, ok := t.tt.Probe(n.state.Hash, n.state)
	if !ok {
		return Evaluation{}, false
	}
	src := t.Node(other)
	if !src.HasChildren() || src.NumChildren() != numMoves {
		return Evaluation{}, false
	}
	policy := t.scratchFloats(numMoves)
	for i, kid := range t.Children(src.children, src.NumChildren()) {
		policy[i] = t.Node(kid).PSA()
	}
	return Evaluation{Policy: policy, Value: -src.QSA()}, true
}

// scratchFloats returns a zeroed []float32 of length n, backed by the
// tree's aux arena when one is wired in (spec §4.3's per-simulation
// scratch allocation) and falling back to a heap make() otherwise — the
// arena is a pure optimization, so its absence or exhaustion degrades
// rather than breaks expansion (spec §7).
func (t *Tree) scratchFloats(n int) []float32 {
	if t.aux != nil {
		if buf, err := t.aux.AllocFloat32(n); err == nil {
			return buf
		}
	}
	return make([]float32, n)
}

func (t *Tree) uniform(n int) []float32 {
	p := t.scratchFloats(n)
	v := float32(1) / float32(n)
	for i := range p {
		p[i] = v
	}
	return p
}

// normalizeTo renormalizes a policy vector whose first n entries are the
// priors of the n legal moves in board.Generate order (negative entries
// are clamped to zero), falling back to uniform if the provided slice is
// short or sums to zero.
func (t *Tree) normalizeTo(raw []float32, n int) []float32 {
	if len(raw) < n {
		return t.uniform(n)
	}
	out := t.scratchFloats(n)
	var total float32
	for i := 0; i < n; i++ {
		if raw[i] < 0 {
			raw[i] = 0
		}
		out[i] = raw[i]
		total += raw[i]
	}
	if total <= 0 {
		return t.uniform(n)
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// maybeResolveTerminal marks a newly discovered terminal node's solver
// status immediately (a terminal position is trivially "fully expanded":
// it has zero legal moves by definition), satisfying the Open Question
// resolution requiring full expansion before ProvenLoss.
func (t *Tree) maybeResolveTerminal(n *Node, value float32) {
	if !t.cfg.EnableSolver {
		return
	}
	switch {
	case value > 0:
		n.SetSolver(ProvenWin)
	case value < 0:
		n.SetSolver(ProvenLoss)
	default:
		n.SetSolver(ProvenDraw)
	}
}
