package mcts

import (
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/dama-zero/engine/arena"
	"github.com/dama-zero/engine/board"
)

// Tree owns the node pool for one search. Nodes are never individually
// freed: a whole Tree (and its backing arena) is discarded or Reset at
// once, generalizing the freelist-over-a-slice scheme in
// Elvenson-alphabeth's mcts.MCTS (spec §4.3, §4.4).
type Tree struct {
	mu   sync.RWMutex // guards growth of nodes/kids; per-node state uses Node's own lock
	cfg  Config
	aux  *arena.Arena // scratch allocations for Expand's policy-prior buffers (spec §4.3)
	nodes []Node
	kids  []Naughty // flat backing store for every node's children slice
	root Naughty
	tt   *TranspositionTable
}

// NewTree allocates a fresh tree rooted at rootState. aux backs scratch
// allocations made during expansion; it is never used to store
// Node values themselves, since Node contains a sync.Mutex and is
// therefore not safe to place in a raw byte region.
func NewTree(cfg Config, rootState board.State, aux *arena.Arena, tt *TranspositionTable) *Tree {
	t := &Tree{
		cfg:  cfg,
		aux:  aux,
		tt:   tt,
		root: NilNode,
	}
	t.nodes = make([]Node, 0, cfg.NodePoolHint)
	t.kids = make([]Naughty, 0, cfg.NodePoolHint*2)
	t.root = t.alloc(rootState, board.Move{}, false, NilNode, 0)
	return t
}

// alloc appends a fresh node and returns its index. Growth is guarded by
// mu so concurrent Expand calls from different workers can safely append
// children.
func (t *Tree) alloc(state board.State, move board.Move, hasMove bool, parent Naughty, prior float32) Naughty {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := Naughty(len(t.nodes))
	t.nodes = append(t.nodes, Node{
		state:   state,
		move:    move,
		hasMove: hasMove,
		parent:  parent,
		prior:   prior,
	})
	return idx
}

// Node returns a pointer to the node at index n. The returned pointer
// aliases the backing slice's storage and must not be retained across a
// call that could grow t.nodes (alloc) — callers always re-fetch by
// index instead of caching the pointer across expansion boundaries.
func (t *Tree) Node(n Naughty) *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &t.nodes[n]
}

// Root returns the tree's root index.
func (t *Tree) Root() Naughty { return t.root }

// Aux returns the scratch arena used for transient per-search allocations.
func (t *Tree) Aux() *arena.Arena { return t.aux }

// Children copies out up to n entries from a node's children slice.
// Passed-in explicitly (rather than taking a *Node) since Node.children
// must only be read after NumChildren() establishes the release fence.
func (t *Tree) Children(children []Naughty, n int) []Naughty {
	if n > len(children) {
		n = len(children)
	}
	return children[:n]
}

// appendChild records a newly allocated child under parent, growing the
// flat kids backing store. Caller must hold parent's Node.Lock().
func (t *Tree) appendChild(parent *Node, child Naughty) {
	t.mu.Lock()
	start := len(t.kids)
	t.kids = append(t.kids, child)
	t.mu.Unlock()
	if parent.children == nil {
		parent.children = t.kids[start : start+1 : start+1]
	} else {
		parent.children = append(parent.children, child)
	}
}

// Reset discards every node except a fresh root at rootState and resets
// the auxiliary arena (spec §4.3: "whole-region reset at ply/turn
// boundaries").
func (t *Tree) Reset(rootState board.State) {
	t.mu.Lock()
	t.nodes = t.nodes[:0]
	t.kids = t.kids[:0]
	t.mu.Unlock()
	if t.aux != nil {
		t.aux.Reset()
	}
	if t.tt != nil {
		t.tt.Clear()
	}
	t.root = t.alloc(rootState, board.Move{}, false, NilNode, 0)
}

// Rebase re-roots the tree at the child reached by playing m from the
// current root, discarding every sibling subtree — the tree-reuse
// mechanism from SPEC_FULL.md's [SUPPLEMENT] section. If the move's
// child was never expanded (e.g. it was filtered out by Virtual-Loss
// starvation or the caller is replaying an externally supplied move),
// Rebase falls back to a full Reset at the post-move state.
func (t *Tree) Rebase(m board.Move, postMoveState board.State) {
	root := t.Node(t.root)
	if !root.HasChildren() {
		t.Reset(postMoveState)
		return
	}
	childIdx := root.findChild(t, m)
	if childIdx == NilNode {
		t.Reset(postMoveState)
		return
	}

	// Copy the retained subtree into a fresh backing store so the
	// discarded siblings' memory is released with the old nodes slice,
	// rather than merely orphaned within a still-referenced one.
	newNodes := make([]Node, 0, len(t.nodes))
	newKids := make([]Naughty, 0, len(t.kids))
	var relocate func(old Naughty, newParent Naughty) Naughty
	relocate = func(old Naughty, newParent Naughty) Naughty {
		src := &t.nodes[old]
		nn := Naughty(len(newNodes))
		newNodes = append(newNodes, Node{
			state:          src.state,
			move:           src.move,
			hasMove:        src.hasMove,
			parent:         newParent,
			prior:          src.prior,
			pi:             src.pi,
			terminal:       src.terminal,
			legalMoveCount: src.legalMoveCount,
			visits:         src.Visits(),
			scoreSum:       src.scoreSum,
			scoreSumSq:     src.scoreSumSq,
			solver:        uint32(src.Solver()),
		})
		kidsStart := len(newKids)
		for _, kid := range t.Children(src.children, src.NumChildren()) {
			newKids = append(newKids, relocate(kid, nn))
		}
		if n := src.NumChildren(); n > 0 {
			newNodes[nn].children = newKids[kidsStart : kidsStart+n : kidsStart+n]
			newNodes[nn].numChildren = int32(n)
		}
		return nn
	}
	newRoot := relocate(childIdx, NilNode)
	newNodes[newRoot].hasMove = false

	t.mu.Lock()
	t.nodes = newNodes
	t.kids = newKids
	t.root = newRoot
	t.mu.Unlock()
	if t.aux != nil {
		t.aux.Reset()
	}
	if t.tt != nil {
		t.tt.Clear()
	}
}

// AddDirichletNoise mixes Dirichlet(alpha) noise into the root's
// children priors in place, per spec §4.6's root-exploration bullet.
// Grounded on gonum's distmv.Dirichlet (wired per SPEC_FULL.md's DOMAIN
// STACK) seeded from x/exp/rand, since gonum's Dirichlet sampler expects
// an x/exp/rand.Source, not the stdlib math/rand interface.
func (t *Tree) AddDirichletNoise(rootIdx Naughty, src rand.Source) {
	root := t.Node(rootIdx)
	n := root.NumChildren()
	if n == 0 {
		return
	}
	alpha := make([]float64, n)
	for i := range alpha {
		alpha[i] = float64(t.cfg.DirichletAlpha)
	}
	d, ok := distmv.NewDirichlet(alpha, src)
	if !ok {
		return
	}
	noise := d.Rand(nil)
	eps := float64(t.cfg.DirichletEpsilon)
	children := t.Children(root.children, n)
	for i, kid := range children {
		child := t.Node(kid)
		child.prior = float32((1-eps)*float64(child.prior) + eps*noise[i])
	}
}
