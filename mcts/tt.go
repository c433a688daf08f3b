package mcts

import (
	"sync/atomic"

	"github.com/dama-zero/engine/board"
)

// ttEntry is one transposition-table slot: the Zobrist key it was last
// stored under, the full board.State that hashed to it, and a reference
// to the node that owns the authoritative statistics for that position
// within a single search (spec §3/§4.4, §9's "transposition-aware reuse"
// design note). Carrying the state lets Probe defeat a genuine Zobrist
// collision (two distinct positions hashing to the same 64-bit key)
// instead of silently handing a caller the wrong position's statistics.
type ttEntry struct {
	key   uint64
	state board.State
	node  Naughty
}

// TranspositionTable is a fixed-size, open-addressed hash table indexed
// by Zobrist key, using lock-free atomic.Pointer swaps for both lookup
// and insertion/replacement — grounded on the CAS-based slot scheme in
// the pack's herohde-morlock transposition table (transposition.go),
// adapted here from a depth-based replacement policy to a visit-count
// based one, since MCTS nodes do not have a fixed search "depth" the way
// minimax does.
type TranspositionTable struct {
	slots []atomic.Pointer[ttEntry]
	mask  uint64
}

// NewTranspositionTable allocates a table with size rounded up to the
// next power of two.
func NewTranspositionTable(size int) *TranspositionTable {
	n := 1
	for n < size {
		n <<= 1
	}
	return &TranspositionTable{
		slots: make([]atomic.Pointer[ttEntry], n),
		mask:  uint64(n - 1),
	}
}

// Probe returns the node stored for (key, state), if any, and whether it
// was found. state must equal the position the caller is probing for
// exactly (board.State.Eq) — a key match with a differing state means a
// genuine Zobrist collision, which is treated identically to a miss so
// callers always fall back to "allocate a fresh node." A false return
// after a true Store is also possible for the ordinary reason that the
// slot was since replaced by a different entry.
func (tt *TranspositionTable) Probe(key uint64, state board.State) (Naughty, bool) {
	slot := &tt.slots[key&tt.mask]
	e := slot.Load()
	if e == nil || e.key != key || !e.state.Eq(state) {
		return NilNode, false
	}
	return e.node, true
}

// Store records node (reached at state) under key, replacing whatever
// was in the slot unconditionally unless the incumbent is more valuable.
// visitsOf resolves a Naughty to its current visit count so the
// replacement policy can prefer keeping the more-explored node, a direct
// analogue of the depth-preferred replacement scheme the ground truth
// uses for minimax depth.
func (tt *TranspositionTable) Store(key uint64, state board.State, node Naughty, visitsOf func(Naughty) uint32) {
	slot := &tt.slots[key&tt.mask]
	for {
		old := slot.Load()
		if old != nil && old.key == key && old.node == node {
			return
		}
		if old != nil && old.key != key && visitsOf(old.node) > visitsOf(node) {
			return
		}
		next := &ttEntry{key: key, state: state, node: node}
		if old == nil {
			if slot.CompareAndSwap(nil, next) {
				return
			}
			continue
		}
		if slot.CompareAndSwap(old, next) {
			return
		}
	}
}

// Clear empties every slot; called at the same points a Tree is Reset
// (spec §4.3/§4.4), since transposition entries reference node indices
// that become meaningless once the pool they index into is discarded.
func (tt *TranspositionTable) Clear() {
	for i := range tt.slots {
		tt.slots[i].Store(nil)
	}
}
