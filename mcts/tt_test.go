package mcts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dama-zero/engine/board"
)

func TestTranspositionTable_StoreAndProbe(t *testing.T) {
	tt := NewTranspositionTable(16)
	visits := map[Naughty]uint32{1: 5, 2: 10}
	visitsOf := func(n Naughty) uint32 { return visits[n] }
	s := board.Start()

	tt.Store(0xABCD, s, 1, visitsOf)
	got, ok := tt.Probe(0xABCD, s)
	require.True(t, ok)
	assert.Equal(t, Naughty(1), got)
}

func TestTranspositionTable_PrefersHigherVisitsOnCollision(t *testing.T) {
	tt := NewTranspositionTable(1) // force every key into the same slot
	visits := map[Naughty]uint32{1: 100, 2: 1}
	visitsOf := func(n Naughty) uint32 { return visits[n] }
	a, b := board.Start(), board.Start()
	b.Side = board.Black

	tt.Store(0x1, a, 1, visitsOf)
	tt.Store(0x2, b, 2, visitsOf) // different key, same slot, but less-visited: should not replace

	got, ok := tt.Probe(0x1, a)
	require.True(t, ok)
	assert.Equal(t, Naughty(1), got)
}

func TestTranspositionTable_ReplacesLowerVisitsOnCollision(t *testing.T) {
	tt := NewTranspositionTable(1)
	visits := map[Naughty]uint32{1: 1, 2: 100}
	visitsOf := func(n Naughty) uint32 { return visits[n] }
	a, b := board.Start(), board.Start()
	b.Side = board.Black

	tt.Store(0x1, a, 1, visitsOf)
	tt.Store(0x2, b, 2, visitsOf)

	_, ok := tt.Probe(0x1, a)
	assert.False(t, ok)
	got, ok := tt.Probe(0x2, b)
	require.True(t, ok)
	assert.Equal(t, Naughty(2), got)
}

func TestTranspositionTable_ClearedOnClear(t *testing.T) {
	tt := NewTranspositionTable(8)
	s := board.Start()
	tt.Store(0x1, s, 1, func(Naughty) uint32 { return 0 })
	tt.Clear()
	_, ok := tt.Probe(0x1, s)
	assert.False(t, ok)
}

// A stored key with a matching hash but a genuinely different position
// (the Zobrist-collision case) must not be reused.
func TestTranspositionTable_ProbeRejectsHashCollision(t *testing.T) {
	tt := NewTranspositionTable(16)
	stored := board.Start()
	tt.Store(0x42, stored, 1, func(Naughty) uint32 { return 0 })

	colliding := stored
	colliding.Side = board.Black // same key, different state
	_, ok := tt.Probe(0x42, colliding)
	assert.False(t, ok)
}
