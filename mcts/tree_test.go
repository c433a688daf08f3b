package mcts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dama-zero/engine/arena"
	"github.com/dama-zero/engine/board"
)

// Expand must actually draw its policy scratch buffer from the wired-in
// aux arena rather than the heap, so the driver's high-watermark reset
// branch is reachable in practice.
func TestTree_ExpandConsumesAuxArena(t *testing.T) {
	aux := arena.New(1 << 16)
	tr := NewTree(DefaultConfig(), board.Start(), aux, NewTranspositionTable(64))
	require.Equal(t, 0, aux.Used())

	tr.Expand(tr.Root(), uniformEval)

	assert.Greater(t, aux.Used(), 0)
}

func TestTree_RebaseRetainsSubtreeDiscardsSiblings(t *testing.T) {
	tr := rootTree()
	for i := 0; i < 30; i++ {
		tr.Simulate(tr.Root(), uniformEval)
	}
	root := tr.Node(tr.Root())
	require.True(t, root.HasChildren())
	children := tr.Children(root.children, root.NumChildren())
	require.NotEmpty(t, children)

	kept := tr.Node(children[0])
	keptVisitsBefore := kept.Visits()
	keptMove := kept.Move()
	nextState := kept.State()

	tr.Rebase(keptMove, *nextState)

	newRoot := tr.Node(tr.Root())
	assert.False(t, newRoot.HasMove())
	assert.Equal(t, keptVisitsBefore, newRoot.Visits())
	assert.True(t, newRoot.State().Eq(*nextState))
}

func TestTree_RebaseFallsBackToResetWhenChildUnknown(t *testing.T) {
	tr := rootTree()
	foreign := board.Move{Length: 0}
	foreign.Path[0] = 62
	foreign.Path[1] = 45
	next := board.Start().Apply(board.Generate(&[]board.State{board.Start()}[0])[0])

	tr.Rebase(foreign, next)
	newRoot := tr.Node(tr.Root())
	assert.Equal(t, 0, newRoot.NumChildren())
	assert.True(t, newRoot.State().Eq(next))
}

func TestConfig_IsValid(t *testing.T) {
	c := DefaultConfig()
	assert.True(t, c.IsValid())
	c.DirichletEpsilon = 2
	assert.False(t, c.IsValid())
}

func TestConfig_IsValidRejectsOutOfRangeRolloutEpsilon(t *testing.T) {
	c := DefaultConfig()
	c.RolloutEpsilon = 1.5
	assert.False(t, c.IsValid())
	c.RolloutEpsilon = -0.1
	assert.False(t, c.IsValid())
	c.RolloutEpsilon = 1.0
	assert.True(t, c.IsValid())
}
