package mcts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dama-zero/engine/board"
)

// A position whose side to move has no legal moves (here an empty board
// with White to move) is an immediate loss for that side — exercised via
// Expand's terminal branch, which must resolve the solver status without
// requiring any children at all.
func TestSolver_TerminalResolvesImmediately(t *testing.T) {
	tr := rootTree()
	state := board.State{Side: board.White} // no pieces at all: White to move has zero legal moves
	idx := tr.alloc(state, board.Move{}, true, tr.Root(), 1)
	_, did := tr.Expand(idx, uniformEval)
	require.True(t, did)
	assert.Equal(t, ProvenLoss, tr.Node(idx).Solver())
}

// A parent is ProvenWin the instant any child is ProvenLoss, even before
// every legal move has been expanded.
func TestSolver_ProvenWinDoesNotRequireFullExpansion(t *testing.T) {
	tr := rootTree()
	parent := tr.Node(tr.Root())
	parent.legalMoveCount = 5
	child := tr.alloc(board.Start(), board.Move{}, true, tr.Root(), 0.2)
	tr.appendChild(parent, child)
	parent.numChildren = 1
	tr.Node(child).SetSolver(ProvenLoss)

	tr.propagateSolver(tr.Root())
	assert.Equal(t, ProvenWin, parent.Solver())
}

// A parent can only become ProvenLoss once every legal move has a
// corresponding expanded child (Open Question resolution #2).
func TestSolver_ProvenLossRequiresFullExpansion(t *testing.T) {
	tr := rootTree()
	parent := tr.Node(tr.Root())
	parent.legalMoveCount = 2
	child := tr.alloc(board.Start(), board.Move{}, true, tr.Root(), 0.5)
	tr.appendChild(parent, child)
	parent.numChildren = 1
	tr.Node(child).SetSolver(ProvenWin)

	tr.propagateSolver(tr.Root())
	assert.Equal(t, Unsolved, parent.Solver(), "only one of two legal moves has been expanded")

	child2 := tr.alloc(board.Start(), board.Move{}, true, tr.Root(), 0.5)
	tr.appendChild(parent, child2)
	parent.numChildren = 2
	tr.Node(child2).SetSolver(ProvenWin)

	tr.propagateSolver(tr.Root())
	assert.Equal(t, ProvenLoss, parent.Solver())
}
