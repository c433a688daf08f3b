package mcts

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dama-zero/engine/board"
)

func rootTree() *Tree {
	cfg := DefaultConfig()
	return NewTree(cfg, board.Start(), nil, nil)
}

// (I5) Virtual Loss applied then undone returns a node's visits/scoreSum
// exactly to their pre-VL values.
func TestVirtualLoss_ZeroSumAfterUndo(t *testing.T) {
	tr := rootTree()
	n := tr.Node(tr.Root())

	n.backpropUpdate(0.5) // seed some real stats
	visitsBefore := n.Visits()
	n.mu.Lock()
	scoreBefore := n.scoreSum
	n.mu.Unlock()

	n.applyVirtualLoss()
	assert.Equal(t, int32(1), n.VirtualLoss())
	n.undoVirtualLoss()

	assert.Equal(t, int32(0), n.VirtualLoss())
	assert.Equal(t, visitsBefore, n.Visits())
	n.mu.Lock()
	assert.Equal(t, scoreBefore, n.scoreSum)
	n.mu.Unlock()
}

// (I5) many concurrent apply/undo pairs on the same node still net to
// zero Virtual Loss.
func TestVirtualLoss_ConcurrentApplyUndo(t *testing.T) {
	tr := rootTree()
	n := tr.Node(tr.Root())

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.applyVirtualLoss()
			n.undoVirtualLoss()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(0), n.VirtualLoss())
	assert.Equal(t, uint32(0), n.Visits())
}

func TestNode_FullyExpanded(t *testing.T) {
	tr := rootTree()
	n := tr.Node(tr.Root())
	n.legalMoveCount = 3
	assert.False(t, n.FullyExpanded())

	value, did := tr.Expand(tr.Root(), func(s *board.State) Evaluation {
		return Evaluation{}
	})
	assert.True(t, did)
	_ = value
	assert.True(t, n.FullyExpanded())
}

func TestExpand_IsIdempotentUnderRace(t *testing.T) {
	tr := rootTree()
	calls := 0
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tr.Expand(tr.Root(), func(s *board.State) Evaluation {
				mu.Lock()
				calls++
				mu.Unlock()
				return Evaluation{}
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls, "only the winning goroutine should evaluate the leaf")
	assert.True(t, tr.Node(tr.Root()).HasChildren())
}
