package inference

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dama-zero/engine/board"
)

// countingEval returns each position's index within its batch as the
// value, and records the number of calls, every batch size and the
// largest batch size it was ever called with.
type countingEval struct {
	mu        sync.Mutex
	calls     int
	maxBatch  int
	batchSizes []int
}

func (e *countingEval) EvaluateBatch(states []*board.State) ([][]float32, []float32, error) {
	e.mu.Lock()
	e.calls++
	if len(states) > e.maxBatch {
		e.maxBatch = len(states)
	}
	e.batchSizes = append(e.batchSizes, len(states))
	e.mu.Unlock()

	policies := make([][]float32, len(states))
	values := make([]float32, len(states))
	for i := range states {
		policies[i] = []float32{1}
		values[i] = float32(i)
	}
	return policies, values, nil
}

// (G1 analogue) every request submitted concurrently gets an answer
// without error, and none is left hanging.
func TestBatcher_ConcurrentSubmitsAllComplete(t *testing.T) {
	eval := &countingEval{}
	cfg := Config{BatchMax: 8, MaxLatency: 5 * time.Millisecond, QueueCapacity: 64}
	b := New(cfg, eval)
	go b.Run()
	defer b.Close()

	var wg sync.WaitGroup
	results := make([]float32, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := board.Start()
			_, v, err := b.Submit(&s)
			require.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	// wg.Wait returning shows no request hung; the evaluator must also
	// have been invoked at least once.
	eval.mu.Lock()
	assert.Greater(t, eval.calls, 0)
	eval.mu.Unlock()
}

func TestBatcher_RespectsBatchMax(t *testing.T) {
	eval := &countingEval{}
	cfg := Config{BatchMax: 4, MaxLatency: 50 * time.Millisecond, QueueCapacity: 64}
	b := New(cfg, eval)
	go b.Run()
	defer b.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := board.Start()
			_, _, err := b.Submit(&s)
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	eval.mu.Lock()
	defer eval.mu.Unlock()
	assert.LessOrEqual(t, eval.maxBatch, 4)
}

func TestBatcher_DispatchesPartialBatchAfterLatencyBound(t *testing.T) {
	eval := &countingEval{}
	cfg := Config{BatchMax: 100, MaxLatency: 10 * time.Millisecond, QueueCapacity: 64}
	b := New(cfg, eval)
	go b.Run()
	defer b.Close()

	s := board.Start()
	start := time.Now()
	_, _, err := b.Submit(&s)
	elapsed := time.Since(start)
	require.NoError(t, err)
	// A lone request must not wait for 100 siblings that never arrive;
	// it should be dispatched once MaxLatency elapses.
	assert.Less(t, elapsed, 200*time.Millisecond)
}

// (G3 analogue) Close lets in-flight requests complete before new
// submissions are rejected.
func TestBatcher_CloseIsCooperative(t *testing.T) {
	eval := &countingEval{}
	cfg := DefaultConfig()
	b := New(cfg, eval)
	go b.Run()

	s := board.Start()
	_, _, err := b.Submit(&s)
	require.NoError(t, err)

	b.Close()
	_, _, err = b.Submit(&s)
	assert.ErrorIs(t, err, ErrClosed)
}

type failingEval struct{ err error }

func (e *failingEval) EvaluateBatch(states []*board.State) ([][]float32, []float32, error) {
	return nil, nil, e.err
}

// Close must surface every evaluator error dispatch recorded over the
// batcher's lifetime, aggregated into one error.
func TestBatcher_CloseAggregatesEvaluatorErrors(t *testing.T) {
	boom := errors.New("boom")
	eval := &failingEval{err: boom}
	cfg := Config{BatchMax: 1, MaxLatency: 5 * time.Millisecond, QueueCapacity: 8}
	b := New(cfg, eval)
	go b.Run()

	s := board.Start()
	_, _, err := b.Submit(&s)
	require.Error(t, err)
	_, _, err = b.Submit(&s)
	require.Error(t, err)

	closeErr := b.Close()
	require.Error(t, closeErr)
	assert.ErrorIs(t, closeErr, boom)
}
