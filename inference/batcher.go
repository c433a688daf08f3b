package inference

import (
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/dama-zero/engine/board"
)

// Evaluator batches a slice of positions into policy/value estimates in
// one forward pass (spec §4.8/§6; implemented by dualnet.Net).
type Evaluator interface {
	EvaluateBatch(states []*board.State) (policies [][]float32, values []float32, err error)
}

// ErrClosed is returned by Submit once the batcher has been shut down.
var ErrClosed = errors.New("inference: batcher is closed")

// Config tunes the batcher's batching window (spec §4.8).
type Config struct {
	// BatchMax is the largest batch the master will assemble before
	// dispatching it to the Evaluator, even if more requests are queued.
	BatchMax int
	// MaxLatency bounds how long the master waits for a batch to fill
	// past its first request before dispatching a partial batch.
	MaxLatency time.Duration
	// QueueCapacity bounds the number of requests Submit will accept
	// before blocking the caller (backpressure).
	QueueCapacity int
}

// DefaultConfig mirrors typical AlphaZero-style self-play batch sizes.
func DefaultConfig() Config {
	return Config{
		BatchMax:      64,
		MaxLatency:    4 * time.Millisecond,
		QueueCapacity: 1024,
	}
}

// Batcher implements the single-master/many-worker batching state
// machine of spec §4.8: Submit is called from arbitrarily many worker
// goroutines; exactly one master goroutine (started by Run) drains the
// queue, evaluates each batch and fulfills every request in it.
type Batcher struct {
	cfg  Config
	eval Evaluator

	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	queue    []*Request
	closed   bool
	evalErrs error // accumulated via multierror.Append, one entry per failed dispatch
	wg       sync.WaitGroup
}

// New constructs a Batcher. Run must be called once (typically from
// search.Driver's startup) before any Submit call can make progress.
func New(cfg Config, eval Evaluator) *Batcher {
	b := &Batcher{cfg: cfg, eval: eval}
	b.notEmpty = sync.NewCond(&b.mu)
	b.notFull = sync.NewCond(&b.mu)
	b.wg.Add(1)
	return b
}

// Submit enqueues state for evaluation and blocks the calling worker
// until the master has produced its policy/value. It returns ErrClosed
// if the batcher has been (or becomes, while this call is blocked)
// closed without ever processing the request.
func (b *Batcher) Submit(state *board.State) ([]float32, float32, error) {
	req := newRequest(state)

	b.mu.Lock()
	for len(b.queue) >= b.cfg.QueueCapacity && !b.closed {
		b.notFull.Wait()
	}
	if b.closed {
		b.mu.Unlock()
		return nil, 0, ErrClosed
	}
	b.queue = append(b.queue, req)
	b.notEmpty.Signal()
	b.mu.Unlock()

	return req.Wait()
}

// Run drains the queue until Close is called, dispatching one batch at a
// time to the Evaluator. It is meant to run in its own goroutine for the
// lifetime of a search driver; callers should `go batcher.Run()` once.
// Close blocks until this call returns, so every evaluator error Run
// records is visible to Close's aggregated return value.
func (b *Batcher) Run() {
	defer b.wg.Done()
	for {
		batch, closed := b.nextBatch()
		if len(batch) == 0 {
			if closed {
				return
			}
			continue
		}
		b.dispatch(batch)
		if closed && b.drained() {
			return
		}
	}
}

// nextBatch blocks until at least one request is queued (or the batcher
// is closed with an empty queue), then drains up to BatchMax requests —
// waiting up to MaxLatency for the batch to grow past its first member
// before giving up and dispatching what it has (spec §4.8's latency
// bound guarantee).
func (b *Batcher) nextBatch() (batch []*Request, closed bool) {
	b.mu.Lock()
	for len(b.queue) == 0 && !b.closed {
		b.notEmpty.Wait()
	}
	if len(b.queue) == 0 && b.closed {
		b.mu.Unlock()
		return nil, true
	}
	b.mu.Unlock()

	deadline := time.Now().Add(b.cfg.MaxLatency)
	// A timer wakes the cond once the latency bound elapses, so the
	// wait loop below never needs to poll: it either wakes because
	// another Submit grew the queue, or because this timer fired.
	timer := time.AfterFunc(b.cfg.MaxLatency, func() {
		b.mu.Lock()
		b.notEmpty.Broadcast()
		b.mu.Unlock()
	})
	defer timer.Stop()

	b.mu.Lock()
	for len(b.queue) < b.cfg.BatchMax && !b.closed && time.Now().Before(deadline) {
		b.notEmpty.Wait()
	}
	n := len(b.queue)
	if n > b.cfg.BatchMax {
		n = b.cfg.BatchMax
	}
	batch = b.queue[:n]
	b.queue = b.queue[n:]
	wasClosed := b.closed
	b.notFull.Broadcast()
	b.mu.Unlock()
	return batch, wasClosed
}

func (b *Batcher) drained() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue) == 0
}

// dispatch evaluates one batch and fulfills every request in it,
// guaranteeing request/response pairing by index (spec §4.8's
// correctness guarantee): batch[i]'s result is always policies[i]/values[i].
// An evaluator error is also recorded on the batcher so Close can surface
// it even though fulfill already delivered it to each waiting Submit.
func (b *Batcher) dispatch(batch []*Request) {
	states := make([]*board.State, len(batch))
	for i, r := range batch {
		states[i] = r.state
	}
	policies, values, err := b.eval.EvaluateBatch(states)
	if err != nil {
		b.mu.Lock()
		b.evalErrs = multierror.Append(b.evalErrs, err)
		b.mu.Unlock()
		for _, r := range batch {
			r.fulfill(nil, 0, err)
		}
		return
	}
	for i, r := range batch {
		r.fulfill(policies[i], values[i], nil)
	}
}

// Close stops the master loop once every currently queued request has
// been processed, and causes every future Submit to return ErrClosed
// (spec §4.8's cooperative shutdown guarantee). It blocks until Run has
// returned and aggregates every evaluator error dispatch recorded over
// the batcher's lifetime into a single error, or nil if there were none.
func (b *Batcher) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		b.wg.Wait()
		return b.evalErrs
	}
	b.closed = true
	b.notEmpty.Broadcast()
	b.notFull.Broadcast()
	b.mu.Unlock()

	b.wg.Wait()
	return b.evalErrs
}
