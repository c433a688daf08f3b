// Package inference implements the asynchronous evaluation batcher (spec
// §4.8): many worker goroutines submit single-position requests, and one
// master goroutine drains them into batches for the CNN oracle, handing
// results back to each waiting worker over its own condition variable.
package inference

import (
	"sync"

	"github.com/dama-zero/engine/board"
)

// Request is one worker's pending evaluation. Each request owns its own
// sync.Cond so the master can wake exactly the one worker whose result
// became ready, rather than broadcasting to every waiter on every batch
// (spec §4.8's per-request condition variable design).
type Request struct {
	mu   sync.Mutex
	cond *sync.Cond

	state *board.State

	ready  bool
	policy []float32
	value  float32
	err    error
}

func newRequest(state *board.State) *Request {
	r := &Request{state: state}
	r.cond = sync.NewCond(&r.mu)
	return r
}

// Wait blocks until the master has filled in this request's result, then
// returns it.
func (r *Request) Wait() ([]float32, float32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for !r.ready {
		r.cond.Wait()
	}
	return r.policy, r.value, r.err
}

// fulfill is called by the master exactly once per request, under the
// request's own lock, then wakes the (single) waiting worker.
func (r *Request) fulfill(policy []float32, value float32, err error) {
	r.mu.Lock()
	r.policy = policy
	r.value = value
	r.err = err
	r.ready = true
	r.mu.Unlock()
	r.cond.Signal()
}
