package search

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/rand"

	"github.com/dama-zero/engine/arena"
	"github.com/dama-zero/engine/board"
	"github.com/dama-zero/engine/mcts"
)

// Driver owns one persistent MCTS tree and the worker pool that fills
// it, so repeated Search calls across a game can reuse statistics via
// Tree.Rebase instead of starting from scratch every move (spec §4.9,
// SPEC_FULL.md's [SUPPLEMENT] tree-reuse addition) — grounded on
// Elvenson-alphabeth's MCTS struct owning both the tree and the search
// loop (mcts/search.go, mcts/tree.go).
type Driver struct {
	cfg  Config
	tree *mcts.Tree
	tt   *mcts.TranspositionTable
	aux  *arena.Arena
	eval mcts.Evaluator
	rng  *rand.Rand

	simCount    int64 // atomic
	pliesPlayed int   // opening-randomization counter, advanced by Advance
}

// NewDriver builds a Driver rooted at rootState, using eval (typically
// an inference.Batcher-backed adapter, or mcts.Rollout) to score leaves.
func NewDriver(cfg Config, rootState board.State, eval mcts.Evaluator) *Driver {
	tt := mcts.NewTranspositionTable(1 << 20)
	aux := arena.New(64 << 20)
	return &Driver{
		cfg:  cfg,
		tree: mcts.NewTree(cfg.MCTS, rootState, aux, tt),
		tt:   tt,
		aux:  aux,
		eval: eval,
		rng:  rand.New(rand.NewSource(uint64(time.Now().UnixNano()))),
	}
}

// Search runs budget.TimeLimit / budget.MaxSimulations worth of MCTS
// simulations starting from the driver's current root, using
// cfg.NumWorkers worker goroutines (spec §4.9, §5's worker-pool model),
// then returns the best move found. addRootNoise adds Dirichlet root
// exploration noise before workers start (spec §4.6) — callers doing
// deterministic/competitive play should pass false.
func (d *Driver) Search(budget Budget, addRootNoise bool) (board.Move, error) {
	root := d.tree.Node(d.tree.Root())
	if root.IsTerminal() {
		return board.Move{}, errNoLegalMoves
	}

	// Ensure the root itself is expanded before workers start selecting
	// through it, mirroring the teacher's prepareRoot step.
	if !root.HasChildren() {
		d.tree.Expand(d.tree.Root(), d.eval)
	}
	if addRootNoise {
		d.tree.AddDirichletNoise(d.tree.Root(), d.rng)
	}

	ctx := context.Background()
	var cancel context.CancelFunc
	if budget.TimeLimit > 0 {
		ctx, cancel = context.WithTimeout(ctx, budget.TimeLimit)
		defer cancel()
	}

	atomic.StoreInt64(&d.simCount, 0)
	var wg sync.WaitGroup
	workers := d.cfg.numWorkers()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go d.worker(ctx, budget, &wg)
	}
	wg.Wait()

	if d.pliesPlayed < d.cfg.RandomCount {
		move, _, ok := d.tree.SampleChild(d.tree.Root(), d.cfg.RandomTemperature, d.rng)
		if !ok {
			return board.Move{}, errNoLegalMoves
		}
		return move, nil
	}

	move, _, ok := d.tree.BestChild(d.tree.Root())
	if !ok {
		return board.Move{}, errNoLegalMoves
	}
	return move, nil
}

// worker repeatedly calls Tree.Simulate until the budget is exhausted or
// ctx is cancelled (spec §4.9/§5: a fixed worker pool, cooperative
// shutdown via context rather than a kill signal).
func (d *Driver) worker(ctx context.Context, budget Budget, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if budget.MaxSimulations > 0 && atomic.LoadInt64(&d.simCount) >= budget.MaxSimulations {
			return
		}
		if d.aux.HighWatermark() > 0.95 {
			// Scratch arena exhaustion: nothing left to allocate for
			// heuristic/rollout scratch buffers this ply (spec §4.3,
			// §7's resource-exhaustion policy). Reset is safe here
			// since aux only ever holds per-simulation transient data.
			d.aux.Reset()
		}
		d.tree.Simulate(d.tree.Root(), d.eval)
		atomic.AddInt64(&d.simCount, 1)
	}
}

// Advance plays m against the driver's current root, rebasing the tree
// onto the resulting subtree when one already exists (tree reuse) and
// falling back to a fresh tree otherwise.
func (d *Driver) Advance(m board.Move) {
	root := d.tree.Node(d.tree.Root())
	next := root.State().Apply(m)
	d.tree.Rebase(m, next)
	d.pliesPlayed++
}

// Root returns the current root position.
func (d *Driver) Root() board.State { return *d.tree.Node(d.tree.Root()).State() }

// Tree exposes the underlying tree for diagnostics (cmd/inspect's DOT
// dump) and tests.
func (d *Driver) Tree() *mcts.Tree { return d.tree }

// RootVisits reports the root's total completed simulation count, useful
// for progress reporting.
func (d *Driver) RootVisits() uint32 { return d.tree.Node(d.tree.Root()).Visits() }

var errNoLegalMoves = errNoMoves{}

type errNoMoves struct{}

func (errNoMoves) Error() string { return "search: no legal moves from the current position" }
