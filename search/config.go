// Package search implements the public search driver (spec §4.9): it
// wires together board, mcts and an inference.Evaluator (either
// dualnet's CNN or mcts.Rollout) into a worker pool that fills an MCTS
// tree under a time/node budget and returns the best move found.
package search

import (
	"runtime"
	"time"

	"github.com/dama-zero/engine/mcts"
)

// Budget bounds one Search call, grounded on Elvenson-alphabeth's
// MCTS.Timeout + MCTS.Budget pair (mcts/tree.go), generalized into an
// explicit struct instead of fields embedded directly on the tree.
type Budget struct {
	// TimeLimit stops the search once elapsed; zero means no time bound.
	TimeLimit time.Duration
	// MaxSimulations stops the search once this many Simulate calls have
	// completed across every worker; zero means no simulation bound.
	// At least one of TimeLimit/MaxSimulations must be nonzero.
	MaxSimulations int64
}

// Config bundles the driver's own tunables alongside the mcts.Config the
// tree is built with.
type Config struct {
	MCTS mcts.Config

	// NumWorkers is the number of goroutines concurrently calling
	// Tree.Simulate. Zero means runtime.GOMAXPROCS(0).
	NumWorkers int

	// RandomCount is the number of opening plies (tracked by Driver.Advance
	// calls) during which Search samples a move from the
	// Tree.SampleChild/VisitDistribution policy at RandomTemperature
	// instead of deterministically returning BestChild — SPEC_FULL.md's
	// randomized-opening supplement, for games/evaluation runs that want
	// some opening diversity without tampering with mid-game play. Zero
	// disables it: every move is BestChild's deterministic pick.
	RandomCount int
	// RandomTemperature is the temperature passed to SampleChild for the
	// first RandomCount plies; ignored once RandomCount plies have been
	// played.
	RandomTemperature float32
}

// DefaultConfig returns reasonable defaults.
func DefaultConfig() Config {
	return Config{
		MCTS:              mcts.DefaultConfig(),
		NumWorkers:        runtime.GOMAXPROCS(0),
		RandomCount:       0,
		RandomTemperature: 1.0,
	}
}

func (c Config) numWorkers() int {
	if c.NumWorkers > 0 {
		return c.NumWorkers
	}
	return runtime.GOMAXPROCS(0)
}
