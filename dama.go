// Package engine is the entry point of the API: a wrapper around the
// MCTS search driver and the neural network oracle that composes the
// whole Italian-draughts playing engine (spec §4.9), grounded on
// Elvenson-alphabeth's top-level AZ struct (agogo.go) minus everything
// that only exists to support training (LearnAZ, SaveAZ, Load, Example
// recording) — this engine never trains, it only plays.
package engine

import (
	"log"
	"math/rand"
	"os"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/dama-zero/engine/board"
	"github.com/dama-zero/engine/dualnet"
	"github.com/dama-zero/engine/inference"
	"github.com/dama-zero/engine/mcts"
	"github.com/dama-zero/engine/search"
)

// Config bundles every sub-config needed to build an Engine (spec §6's
// external configuration surface, AMBIENT "config" section).
type Config struct {
	NN     dualnet.Config
	Search search.Config
	Batch  inference.Config

	// UseNeuralNet selects between the CNN oracle (via an
	// inference.Batcher in front of a dualnet.Net) and the heuristic
	// rollout fallback. Engines built for quick tests or for positions
	// with no trained checkpoint available should leave this false.
	UseNeuralNet bool

	Logger *log.Logger
}

// DefaultConfig returns an engine configuration sized for an 8x8 Italian
// draughts board.
func DefaultConfig() Config {
	return Config{
		NN:     dualnet.DefaultConf(8, 8, board.EncoderFeatures, board.ActionSpaceSize),
		Search: search.DefaultConfig(),
		Batch:  inference.DefaultConfig(),
		Logger: log.New(os.Stderr, "engine: ", log.LstdFlags),
	}
}

// Validate reports whether conf's sub-configs are all internally
// consistent (AMBIENT "config" section's Validate-style guard,
// mirroring mcts.Config.IsValid/dualnet.Config.IsValid).
func (conf Config) Validate() error {
	if conf.UseNeuralNet && !conf.NN.IsValid() {
		return errors.Errorf("engine: invalid NN config: %+v", conf.NN)
	}
	if !conf.Search.MCTS.IsValid() {
		return errors.Errorf("engine: invalid MCTS config: %+v", conf.Search.MCTS)
	}
	return nil
}

// Engine is one side's playing agent: a search driver plus, optionally,
// the CNN oracle and the batcher feeding it.
type Engine struct {
	conf    Config
	driver  *search.Driver
	net     *dualnet.Net
	batcher *inference.Batcher
	rng     *rand.Rand
}

// New builds an Engine rooted at rootState.
func New(conf Config, rootState board.State) (*Engine, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{conf: conf, rng: rand.New(rand.NewSource(1))}

	var eval mcts.Evaluator
	if conf.UseNeuralNet {
		net, err := dualnet.New(conf.NN)
		if err != nil {
			return nil, errors.Wrap(err, "engine: building neural network")
		}
		e.net = net
		e.batcher = inference.New(conf.Batch, net)
		go e.batcher.Run()
		eval = search.BatcherEvaluator(e.batcher, conf.Logger)
	} else {
		mctsConf := conf.Search.MCTS
		eval = search.RolloutEvaluator(&mctsConf, e.rng)
	}

	e.driver = search.NewDriver(conf.Search, rootState, eval)
	return e, nil
}

// BestMove searches under budget and returns the move the engine judges
// best from its current position.
func (e *Engine) BestMove(budget search.Budget) (board.Move, error) {
	return e.driver.Search(budget, false)
}

// Advance plays m, reusing whatever subtree Search already explored for
// it (spec §4.9's tree-reuse supplement).
func (e *Engine) Advance(m board.Move) {
	e.driver.Advance(m)
}

// Root returns the engine's current position.
func (e *Engine) Root() board.State { return e.driver.Root() }

// Driver exposes the underlying search driver for diagnostics.
func (e *Engine) Driver() *search.Driver { return e.driver }

// Close releases the engine's inference batcher, if one was started, and
// returns every error the batcher accumulated over its lifetime (spec
// §7's graceful-shutdown note), aggregated via multierror the way the
// teacher's Agent.Close fans in each inferer's Close error.
func (e *Engine) Close() error {
	var errs error
	if e.batcher != nil {
		if err := e.batcher.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs
}
