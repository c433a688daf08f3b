package search

import (
	"log"
	"math/rand"

	"github.com/dama-zero/engine/board"
	"github.com/dama-zero/engine/inference"
	"github.com/dama-zero/engine/mcts"
)

// BatcherEvaluator adapts an inference.Batcher (itself backed by a CNN
// oracle such as dualnet.Net) into an mcts.Evaluator, normalizing the
// batcher's full action-space policy down to whatever legal-move-ordered
// slice mcts.Expand expects via board.MoveIndex. Any batcher error
// (including inference.ErrClosed during shutdown) degrades to a uniform
// policy and a zero value rather than panicking mid-search, logged once
// per occurrence for operators to notice (spec §7's "degrade, don't
// crash" error-handling stance, AMBIENT logging section).
func BatcherEvaluator(b *inference.Batcher, logger *log.Logger) mcts.Evaluator {
	return func(s *board.State) mcts.Evaluation {
		rawPolicy, value, err := b.Submit(s)
		if err != nil {
			if logger != nil {
				logger.Printf("search: batcher evaluation failed, falling back to uniform prior: %v", err)
			}
			return mcts.Evaluation{}
		}

		moves := board.Generate(s)
		policy := make([]float32, len(moves))
		for i, m := range moves {
			idx := board.MoveIndex(m, s.Side)
			if idx >= 0 && idx < len(rawPolicy) {
				policy[i] = rawPolicy[idx]
			}
		}
		return mcts.Evaluation{Policy: policy, Value: value}
	}
}

// RolloutEvaluator adapts mcts.Rollout into an mcts.Evaluator for
// configurations that have no CNN oracle wired in (spec §4.6's
// pluggable-evaluator design note).
func RolloutEvaluator(cfg *mcts.Config, rng *rand.Rand) mcts.Evaluator {
	return func(s *board.State) mcts.Evaluation {
		return mcts.Evaluation{Value: mcts.Rollout(*s, cfg, rng)}
	}
}
