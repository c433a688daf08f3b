package mcts

import (
	"math/rand"

	"github.com/dama-zero/engine/board"
)

// Rollout plays a heuristic-weighted random simulation from state to
// either a terminal position or cfg.RolloutMaxPlies, and returns the
// outcome value from state's side-to-move perspective, discounted by
// RolloutGamma per ply — the fallback evaluator used whenever no CNN
// oracle is wired in (spec §4.6's "pluggable leaf evaluator" design
// note, §9).
func Rollout(state board.State, cfg *Config, rng *rand.Rand) float32 {
	s := state
	var gamma float32 = 1.0
	for ply := 0; ply < cfg.RolloutMaxPlies; ply++ {
		if s.IsTerminal() || s.IsDrawn() {
			break
		}
		moves := board.Generate(&s)
		if len(moves) == 0 {
			break
		}
		m := pickMove(&s, moves, &cfg.RolloutWeights, cfg.RolloutEpsilon, rng)
		s = s.Apply(m)
		gamma *= cfg.RolloutGamma
	}
	outcome := terminalValue(&s, state.Side)
	return outcome * gamma
}

// pickMove implements the ε-greedy simulation policy spec.md §6 names as
// rollout_epsilon: with probability epsilon play a uniformly random legal
// move, otherwise play the heuristically best one deterministically.
func pickMove(s *board.State, moves []board.Move, w *HeuristicWeights, epsilon float32, rng *rand.Rand) board.Move {
	if len(moves) == 1 {
		return moves[0]
	}
	if rng.Float32() < epsilon {
		return moves[rng.Intn(len(moves))]
	}
	return bestMove(s, moves, w)
}

// bestMove returns the move that leaves the opponent worst off by
// heuristic score, breaking ties by earliest index.
func bestMove(s *board.State, moves []board.Move, w *HeuristicWeights) board.Move {
	best := moves[0]
	var bestScore float32
	for i, m := range moves {
		next := s.Apply(m)
		h := Heuristic(&next, w)
		// h is from next's side-to-move (the opponent): prefer moves
		// that leave the opponent worse off, i.e. minimize h.
		score := -h + moveBonus(m, w)
		if i == 0 || score > bestScore {
			best = m
			bestScore = score
		}
	}
	return best
}

func moveBonus(m board.Move, w *HeuristicWeights) float32 {
	var bonus float32
	if m.IsCapture() {
		bonus += w.Capture * float32(m.Length)
	}
	if m.Dest().Row() == 0 || m.Dest().Row() == 7 {
		bonus += w.Promotion
	}
	return bonus
}

// terminalValue returns the game-theoretic (or heuristic, if the ply
// budget was exhausted without a terminal position) value of s from
// perspective's point of view.
func terminalValue(s *board.State, perspective board.Color) float32 {
	if s.IsDrawn() {
		return 0
	}
	if s.IsTerminal() {
		// The side to move at a terminal, move-less position has lost.
		if s.Side == perspective {
			return -1
		}
		return 1
	}
	w := DefaultHeuristicWeights()
	h := Heuristic(s, &w)
	if s.Side != perspective {
		h = -h
	}
	// Squash into [-1, 1] so it is commensurate with a proven outcome.
	if h > 5 {
		h = 5
	}
	if h < -5 {
		h = -5
	}
	return h / 5
}
