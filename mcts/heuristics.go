package mcts

import "github.com/dama-zero/engine/board"

// Heuristic scores state from White's perspective using w, then flips
// sign if state.Side is Black so the result is always from the side to
// move's perspective — the convention the CNN oracle's value head also
// uses (spec §4.9, §6).
func Heuristic(state *board.State, w *HeuristicWeights) float32 {
	score := materialAndPosition(state, board.White, w) - materialAndPosition(state, board.Black, w)
	if state.Side == board.Black {
		score = -score
	}
	return score
}

func materialAndPosition(s *board.State, c board.Color, w *HeuristicWeights) float32 {
	var score float32
	baseRank := 0
	if c == board.Black {
		baseRank = 7
	}

	pawns := s.Pawns[c]
	for b := pawns; b != 0; b = b.ClearLSB() {
		sq := b.LSB()
		score += w.Pawn
		score += centerEdgeBaseScore(sq, baseRank, w)
		score += w.Advance * advancement(sq, c)
	}
	ladies := s.Ladies[c]
	for b := ladies; b != 0; b = b.ClearLSB() {
		sq := b.LSB()
		score += w.Lady
		score += w.LadyActivity
		score += centerEdgeBaseScore(sq, baseRank, w)
	}
	score += w.Threat * float32(ThreatCount(s, c))
	return score
}

func centerEdgeBaseScore(sq board.Square, baseRank int, w *HeuristicWeights) float32 {
	row, col := sq.Row(), sq.Col()
	var score float32
	if row >= 2 && row <= 5 && col >= 2 && col <= 5 {
		score += w.Center
	}
	if col == 0 || col == 7 {
		score += w.Edge
	}
	if row == baseRank {
		score += w.Base
	}
	return score
}

// advancement returns how far a pawn on sq has progressed from c's own
// back rank toward the promotion rank, normalized to [0, 1] (spec.md
// §6's `heuristic_weights.advance` option).
func advancement(sq board.Square, c board.Color) float32 {
	row := sq.Row()
	if c == board.Black {
		row = 7 - row
	}
	return float32(row) / 7.0
}

// ThreatCount returns the number of capture moves c's opponent would have
// available if it were to move now (after the Italian priority filter),
// used by rollout/progressive bias to penalize reckless lines (spec §4.6,
// §9).
func ThreatCount(s *board.State, c board.Color) int {
	opp := s.Side
	if opp == c {
		// Count threats as seen from the opponent to move.
		scratch := *s
		scratch.Side = 1 - c
		threats := 0
		for _, m := range board.Generate(&scratch) {
			if m.IsCapture() {
				threats++
			}
		}
		return threats
	}
	threats := 0
	for _, m := range board.Generate(s) {
		if m.IsCapture() {
			threats++
		}
	}
	return threats
}
