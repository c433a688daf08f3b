package engine

import (
	"github.com/dama-zero/engine/board"
	"github.com/dama-zero/engine/search"
)

// Outcome codes for a completed match, matching spec §6's external
// contract exactly (board.OutcomeOngoing/.../OutcomeBlackWins).
type Outcome = int

// PlayMatch plays one game to completion between white and black,
// alternating BestMove/Advance calls under budget until the position is
// terminal or drawn, and returns the outcome plus the move list played —
// grounded on Elvenson-alphabeth's Arena.Play (arena.go), stripped of
// everything that only exists to support self-play training (example
// recording, agent-switching, re-seeding a challenger network): a match
// here is just two already-built Engines playing each other once.
func PlayMatch(white, black *Engine, budget search.Budget, maxPlies int) (outcome Outcome, moves []board.Move) {
	current, opponent := white, black
	for ply := 0; maxPlies <= 0 || ply < maxPlies; ply++ {
		state := current.Root()
		if ended, result := board.FromState(state).Ended(); ended {
			return result, moves
		}

		move, err := current.BestMove(budget)
		if err != nil {
			// No legal moves from this position: the side to move has
			// lost under Italian rules (spec §4.1).
			if current == white {
				return board.OutcomeBlackWins, moves
			}
			return board.OutcomeWhiteWins, moves
		}

		current.Advance(move)
		opponent.Advance(move)
		moves = append(moves, move)

		current, opponent = opponent, current
	}
	return board.OutcomeDraw, moves
}
