package board

import "sync"

// tables hold the precomputed direction geometry described in spec §4.1:
// for every square and every diagonal direction, the one-step target, the
// two-step jump landing square and the square jumped over. Entries are
// NoSquare when the direction would leave the board, so generation reduces
// to bitwise tests instead of branching on board edges.
type tables struct {
	step    [64][numDirs]Square
	landing [64][numDirs]Square
	over    [64][numDirs]Square
}

var (
	tabOnce sync.Once
	tab     tables
)

func initTables() {
	for s := 0; s < 64; s++ {
		row, col := Square(s).Row(), Square(s).Col()
		for d := 0; d < numDirs; d++ {
			dr, dc := dirDeltaRow[d], dirDeltaCol[d]

			step := SquareAt(row+dr, col+dc)
			tab.step[s][d] = step

			over := SquareAt(row+dr, col+dc)
			landing := SquareAt(row+2*dr, col+2*dc)
			if over == NoSquare || landing == NoSquare {
				tab.over[s][d] = NoSquare
				tab.landing[s][d] = NoSquare
				continue
			}
			tab.over[s][d] = over
			tab.landing[s][d] = landing
		}
	}
}

// Tables returns the process-wide immutable geometry tables, computed once
// before any search (spec §9 "global move-table initialization").
func Tables() *tables {
	tabOnce.Do(initTables)
	return &tab
}
