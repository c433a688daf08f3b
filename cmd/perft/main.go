// Command perft counts leaf positions reachable from the starting
// position at each depth, a standard move-generator self-check — grounded
// on Elvenson-alphabeth's cmd/generatemoves/main.go (flag-driven,
// stdlib-only CLI that drives the move generator across many games),
// repurposed from "dump the set of moves seen across random games" into a
// perft node counter exercising board.Generate/board.State.Apply.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/dama-zero/engine/board"
)

var depthFlag = flag.Int("depth", 6, "maximum perft depth to report")

func main() {
	flag.Parse()

	start := board.Start()
	for depth := 1; depth <= *depthFlag; depth++ {
		t0 := time.Now()
		nodes := perft(&start, depth)
		elapsed := time.Since(t0)
		fmt.Printf("depth %2d: %12d nodes (%v)\n", depth, nodes, elapsed)
	}
}

func perft(s *board.State, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := board.Generate(s)
	if len(moves) > board.MaxMoves {
		log.Fatalf("perft: move count %d exceeds board.MaxMoves, generator bug", len(moves))
	}
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		next := s.Apply(m)
		nodes += perft(&next, depth-1)
	}
	return nodes
}
