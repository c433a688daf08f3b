// Command play is an interactive human-vs-engine loop, grounded on
// Elvenson-alphabeth's cmd/infer/main.go bufio.Scanner input loop, with
// model-path/HDFS flags dropped (no checkpoint persistence in scope) and
// notnil/chess swapped for this repo's own board package.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	engine "github.com/dama-zero/engine"
	"github.com/dama-zero/engine/board"
	"github.com/dama-zero/engine/search"
)

var (
	humanColor = flag.String("human", "white", "side the human plays: white or black")
	timeLimit  = flag.Duration("think", 2*time.Second, "engine thinking time per move")
	useNN      = flag.Bool("nn", false, "use the randomly-initialized CNN oracle instead of heuristic rollouts")
)

func main() {
	flag.Parse()

	human := board.White
	if strings.EqualFold(*humanColor, "black") {
		human = board.Black
	}

	cfg := engine.DefaultConfig()
	cfg.UseNeuralNet = *useNN
	e, err := engine.New(cfg, board.Start())
	if err != nil {
		fmt.Fprintf(os.Stderr, "play: %v\n", err)
		os.Exit(1)
	}
	defer e.Close()

	budget := search.Budget{TimeLimit: *timeLimit}
	input := bufio.NewScanner(os.Stdin)

	for {
		state := e.Root()
		ended, outcome := board.FromState(state).Ended()
		if ended {
			announce(outcome)
			return
		}
		fmt.Print(state.Render())

		if state.Side == human {
			move, ok := readMove(input, &state)
			if !ok {
				fmt.Println("play: no legal move parsed, try again")
				continue
			}
			e.Advance(move)
			continue
		}

		move, err := e.BestMove(budget)
		if err != nil {
			fmt.Fprintf(os.Stderr, "play: engine search failed: %v\n", err)
			return
		}
		fmt.Printf("engine plays %v\n", move)
		e.Advance(move)
	}
}

// readMove prompts for a move as two zero-indexed square numbers
// ("from to", e.g. "16 25") and returns the matching legal move, if any.
func readMove(input *bufio.Scanner, s *board.State) (board.Move, bool) {
	fmt.Print("your move (from to): ")
	if !input.Scan() {
		return board.Move{}, false
	}
	fields := strings.Fields(input.Text())
	if len(fields) != 2 {
		return board.Move{}, false
	}
	from, err1 := strconv.Atoi(fields[0])
	to, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		return board.Move{}, false
	}

	for _, m := range board.Generate(s) {
		if int(m.From()) == from && int(m.Dest()) == to {
			return m, true
		}
	}
	return board.Move{}, false
}

func announce(outcome int) {
	switch outcome {
	case board.OutcomeDraw:
		fmt.Println("draw")
	case board.OutcomeWhiteWins:
		fmt.Println("white wins")
	case board.OutcomeBlackWins:
		fmt.Println("black wins")
	}
}
