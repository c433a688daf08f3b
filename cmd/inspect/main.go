// Command inspect runs one search from the starting position and dumps
// the resulting tree as Graphviz DOT, a diagnostics tool new to this
// repo (the teacher ships no tree-visualization command) that exercises
// mcts.Tree.DOT / github.com/awalterschulze/gographviz.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	engine "github.com/dama-zero/engine"
	"github.com/dama-zero/engine/board"
	"github.com/dama-zero/engine/search"
)

var (
	thinkTime = flag.Duration("think", time.Second, "search time before dumping the tree")
	maxDepth  = flag.Int("depth", 3, "maximum tree depth to render")
)

func main() {
	flag.Parse()

	cfg := engine.DefaultConfig()
	e, err := engine.New(cfg, board.Start())
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect: %v\n", err)
		os.Exit(1)
	}
	defer e.Close()

	if _, err := e.BestMove(search.Budget{TimeLimit: *thinkTime}); err != nil {
		fmt.Fprintf(os.Stderr, "inspect: search failed: %v\n", err)
		os.Exit(1)
	}

	tree := e.Driver().Tree()
	dot, err := tree.DOT(tree.Root(), *maxDepth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect: rendering tree: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(dot)
}
