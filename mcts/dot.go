package mcts

import (
	"fmt"

	"github.com/awalterschulze/gographviz"
)

// DOT renders the subtree rooted at idx as a Graphviz DOT document, down
// to maxDepth plies, for the inspect tooling's tree-dump diagnostic
// (spec §6's CLI surface, §9's observability note).
func (t *Tree) DOT(idx Naughty, maxDepth int) (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName("mcts"); err != nil {
		return "", err
	}
	if err := g.SetDir(true); err != nil {
		return "", err
	}
	var walk func(n Naughty, depth int)
	walk = func(n Naughty, depth int) {
		node := t.Node(n)
		name := fmt.Sprintf("n%d", n)
		label := fmt.Sprintf(`"%v"`, node)
		_ = g.AddNode("mcts", name, map[string]string{"label": label})
		if depth >= maxDepth {
			return
		}
		for _, kid := range t.Children(node.children, node.NumChildren()) {
			kidName := fmt.Sprintf("n%d", kid)
			walk(kid, depth+1)
			_ = g.AddEdge(name, kidName, true, map[string]string{
				"label": fmt.Sprintf(`"%d"`, t.Node(kid).Visits()),
			})
		}
	}
	walk(idx, 0)
	return g.String(), nil
}
