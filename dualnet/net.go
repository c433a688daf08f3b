package dualnet

import (
	"fmt"

	"github.com/pkg/errors"
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/dama-zero/engine/board"
)

// Net is a forward-only residual policy/value network satisfying
// inference.Evaluator. It deliberately carries no gorgonia Solver, no
// gradient tape and no Save/Load: spec §4.9 scopes training out of this
// engine entirely, and the teacher's own dualnet package (built around
// gorgonia.org/gorgonia, which this rework keeps using for exactly the
// same concern: expressing a small conv-residual tower and running it on
// gorgonia's tape machine) is adapted here to that forward-only shape.
type Net struct {
	cfg Config

	// g is the single ExprGraph every node below belongs to. gorgonia
	// requires every operand combined in one expression to live on the
	// same graph, so EvaluateBatch must keep extending this graph
	// rather than building a fresh one per call — it cannot mix a new
	// call's input node with weight nodes created on a different graph.
	g *gorgonia.ExprGraph

	// weights are created once in New and reused across EvaluateBatch
	// calls; only the input placeholder and the graph
	// nodes that depend on the batch dimension are rebuilt per call,
	// since gorgonia graphs are shape-static.
	convW   []*gorgonia.Node
	convB   []*gorgonia.Node
	resW    [][2]*gorgonia.Node
	resB    [][2]*gorgonia.Node
	policyW *gorgonia.Node
	policyB *gorgonia.Node
	policyFC *gorgonia.Node
	policyFCB *gorgonia.Node
	valueW  *gorgonia.Node
	valueB  *gorgonia.Node
	valueFC *gorgonia.Node
	valueFCB *gorgonia.Node
	valueFC2 *gorgonia.Node
	valueFC2B *gorgonia.Node
}

// New builds a Net from cfg with freshly (randomly) initialized weights.
// A deployment that wants a trained checkpoint would extend this with a
// weight-loading step keyed by the same Config shape fields; that step
// is out of scope here since this engine never trains.
func New(cfg Config) (*Net, error) {
	if !cfg.IsValid() {
		return nil, errors.Errorf("dualnet: invalid config %+v", cfg)
	}
	g := gorgonia.NewGraph()
	n := &Net{cfg: cfg, g: g}

	in := cfg.Features
	n.convW = append(n.convW, weight(g, "conv0.w", cfg.K, in, 3, 3))
	n.convB = append(n.convB, bias(g, "conv0.b", cfg.K))

	for i := 0; i < cfg.SharedLayers; i++ {
		w1 := weight(g, fmt.Sprintf("res%d.w1", i), cfg.K, cfg.K, 3, 3)
		b1 := bias(g, fmt.Sprintf("res%d.b1", i), cfg.K)
		w2 := weight(g, fmt.Sprintf("res%d.w2", i), cfg.K, cfg.K, 3, 3)
		b2 := bias(g, fmt.Sprintf("res%d.b2", i), cfg.K)
		n.resW = append(n.resW, [2]*gorgonia.Node{w1, w2})
		n.resB = append(n.resB, [2]*gorgonia.Node{b1, b2})
	}

	flat := cfg.K * cfg.Height * cfg.Width

	n.policyW = weight(g, "policy.conv.w", 2, cfg.K, 1, 1)
	n.policyB = bias(g, "policy.conv.b", 2)
	n.policyFC = weight2d(g, "policy.fc.w", 2*cfg.Height*cfg.Width, cfg.ActionSpace)
	n.policyFCB = bias(g, "policy.fc.b", cfg.ActionSpace)

	n.valueW = weight(g, "value.conv.w", 1, cfg.K, 1, 1)
	n.valueB = bias(g, "value.conv.b", 1)
	n.valueFC = weight2d(g, "value.fc1.w", cfg.Height*cfg.Width, cfg.FC)
	n.valueFCB = bias(g, "value.fc1.b", cfg.FC)
	n.valueFC2 = weight2d(g, "value.fc2.w", cfg.FC, 1)
	n.valueFC2B = bias(g, "value.fc2.b", 1)
	_ = flat

	return n, nil
}

func weight(g *gorgonia.ExprGraph, name string, out, in, kh, kw int) *gorgonia.Node {
	return gorgonia.NewTensor(g, tensor.Float32, 4,
		gorgonia.WithShape(out, in, kh, kw),
		gorgonia.WithName(name),
		gorgonia.WithInit(gorgonia.GlorotN(1.0)))
}

func weight2d(g *gorgonia.ExprGraph, name string, in, out int) *gorgonia.Node {
	return gorgonia.NewMatrix(g, tensor.Float32,
		gorgonia.WithShape(in, out),
		gorgonia.WithName(name),
		gorgonia.WithInit(gorgonia.GlorotN(1.0)))
}

func bias(g *gorgonia.ExprGraph, name string, n int) *gorgonia.Node {
	return gorgonia.NewVector(g, tensor.Float32,
		gorgonia.WithShape(n),
		gorgonia.WithName(name),
		gorgonia.WithInit(gorgonia.Zeroes()))
}

// EvaluateBatch implements inference.Evaluator. It extends net.g (the
// same ExprGraph its weights were created on — the graph is shape-static
// but not call-static, so a fresh input/forward/heads subgraph is added
// on every call) with nodes sized to len(states), runs a
// single forward pass on a TapeMachine, and unpacks the policy/value
// heads per-position.
//
// Rebuilding the batch-dimension part of the graph on every call trades
// some per-call overhead (and, since nodes are never pruned from net.g,
// some monotonic graph growth over the Net's lifetime) for never needing
// gorgonia's graphs, which are shape-static, to support a variable batch
// size — acceptable here since this engine never trains and a Net is
// rebuilt fresh per Engine rather than kept across processes.
func (net *Net) EvaluateBatch(states []*board.State) ([][]float32, []float32, error) {
	if len(states) == 0 {
		return nil, nil, nil
	}
	cfg := net.cfg
	g := net.g
	batch := len(states)

	input := gorgonia.NewTensor(g, tensor.Float32, 4,
		gorgonia.WithShape(batch, cfg.Features, cfg.Height, cfg.Width),
		gorgonia.WithName("input"))

	x, err := net.buildForward(g, input)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dualnet: building forward graph")
	}

	policyLogits, value, err := net.buildHeads(g, x, batch)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dualnet: building policy/value heads")
	}

	machine := gorgonia.NewTapeMachine(g)
	defer machine.Close()

	data := make([]float32, batch*cfg.Features*cfg.Height*cfg.Width)
	for i, s := range states {
		planes := board.InputEncoder(s)
		copy(data[i*len(planes):], planes)
	}
	inputVal := tensor.New(tensor.WithShape(batch, cfg.Features, cfg.Height, cfg.Width), tensor.WithBacking(data))
	if err := gorgonia.Let(input, inputVal); err != nil {
		return nil, nil, errors.Wrap(err, "dualnet: binding input tensor")
	}

	if err := machine.RunAll(); err != nil {
		return nil, nil, errors.Wrap(err, "dualnet: forward pass")
	}

	policyOut, err := unpackMatrix(policyLogits.Value(), batch, cfg.ActionSpace)
	if err != nil {
		return nil, nil, err
	}
	valueOut, err := unpackVector(value.Value(), batch)
	if err != nil {
		return nil, nil, err
	}
	return policyOut, valueOut, nil
}

func unpackMatrix(v gorgonia.Value, rows, cols int) ([][]float32, error) {
	t, ok := v.(tensor.Tensor)
	if !ok {
		return nil, errors.New("dualnet: expected tensor value for policy head")
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.New("dualnet: policy head is not float32")
	}
	out := make([][]float32, rows)
	for i := 0; i < rows; i++ {
		row := make([]float32, cols)
		copy(row, data[i*cols:(i+1)*cols])
		out[i] = row
	}
	return out, nil
}

func unpackVector(v gorgonia.Value, n int) ([]float32, error) {
	t, ok := v.(tensor.Tensor)
	if !ok {
		return nil, errors.New("dualnet: expected tensor value for value head")
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.New("dualnet: value head is not float32")
	}
	out := make([]float32, n)
	copy(out, data[:n])
	return out, nil
}
