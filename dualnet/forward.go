package dualnet

import (
	"gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// buildForward wires the initial conv layer and the residual tower onto
// input, returning the shared trunk's output feature maps.
func (net *Net) buildForward(g *gorgonia.ExprGraph, input *gorgonia.Node) (*gorgonia.Node, error) {
	x, err := conv3x3(input, net.convW[0], net.convB[0])
	if err != nil {
		return nil, err
	}
	x, err = gorgonia.Rectify(x)
	if err != nil {
		return nil, err
	}

	for i := range net.resW {
		x, err = net.residualBlock(x, net.resW[i], net.resB[i])
		if err != nil {
			return nil, err
		}
	}
	return x, nil
}

func (net *Net) residualBlock(x *gorgonia.Node, w [2]*gorgonia.Node, b [2]*gorgonia.Node) (*gorgonia.Node, error) {
	skip := x

	h, err := conv3x3(x, w[0], b[0])
	if err != nil {
		return nil, err
	}
	h, err = gorgonia.Rectify(h)
	if err != nil {
		return nil, err
	}

	h, err = conv3x3(h, w[1], b[1])
	if err != nil {
		return nil, err
	}

	sum, err := gorgonia.Add(h, skip)
	if err != nil {
		return nil, err
	}
	return gorgonia.Rectify(sum)
}

func conv3x3(x, w, b *gorgonia.Node) (*gorgonia.Node, error) {
	conv, err := gorgonia.Conv2d(x, w, tensor.Shape{3, 3}, []int{1, 1}, []int{1, 1}, []int{1, 1})
	if err != nil {
		return nil, err
	}
	return addChannelBias(conv, b)
}

func conv1x1(x, w, b *gorgonia.Node) (*gorgonia.Node, error) {
	conv, err := gorgonia.Conv2d(x, w, tensor.Shape{1, 1}, []int{0, 0}, []int{1, 1}, []int{1, 1})
	if err != nil {
		return nil, err
	}
	return addChannelBias(conv, b)
}

// addChannelBias reshapes a per-channel bias vector to broadcast over
// the (batch, channel, height, width) conv output.
func addChannelBias(x, b *gorgonia.Node) (*gorgonia.Node, error) {
	shape := b.Shape()
	reshaped, err := gorgonia.Reshape(b, tensor.Shape{1, shape[0], 1, 1})
	if err != nil {
		return nil, err
	}
	return gorgonia.BroadcastAdd(x, reshaped, nil, []byte{0, 2, 3})
}

// buildHeads attaches the policy and value heads to the shared trunk x,
// returning the softmax-normalized policy (batch x ActionSpace) and the
// tanh-squashed value (batch x 1).
func (net *Net) buildHeads(g *gorgonia.ExprGraph, x *gorgonia.Node, batch int) (policy, value *gorgonia.Node, err error) {
	cfg := net.cfg

	ph, err := conv1x1(x, net.policyW, net.policyB)
	if err != nil {
		return nil, nil, err
	}
	ph, err = gorgonia.Rectify(ph)
	if err != nil {
		return nil, nil, err
	}
	phFlat, err := gorgonia.Reshape(ph, tensor.Shape{batch, 2 * cfg.Height * cfg.Width})
	if err != nil {
		return nil, nil, err
	}
	logits, err := gorgonia.Mul(phFlat, net.policyFC)
	if err != nil {
		return nil, nil, err
	}
	logits, err = gorgonia.BroadcastAdd(logits, net.policyFCB, nil, []byte{0})
	if err != nil {
		return nil, nil, err
	}
	policy, err = gorgonia.SoftMax(logits)
	if err != nil {
		return nil, nil, err
	}

	vh, err := conv1x1(x, net.valueW, net.valueB)
	if err != nil {
		return nil, nil, err
	}
	vh, err = gorgonia.Rectify(vh)
	if err != nil {
		return nil, nil, err
	}
	vhFlat, err := gorgonia.Reshape(vh, tensor.Shape{batch, cfg.Height * cfg.Width})
	if err != nil {
		return nil, nil, err
	}
	v1, err := gorgonia.Mul(vhFlat, net.valueFC)
	if err != nil {
		return nil, nil, err
	}
	v1, err = gorgonia.BroadcastAdd(v1, net.valueFCB, nil, []byte{0})
	if err != nil {
		return nil, nil, err
	}
	v1, err = gorgonia.Rectify(v1)
	if err != nil {
		return nil, nil, err
	}
	v2, err := gorgonia.Mul(v1, net.valueFC2)
	if err != nil {
		return nil, nil, err
	}
	v2, err = gorgonia.BroadcastAdd(v2, net.valueFC2B, nil, []byte{0})
	if err != nil {
		return nil, nil, err
	}
	value, err = gorgonia.Tanh(v2)
	if err != nil {
		return nil, nil, err
	}
	return policy, value, nil
}
