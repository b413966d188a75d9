package graph

import (
	"fmt"

	"github.com/born-ml/hourglass/internal/tensor"
)

// Node is one layer application in the computation graph.
//
// Nodes are immutable once a Builder returns them. The ID is the creation
// index, so ascending IDs are always a valid topological order.
type Node struct {
	id     int
	name   string
	op     Op
	attrs  Attrs
	inputs []*Node
	shape  tensor.FeatureShape
	owner  *state
}

// ID returns the creation index of the node.
func (n *Node) ID() int {
	return n.id
}

// Name returns the unique scoped name, e.g. "stack_0/hourglass/up/conv2d_1".
func (n *Node) Name() string {
	return n.name
}

// Op returns the layer kind.
func (n *Node) Op() Op {
	return n.op
}

// Attrs returns the layer attributes.
func (n *Node) Attrs() Attrs {
	return n.attrs
}

// Inputs returns the nodes this node reads from.
func (n *Node) Inputs() []*Node {
	return append([]*Node(nil), n.inputs...)
}

// Shape returns the per-sample output shape.
func (n *Node) Shape() tensor.FeatureShape {
	return n.shape
}

// Params describes the parameter tensors of the node.
//
// Convolution kernels are stored [kernel_h, kernel_w, in_channels, out_channels].
func (n *Node) Params() []ParamSpec {
	switch n.op {
	case OpConv2D:
		c := n.attrs.Conv
		in := n.inputs[0].shape.Channels
		fanIn := c.Kernel * c.Kernel * in
		fanOut := c.Kernel * c.Kernel * c.Filters
		params := []ParamSpec{{
			Suffix:      "kernel",
			Shape:       tensor.Shape{c.Kernel, c.Kernel, in, c.Filters},
			Initializer: c.Initializer,
			Trainable:   true,
			FanIn:       fanIn,
			FanOut:      fanOut,
		}}
		if !c.NoBias {
			params = append(params, ParamSpec{
				Suffix:      "bias",
				Shape:       tensor.Shape{c.Filters},
				Initializer: Zeros,
				Trainable:   true,
			})
		}
		return params
	case OpBatchNorm:
		ch := n.shape.Channels
		return []ParamSpec{
			{Suffix: "gamma", Shape: tensor.Shape{ch}, Initializer: Ones, Trainable: true},
			{Suffix: "beta", Shape: tensor.Shape{ch}, Initializer: Zeros, Trainable: true},
			{Suffix: "moving_mean", Shape: tensor.Shape{ch}, Initializer: Zeros},
			{Suffix: "moving_variance", Shape: tensor.Shape{ch}, Initializer: Ones},
		}
	default:
		return nil
	}
}

// ParamCount returns the number of scalar parameters of the node.
func (n *Node) ParamCount() int {
	total := 0
	for _, p := range n.Params() {
		total += p.Shape.NumElements()
	}
	return total
}

// ParamName returns the full name of one of the node's parameters.
func (n *Node) ParamName(suffix string) string {
	return n.name + "/" + suffix
}

// String returns a representation of the layer in the style of Born's layers.
func (n *Node) String() string {
	switch n.op {
	case OpConv2D:
		c := n.attrs.Conv
		return fmt.Sprintf("Conv2D(filters=%d, kernel_size=(%d, %d), stride=%d, padding=%s, activation=%s)",
			c.Filters, c.Kernel, c.Kernel, c.Stride, c.Padding, c.Activation)
	case OpBatchNorm:
		return fmt.Sprintf("BatchNorm(momentum=%g, epsilon=%g)", n.attrs.Norm.Momentum, n.attrs.Norm.Epsilon)
	case OpMaxPool2D:
		return fmt.Sprintf("MaxPool2D(pool_size=%d, stride=%d)", n.attrs.Size, n.attrs.Size)
	case OpUpSample2D:
		return fmt.Sprintf("UpSample2D(size=%d, interpolation=nearest)", n.attrs.Size)
	case OpAdd:
		return fmt.Sprintf("Add(inputs=%d)", len(n.inputs))
	default:
		return n.op.String() + "()"
	}
}
