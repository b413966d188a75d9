package graph

import (
	"fmt"

	"github.com/born-ml/hourglass/internal/tensor"
)

// Op identifies the kind of layer a Node applies.
type Op int

// Supported layer kinds.
const (
	OpInput Op = iota
	OpConv2D
	OpBatchNorm
	OpReLU
	OpMaxPool2D
	OpUpSample2D
	OpAdd
)

// String returns the layer kind as printed in summaries.
func (o Op) String() string {
	switch o {
	case OpInput:
		return "Input"
	case OpConv2D:
		return "Conv2D"
	case OpBatchNorm:
		return "BatchNorm"
	case OpReLU:
		return "ReLU"
	case OpMaxPool2D:
		return "MaxPool2D"
	case OpUpSample2D:
		return "UpSample2D"
	case OpAdd:
		return "Add"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// baseName is the stem used for automatically generated node names.
func (o Op) baseName() string {
	switch o {
	case OpInput:
		return "input"
	case OpConv2D:
		return "conv2d"
	case OpBatchNorm:
		return "batch_norm"
	case OpReLU:
		return "relu"
	case OpMaxPool2D:
		return "max_pool"
	case OpUpSample2D:
		return "up_sample"
	case OpAdd:
		return "add"
	default:
		return "op"
	}
}

// ParseOp is the inverse of Op.String.
func ParseOp(s string) (Op, error) {
	for o := OpInput; o <= OpAdd; o++ {
		if o.String() == s {
			return o, nil
		}
	}
	return 0, fmt.Errorf("unknown op %q", s)
}

// Padding selects how a convolution treats borders.
type Padding int

const (
	// PaddingSame zero-pads so the output is ceil(in/stride).
	PaddingSame Padding = iota
	// PaddingValid uses no padding.
	PaddingValid
)

// String returns "same" or "valid".
func (p Padding) String() string {
	if p == PaddingValid {
		return "valid"
	}
	return "same"
}

// Activation is the activation fused into a convolution.
type Activation int

const (
	// Linear applies no activation.
	Linear Activation = iota
	// ReLU clamps negative values to zero.
	ReLU
)

// String returns "linear" or "relu".
func (a Activation) String() string {
	if a == ReLU {
		return "relu"
	}
	return "linear"
}

// Initializer names the distribution a parameter is drawn from.
type Initializer int

// Supported initializers.
const (
	GlorotUniform Initializer = iota
	HeNormal
	Zeros
	Ones
)

// String returns the initializer name.
func (i Initializer) String() string {
	switch i {
	case GlorotUniform:
		return "glorot_uniform"
	case HeNormal:
		return "he_normal"
	case Zeros:
		return "zeros"
	case Ones:
		return "ones"
	default:
		return "unknown"
	}
}

// ConvSpec configures a 2D convolution.
//
// The zero value of Padding, Activation and Initializer gives a "same",
// linear, Glorot-initialized convolution with bias.
type ConvSpec struct {
	Filters     int
	Kernel      int
	Stride      int
	Padding     Padding
	Activation  Activation
	Initializer Initializer
	NoBias      bool
}

// outputSize computes one spatial output dimension.
func (c ConvSpec) outputSize(in int) int {
	if c.Padding == PaddingValid {
		return (in-c.Kernel)/c.Stride + 1
	}
	return (in + c.Stride - 1) / c.Stride
}

// PadBefore returns the zero padding applied before the first row (or column)
// for an input of size in. "same" padding puts the extra pixel after, the way
// TensorFlow does.
func (c ConvSpec) PadBefore(in int) int {
	if c.Padding == PaddingValid {
		return 0
	}
	out := c.outputSize(in)
	total := max((out-1)*c.Stride+c.Kernel-in, 0)
	return total / 2
}

// NormSpec configures batch normalization.
type NormSpec struct {
	Momentum float64
	Epsilon  float64
}

// DefaultNorm is the normalization used throughout the network.
var DefaultNorm = NormSpec{Momentum: 0.9, Epsilon: 1e-3}

// Attrs holds the attributes of a node. Only the fields relevant to the
// node's Op are set.
type Attrs struct {
	Conv ConvSpec
	Norm NormSpec
	Size int // pooling window or upsampling factor
}

// ParamSpec describes one parameter tensor a node owns.
type ParamSpec struct {
	Suffix      string // joined to the node name with "/"
	Shape       tensor.Shape
	Initializer Initializer
	Trainable   bool
	FanIn       int
	FanOut      int
}
