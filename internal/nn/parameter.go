package nn

import (
	"github.com/born-ml/hourglass/internal/tensor"
)

// Parameter is a named tensor owned by one layer.
//
// Names join the layer name and a suffix: "stem/conv2d/kernel",
// "stack_0/projection/batch_norm/moving_mean".
type Parameter struct {
	name      string
	tensor    *tensor.RawTensor
	trainable bool
}

// NewParameter creates a parameter around t.
func NewParameter(name string, t *tensor.RawTensor, trainable bool) *Parameter {
	return &Parameter{
		name:      name,
		tensor:    t,
		trainable: trainable,
	}
}

// Name returns the parameter name.
func (p *Parameter) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter) Tensor() *tensor.RawTensor {
	return p.tensor
}

// Trainable reports whether an optimizer would update the parameter.
// Moving statistics of batch normalization are not trainable.
func (p *Parameter) Trainable() bool {
	return p.trainable
}
