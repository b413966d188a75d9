// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/hourglass/internal/nn"
	"github.com/born-ml/hourglass/tensor"
)

// Parameter is one named weight tensor of a layer.
//
// Names are the layer name followed by a suffix:
//
//	stem/conv2d/kernel
//	stack_0/projection/batch_norm/moving_variance
//
// Methods:
//
//	Name() string
//	    Returns the parameter name.
//
//	Tensor() *tensor.RawTensor
//	    Returns the parameter values.
//
//	Trainable() bool
//	    Reports whether training updates the values by gradient. Moving
//	    statistics of batch normalization are not trainable.
type Parameter = nn.Parameter

// NewParameter creates a parameter with the given name and values.
func NewParameter(name string, t *tensor.RawTensor, trainable bool) *Parameter {
	return nn.NewParameter(name, t, trainable)
}
