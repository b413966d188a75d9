// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/hourglass/internal/tensor"
)

// RawTensor is a dense row-major float32 tensor.
//
// Example:
//
//	raw, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 2, 2, 1})
//	data := raw.AsFloat32()  // Shares the buffer
//	clone := raw.Clone()     // Deep copy
type RawTensor = tensor.RawTensor

// NewRaw returns a zero-filled tensor.
func NewRaw(shape Shape) (*RawTensor, error) {
	return tensor.NewRaw(shape)
}

// FromSlice wraps data, which must hold exactly shape.NumElements() values.
func FromSlice(data []float32, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// Full returns a tensor with every element set to value.
func Full(shape Shape, value float32) (*RawTensor, error) {
	return tensor.Full(shape, value)
}

// Randn returns a tensor of standard normal samples drawn from rng.
func Randn(shape Shape, rng *rand.Rand) (*RawTensor, error) {
	return tensor.Randn(shape, rng)
}
