// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"context"

	"github.com/born-ml/hourglass/hourglass"
	"github.com/born-ml/hourglass/internal/nn"
	"github.com/born-ml/hourglass/internal/parallel"
	"github.com/born-ml/hourglass/tensor"
)

// Weights holds every parameter of a model in layer creation order.
type Weights = nn.Weights

// Weight store errors.
var (
	ErrMissingParameter    = nn.ErrMissingParameter
	ErrUnexpectedParameter = nn.ErrUnexpectedParameter
	ErrShapeMismatch       = nn.ErrShapeMismatch
)

// NewWeights allocates zero-filled parameters for every layer of m.
func NewWeights(m *hourglass.Model) (*Weights, error) {
	return nn.NewWeights(m)
}

// InitWeights draws fresh parameters for every layer of m, using every CPU.
// The result depends only on seed.
//
// Example:
//
//	model, _ := hourglass.Build(hourglass.DefaultConfig())
//	weights, _ := nn.InitWeights(ctx, model, 42)
func InitWeights(ctx context.Context, m *hourglass.Model, seed int64) (*Weights, error) {
	return nn.InitWeights(ctx, m, seed, parallel.DefaultConfig())
}

// Backend is the set of NHWC kernels an Executor dispatches to.
type Backend = nn.Backend

// Executor runs a model on a backend.
//
// Example:
//
//	exec := &nn.Executor{Model: model, Weights: weights, Backend: cpu.New()}
//	heatmaps, err := exec.Forward(ctx, batch)  // one tensor per stack
type Executor = nn.Executor

// ErrInputShape is returned when the executor input does not match the model.
var ErrInputShape = nn.ErrInputShape

// Peak is the location of the strongest response of one heatmap channel.
type Peak = nn.Peak

// Peaks returns the arg-max of every channel of every sample of an NHWC
// heatmap tensor, ordered by sample then channel.
func Peaks(heatmap *tensor.RawTensor) ([]Peak, error) {
	return nn.Peaks(heatmap)
}

// Checkpoint is a set of weights with the metadata of its file.
type Checkpoint = nn.Checkpoint

// SaveCheckpoint writes the weights of m to path as SafeTensors, storing
// values as dtype and recording the model fingerprint.
//
// Example:
//
//	_, err := nn.SaveCheckpoint("weights.safetensors", model, weights, tensor.Float16, "")
func SaveCheckpoint(path string, m *hourglass.Model, w *Weights, dtype tensor.DataType, config string) (Metadata, error) {
	return nn.SaveCheckpoint(path, m, w, dtype, config)
}

// LoadCheckpoint reads path into fresh weights for m, refusing files saved
// for a different topology.
func LoadCheckpoint(path string, m *hourglass.Model) (*Checkpoint, error) {
	return nn.LoadCheckpoint(path, m)
}
