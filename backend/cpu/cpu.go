// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/hourglass/internal/backend/cpu"
	"github.com/born-ml/hourglass/internal/parallel"
	"github.com/born-ml/hourglass/nn"
)

// Backend represents the CPU backend implementation.
//
// The backend runs NHWC float32 kernels in pure Go and splits work across
// samples and rows.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements nn.Backend.
var _ nn.Backend = (*Backend)(nil)

// New creates a CPU backend using every CPU.
//
// Example:
//
//	exec := &nn.Executor{Model: model, Weights: weights, Backend: cpu.New()}
func New() *Backend {
	return internalcpu.New()
}

// NewWithWorkers creates a CPU backend that runs at most n goroutines per
// kernel. n <= 1 runs every kernel on the calling goroutine.
func NewWithWorkers(n int) *Backend {
	return internalcpu.NewWithConfig(parallel.DefaultConfig().WithWorkers(n))
}
