// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for running hourglass networks.
//
// # Overview
//
// This package implements the kernels an hourglass network needs:
//   - Pure Go implementation (no CGO)
//   - Im2col convolutions with explicit padding
//   - Max pooling and nearest-neighbour upsampling
//   - Batch normalization with batch or moving statistics
//   - N-ary element-wise addition
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/hourglass/backend/cpu"
//	    "github.com/born-ml/hourglass/hourglass"
//	    "github.com/born-ml/hourglass/nn"
//	)
//
//	func main() {
//	    model, _ := hourglass.Build(hourglass.DefaultConfig())
//	    weights, _ := nn.InitWeights(ctx, model, 42)
//	    exec := &nn.Executor{Model: model, Weights: weights, Backend: cpu.New()}
//	    heatmaps, _ := exec.Forward(ctx, batch)
//	}
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Kernels allocate their outputs
// and do not share mutable state.
package cpu
