// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn runs hourglass networks: parameter storage, initialization,
// forward execution and checkpoints.
//
// # Overview
//
// This package contains:
//   - Weights: every parameter of a model, keyed by layer name
//   - Initialization: Glorot uniform and truncated He normal, seeded per layer
//   - Executor: forward pass in topological order on a Backend
//   - Peaks: arg-max decoding of heatmaps
//   - Checkpoints: SafeTensors files bound to a topology fingerprint
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
//
//	    exec := &nn.Executor{Model: model, Weights: weights, Backend: cpu.New()}
//	    heatmaps, _ := exec.Forward(ctx, batch)
//	    peaks, _ := nn.Peaks(heatmaps[len(heatmaps)-1])
//	}
//
// # Training mode
//
// With Executor.Training set, batch normalization normalizes with the
// statistics of the batch and folds them into the moving statistics:
//
//	moving = momentum*moving + (1-momentum)*batch
//
// Otherwise the moving statistics are used and Weights is not modified.
//
// # Initialization
//
// Each layer seeds its own random source from the model seed and the layer
// name, so weights do not depend on how many goroutines initialize them.
package nn
