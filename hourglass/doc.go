// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package hourglass builds Stacked Hourglass networks for heatmap-based
// keypoint estimation.
//
// # Overview
//
// A network is a stem that reduces the input 4x, followed by NumStacks
// hourglass stacks. Each stack runs a recursive encoder-decoder (the
// hourglass module), refines its output, projects it and emits one heatmap
// per keypoint. Every stack but the last adds 1x1 convolutions of its
// projected features and of its heatmap to those features, and the sum feeds
// the next stack.
//
// Build returns a Model: an immutable, validated layer graph. It carries no
// weights; see package nn to initialize, run and save them.
//
// # Basic Usage
//
//	import "github.com/born-ml/hourglass/hourglass"
//
//	func main() {
//	    cfg := hourglass.DefaultConfig()
//	    cfg.NumStacks = 8
//
//	    model, err := hourglass.Build(cfg)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for _, out := range model.Outputs() {
//	        fmt.Println(out.Name(), out.Shape())  // (None, 64, 64, 16)
//	    }
//	}
//
// # Custom networks
//
// The building blocks are exported for networks of a different shape:
//
//	b := hourglass.NewBuilder("Custom")
//	in := b.Input(tensor.NewFeatureShape(128, 128, 3))
//	x := hourglass.Stem(b.In("stem"), in, 128, hourglass.DefaultNorm())
//	x = hourglass.Module(b.In("hourglass"), x, 3, 128, 1)
//	model, err := b.Finish(in, x)
//
// # Errors
//
// Invalid configurations fail with ErrInvalidConfig before any layer is
// created. Inconsistent layer wiring fails with ErrShapeMismatch or
// ErrInvalidOp when the builder is finished.
package hourglass
