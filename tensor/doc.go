// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the shape and storage types of the hourglass
// runtime.
//
// # Overview
//
// Graphs are built on per-sample FeatureShape values (height, width,
// channels); the batch size is only fixed when data is materialized as a
// dense NHWC RawTensor. All computation happens in float32. DataType only
// selects the precision weights are stored with on disk.
//
// # Basic Usage
//
//	import "github.com/born-ml/hourglass/tensor"
//
//	func main() {
//	    shape := tensor.NewFeatureShape(256, 256, 3)
//	    batch, _ := tensor.Full(shape.NHWC(8), 0)
//	    fmt.Println(shape, batch.Shape())  // (None, 256, 256, 3) [8 256 256 3]
//	}
//
// # Storage types
//
//   - Float32: exact
//   - Float16: IEEE half precision
//   - BFloat16: brain floating point, float32 range with 8 bits of mantissa
package tensor
