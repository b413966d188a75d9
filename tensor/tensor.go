// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/hourglass/internal/tensor"
)

// Shape represents the dimensions of a dense tensor.
// Example: Shape{8, 64, 64, 16} is a batch of eight 64x64 maps with 16 channels.
type Shape = tensor.Shape

// FeatureShape is the per-sample shape of a feature map: (height, width, channels).
type FeatureShape = tensor.FeatureShape

// NewFeatureShape creates a feature shape from height, width and channels.
func NewFeatureShape(height, width, channels int) FeatureShape {
	return tensor.NewFeatureShape(height, width, channels)
}

// DataType is the precision a tensor is stored with on disk.
type DataType = tensor.DataType

// Storage types.
const (
	Float32  DataType = tensor.Float32
	Float16  DataType = tensor.Float16
	BFloat16 DataType = tensor.BFloat16
)

// ParseDataType accepts f32, f16, bf16 and the SafeTensors tags F32, F16, BF16.
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}
