package tensor

import "fmt"

// Shape represents the dimensions of a runtime tensor.
//
// Feature tensors are laid out NHWC: [batch, height, width, channels].
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// Feature returns the per-sample part of a 4D NHWC shape.
func (s Shape) Feature() (FeatureShape, error) {
	if len(s) != 4 {
		return FeatureShape{}, fmt.Errorf("expected 4D shape [N,H,W,C], got %dD %v", len(s), []int(s))
	}
	return FeatureShape{Height: s[1], Width: s[2], Channels: s[3]}, nil
}

// FeatureShape is the per-sample shape of a feature map: (height, width, channels).
//
// The batch dimension is left dynamic while a graph is built and is only
// fixed when a tensor is materialized with NHWC.
type FeatureShape struct {
	Height   int `json:"height" mapstructure:"height"`
	Width    int `json:"width" mapstructure:"width"`
	Channels int `json:"channels" mapstructure:"channels"`
}

// NewFeatureShape creates a feature shape from height, width and channels.
func NewFeatureShape(height, width, channels int) FeatureShape {
	return FeatureShape{Height: height, Width: width, Channels: channels}
}

// Validate checks that every dimension is positive.
func (f FeatureShape) Validate() error {
	if f.Height <= 0 || f.Width <= 0 || f.Channels <= 0 {
		return fmt.Errorf("invalid feature shape %s (all dimensions must be > 0)", f)
	}
	return nil
}

// SameSpatial reports whether both shapes have the same height and width.
func (f FeatureShape) SameSpatial(other FeatureShape) bool {
	return f.Height == other.Height && f.Width == other.Width
}

// WithChannels returns a copy of the shape with a different channel count.
func (f FeatureShape) WithChannels(channels int) FeatureShape {
	f.Channels = channels
	return f
}

// NumElements returns the number of elements of one sample.
func (f FeatureShape) NumElements() int {
	return f.Height * f.Width * f.Channels
}

// NHWC returns the runtime shape for a batch of the given size.
func (f FeatureShape) NHWC(batch int) Shape {
	return Shape{batch, f.Height, f.Width, f.Channels}
}

// Dims returns the shape as a [height, width, channels] slice.
func (f FeatureShape) Dims() []int {
	return []int{f.Height, f.Width, f.Channels}
}

// String formats the shape the way model summaries print it, batch first.
func (f FeatureShape) String() string {
	return fmt.Sprintf("(None, %d, %d, %d)", f.Height, f.Width, f.Channels)
}
