package tensor

import (
	"fmt"
	"math"
	"math/rand"
)

// RawTensor is a dense, row-major float32 tensor.
//
// It is the only runtime value the CPU backend works with. Feature maps use
// the NHWC layout; convolution kernels use [kernel_h, kernel_w, in, out].
type RawTensor struct {
	shape  Shape
	stride []int
	data   []float32
}

// NewRaw allocates a zero-filled tensor with the given shape.
func NewRaw(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		data:   make([]float32, shape.NumElements()),
	}, nil
}

// FromSlice wraps data in a tensor. The slice is used as-is, not copied.
func FromSlice(data []float32, shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if len(data) != shape.NumElements() {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(data), []int(shape), shape.NumElements())
	}

	return &RawTensor{
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		data:   data,
	}, nil
}

// Full allocates a tensor with every element set to value.
func Full(shape Shape, value float32) (*RawTensor, error) {
	t, err := NewRaw(shape)
	if err != nil {
		return nil, err
	}
	for i := range t.data {
		t.data[i] = value
	}
	return t, nil
}

// Randn allocates a tensor with values drawn from N(0, 1) using rng.
func Randn(shape Shape, rng *rand.Rand) (*RawTensor, error) {
	t, err := NewRaw(shape)
	if err != nil {
		return nil, err
	}
	for i := range t.data {
		t.data[i] = float32(rng.NormFloat64())
	}
	return t, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return len(r.data)
}

// AsFloat32 returns the underlying storage.
// WARNING: Direct access to underlying memory. Writes are visible to every holder.
func (r *RawTensor) AsFloat32() []float32 {
	return r.data
}

// At returns the element at the given multi-dimensional index.
func (r *RawTensor) At(idx ...int) float32 {
	if len(idx) != len(r.shape) {
		panic(fmt.Sprintf("tensor: index rank %d does not match shape rank %d", len(idx), len(r.shape)))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= r.shape[i] {
			panic(fmt.Sprintf("tensor: index %d out of range for dimension %d of size %d", v, i, r.shape[i]))
		}
		off += v * r.stride[i]
	}
	return r.data[off]
}

// Clone returns a deep copy of the tensor.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]float32, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		data:   data,
	}
}

// AllClose reports whether both tensors have the same shape and every pair of
// elements differs by at most tol.
func (r *RawTensor) AllClose(other *RawTensor, tol float64) bool {
	if !r.shape.Equal(other.shape) {
		return false
	}
	for i, v := range r.data {
		if math.Abs(float64(v)-float64(other.data[i])) > tol {
			return false
		}
	}
	return true
}
