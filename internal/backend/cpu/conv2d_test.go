package cpu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/hourglass/internal/parallel"
	"github.com/born-ml/hourglass/internal/tensor"
)

func mustFromSlice(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	x, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return x
}

func sequence(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(i + 1)
	}
	return out
}

// TestConv2D_BasicForward tests basic Conv2D forward pass.
func TestConv2D_BasicForward(t *testing.T) {
	backend := New()

	// Single channel 3x3 image:
	// 1 2 3
	// 4 5 6
	// 7 8 9
	input := mustFromSlice(t, sequence(9), tensor.Shape{1, 3, 3, 1})

	// Identity-like 2x2 kernel:
	// 1 0
	// 0 1
	kernel := mustFromSlice(t, []float32{1, 0, 0, 1}, tensor.Shape{2, 2, 1, 1})

	output := backend.Conv2D(input, kernel, 1, 0, 0, 2, 2)

	expectedShape := tensor.Shape{1, 2, 2, 1}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Expected shape %v, got %v", expectedShape, output.Shape())
	}

	// Diagonal sums of each 2x2 patch.
	expected := []float32{6, 8, 12, 14}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Expected %v, got %v", expected, output.AsFloat32())
	}
}

// TestConv2D_SamePadding tests symmetric zero padding.
func TestConv2D_SamePadding(t *testing.T) {
	backend := New()

	input, err := tensor.Full(tensor.Shape{1, 3, 3, 1}, 1)
	require.NoError(t, err)
	kernel, err := tensor.Full(tensor.Shape{3, 3, 1, 1}, 1)
	require.NoError(t, err)

	output := backend.Conv2D(input, kernel, 1, 1, 1, 3, 3)

	// Each output counts the in-bounds neighbours.
	expected := []float32{
		4, 6, 4,
		6, 9, 6,
		4, 6, 4,
	}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Expected %v, got %v", expected, output.AsFloat32())
	}
}

// TestConv2D_StridedSamePadding checks that the extra padding row and column
// go after the image.
func TestConv2D_StridedSamePadding(t *testing.T) {
	backend := New()

	//  1  2  3  4
	//  5  6  7  8
	//  9 10 11 12
	// 13 14 15 16
	input := mustFromSlice(t, sequence(16), tensor.Shape{1, 4, 4, 1})
	kernel, err := tensor.Full(tensor.Shape{3, 3, 1, 1}, 1)
	require.NoError(t, err)

	// out = ceil(4/2) = 2, total padding 1, none before.
	output := backend.Conv2D(input, kernel, 2, 0, 0, 2, 2)

	expected := []float32{54, 45, 72, 54}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Expected %v, got %v", expected, output.AsFloat32())
	}
}

// TestConv2D_Channels tests mixing of input channels into output channels.
func TestConv2D_Channels(t *testing.T) {
	backend := New()

	input := mustFromSlice(t, []float32{1, 2}, tensor.Shape{1, 1, 1, 2})
	// [1, 1, in=2, out=3]
	kernel := mustFromSlice(t, []float32{
		1, 0, 1,
		0, 1, 1,
	}, tensor.Shape{1, 1, 2, 3})

	output := backend.Conv2D(input, kernel, 1, 0, 0, 1, 1)

	expected := []float32{1, 2, 3}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Expected %v, got %v", expected, output.AsFloat32())
	}
}

// TestConv2D_ParallelMatchesSequential runs a batched convolution with and
// without goroutines.
func TestConv2D_ParallelMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	input, err := tensor.Randn(tensor.Shape{2, 9, 7, 3}, rng)
	require.NoError(t, err)
	kernel, err := tensor.Randn(tensor.Shape{3, 3, 3, 5}, rng)
	require.NoError(t, err)

	seq := NewWithConfig(parallel.Config{Enabled: false})
	par := NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1})

	a := seq.Conv2D(input, kernel, 1, 1, 1, 9, 7)
	b := par.Conv2D(input, kernel, 1, 1, 1, 9, 7)
	if !a.AllClose(b, 1e-5) {
		t.Error("parallel and sequential results differ")
	}
}

// TestConv2D_InvalidShapes tests contract violations.
func TestConv2D_InvalidShapes(t *testing.T) {
	backend := New()
	input, _ := tensor.NewRaw(tensor.Shape{1, 4, 4, 2})
	kernel, _ := tensor.NewRaw(tensor.Shape{3, 3, 3, 1})

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for channel mismatch")
		}
	}()
	backend.Conv2D(input, kernel, 1, 1, 1, 4, 4)
}

// TestConv2D_NaNWeightWithZeroInput checks that non-finite weights propagate
// even where the input is zero, including padded positions.
func TestConv2D_NaNWeightWithZeroInput(t *testing.T) {
	backend := New()

	input := mustFromSlice(t, make([]float32, 4), tensor.Shape{1, 2, 2, 1})
	kernel := mustFromSlice(t, []float32{float32(math.NaN()), 0, 0, 0}, tensor.Shape{2, 2, 1, 1})

	output := backend.Conv2D(input, kernel, 1, 1, 1, 3, 3)
	for i, v := range output.AsFloat32() {
		if !math.IsNaN(float64(v)) {
			t.Errorf("output[%d] = %v, want NaN", i, v)
		}
	}

	inf := mustFromSlice(t, []float32{float32(math.Inf(1)), 1, 1, 1}, tensor.Shape{2, 2, 1, 1})
	output = backend.Conv2D(input, inf, 1, 0, 0, 1, 1)
	if v := output.AsFloat32()[0]; !math.IsNaN(float64(v)) {
		t.Errorf("Inf * 0 = %v, want NaN", v)
	}
}
