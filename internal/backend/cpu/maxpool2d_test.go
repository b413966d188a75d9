package cpu

import (
	"testing"

	"github.com/born-ml/hourglass/internal/tensor"
)

// TestMaxPool2D_BasicForward tests basic max pooling correctness.
func TestMaxPool2D_BasicForward(t *testing.T) {
	backend := New()

	input := mustFromSlice(t, sequence(16), tensor.Shape{1, 4, 4, 1})
	output := backend.MaxPool2D(input, 2)

	expectedShape := tensor.Shape{1, 2, 2, 1}
	if !output.Shape().Equal(expectedShape) {
		t.Errorf("Output shape: expected %v, got %v", expectedShape, output.Shape())
	}

	// [[1,2,3,4],      -> [[6,8],
	//  [5,6,7,8],         [14,16]]
	//  [9,10,11,12],
	//  [13,14,15,16]]
	expected := []float32{6, 8, 14, 16}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Expected %v, got %v", expected, output.AsFloat32())
	}
}

// TestMaxPool2D_Channels tests that channels pool independently.
func TestMaxPool2D_Channels(t *testing.T) {
	backend := New()

	input := mustFromSlice(t, []float32{
		1, -1, 2, -2,
		3, -5, 4, -3,
	}, tensor.Shape{1, 2, 2, 2})
	output := backend.MaxPool2D(input, 2)

	expected := []float32{4, -1}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Expected %v, got %v", expected, output.AsFloat32())
	}
}

// TestMaxPool2D_OddSize tests that incomplete windows are dropped.
func TestMaxPool2D_OddSize(t *testing.T) {
	backend := New()

	input := mustFromSlice(t, sequence(25), tensor.Shape{1, 5, 5, 1})
	output := backend.MaxPool2D(input, 2)

	expectedShape := tensor.Shape{1, 2, 2, 1}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Output shape: expected %v, got %v", expectedShape, output.Shape())
	}
	expected := []float32{7, 9, 17, 19}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Expected %v, got %v", expected, output.AsFloat32())
	}
}

// TestMaxPool2D_InvalidSize tests contract violations.
func TestMaxPool2D_InvalidSize(t *testing.T) {
	backend := New()
	input, _ := tensor.NewRaw(tensor.Shape{1, 2, 2, 1})

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for window larger than input")
		}
	}()
	backend.MaxPool2D(input, 3)
}

// TestUpSampleNearest tests pixel repetition.
func TestUpSampleNearest(t *testing.T) {
	backend := New()

	input := mustFromSlice(t, []float32{1, 2}, tensor.Shape{1, 1, 2, 1})
	output := backend.UpSampleNearest(input, 2)

	expectedShape := tensor.Shape{1, 2, 4, 1}
	if !output.Shape().Equal(expectedShape) {
		t.Fatalf("Output shape: expected %v, got %v", expectedShape, output.Shape())
	}
	expected := []float32{1, 1, 2, 2, 1, 1, 2, 2}
	if !float32SliceEqual(output.AsFloat32(), expected) {
		t.Errorf("Expected %v, got %v", expected, output.AsFloat32())
	}
}

// TestPoolUpsampleRoundTrip tests that upsampling a pooled constant map
// restores it.
func TestPoolUpsampleRoundTrip(t *testing.T) {
	backend := New()

	input, _ := tensor.Full(tensor.Shape{2, 8, 6, 3}, 1.5)
	output := backend.UpSampleNearest(backend.MaxPool2D(input, 2), 2)
	if !output.AllClose(input, 0) {
		t.Error("round trip changed a constant map")
	}
}
