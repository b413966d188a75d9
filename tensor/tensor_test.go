// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"math/rand"
	"testing"

	"github.com/born-ml/hourglass/tensor"
)

// TestRawTensorAPI verifies RawTensor type alias exposes expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3})
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}

	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2 3]", raw.Shape())
	}
	if n := raw.NumElements(); n != 6 {
		t.Errorf("NumElements() = %d, want 6", n)
	}

	clone := raw.Clone()
	clone.AsFloat32()[0] = 1
	if raw.AsFloat32()[0] != 0 {
		t.Error("Clone() shares data with the original")
	}
}

// TestFeatureShape checks the per-sample shape helpers.
func TestFeatureShape(t *testing.T) {
	shape := tensor.NewFeatureShape(64, 48, 16)

	if got := shape.NHWC(4); !got.Equal(tensor.Shape{4, 64, 48, 16}) {
		t.Errorf("NHWC(4) = %v", got)
	}
	if got := shape.String(); got != "(None, 64, 48, 16)" {
		t.Errorf("String() = %q", got)
	}
	if err := tensor.NewFeatureShape(0, 1, 1).Validate(); err == nil {
		t.Error("Validate() accepted a zero dimension")
	}
}

// TestConstructors checks the constructors against their shapes.
func TestConstructors(t *testing.T) {
	if _, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2, 2}); err == nil {
		t.Error("FromSlice accepted mismatched data")
	}

	full, err := tensor.Full(tensor.Shape{2, 2}, 3)
	if err != nil {
		t.Fatalf("Full failed: %v", err)
	}
	for _, v := range full.AsFloat32() {
		if v != 3 {
			t.Fatalf("Full value = %v, want 3", v)
		}
	}

	a, _ := tensor.Randn(tensor.Shape{16}, rand.New(rand.NewSource(1)))
	b, _ := tensor.Randn(tensor.Shape{16}, rand.New(rand.NewSource(1)))
	if !a.AllClose(b, 0) {
		t.Error("Randn is not deterministic for a fixed seed")
	}
}

// TestParseDataType checks the accepted spellings.
func TestParseDataType(t *testing.T) {
	for s, want := range map[string]tensor.DataType{
		"f32":  tensor.Float32,
		"F16":  tensor.Float16,
		"bf16": tensor.BFloat16,
	} {
		got, err := tensor.ParseDataType(s)
		if err != nil || got != want {
			t.Errorf("ParseDataType(%q) = %v, %v; want %v", s, got, err, want)
		}
	}
	if _, err := tensor.ParseDataType("int8"); err == nil {
		t.Error("ParseDataType accepted int8")
	}
}
