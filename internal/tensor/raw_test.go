package tensor

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RawTensor Tests

func TestNewRaw(t *testing.T) {
	raw, err := NewRaw(Shape{2, 3, 4, 5})
	require.NoError(t, err)

	assert.Equal(t, 120, raw.NumElements())
	assert.Equal(t, []int{60, 20, 5, 1}, raw.Strides())
	for _, v := range raw.AsFloat32() {
		assert.Zero(t, v)
	}
}

func TestNewRaw_InvalidShape(t *testing.T) {
	_, err := NewRaw(Shape{2, 0, 4})
	require.Error(t, err)
}

func TestFromSlice(t *testing.T) {
	data := []float32{1, 2, 3, 4, 5, 6}
	raw, err := FromSlice(data, Shape{2, 3})
	require.NoError(t, err)

	// Zero-copy
	data[0] = 42
	assert.Equal(t, float32(42), raw.AsFloat32()[0])
	assert.Equal(t, float32(6), raw.At(1, 2))

	_, err = FromSlice(data, Shape{4, 2})
	require.Error(t, err)
}

func TestRawTensorAt_Panics(t *testing.T) {
	raw, err := NewRaw(Shape{2, 2})
	require.NoError(t, err)

	assert.Panics(t, func() { raw.At(0) })
	assert.Panics(t, func() { raw.At(2, 0) })
}

func TestRawTensorClone(t *testing.T) {
	raw, err := Full(Shape{1, 2, 2, 1}, 3)
	require.NoError(t, err)

	clone := raw.Clone()
	clone.AsFloat32()[0] = -1

	assert.Equal(t, float32(3), raw.AsFloat32()[0], "clone must not share storage")
	assert.True(t, raw.Shape().Equal(clone.Shape()))
}

func TestRandn_Deterministic(t *testing.T) {
	a, err := Randn(Shape{4, 4}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	b, err := Randn(Shape{4, 4}, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	assert.True(t, a.AllClose(b, 0))
}

func TestAllClose(t *testing.T) {
	a, _ := FromSlice([]float32{1, 2}, Shape{2})
	b, _ := FromSlice([]float32{1.0005, 2}, Shape{2})
	c, _ := FromSlice([]float32{1, 2}, Shape{1, 2})

	assert.True(t, a.AllClose(b, 1e-3))
	assert.False(t, a.AllClose(b, 1e-5))
	assert.False(t, a.AllClose(c, 1), "different shapes are never close")
}
