package graph

import (
	"bytes"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/hourglass/internal/logutil"
	"github.com/born-ml/hourglass/internal/tensor"
)

func newTestBuilder() *Builder {
	return New("test", WithLogger(logutil.Discard()))
}

func TestBuilder_Conv2DShapes(t *testing.T) {
	tests := []struct {
		name string
		in   tensor.FeatureShape
		spec ConvSpec
		want tensor.FeatureShape
	}{
		{
			name: "7x7 stride 2 same",
			in:   tensor.NewFeatureShape(256, 256, 3),
			spec: ConvSpec{Filters: 64, Kernel: 7, Stride: 2},
			want: tensor.NewFeatureShape(128, 128, 64),
		},
		{
			name: "same rounds up",
			in:   tensor.NewFeatureShape(7, 5, 3),
			spec: ConvSpec{Filters: 8, Kernel: 3, Stride: 2},
			want: tensor.NewFeatureShape(4, 3, 8),
		},
		{
			name: "1x1 keeps spatial",
			in:   tensor.NewFeatureShape(64, 64, 256),
			spec: ConvSpec{Filters: 16, Kernel: 1, Stride: 1},
			want: tensor.NewFeatureShape(64, 64, 16),
		},
		{
			name: "3x3 valid",
			in:   tensor.NewFeatureShape(10, 8, 1),
			spec: ConvSpec{Filters: 4, Kernel: 3, Stride: 1, Padding: PaddingValid},
			want: tensor.NewFeatureShape(8, 6, 4),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder()
			x := b.Input(tt.in)
			y := b.Conv2D(x, tt.spec)
			require.NoError(t, b.Err())
			assert.Equal(t, tt.want, y.Shape())
		})
	}
}

func TestConvSpec_PadBefore(t *testing.T) {
	spec := ConvSpec{Filters: 1, Kernel: 7, Stride: 2}
	// out 128, total padding 5: 2 before, 3 after
	assert.Equal(t, 2, spec.PadBefore(256))

	spec = ConvSpec{Filters: 1, Kernel: 3, Stride: 1}
	assert.Equal(t, 1, spec.PadBefore(17))

	spec = ConvSpec{Filters: 1, Kernel: 1, Stride: 1}
	assert.Equal(t, 0, spec.PadBefore(17))

	spec.Padding = PaddingValid
	assert.Equal(t, 0, spec.PadBefore(17))
}

func TestBuilder_PoolUpsampleRoundTrip(t *testing.T) {
	b := newTestBuilder()
	x := b.Input(tensor.NewFeatureShape(64, 32, 8))
	low := b.MaxPool2D(x, 2)
	up := b.UpSample2D(low, 2)
	sum := b.Add(x, up)
	require.NoError(t, b.Err())

	assert.Equal(t, tensor.NewFeatureShape(32, 16, 8), low.Shape())
	assert.Equal(t, x.Shape(), up.Shape())
	assert.Equal(t, x.Shape(), sum.Shape())
}

func TestBuilder_Names(t *testing.T) {
	b := newTestBuilder()
	x := b.Input(tensor.NewFeatureShape(8, 8, 4))

	stem := b.In("stem")
	c1 := stem.Conv2D(x, ConvSpec{Filters: 4, Kernel: 1, Stride: 1})
	c2 := stem.Conv2D(c1, ConvSpec{Filters: 4, Kernel: 1, Stride: 1})
	c3 := stem.In("inner").Conv2D(c2, ConvSpec{Filters: 4, Kernel: 1, Stride: 1})
	n := stem.BatchNorm(c3, DefaultNorm)
	r := stem.ReLU(n)
	require.NoError(t, b.Err())

	assert.Equal(t, "input", x.Name())
	assert.Equal(t, "stem/conv2d", c1.Name())
	assert.Equal(t, "stem/conv2d_1", c2.Name())
	assert.Equal(t, "stem/inner/conv2d", c3.Name())
	assert.Equal(t, "stem/batch_norm", n.Name())
	assert.Equal(t, "stem/relu", r.Name())
	assert.Equal(t, "stem/inner", stem.In("inner").Scope())

	for i, node := range []*Node{x, c1, c2, c3, n, r} {
		assert.Equal(t, i, node.ID())
	}
}

func TestBuilder_AddShapeMismatch(t *testing.T) {
	b := newTestBuilder()
	x := b.Input(tensor.NewFeatureShape(16, 16, 8))
	y := b.In("branch").Conv2D(x, ConvSpec{Filters: 4, Kernel: 1, Stride: 1})

	sum := b.In("merge").Add(x, y)
	assert.Nil(t, sum)

	err := b.Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShapeMismatch))

	var shapeErr *ShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, "merge/add", shapeErr.Node)
	assert.Equal(t, 1, shapeErr.Operand)
	assert.Equal(t, 4, shapeErr.Got.Channels)
	assert.Equal(t, 8, shapeErr.Want.Channels)
	assert.Contains(t, err.Error(), "merge/add")
}

func TestBuilder_StickyError(t *testing.T) {
	b := newTestBuilder()
	x := b.Input(tensor.NewFeatureShape(4, 4, 1))

	bad := b.Conv2D(x, ConvSpec{Filters: 0, Kernel: 1, Stride: 1})
	assert.Nil(t, bad)
	first := b.Err()
	require.True(t, errors.Is(first, ErrInvalidOp))

	// Every later call is a no-op and keeps the first error.
	assert.Nil(t, b.ReLU(bad))
	assert.Nil(t, b.MaxPool2D(x, 2))
	assert.Equal(t, first, b.Err())
	assert.Equal(t, 1, b.Len())

	_, err := b.Finish(x, x)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidOp))
}

func TestBuilder_InvalidOps(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder, x *Node)
		want  error
	}{
		{"kernel too large", func(b *Builder, x *Node) {
			b.Conv2D(x, ConvSpec{Filters: 1, Kernel: 9, Stride: 1, Padding: PaddingValid})
		}, ErrInvalidOp},
		{"zero stride", func(b *Builder, x *Node) {
			b.Conv2D(x, ConvSpec{Filters: 1, Kernel: 1})
		}, ErrInvalidOp},
		{"pool larger than input", func(b *Builder, x *Node) { b.MaxPool2D(x, 8) }, ErrInvalidOp},
		{"zero upsample", func(b *Builder, x *Node) { b.UpSample2D(x, 0) }, ErrInvalidOp},
		{"momentum one", func(b *Builder, x *Node) { b.BatchNorm(x, NormSpec{Momentum: 1, Epsilon: 1e-3}) }, ErrInvalidOp},
		{"zero epsilon", func(b *Builder, x *Node) { b.BatchNorm(x, NormSpec{Momentum: 0.9}) }, ErrInvalidOp},
		{"single add operand", func(b *Builder, x *Node) { b.Add(x) }, ErrInvalidOp},
		{"nil operand", func(b *Builder, _ *Node) { b.ReLU(nil) }, ErrNilInput},
		{"foreign operand", func(b *Builder, _ *Node) {
			other := newTestBuilder().Input(tensor.NewFeatureShape(4, 4, 4))
			b.ReLU(other)
		}, ErrForeignNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder()
			x := b.Input(tensor.NewFeatureShape(4, 4, 4))
			tt.build(b, x)
			assert.True(t, errors.Is(b.Err(), tt.want), "got %v", b.Err())
		})
	}
}

func TestBuilder_Finish(t *testing.T) {
	b := newTestBuilder()
	x := b.Input(tensor.NewFeatureShape(8, 8, 2))
	y := b.Conv2D(x, ConvSpec{Filters: 4, Kernel: 3, Stride: 1})
	z := b.ReLU(y)

	_, err := b.Finish(y)
	assert.True(t, errors.Is(err, ErrNotInput))
	_, err = b.Finish(x)
	assert.True(t, errors.Is(err, ErrNoOutputs))

	m, err := b.Finish(x, z, y)
	require.NoError(t, err)
	assert.Equal(t, "test", m.Name())
	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []*Node{z, y}, m.Outputs())

	// The builder is closed once a model exists.
	assert.Nil(t, b.ReLU(z))
	assert.True(t, errors.Is(b.Err(), ErrFinished))
	_, err = b.Finish(x, z)
	assert.True(t, errors.Is(err, ErrFinished))
}

func TestNode_Params(t *testing.T) {
	b := newTestBuilder()
	x := b.Input(tensor.NewFeatureShape(8, 8, 3))
	c := b.Conv2D(x, ConvSpec{Filters: 16, Kernel: 3, Stride: 1, Initializer: HeNormal})
	nb := b.Conv2D(c, ConvSpec{Filters: 4, Kernel: 1, Stride: 1, NoBias: true})
	n := b.BatchNorm(nb, DefaultNorm)
	require.NoError(t, b.Err())

	params := c.Params()
	require.Len(t, params, 2)
	assert.Equal(t, tensor.Shape{3, 3, 3, 16}, params[0].Shape)
	assert.Equal(t, HeNormal, params[0].Initializer)
	assert.Equal(t, 27, params[0].FanIn)
	assert.Equal(t, 144, params[0].FanOut)
	assert.Equal(t, tensor.Shape{16}, params[1].Shape)
	assert.Equal(t, 3*3*3*16+16, c.ParamCount())
	assert.Equal(t, "conv2d/kernel", c.ParamName("kernel"))

	assert.Len(t, nb.Params(), 1)
	assert.Len(t, n.Params(), 4)
	assert.Equal(t, 16, n.ParamCount())
	assert.Nil(t, x.Params())

	assert.Equal(t,
		"Conv2D(filters=16, kernel_size=(3, 3), stride=1, padding=same, activation=linear)",
		c.String())
}

func TestLogger_TraceRecords(t *testing.T) {
	var buf bytes.Buffer
	b := New("traced", WithLogger(logutil.NewLogger(&buf, logutil.LevelTrace)))
	b.In("stem").ReLU(b.Input(tensor.NewFeatureShape(2, 2, 1)))

	out := buf.String()
	assert.Contains(t, out, "name=stem/relu")
	assert.Contains(t, out, "op=ReLU")
}
