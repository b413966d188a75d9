package graph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/hourglass/internal/tensor"
)

// buildDiamond builds input -> (conv a, conv b) -> add -> relu.
func buildDiamond(t *testing.T, filters int) *Model {
	t.Helper()

	b := newTestBuilder()
	x := b.Input(tensor.NewFeatureShape(8, 8, 4))
	a := b.In("left").Conv2D(x, ConvSpec{Filters: filters, Kernel: 1, Stride: 1})
	c := b.In("right").Conv2D(x, ConvSpec{Filters: filters, Kernel: 3, Stride: 1, Activation: ReLU})
	sum := b.Add(a, c)
	out := b.ReLU(sum)

	m, err := b.Finish(x, out)
	require.NoError(t, err)
	return m
}

func TestModel_Order(t *testing.T) {
	m := buildDiamond(t, 4)

	order, err := m.Order()
	require.NoError(t, err)
	require.Len(t, order, m.Len())

	names := make([]string, len(order))
	for i, n := range order {
		names[i] = n.Name()
	}
	assert.Equal(t, []string{"input", "left/conv2d", "right/conv2d", "add", "relu"}, names)
}

func TestModel_Consumers(t *testing.T) {
	m := buildDiamond(t, 4)

	consumers, err := m.Consumers("input")
	require.NoError(t, err)
	require.Len(t, consumers, 2)
	assert.Equal(t, "left/conv2d", consumers[0].Name())
	assert.Equal(t, "right/conv2d", consumers[1].Name())

	consumers, err = m.Consumers("relu")
	require.NoError(t, err)
	assert.Empty(t, consumers)

	_, err = m.Consumers("missing")
	require.Error(t, err)
}

func TestModel_Queries(t *testing.T) {
	m := buildDiamond(t, 4)

	n, ok := m.Find("right/conv2d")
	require.True(t, ok)
	assert.Equal(t, OpConv2D, n.Op())
	_, ok = m.Find("nope")
	assert.False(t, ok)

	assert.Equal(t, 2, m.CountOps(OpConv2D, ""))
	assert.Equal(t, 1, m.CountOps(OpConv2D, "left"))
	assert.Equal(t, 0, m.CountOps(OpConv2D, "lef"))
	assert.Equal(t, (4*4+4)+(3*3*4*4+4), m.ParamCount())
	assert.Equal(t, m.ParamCount(), m.TrainableParamCount())
}

func TestModel_LayerShapesStable(t *testing.T) {
	a := buildDiamond(t, 4)
	b := buildDiamond(t, 4)
	c := buildDiamond(t, 8)

	assert.Equal(t, a.LayerShapes(), b.LayerShapes())
	assert.NotEqual(t, a.LayerShapes(), c.LayerShapes())

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)
	fc, err := c.Fingerprint()
	require.NoError(t, err)

	assert.Len(t, fa, 64)
	assert.Equal(t, fa, fb)
	assert.NotEqual(t, fa, fc)
}

func TestTopology_RoundTrip(t *testing.T) {
	m := buildDiamond(t, 4)
	want := m.Topology()

	require.Len(t, want.Layers, 5)
	conv := want.Layers[2]
	assert.Equal(t, "Conv2D", conv.Op)
	assert.Equal(t, "relu", conv.Activation)
	assert.Equal(t, "glorot_uniform", conv.Initializer)
	assert.True(t, conv.UseBias)
	assert.Equal(t, []string{"input"}, conv.Inputs)
	assert.Equal(t, []string{"left/conv2d", "right/conv2d"}, want.Layers[3].Inputs)
	assert.Equal(t, []string{"relu"}, want.Outputs)

	for _, format := range []Format{FormatJSON, FormatCBOR} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, want.Encode(&buf, format))

			got, err := DecodeTopology(&buf, format)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	var buf bytes.Buffer
	err := want.Encode(&buf, "xml")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
	_, err = DecodeTopology(strings.NewReader(""), "xml")
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}

func TestModel_WriteDOT(t *testing.T) {
	m := buildDiamond(t, 4)

	var buf bytes.Buffer
	require.NoError(t, m.WriteDOT(&buf))

	out := buf.String()
	assert.Contains(t, out, "digraph")
	assert.Contains(t, out, "right/conv2d")
	assert.Contains(t, out, fillColor(OpConv2D))
	assert.Contains(t, out, "->")
}

func TestFillColor(t *testing.T) {
	assert.Equal(t, "#ffffff", fillColor(Op(99)))
	assert.True(t, strings.HasPrefix(fillColor(OpAdd), "#"))
	assert.NotEqual(t, fillColor(OpAdd), fillColor(OpConv2D))
}

func TestParseOp(t *testing.T) {
	for o := OpInput; o <= OpAdd; o++ {
		got, err := ParseOp(o.String())
		require.NoError(t, err)
		assert.Equal(t, o, got)
	}
	_, err := ParseOp("Dense")
	require.Error(t, err)
}
