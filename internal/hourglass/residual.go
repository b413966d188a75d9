package hourglass

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/hourglass/internal/graph"
)

// Bottleneck appends a bottleneck residual block to b and returns its output.
//
// The main path is 1x1 (filters/2, relu), 3x3 (filters/2, relu) and 1x1
// (filters, relu). When downsample is set the skip path is a 1x1 projection
// to filters channels and the main path reads that projection; otherwise the
// skip is the identity and x must already carry filters channels.
func Bottleneck(b *graph.Builder, x *graph.Node, filters int, downsample bool) *graph.Node {
	if filters < 2 || filters%2 != 0 {
		b.Fail(errors.Wrapf(graph.ErrInvalidOp,
			"bottleneck %q: filters must be even and >= 2, got %d", b.Scope(), filters))
		return nil
	}

	skip := x
	if downsample {
		skip = b.In("skip").Conv2D(x, graph.ConvSpec{Filters: filters, Kernel: 1, Stride: 1})
	}

	h := b.Conv2D(skip, pointwise(filters/2))
	h = b.Conv2D(h, graph.ConvSpec{Filters: filters / 2, Kernel: 3, Stride: 1, Activation: graph.ReLU})
	h = b.Conv2D(h, pointwise(filters))
	return b.Add(h, skip)
}

// residualStack chains n identity bottlenecks named block_first ... block_first+n-1.
func residualStack(b *graph.Builder, x *graph.Node, filters, first, n int) *graph.Node {
	for i := 0; i < n; i++ {
		x = Bottleneck(b.In(fmt.Sprintf("block_%d", first+i)), x, filters, false)
	}
	return x
}

func pointwise(filters int) graph.ConvSpec {
	return graph.ConvSpec{
		Filters:    filters,
		Kernel:     1,
		Stride:     1,
		Padding:    graph.PaddingValid,
		Activation: graph.ReLU,
	}
}
