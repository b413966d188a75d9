// Package hourglass assembles Stacked Hourglass networks for heatmap-based
// keypoint estimation on top of the graph builder.
package hourglass

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/hourglass/internal/graph"
)

// Build validates cfg and assembles the network: a stem that reduces the
// input 4x, then cfg.NumStacks hourglass stacks each emitting one heatmap
// output. The projected features become the trunk, and every stack but the
// last merges its heatmap back into it.
//
// Outputs are ordered by stack; the last one is the final prediction.
func Build(cfg Config, opts ...graph.Option) (*graph.Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := graph.New(cfg.Name, opts...)
	logger := b.Logger()
	norm := cfg.norm()

	input := b.Input(cfg.InputShape)
	trunk := Stem(b.In("stem"), input, cfg.Filters, norm)

	outputs := make([]*graph.Node, 0, cfg.NumStacks)
	for i := 0; i < cfg.NumStacks; i++ {
		s := b.In(StackScope(i))

		trunk = Module(s.In("hourglass"), trunk, cfg.Order, cfg.Filters, cfg.ResidualDepth)
		trunk = residualStack(s.In("refine"), trunk, cfg.Filters, 0, cfg.ResidualDepth)
		trunk = Projection(s.In("projection"), trunk, cfg.Filters, norm)

		heatmap := s.In("heatmap").Conv2D(trunk, graph.ConvSpec{
			Filters:     cfg.NumHeatmaps,
			Kernel:      1,
			Stride:      1,
			Initializer: graph.HeNormal,
		})
		outputs = append(outputs, heatmap)

		if i < cfg.NumStacks-1 {
			trunk = merge(s.In("merge"), trunk, heatmap, cfg.Filters)
		}

		if err := b.Err(); err != nil {
			return nil, errors.Wrapf(err, "stack %d", i)
		}
		logger.Debug("stack assembled", "stack", i, "layers", b.Len())
	}

	return b.Finish(input, outputs...)
}

// Stem appends the input stem: a 7x7 stride-2 convolution to filters/4
// channels with batch normalization and ReLU, a projecting bottleneck to
// filters/2, a 2x2 max-pool, a plain bottleneck and a projecting bottleneck
// to filters.
func Stem(b *graph.Builder, x *graph.Node, filters int, norm graph.NormSpec) *graph.Node {
	h := b.Conv2D(x, graph.ConvSpec{
		Filters:     filters / 4,
		Kernel:      7,
		Stride:      2,
		Initializer: graph.HeNormal,
	})
	h = b.BatchNorm(h, norm)
	h = b.ReLU(h)
	h = Bottleneck(b.In("block_0"), h, filters/2, true)
	h = b.MaxPool2D(h, 2)
	h = Bottleneck(b.In("block_1"), h, filters/2, false)
	return Bottleneck(b.In("block_2"), h, filters, true)
}

// merge sums the projected features with 1x1 convolutions of themselves and
// of the stack's heatmap.
func merge(b *graph.Builder, features, heatmap *graph.Node, filters int) *graph.Node {
	spec := graph.ConvSpec{Filters: filters, Kernel: 1, Stride: 1, Padding: graph.PaddingValid}
	f := b.In("features").Conv2D(features, spec)
	h := b.In("heatmap").Conv2D(heatmap, spec)
	return b.Add(features, f, h)
}

// StackScope returns the name scope of stack i.
func StackScope(i int) string {
	return fmt.Sprintf("stack_%d", i)
}

// RecursionDepth returns the number of nested levels of stack i's hourglass
// module, counted as its max-pool layers.
func RecursionDepth(m *graph.Model, stack int) int {
	return m.CountOps(graph.OpMaxPool2D, StackScope(stack)+"/hourglass")
}
