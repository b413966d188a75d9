package hourglass

import "github.com/born-ml/hourglass/internal/graph"

// Projection appends a 1x1 convolution (he_normal) followed by batch
// normalization and a ReLU. It changes only the channel count.
func Projection(b *graph.Builder, x *graph.Node, filters int, norm graph.NormSpec) *graph.Node {
	h := b.Conv2D(x, graph.ConvSpec{
		Filters:     filters,
		Kernel:      1,
		Stride:      1,
		Initializer: graph.HeNormal,
	})
	h = b.BatchNorm(h, norm)
	return b.ReLU(h)
}
