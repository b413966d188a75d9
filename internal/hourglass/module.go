package hourglass

import (
	"github.com/pkg/errors"

	"github.com/born-ml/hourglass/internal/graph"
)

// Module appends a recursive hourglass module of the given order and returns
// its output, which has the same shape as x.
//
// The upper branch keeps the resolution: one projecting bottleneck followed
// by residualDepth identity bottlenecks. The lower branch halves the
// resolution, runs residualDepth bottlenecks (the first one projecting), then
// either a nested module of order-1 or, at order 1, residualDepth more
// bottlenecks, then residualDepth bottlenecks and a 2x nearest upsample. The
// branches are summed.
//
// Nested modules always use DefaultResidualDepth.
//
// Node names are scoped as up/, low/, inner/ (or base/ at order 1) and out/
// below b's scope; the sum is b's own add node.
func Module(b *graph.Builder, x *graph.Node, order, filters, residualDepth int) *graph.Node {
	switch {
	case order < 1:
		b.Fail(errors.Wrapf(graph.ErrInvalidOp, "hourglass %q: order must be >= 1, got %d", b.Scope(), order))
		return nil
	case residualDepth < 1:
		b.Fail(errors.Wrapf(graph.ErrInvalidOp,
			"hourglass %q: residual depth must be >= 1, got %d", b.Scope(), residualDepth))
		return nil
	}

	up := b.In("up")
	upper := Bottleneck(up.In("block_0"), x, filters, true)
	upper = residualStack(up, upper, filters, 1, residualDepth)

	low := b.In("low")
	lower := low.MaxPool2D(x, 2)
	lower = Bottleneck(low.In("block_0"), lower, filters, true)
	lower = residualStack(low, lower, filters, 1, residualDepth-1)

	if order > 1 {
		lower = Module(b.In("inner"), lower, order-1, filters, DefaultResidualDepth)
	} else {
		lower = residualStack(b.In("base"), lower, filters, 0, residualDepth)
	}

	out := b.In("out")
	lower = residualStack(out, lower, filters, 0, residualDepth)
	lower = out.UpSample2D(lower, 2)

	return b.Add(upper, lower)
}
