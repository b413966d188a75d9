// Package graph builds layer graphs with explicitly tracked feature shapes.
//
// A Builder is the explicit construction context: every layer constructor
// takes it, checks its inputs' shapes, computes the output shape and registers
// the node under a unique scoped name. The first failure is kept and every
// later call becomes a no-op, so a whole network can be described without
// checking an error after every layer; Finish reports the failure and no
// partial model escapes.
package graph

import (
	"fmt"
	"log/slog"

	dag "github.com/dominikbraun/graph"
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/pkg/errors"

	"github.com/born-ml/hourglass/internal/logutil"
	"github.com/born-ml/hourglass/internal/tensor"
)

// state is shared by a builder and all of its scoped children.
type state struct {
	name   string
	nodes  []*Node
	names  *linkedhashmap.Map // name -> *Node, in creation order
	counts map[string]int
	dag    dag.Graph[int, *Node]
	err    error
	done   bool
	logger *slog.Logger
}

// Option configures a Builder.
type Option func(*state)

// WithLogger sets the logger receiving per-node TRACE records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *state) {
		s.logger = logger
	}
}

// Builder creates nodes inside a name scope.
type Builder struct {
	st    *state
	scope string
}

func nodeHash(n *Node) int {
	return n.id
}

// New creates a builder for a model with the given name.
func New(name string, opts ...Option) *Builder {
	st := &state{
		name:   name,
		names:  linkedhashmap.New(),
		counts: make(map[string]int),
		dag:    dag.New(nodeHash, dag.Directed(), dag.Acyclic()),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(st)
	}
	return &Builder{st: st}
}

// In returns a builder that shares this builder's graph and prefixes node
// names with scope.
func (b *Builder) In(scope string) *Builder {
	if b.scope != "" {
		scope = b.scope + "/" + scope
	}
	return &Builder{st: b.st, scope: scope}
}

// Scope returns the current name prefix.
func (b *Builder) Scope() string {
	return b.scope
}

// Err returns the first error recorded by any builder sharing this graph.
func (b *Builder) Err() error {
	return b.st.err
}

// Fail records err unless an earlier error is already recorded.
func (b *Builder) Fail(err error) {
	if b.st.err == nil && err != nil {
		b.st.err = err
	}
}

// Len returns the number of nodes created so far.
func (b *Builder) Len() int {
	return len(b.st.nodes)
}

// Logger returns the logger of the builder.
func (b *Builder) Logger() *slog.Logger {
	return b.st.logger
}

// Input declares the model input.
func (b *Builder) Input(shape tensor.FeatureShape) *Node {
	if !b.ready(OpInput) {
		return nil
	}
	if err := shape.Validate(); err != nil {
		b.Fail(errors.Wrapf(ErrInvalidOp, "input: %v", err))
		return nil
	}
	return b.add(OpInput, Attrs{}, nil, shape)
}

// Conv2D applies a 2D convolution.
func (b *Builder) Conv2D(x *Node, spec ConvSpec) *Node {
	if !b.ready(OpConv2D, x) {
		return nil
	}
	switch {
	case spec.Filters <= 0:
		b.failOp(OpConv2D, "invalid filters %d", spec.Filters)
		return nil
	case spec.Kernel <= 0:
		b.failOp(OpConv2D, "invalid kernel size %d", spec.Kernel)
		return nil
	case spec.Stride <= 0:
		b.failOp(OpConv2D, "invalid stride %d", spec.Stride)
		return nil
	}

	in := x.shape
	out := tensor.FeatureShape{
		Height:   spec.outputSize(in.Height),
		Width:    spec.outputSize(in.Width),
		Channels: spec.Filters,
	}
	if out.Height <= 0 || out.Width <= 0 {
		b.failOp(OpConv2D, "kernel %d too large for input %s", spec.Kernel, in)
		return nil
	}
	return b.add(OpConv2D, Attrs{Conv: spec}, []*Node{x}, out)
}

// BatchNorm normalizes each channel with running statistics.
func (b *Builder) BatchNorm(x *Node, spec NormSpec) *Node {
	if !b.ready(OpBatchNorm, x) {
		return nil
	}
	if spec.Momentum < 0 || spec.Momentum >= 1 {
		b.failOp(OpBatchNorm, "momentum %g outside [0, 1)", spec.Momentum)
		return nil
	}
	if spec.Epsilon <= 0 {
		b.failOp(OpBatchNorm, "epsilon %g must be positive", spec.Epsilon)
		return nil
	}
	return b.add(OpBatchNorm, Attrs{Norm: spec}, []*Node{x}, x.shape)
}

// ReLU applies the rectified linear activation.
func (b *Builder) ReLU(x *Node) *Node {
	if !b.ready(OpReLU, x) {
		return nil
	}
	return b.add(OpReLU, Attrs{}, []*Node{x}, x.shape)
}

// MaxPool2D applies non-overlapping max pooling with window and stride size.
func (b *Builder) MaxPool2D(x *Node, size int) *Node {
	if !b.ready(OpMaxPool2D, x) {
		return nil
	}
	in := x.shape
	if size <= 0 || size > in.Height || size > in.Width {
		b.failOp(OpMaxPool2D, "pool size %d invalid for input %s", size, in)
		return nil
	}
	out := tensor.FeatureShape{Height: in.Height / size, Width: in.Width / size, Channels: in.Channels}
	return b.add(OpMaxPool2D, Attrs{Size: size}, []*Node{x}, out)
}

// UpSample2D repeats every pixel size times along both spatial axes.
func (b *Builder) UpSample2D(x *Node, size int) *Node {
	if !b.ready(OpUpSample2D, x) {
		return nil
	}
	if size <= 0 {
		b.failOp(OpUpSample2D, "invalid size %d", size)
		return nil
	}
	in := x.shape
	out := tensor.FeatureShape{Height: in.Height * size, Width: in.Width * size, Channels: in.Channels}
	return b.add(OpUpSample2D, Attrs{Size: size}, []*Node{x}, out)
}

// Add sums two or more nodes elementwise. All operands must have exactly the
// same shape; a mismatch records a *ShapeError naming the combine.
func (b *Builder) Add(xs ...*Node) *Node {
	if !b.ready(OpAdd, xs...) {
		return nil
	}
	if len(xs) < 2 {
		b.failOp(OpAdd, "needs at least 2 inputs, got %d", len(xs))
		return nil
	}
	want := xs[0].shape
	for i, x := range xs[1:] {
		if x.shape != want {
			b.Fail(errors.WithStack(&ShapeError{
				Op:      OpAdd,
				Node:    b.peekName(OpAdd),
				Operand: i + 1,
				Want:    want,
				Got:     x.shape,
			}))
			return nil
		}
	}
	return b.add(OpAdd, Attrs{}, xs, want)
}

// Finish assembles the model. It returns the first recorded error, if any.
// The builder and its scopes cannot add nodes afterwards.
func (b *Builder) Finish(input *Node, outputs ...*Node) (*Model, error) {
	st := b.st
	if st.done {
		return nil, errors.WithStack(ErrFinished)
	}
	if st.err != nil {
		return nil, errors.Wrapf(st.err, "build %s", st.name)
	}
	if input == nil || input.owner != st || input.op != OpInput {
		return nil, errors.WithStack(ErrNotInput)
	}
	if len(outputs) == 0 {
		return nil, errors.WithStack(ErrNoOutputs)
	}
	for i, out := range outputs {
		if out == nil {
			return nil, errors.Wrapf(ErrNilInput, "output %d", i)
		}
		if out.owner != st {
			return nil, errors.Wrapf(ErrForeignNode, "output %d (%s)", i, out.name)
		}
	}
	if _, err := dag.TopologicalSort(st.dag); err != nil {
		return nil, errors.Wrap(err, "unable to order layers")
	}

	st.done = true
	m := newModel(st, input, outputs)
	st.logger.Debug("model assembled",
		"name", st.name, "layers", len(st.nodes), "outputs", len(outputs), "params", m.ParamCount())
	return m, nil
}

func (b *Builder) ready(op Op, xs ...*Node) bool {
	if b.st.err != nil {
		return false
	}
	if b.st.done {
		b.Fail(errors.Wrapf(ErrFinished, "%s in scope %q", op, b.scope))
		return false
	}
	for i, x := range xs {
		if x == nil {
			b.Fail(errors.Wrapf(ErrNilInput, "%s operand %d in scope %q", op, i, b.scope))
			return false
		}
		if x.owner != b.st {
			b.Fail(errors.Wrapf(ErrForeignNode, "%s operand %d (%s)", op, i, x.name))
			return false
		}
	}
	return true
}

func (b *Builder) failOp(op Op, format string, args ...any) {
	b.Fail(errors.Wrapf(ErrInvalidOp, "%s %q: %s", op, b.peekName(op), fmt.Sprintf(format, args...)))
}

func (b *Builder) scopedBase(op Op) string {
	if b.scope == "" {
		return op.baseName()
	}
	return b.scope + "/" + op.baseName()
}

// uniqueName returns the name the next node of kind op takes in this scope
// together with its numeric suffix: the bare kind first (suffix 0), then
// kind_1, kind_2 and so on.
func (b *Builder) uniqueName(op Op) (string, int) {
	base := b.scopedBase(op)
	if _, found := b.st.names.Get(base); !found {
		return base, 0
	}
	for i := b.st.counts[base] + 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", base, i)
		if _, found := b.st.names.Get(candidate); !found {
			return candidate, i
		}
	}
}

func (b *Builder) peekName(op Op) string {
	name, _ := b.uniqueName(op)
	return name
}

func (b *Builder) add(op Op, attrs Attrs, inputs []*Node, shape tensor.FeatureShape) *Node {
	st := b.st
	name, suffix := b.uniqueName(op)

	n := &Node{
		id:     len(st.nodes),
		name:   name,
		op:     op,
		attrs:  attrs,
		inputs: inputs,
		shape:  shape,
		owner:  st,
	}
	err := st.dag.AddVertex(n,
		dag.VertexAttribute("label", fmt.Sprintf("%s\\n%s %s", name, op, shape)),
		dag.VertexAttribute("shape", "box"),
		dag.VertexAttribute("style", "filled"),
		dag.VertexAttribute("fillcolor", fillColor(op)),
	)
	if err != nil {
		b.Fail(errors.Wrapf(err, "unable to add vertex %s", name))
		return nil
	}
	for _, in := range inputs {
		err := st.dag.AddEdge(in.id, n.id)
		if err != nil && !errors.Is(err, dag.ErrEdgeAlreadyExists) {
			b.Fail(errors.Wrapf(err, "unable to add edge from %s to %s", in.name, name))
			return nil
		}
	}

	st.nodes = append(st.nodes, n)
	st.names.Put(name, n)
	if suffix > 0 {
		st.counts[b.scopedBase(op)] = suffix
	}
	logutil.Trace(st.logger, "node", "name", name, "op", op.String(), "shape", shape.String())
	return n
}
