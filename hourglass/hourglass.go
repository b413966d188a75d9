// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package hourglass

import (
	"io"
	"log/slog"

	"github.com/born-ml/hourglass/internal/graph"
	"github.com/born-ml/hourglass/internal/hourglass"
	"github.com/born-ml/hourglass/internal/logutil"
	"github.com/born-ml/hourglass/tensor"
)

// Config holds the parameters of a stacked hourglass network.
type Config = hourglass.Config

// DefaultConfig returns the configuration for 16-joint pose estimation on
// 256x256 RGB crops with two stacks.
func DefaultConfig() Config {
	return hourglass.DefaultConfig()
}

// Defaults.
const (
	DefaultOrder         = hourglass.DefaultOrder
	DefaultFilters       = hourglass.DefaultFilters
	DefaultResidualDepth = hourglass.DefaultResidualDepth
	StemStride           = hourglass.StemStride
)

// Model is a finished, immutable layer graph.
type Model = graph.Model

// Node is one layer of a graph.
type Node = graph.Node

// Builder assembles a graph layer by layer. Scoped views share one graph;
// the first error sticks and is returned by Finish.
type Builder = graph.Builder

// Option configures a Builder.
type Option = graph.Option

// NormSpec holds the batch normalization hyper-parameters.
type NormSpec = graph.NormSpec

// Errors.
var (
	ErrInvalidConfig = hourglass.ErrInvalidConfig
	ErrShapeMismatch = graph.ErrShapeMismatch
	ErrInvalidOp     = graph.ErrInvalidOp
)

// WithLogger sets the logger construction records are written to.
func WithLogger(logger *slog.Logger) Option {
	return graph.WithLogger(logger)
}

// Quiet returns an option that discards construction logs.
func Quiet() Option {
	return graph.WithLogger(logutil.Discard())
}

// NewLogger returns a text logger at the given level. TraceLevel logs every
// layer as it is created.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return logutil.NewLogger(w, level)
}

// TraceLevel is below debug and enables per-layer construction records.
const TraceLevel = logutil.LevelTrace

// NewBuilder starts an empty graph named name.
func NewBuilder(name string, opts ...Option) *Builder {
	return graph.New(name, opts...)
}

// DefaultNorm returns the batch normalization settings of DefaultConfig.
func DefaultNorm() NormSpec {
	return NormSpec{Momentum: hourglass.DefaultMomentum, Epsilon: hourglass.DefaultEpsilon}
}

// Build validates cfg and assembles the network. Outputs are ordered by
// stack; the last one is the final prediction.
func Build(cfg Config, opts ...Option) (*Model, error) {
	return hourglass.Build(cfg, opts...)
}

// Stem reduces the input 4x and widens it to filters channels.
func Stem(b *Builder, x *Node, filters int, norm NormSpec) *Node {
	return hourglass.Stem(b, x, filters, norm)
}

// Bottleneck appends a residual block with filters output channels. With
// downsample the skip path is a 1x1 convolution.
func Bottleneck(b *Builder, x *Node, filters int, downsample bool) *Node {
	return hourglass.Bottleneck(b, x, filters, downsample)
}

// Module appends a recursive hourglass module of the given order. The output
// has the shape of x.
func Module(b *Builder, x *Node, order, filters, residualDepth int) *Node {
	return hourglass.Module(b, x, order, filters, residualDepth)
}

// Projection appends a 1x1 convolution followed by batch normalization and ReLU.
func Projection(b *Builder, x *Node, filters int, norm NormSpec) *Node {
	return hourglass.Projection(b, x, filters, norm)
}

// OutputShape returns the shape of every heatmap output of cfg.
func OutputShape(cfg Config) tensor.FeatureShape {
	return cfg.OutputShape()
}
