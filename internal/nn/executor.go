package nn

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/born-ml/hourglass/internal/graph"
	"github.com/born-ml/hourglass/internal/logutil"
	"github.com/born-ml/hourglass/internal/tensor"
)

// ErrInputShape is returned when the executor input does not match the
// model's input layer.
var ErrInputShape = errors.New("input shape does not match model")

// Backend is the set of NHWC kernels the executor dispatches to.
type Backend interface {
	Conv2D(input, kernel *tensor.RawTensor, stride, padTop, padLeft, outH, outW int) *tensor.RawTensor
	MaxPool2D(input *tensor.RawTensor, size int) *tensor.RawTensor
	UpSampleNearest(input *tensor.RawTensor, size int) *tensor.RawTensor
	Add(xs ...*tensor.RawTensor) *tensor.RawTensor
	ReLU(x *tensor.RawTensor) *tensor.RawTensor
	ReLUInplace(x *tensor.RawTensor) *tensor.RawTensor
	AddBias(x, bias *tensor.RawTensor) *tensor.RawTensor
	BatchNormInference(x, gamma, beta, mean, variance *tensor.RawTensor, eps float64) *tensor.RawTensor
	BatchNormTraining(x, gamma, beta *tensor.RawTensor, eps float64) (out, mean, variance *tensor.RawTensor)
}

// Executor runs a model on a backend.
//
// In Training mode batch normalization uses the statistics of the batch and
// updates the moving statistics in Weights; otherwise it uses the moving
// statistics and Weights is read-only.
type Executor struct {
	Model    *graph.Model
	Weights  *Weights
	Backend  Backend
	Training bool
	Logger   *slog.Logger
}

// Forward runs the model on an NHWC input and returns one tensor per model
// output, in output order.
func (e *Executor) Forward(ctx context.Context, input *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	batch, err := e.checkInput(input)
	if err != nil {
		return nil, err
	}

	order, err := e.Model.Order()
	if err != nil {
		return nil, err
	}

	// Intermediate values are released once their last consumer ran.
	pending := make(map[int]int, len(order))
	for _, n := range order {
		for _, in := range n.Inputs() {
			pending[in.ID()]++
		}
	}
	for _, out := range e.Model.Outputs() {
		pending[out.ID()]++
	}

	start := time.Now()
	values := make(map[int]*tensor.RawTensor, len(order))
	for _, n := range order {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrapf(err, "forward interrupted at %s", n.Name())
		}

		out, err := e.apply(n, input, values)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %s", n.Name())
		}
		if want := n.Shape().NHWC(batch); !out.Shape().Equal(want) {
			return nil, errors.Wrapf(ErrShapeMismatch, "layer %s produced %v, want %v", n.Name(), out.Shape(), want)
		}
		values[n.ID()] = out

		for _, in := range n.Inputs() {
			pending[in.ID()]--
			if pending[in.ID()] == 0 {
				delete(values, in.ID())
			}
		}
		logutil.Trace(logger, "forward", "layer", n.Name(), "shape", out.Shape())
	}

	outputs := make([]*tensor.RawTensor, len(e.Model.Outputs()))
	for i, out := range e.Model.Outputs() {
		outputs[i] = values[out.ID()]
	}
	logger.Debug("forward complete",
		"model", e.Model.Name(), "batch", batch, "training", e.Training, "elapsed", time.Since(start))
	return outputs, nil
}

func (e *Executor) checkInput(input *tensor.RawTensor) (int, error) {
	if input == nil {
		return 0, errors.Wrap(ErrInputShape, "nil input")
	}
	got, err := input.Shape().Feature()
	if err != nil {
		return 0, errors.Wrapf(ErrInputShape, "%v", err)
	}
	if want := e.Model.Input().Shape(); got != want {
		return 0, errors.Wrapf(ErrInputShape, "got %s, want %s", got, want)
	}
	return input.Shape()[0], nil
}

func (e *Executor) apply(n *graph.Node, input *tensor.RawTensor, values map[int]*tensor.RawTensor) (*tensor.RawTensor, error) {
	ins := make([]*tensor.RawTensor, len(n.Inputs()))
	for i, in := range n.Inputs() {
		v, ok := values[in.ID()]
		if !ok {
			return nil, errors.Errorf("input %s not computed", in.Name())
		}
		ins[i] = v
	}

	switch n.Op() {
	case graph.OpInput:
		return input, nil
	case graph.OpConv2D:
		return e.conv(n, ins[0])
	case graph.OpBatchNorm:
		return e.batchNorm(n, ins[0])
	case graph.OpReLU:
		return e.Backend.ReLU(ins[0]), nil
	case graph.OpMaxPool2D:
		return e.Backend.MaxPool2D(ins[0], n.Attrs().Size), nil
	case graph.OpUpSample2D:
		return e.Backend.UpSampleNearest(ins[0], n.Attrs().Size), nil
	case graph.OpAdd:
		return e.Backend.Add(ins...), nil
	default:
		return nil, errors.Wrapf(graph.ErrInvalidOp, "unsupported op %s", n.Op())
	}
}

func (e *Executor) param(n *graph.Node, suffix string) (*tensor.RawTensor, error) {
	p, ok := e.Weights.Get(n.ParamName(suffix))
	if !ok {
		return nil, errors.Wrapf(ErrMissingParameter, "%s", n.ParamName(suffix))
	}
	return p.Tensor(), nil
}

func (e *Executor) conv(n *graph.Node, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	spec := n.Attrs().Conv
	kernel, err := e.param(n, "kernel")
	if err != nil {
		return nil, err
	}

	in := n.Inputs()[0].Shape()
	out := n.Shape()
	y := e.Backend.Conv2D(x, kernel, spec.Stride,
		spec.PadBefore(in.Height), spec.PadBefore(in.Width), out.Height, out.Width)

	if !spec.NoBias {
		bias, err := e.param(n, "bias")
		if err != nil {
			return nil, err
		}
		e.Backend.AddBias(y, bias)
	}
	if spec.Activation == graph.ReLU {
		e.Backend.ReLUInplace(y)
	}
	return y, nil
}

func (e *Executor) batchNorm(n *graph.Node, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	norm := n.Attrs().Norm
	var ps [4]*tensor.RawTensor
	for i, suffix := range []string{"gamma", "beta", "moving_mean", "moving_variance"} {
		t, err := e.param(n, suffix)
		if err != nil {
			return nil, err
		}
		ps[i] = t
	}
	gamma, beta, movingMean, movingVar := ps[0], ps[1], ps[2], ps[3]

	if !e.Training {
		return e.Backend.BatchNormInference(x, gamma, beta, movingMean, movingVar, norm.Epsilon), nil
	}

	y, mean, variance := e.Backend.BatchNormTraining(x, gamma, beta, norm.Epsilon)
	updateMoving(movingMean.AsFloat32(), mean.AsFloat32(), norm.Momentum)
	updateMoving(movingVar.AsFloat32(), variance.AsFloat32(), norm.Momentum)
	return y, nil
}

// updateMoving sets moving = momentum*moving + (1-momentum)*batch.
func updateMoving(moving, batch []float32, momentum float64) {
	for i, v := range batch {
		moving[i] = float32(momentum*float64(moving[i]) + (1-momentum)*float64(v))
	}
}
