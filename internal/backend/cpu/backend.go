// Package cpu implements the NHWC float32 kernels the executor runs on.
//
// Kernels panic on contract violations (rank, channel counts, window sizes):
// callers check shapes before dispatching.
package cpu

import (
	"fmt"

	"github.com/born-ml/hourglass/internal/parallel"
	"github.com/born-ml/hourglass/internal/tensor"
)

// CPUBackend runs kernels on the CPU, splitting work across goroutines.
type CPUBackend struct {
	par parallel.Config
}

// New creates a CPU backend using every CPU.
func New() *CPUBackend {
	return &CPUBackend{
		par: parallel.DefaultConfig(),
	}
}

// NewWithConfig creates a CPU backend with explicit parallelism settings.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{par: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Workers returns the maximum number of goroutines a kernel uses.
func (cpu *CPUBackend) Workers() int {
	if !cpu.par.Enabled {
		return 1
	}
	return cpu.par.NumWorkers
}

func alloc(op string, shape tensor.Shape) *tensor.RawTensor {
	out, err := tensor.NewRaw(shape)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create output tensor: %v", op, err))
	}
	return out
}

// dims4 unpacks an NHWC shape.
func dims4(op string, x *tensor.RawTensor) (n, h, w, c int) {
	s := x.Shape()
	if len(s) != 4 {
		panic(fmt.Sprintf("%s: expected 4D input [N,H,W,C], got %dD", op, len(s)))
	}
	return s[0], s[1], s[2], s[3]
}
