package cpu

import (
	"fmt"

	"github.com/born-ml/hourglass/internal/parallel"
	"github.com/born-ml/hourglass/internal/tensor"
)

// rowChunk is the minimum number of image rows handed to one goroutine.
const rowChunk = 4

// forEach runs f over [0, n) rows. Rows are coarse work items, so the
// backend's chunk minimum is lowered to rowChunk.
func (cpu *CPUBackend) forEach(n int, f func(i int)) {
	cfg := cpu.par
	cfg.MinChunkSize = rowChunk
	parallel.For(n, f, cfg)
}

// Add sums tensors of identical shape element-wise.
func (cpu *CPUBackend) Add(xs ...*tensor.RawTensor) *tensor.RawTensor {
	if len(xs) < 2 {
		panic(fmt.Sprintf("add: need at least 2 inputs, got %d", len(xs)))
	}
	shape := xs[0].Shape()
	for i, x := range xs[1:] {
		if !x.Shape().Equal(shape) {
			panic(fmt.Sprintf("add: operand %d shape %v != %v", i+1, x.Shape(), shape))
		}
	}

	result := alloc("add", shape)
	dst := result.AsFloat32()
	copy(dst, xs[0].AsFloat32())
	for _, x := range xs[1:] {
		addInplace(dst, x.AsFloat32())
	}
	return result
}

func addInplace(dst, src []float32) {
	src = src[:len(dst)]
	for i := range dst {
		dst[i] += src[i]
	}
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	result := alloc("relu", x.Shape())
	dst := result.AsFloat32()
	for i, v := range x.AsFloat32() {
		if v > 0 {
			dst[i] = v
		}
	}
	return result
}

// ReLUInplace clamps negative values of x to zero and returns x.
func (cpu *CPUBackend) ReLUInplace(x *tensor.RawTensor) *tensor.RawTensor {
	data := x.AsFloat32()
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
	return x
}

// AddBias adds bias[c] to every element of channel c of an NHWC tensor, in
// place, and returns x.
func (cpu *CPUBackend) AddBias(x, bias *tensor.RawTensor) *tensor.RawTensor {
	_, _, _, C := dims4("add_bias", x)
	if bias.NumElements() != C {
		panic(fmt.Sprintf("add_bias: bias has %d elements, want %d", bias.NumElements(), C))
	}

	b := bias.AsFloat32()
	data := x.AsFloat32()
	for off := 0; off < len(data); off += C {
		addInplace(data[off:off+C], b)
	}
	return x
}
