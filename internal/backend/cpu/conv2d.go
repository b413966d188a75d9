package cpu

import (
	"fmt"

	"github.com/born-ml/hourglass/internal/tensor"
)

// Conv2D performs 2D convolution using the im2col algorithm.
//
// Input shape:  [batch, height, width, in_channels]
// Kernel shape: [kernel_h, kernel_w, in_channels, out_channels]
// Output shape: [batch, outH, outW, out_channels]
//
// padTop and padLeft are the zero rows and columns before the image; any
// padding needed after it is implied by outH and outW. The caller computes
// all four from the padding mode.
//
// Each output pixel gathers its patch into a row ordered (kh, kw, c), which
// matches the kernel's row-major layout, so the product with the kernel
// viewed as [kh*kw*in, out] lands directly in NHWC order.
func (cpu *CPUBackend) Conv2D(input, kernel *tensor.RawTensor, stride, padTop, padLeft, outH, outW int) *tensor.RawTensor {
	N, H, W, CIn := dims4("conv2d", input)

	kernelShape := kernel.Shape()
	if len(kernelShape) != 4 {
		panic(fmt.Sprintf("conv2d: kernel must be 4D [K_h,K_w,C_in,C_out], got %dD", len(kernelShape)))
	}
	KH, KW, CInK, COut := kernelShape[0], kernelShape[1], kernelShape[2], kernelShape[3]

	if CIn != CInK {
		panic(fmt.Sprintf("conv2d: input channels %d != kernel channels %d", CIn, CInK))
	}
	if stride <= 0 {
		panic(fmt.Sprintf("conv2d: invalid stride %d", stride))
	}
	if outH <= 0 || outW <= 0 {
		panic(fmt.Sprintf("conv2d: invalid output dimensions: out_h=%d, out_w=%d", outH, outW))
	}

	output := alloc("conv2d", tensor.Shape{N, outH, outW, COut})

	inputData := input.AsFloat32()
	kernelData := kernel.AsFloat32()
	outputData := output.AsFloat32()
	colWidth := KH * KW * CIn

	// One work item per output row of one image.
	cpu.forEach(N*outH, func(row int) {
		n, oh := row/outH, row%outH
		patch := make([]float32, colWidth)

		for ow := 0; ow < outW; ow++ {
			im2colPixel(patch, inputData, n, H, W, CIn, KH, KW, oh*stride-padTop, ow*stride-padLeft)

			dst := outputData[((n*outH+oh)*outW+ow)*COut : ((n*outH+oh)*outW+ow+1)*COut]
			for k, v := range patch {
				weights := kernelData[k*COut : (k+1)*COut]
				for o, wv := range weights {
					dst[o] += v * wv
				}
			}
		}
	})

	return output
}

// im2colPixel copies the KH x KW x C patch whose top-left corner is at
// (hStart, wStart) into patch, writing zeros outside the image.
func im2colPixel(patch, inputData []float32, n, H, W, C, KH, KW, hStart, wStart int) {
	idx := 0
	for kh := 0; kh < KH; kh++ {
		h := hStart + kh
		for kw := 0; kw < KW; kw++ {
			w := wStart + kw
			if h >= 0 && h < H && w >= 0 && w < W {
				src := ((n*H+h)*W + w) * C
				copy(patch[idx:idx+C], inputData[src:src+C])
			} else {
				clear(patch[idx : idx+C])
			}
			idx += C
		}
	}
}
