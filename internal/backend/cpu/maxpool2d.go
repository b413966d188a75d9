package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/hourglass/internal/tensor"
)

// MaxPool2D performs non-overlapping 2D max pooling.
//
// Input shape:  [batch, height, width, channels]
// Output shape: [batch, height/size, width/size, channels]
//
// Trailing rows and columns that do not fill a window are dropped.
//
// Example (size=2):
//
//	Input: [[1,2,3,4],    Output: [[6,8],
//	        [5,6,7,8],             [14,16]]
//	        [9,10,11,12],
//	        [13,14,15,16]]
func (cpu *CPUBackend) MaxPool2D(input *tensor.RawTensor, size int) *tensor.RawTensor {
	N, H, W, C := dims4("maxpool2d", input)

	if size <= 0 {
		panic(fmt.Sprintf("maxpool2d: invalid size %d", size))
	}
	if size > H || size > W {
		panic(fmt.Sprintf("maxpool2d: size %d too large for input %dx%d", size, H, W))
	}

	HOut := H / size
	WOut := W / size
	output := alloc("maxpool2d", tensor.Shape{N, HOut, WOut, C})

	inputData := input.AsFloat32()
	outputData := output.AsFloat32()

	cpu.forEach(N*HOut, func(row int) {
		n, outH := row/HOut, row%HOut
		hStart := outH * size

		for outW := 0; outW < WOut; outW++ {
			wStart := outW * size
			dst := outputData[((n*HOut+outH)*WOut+outW)*C : ((n*HOut+outH)*WOut+outW+1)*C]
			for c := range dst {
				dst[c] = float32(math.Inf(-1))
			}

			for kh := 0; kh < size; kh++ {
				for kw := 0; kw < size; kw++ {
					src := ((n*H+hStart+kh)*W + wStart + kw) * C
					for c, v := range inputData[src : src+C] {
						if v > dst[c] {
							dst[c] = v
						}
					}
				}
			}
		}
	})

	return output
}

// UpSampleNearest repeats every pixel size times along height and width.
//
// Input shape:  [batch, height, width, channels]
// Output shape: [batch, height*size, width*size, channels]
func (cpu *CPUBackend) UpSampleNearest(input *tensor.RawTensor, size int) *tensor.RawTensor {
	N, H, W, C := dims4("upsample", input)
	if size <= 0 {
		panic(fmt.Sprintf("upsample: invalid size %d", size))
	}

	HOut, WOut := H*size, W*size
	output := alloc("upsample", tensor.Shape{N, HOut, WOut, C})

	inputData := input.AsFloat32()
	outputData := output.AsFloat32()

	cpu.forEach(N*HOut, func(row int) {
		n, outH := row/HOut, row%HOut
		h := outH / size
		for outW := 0; outW < WOut; outW++ {
			src := ((n*H+h)*W + outW/size) * C
			dst := ((n*HOut+outH)*WOut + outW) * C
			copy(outputData[dst:dst+C], inputData[src:src+C])
		}
	})

	return output
}
