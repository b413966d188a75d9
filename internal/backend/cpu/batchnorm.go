package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/hourglass/internal/parallel"
	"github.com/born-ml/hourglass/internal/tensor"
)

// BatchNormInference normalizes every channel of an NHWC tensor with fixed
// statistics: gamma * (x - mean) / sqrt(variance + eps) + beta.
func (cpu *CPUBackend) BatchNormInference(x, gamma, beta, mean, variance *tensor.RawTensor, eps float64) *tensor.RawTensor {
	_, _, _, C := dims4("batchnorm", x)
	checkChannels("batchnorm", C, gamma, beta, mean, variance)

	scale, shift := foldNorm(gamma.AsFloat32(), beta.AsFloat32(), mean.AsFloat32(), variance.AsFloat32(), eps)
	return applyNorm(x, scale, shift)
}

// BatchNormTraining normalizes every channel with the statistics of the batch
// itself and returns them. The variance is the biased (population) variance.
func (cpu *CPUBackend) BatchNormTraining(x, gamma, beta *tensor.RawTensor, eps float64) (out, mean, variance *tensor.RawTensor) {
	N, H, W, C := dims4("batchnorm", x)
	checkChannels("batchnorm", C, gamma, beta)

	data := x.AsFloat32()
	count := N * H * W
	plane := H * W * C

	// Partial sums per (sample, channel), reduced over the batch below.
	partSum := make([]float64, N*C)
	partSq := make([]float64, N*C)
	parallel.ForBatch(N, C, func(n, c int) {
		var s, sq float64
		for off := n*plane + c; off < (n+1)*plane; off += C {
			v := float64(data[off])
			s += v
			sq += v * v
		}
		partSum[n*C+c], partSq[n*C+c] = s, sq
	}, cpu.par)

	sum := make([]float64, C)
	sumSq := make([]float64, C)
	for n := 0; n < N; n++ {
		for c := 0; c < C; c++ {
			sum[c] += partSum[n*C+c]
			sumSq[c] += partSq[n*C+c]
		}
	}

	mean = alloc("batchnorm", tensor.Shape{C})
	variance = alloc("batchnorm", tensor.Shape{C})
	m := mean.AsFloat32()
	v := variance.AsFloat32()
	for c := 0; c < C; c++ {
		mu := sum[c] / float64(count)
		m[c] = float32(mu)
		v[c] = float32(math.Max(sumSq[c]/float64(count)-mu*mu, 0))
	}

	scale, shift := foldNorm(gamma.AsFloat32(), beta.AsFloat32(), m, v, eps)
	return applyNorm(x, scale, shift), mean, variance
}

func checkChannels(op string, c int, ts ...*tensor.RawTensor) {
	for i, t := range ts {
		if t.NumElements() != c {
			panic(fmt.Sprintf("%s: parameter %d has %d elements, want %d", op, i, t.NumElements(), c))
		}
	}
}

// foldNorm turns the normalization into a per-channel affine map.
func foldNorm(gamma, beta, mean, variance []float32, eps float64) (scale, shift []float32) {
	scale = make([]float32, len(gamma))
	shift = make([]float32, len(gamma))
	for c := range gamma {
		s := float64(gamma[c]) / math.Sqrt(float64(variance[c])+eps)
		scale[c] = float32(s)
		shift[c] = float32(float64(beta[c]) - float64(mean[c])*s)
	}
	return scale, shift
}

func applyNorm(x *tensor.RawTensor, scale, shift []float32) *tensor.RawTensor {
	C := len(scale)
	result := alloc("batchnorm", x.Shape())
	src := x.AsFloat32()
	dst := result.AsFloat32()
	for off := 0; off < len(src); off += C {
		for c, v := range src[off : off+C] {
			dst[off+c] = v*scale[c] + shift[c]
		}
	}
	return result
}
