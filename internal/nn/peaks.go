package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/hourglass/internal/tensor"
)

// Peak is the location of the strongest response of one heatmap channel.
type Peak struct {
	Sample int
	Joint  int
	Row    int
	Col    int
	Score  float32
}

// Peaks returns the arg-max of every channel of every sample of an NHWC
// heatmap tensor, ordered by sample then channel. Ties keep the first
// position in row-major order.
func Peaks(heatmap *tensor.RawTensor) ([]Peak, error) {
	shape := heatmap.Shape()
	if len(shape) != 4 {
		return nil, errors.Errorf("peaks: expected 4D heatmap [N,H,W,C], got %dD", len(shape))
	}
	N, H, W, C := shape[0], shape[1], shape[2], shape[3]
	data := heatmap.AsFloat32()

	peaks := make([]Peak, 0, N*C)
	for n := 0; n < N; n++ {
		base := len(peaks)
		for c := 0; c < C; c++ {
			peaks = append(peaks, Peak{Sample: n, Joint: c, Score: data[n*H*W*C+c]})
		}
		for h := 0; h < H; h++ {
			for w := 0; w < W; w++ {
				off := ((n*H+h)*W + w) * C
				for c, v := range data[off : off+C] {
					if p := &peaks[base+c]; v > p.Score {
						p.Row, p.Col, p.Score = h, w, v
					}
				}
			}
		}
	}
	return peaks, nil
}
