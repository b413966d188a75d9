package nn

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/hourglass/internal/graph"
	"github.com/born-ml/hourglass/internal/tensor"
)

// truncatedStddev is the standard deviation of a unit normal truncated to
// [-2, 2]; He initialization divides by it to keep the requested variance.
const truncatedStddev = 0.87962566103423978

// GlorotUniform fills a tensor with values drawn from
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
func GlorotUniform(shape tensor.Shape, fanIn, fanOut int, rng *rand.Rand) (*tensor.RawTensor, error) {
	if fanIn+fanOut <= 0 {
		return nil, errors.Errorf("glorot_uniform: invalid fans %d, %d", fanIn, fanOut)
	}
	t, err := tensor.NewRaw(shape)
	if err != nil {
		return nil, err
	}

	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	data := t.AsFloat32()
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
	return t, nil
}

// HeNormal fills a tensor from a normal distribution with standard deviation
// sqrt(2/fan_in), truncated at two standard deviations.
func HeNormal(shape tensor.Shape, fanIn int, rng *rand.Rand) (*tensor.RawTensor, error) {
	if fanIn <= 0 {
		return nil, errors.Errorf("he_normal: invalid fan in %d", fanIn)
	}
	t, err := tensor.NewRaw(shape)
	if err != nil {
		return nil, err
	}

	stddev := math.Sqrt(2.0/float64(fanIn)) / truncatedStddev
	data := t.AsFloat32()
	for i := range data {
		z := rng.NormFloat64()
		for math.Abs(z) > 2 {
			z = rng.NormFloat64()
		}
		data[i] = float32(z * stddev)
	}
	return t, nil
}

// Initialize allocates one parameter tensor as described by spec.
func Initialize(spec graph.ParamSpec, rng *rand.Rand) (*tensor.RawTensor, error) {
	switch spec.Initializer {
	case graph.GlorotUniform:
		return GlorotUniform(spec.Shape, spec.FanIn, spec.FanOut, rng)
	case graph.HeNormal:
		return HeNormal(spec.Shape, spec.FanIn, rng)
	case graph.Zeros:
		return tensor.NewRaw(spec.Shape)
	case graph.Ones:
		return tensor.Full(spec.Shape, 1)
	default:
		return nil, errors.Errorf("unknown initializer %s", spec.Initializer)
	}
}

// layerRNG returns the random source of one layer. It depends only on the
// global seed and the layer name, so initialization does not depend on the
// order in which layers are visited.
func layerRNG(seed int64, layer string) *rand.Rand {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(seed))
	_, _ = h.Write(buf[:])
	_, _ = h.Write([]byte(layer))
	//nolint:gosec // Using math/rand for weight initialization (not security-critical)
	return rand.New(rand.NewSource(int64(h.Sum64())))
}
