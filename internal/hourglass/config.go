package hourglass

import (
	"github.com/pkg/errors"

	"github.com/born-ml/hourglass/internal/graph"
	"github.com/born-ml/hourglass/internal/tensor"
)

// Defaults of the original network.
const (
	DefaultName          = "StackedHourglass"
	DefaultOrder         = 4
	DefaultFilters       = 256
	DefaultResidualDepth = 3 // residual depth of nested modules
	DefaultMomentum      = 0.9
	DefaultEpsilon       = 1e-3

	// StemStride is the spatial reduction of the stem: a stride-2
	// convolution followed by a 2x2 max-pool.
	StemStride = 4
)

// ErrInvalidConfig is returned when a build parameter violates a precondition.
var ErrInvalidConfig = errors.New("invalid hourglass config")

// Config holds the parameters of a stacked hourglass network. The json and
// mapstructure keys match, so a config written as JSON decodes back with
// envconfig.Decode.
type Config struct {
	Name          string              `json:"name" mapstructure:"name"`
	InputShape    tensor.FeatureShape `json:"input_shape" mapstructure:"input_shape"`
	NumStacks     int                 `json:"num_stacks" mapstructure:"num_stacks"`
	ResidualDepth int                 `json:"residual_depth" mapstructure:"residual_depth"`
	NumHeatmaps   int                 `json:"num_heatmaps" mapstructure:"num_heatmaps"`
	Order         int                 `json:"order" mapstructure:"order"`
	Filters       int                 `json:"filters" mapstructure:"filters"`
	Momentum      float64             `json:"momentum" mapstructure:"momentum"`
	Epsilon       float64             `json:"epsilon" mapstructure:"epsilon"`
}

// DefaultConfig returns the configuration used for 16-joint pose estimation
// on 256x256 RGB crops with two stacks.
func DefaultConfig() Config {
	return Config{
		Name:          DefaultName,
		InputShape:    tensor.NewFeatureShape(256, 256, 3),
		NumStacks:     2,
		ResidualDepth: 1,
		NumHeatmaps:   16,
		Order:         DefaultOrder,
		Filters:       DefaultFilters,
		Momentum:      DefaultMomentum,
		Epsilon:       DefaultEpsilon,
	}
}

// Validate checks every precondition of Build. It never touches a graph.
func (c Config) Validate() error {
	switch {
	case c.Name == "":
		return errors.Wrap(ErrInvalidConfig, "name must not be empty")
	case c.NumStacks < 1:
		return errors.Wrapf(ErrInvalidConfig, "num_stacks must be >= 1, got %d", c.NumStacks)
	case c.ResidualDepth < 1:
		return errors.Wrapf(ErrInvalidConfig, "residual_depth must be >= 1, got %d", c.ResidualDepth)
	case c.NumHeatmaps < 1:
		return errors.Wrapf(ErrInvalidConfig, "num_heatmaps must be >= 1, got %d", c.NumHeatmaps)
	case c.Order < 1:
		return errors.Wrapf(ErrInvalidConfig, "order must be >= 1, got %d", c.Order)
	case c.Filters < 4 || c.Filters%4 != 0:
		return errors.Wrapf(ErrInvalidConfig, "filters must be a positive multiple of 4, got %d", c.Filters)
	case c.Momentum < 0 || c.Momentum >= 1:
		return errors.Wrapf(ErrInvalidConfig, "momentum must be in [0, 1), got %g", c.Momentum)
	case c.Epsilon <= 0:
		return errors.Wrapf(ErrInvalidConfig, "epsilon must be positive, got %g", c.Epsilon)
	}

	if err := c.InputShape.Validate(); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "input_shape: %v", err)
	}

	factor := c.DownsampleFactor()
	if factor == 0 {
		return errors.Wrapf(ErrInvalidConfig,
			"input_shape %dx%d too small for order %d",
			c.InputShape.Height, c.InputShape.Width, c.Order)
	}
	if c.InputShape.Height%factor != 0 || c.InputShape.Width%factor != 0 {
		return errors.Wrapf(ErrInvalidConfig,
			"input_shape %dx%d must be divisible by %d", c.InputShape.Height, c.InputShape.Width, factor)
	}
	return nil
}

// DownsampleFactor returns the total spatial reduction at the bottom of a
// hourglass module: the stem's stride times 2 per order level. It returns 0
// when that reduction exceeds the input, which Validate rejects.
func (c Config) DownsampleFactor() int {
	factor := StemStride
	for i := 0; i < c.Order; i++ {
		factor *= 2
		if factor > c.InputShape.Height || factor > c.InputShape.Width {
			return 0
		}
	}
	return factor
}

// OutputShape returns the per-sample shape of every heatmap output.
func (c Config) OutputShape() tensor.FeatureShape {
	return tensor.FeatureShape{
		Height:   c.InputShape.Height / StemStride,
		Width:    c.InputShape.Width / StemStride,
		Channels: c.NumHeatmaps,
	}
}

func (c Config) norm() graph.NormSpec {
	return graph.NormSpec{Momentum: c.Momentum, Epsilon: c.Epsilon}
}
