package cli

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/born-ml/hourglass/internal/envconfig"
	"github.com/born-ml/hourglass/internal/graph"
	"github.com/born-ml/hourglass/internal/hourglass"
	"github.com/born-ml/hourglass/internal/logutil"
	"github.com/born-ml/hourglass/internal/parallel"
)

// addModelFlags registers the network flags shared by every command that
// builds a model.
func addModelFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("config", "", "YAML network configuration (default $HOURGLASS_CONFIG)")
	flags.String("input", "", "Input shape as HxWxC")
	flags.Int("stacks", 0, "Number of hourglass stacks")
	flags.Int("residual", 0, "Residual blocks per stage")
	flags.Int("heatmaps", 0, "Number of output heatmaps")
	flags.Int("order", 0, "Recursion order of each hourglass module")
	flags.Int("filters", 0, "Feature channels inside the stacks")
}

// resolveConfig applies, in order: defaults, the YAML file, then any flag the
// user set explicitly.
func resolveConfig(cmd *cobra.Command) (hourglass.Config, error) {
	cfg := hourglass.DefaultConfig()

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = envconfig.ConfigPath
	}
	if path != "" {
		var err error
		if cfg, err = envconfig.LoadFile(path, cfg); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		s, _ := flags.GetString("input")
		shape, err := envconfig.ParseShape(s)
		if err != nil {
			return cfg, errors.Wrap(err, "--input")
		}
		cfg.InputShape = shape
	}
	for name, dst := range map[string]*int{
		"stacks":   &cfg.NumStacks,
		"residual": &cfg.ResidualDepth,
		"heatmaps": &cfg.NumHeatmaps,
		"order":    &cfg.Order,
		"filters":  &cfg.Filters,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetInt(name)
		}
	}
	return cfg, nil
}

// newLogger writes to the command's stderr at the level picked by
// HOURGLASS_DEBUG and HOURGLASS_TRACE.
func newLogger(w io.Writer) *slog.Logger {
	return logutil.NewLogger(w, logutil.Level(envconfig.Debug, envconfig.Trace))
}

// buildModel resolves the configuration and assembles the network.
func buildModel(cmd *cobra.Command) (hourglass.Config, *graph.Model, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return cfg, nil, err
	}
	logger := newLogger(cmd.ErrOrStderr())
	m, err := hourglass.Build(cfg, graph.WithLogger(logger))
	if err != nil {
		return cfg, nil, err
	}
	logger.Debug("model built", "name", m.Name(), "layers", m.Len(), "params", m.ParamCount())
	return cfg, m, nil
}

func parallelConfig() parallel.Config {
	cfg := parallel.DefaultConfig()
	if envconfig.NumWorkers > 0 {
		cfg = cfg.WithWorkers(envconfig.NumWorkers)
	}
	return cfg
}
