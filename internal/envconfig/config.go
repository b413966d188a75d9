// Package envconfig reads hourglass settings from the environment and from
// YAML configuration files.
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

var (
	// Set via HOURGLASS_DEBUG in the environment
	Debug bool
	// Set via HOURGLASS_TRACE in the environment
	Trace bool
	// Set via HOURGLASS_SEED in the environment
	Seed int64
	// Set via HOURGLASS_NUM_WORKERS in the environment
	NumWorkers int
	// Set via HOURGLASS_CONFIG in the environment
	ConfigPath string
)

// DefaultSeed is the initialization seed used when HOURGLASS_SEED is unset.
const DefaultSeed = 42

type EnvVar struct {
	Name        string
	Value       any
	Description string
}

func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"HOURGLASS_DEBUG":       {"HOURGLASS_DEBUG", Debug, "Show additional debug information (e.g. HOURGLASS_DEBUG=1)"},
		"HOURGLASS_TRACE":       {"HOURGLASS_TRACE", Trace, "Log every layer as the graph is built"},
		"HOURGLASS_SEED":        {"HOURGLASS_SEED", Seed, fmt.Sprintf("Weight initialization seed (default %d)", DefaultSeed)},
		"HOURGLASS_NUM_WORKERS": {"HOURGLASS_NUM_WORKERS", NumWorkers, "Maximum goroutines for kernels and initialization (default: number of CPUs)"},
		"HOURGLASS_CONFIG":      {"HOURGLASS_CONFIG", ConfigPath, "Path of the default YAML network configuration"},
	}
}

func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Clean quotes and spaces from the value
func clean(key string) string {
	return strings.Trim(os.Getenv(key), "\"' ")
}

func init() {
	LoadConfig()
}

// LoadConfig resets every setting to its default and reads the environment.
func LoadConfig() {
	Debug = false
	Trace = false
	Seed = DefaultSeed
	NumWorkers = 0

	if debug := clean("HOURGLASS_DEBUG"); debug != "" {
		d, err := strconv.ParseBool(debug)
		if err == nil {
			Debug = d
		} else {
			Debug = true
		}
	}

	if trace := clean("HOURGLASS_TRACE"); trace != "" {
		d, err := strconv.ParseBool(trace)
		if err == nil {
			Trace = d
		} else {
			slog.Warn("invalid setting, ignoring", "HOURGLASS_TRACE", trace, "error", err)
		}
	}

	if seed := clean("HOURGLASS_SEED"); seed != "" {
		s, err := strconv.ParseInt(seed, 10, 64)
		if err != nil {
			slog.Warn("invalid setting, ignoring", "HOURGLASS_SEED", seed, "error", err)
		} else {
			Seed = s
		}
	}

	if nw := clean("HOURGLASS_NUM_WORKERS"); nw != "" {
		val, err := strconv.Atoi(nw)
		if err != nil || val <= 0 {
			slog.Warn("invalid setting must be greater than zero", "HOURGLASS_NUM_WORKERS", nw, "error", err)
		} else {
			NumWorkers = val
		}
	}

	ConfigPath = clean("HOURGLASS_CONFIG")
}
