// Package parallel provides bounded fan-out helpers for CPU kernels and
// weight initialization.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Maximum number of goroutines running at once.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64, // Typical cache line aware chunk.
	}
}

// WithWorkers returns a copy of cfg limited to n workers. n <= 1 disables
// parallelism.
func (cfg Config) WithWorkers(n int) Config {
	cfg.NumWorkers = n
	cfg.Enabled = n > 1
	return cfg
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	_ = ForErr(context.Background(), n, func(_ context.Context, i int) error {
		f(i)
		return nil
	}, cfg)
}

// ForErr executes f(ctx, i) for i in [0, n) in chunks, with at most
// cfg.NumWorkers chunks running at once. It returns the first error and
// cancels the context passed to the remaining calls.
func ForErr(ctx context.Context, n int, f func(ctx context.Context, i int) error, cfg Config) error {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := f(ctx, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.NumWorkers)

	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)
	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := f(ctx, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// ForBatch runs f once per (sample, channel) pair.
// Used for per-channel batch statistics.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	n := batch * channels
	For(n, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}
