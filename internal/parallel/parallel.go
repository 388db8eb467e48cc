// Package parallel provides the worker fan-out used by the verification harness.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
//
// A single verification trial linearises and differentiates a whole network,
// so even one trial per goroutine is worth the scheduling cost.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1,
	}
}

// Sequential returns a configuration that runs everything on the caller's goroutine.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < 2*max(cfg.MinChunkSize, 1) {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// Map executes f(i) for i in [0, n) and collects the results in index order.
//
// Every index runs even when some fail; the returned error is the one with
// the lowest index, so the outcome does not depend on scheduling.
func Map[T any](n int, f func(i int) (T, error), cfg Config) ([]T, error) {
	out := make([]T, n)
	errs := make([]error, n)
	For(n, func(i int) {
		out[i], errs[i] = f(i)
	}, cfg)
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
