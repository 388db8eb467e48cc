package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"text/tabwriter"

	"github.com/born-ml/fnn/internal/nn"
	"github.com/born-ml/fnn/internal/serialization"
	"github.com/born-ml/fnn/internal/verify"
)

func cmdCheck(args []string, stdout io.Writer) error {
	cfg := verify.DefaultConfig()

	fs := newFlagSet("check", "<model>")
	fs.IntVar(&cfg.Trials, "trials", cfg.Trials, "number of random trials per test")
	fs.Float64Var(&cfg.Epsilon, "eps", cfg.Epsilon, "step for the gradient tests")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "base seed for the trial generators")
	fixed := fs.Bool("fixed", false, "keep the model parameters instead of drawing new ones per trial")
	workers := fs.Int("workers", cfg.Parallel.NumWorkers, "number of worker goroutines (1 runs sequentially)")
	tol := fs.Float64("tol", 1e-10, "largest accepted adjoint test error")
	sweep := fs.Bool("sweep", false, "also print the gradient residual over a range of steps")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	cfg.Randomise = !*fixed
	cfg.Parallel.NumWorkers = *workers
	cfg.Parallel.Enabled = *workers > 1

	net, err := serialization.ReadFile(path, serialization.DefaultReaderOptions())
	if err != nil {
		return err
	}

	tests := []struct {
		run     func(*nn.Sequential, verify.Config) (verify.Report, error)
		adjoint bool
	}{
		{verify.GradientTestX, false},
		{verify.GradientTestP, false},
		{verify.AdjointTestX, true},
		{verify.AdjointTestP, true},
		{verify.AdjointTest, true},
	}

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TEST\tTRIALS\tMEAN\tSTD\tMIN\tMAX")
	var failed []string
	for _, tt := range tests {
		r, err := tt.run(net, cfg)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%d\t%.3e\t%.3e\t%.3e\t%.3e\n", r.Name, r.Trials(), r.Mean, r.StdDev, r.Min, r.Max)
		if tt.adjoint && !r.Passed(*tol) {
			failed = append(failed, r.Name)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if *sweep {
		if err := printSweep(stdout, net, cfg.Seed); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		return fmt.Errorf("%d adjoint tests above %g: %v", len(failed), *tol, failed)
	}
	return nil
}

func printSweep(stdout io.Writer, net *nn.Sequential, seed uint64) error {
	rng := rand.New(rand.NewPCG(seed, 0))
	x := make([]float64, net.Nin())
	dx := make([]float64, net.Nin())
	for i := range x {
		x[i], dx[i] = rng.NormFloat64(), rng.NormFloat64()
	}

	eps := verify.DefaultEpsilons()
	errs, err := verify.GradientSweep(net, x, dx, eps)
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EPSILON\tRESIDUAL")
	for i := range eps {
		fmt.Fprintf(w, "%.0e\t%.3e\n", eps[i], errs[i])
	}
	return w.Flush()
}
