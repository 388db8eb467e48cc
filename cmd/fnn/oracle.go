package main

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/born-ml/fnn/internal/parallel"
	"github.com/born-ml/fnn/internal/serialization"
	"github.com/born-ml/fnn/internal/verify"
)

func parsePrecision(s string) (serialization.Precision, error) {
	switch s {
	case "f8":
		return serialization.F8, nil
	case "f4":
		return serialization.F4, nil
	default:
		return 0, fmt.Errorf("%w: precision must be f4 or f8, got %q", errUsage, s)
	}
}

// cmdOracle either writes random tangent-linear blocks for the solver to
// check (-o), or reads the solver's blocks and compares them with this
// runtime (-compare).
func cmdOracle(args []string, stdout io.Writer) error {
	fs := newFlagSet("oracle", "<model>")
	ne := fs.Int("ne", 100, "number of samples")
	seed := fs.Uint64("seed", 1, "seed for inputs and seeds")
	prec := fs.String("precision", "f8", "real width in the binary file: f4 or f8")
	out := fs.String("o", "", "write blocks to this file")
	ref := fs.String("compare", "", "compare against blocks in this file")
	tol := fs.Float64("tol", 1e-6, "largest accepted relative difference when comparing")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	precision, err := parsePrecision(*prec)
	if err != nil {
		return err
	}
	if (*out == "") == (*ref == "") {
		return fmt.Errorf("%w: oracle needs exactly one of -o and -compare", errUsage)
	}

	net, err := serialization.ReadFile(path, serialization.DefaultReaderOptions())
	if err != nil {
		return err
	}

	if *ref != "" {
		want, err := serialization.ReadTangentLinearFile(*ref, precision, *ne, net.Nin(), net.Nout())
		if err != nil {
			return fmt.Errorf("%s: %w", *ref, err)
		}
		got, err := verify.TangentLinearBlocks(net, want.X, want.DX, want.DP, parallel.DefaultConfig())
		if err != nil {
			return err
		}
		diff, err := verify.CompareBlocks(got, want)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "samples           %d\n", *ne)
		fmt.Fprintf(stdout, "max rel diff y    %.6e\n", diff.Y)
		fmt.Fprintf(stdout, "max rel diff dy   %.6e\n", diff.DY)
		if diff.Y > *tol || diff.DY > *tol {
			return fmt.Errorf("outputs differ from %s by more than %g", *ref, *tol)
		}
		return nil
	}

	rng := rand.New(rand.NewPCG(*seed, 0))
	draw := func(rows, cols int) [][]float64 {
		m := make([][]float64, rows)
		for i := range m {
			m[i] = make([]float64, cols)
			for j := range m[i] {
				m[i][j] = rng.NormFloat64()
			}
		}
		return m
	}
	x := draw(*ne, net.Nin())
	dx := draw(*ne, net.Nin())
	dp := draw(1, net.NumParameters())[0]

	blocks, err := verify.TangentLinearBlocks(net, x, dx, dp, parallel.DefaultConfig())
	if err != nil {
		return err
	}
	if err := serialization.WriteTangentLinearFile(*out, precision, blocks); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d samples (%d -> %d, %d parameters) to %s\n",
		*ne, net.Nin(), net.Nout(), net.NumParameters(), *out)
	return nil
}
