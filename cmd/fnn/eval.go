package main

import (
	"fmt"
	"io"

	"github.com/born-ml/fnn/internal/serialization"
)

func cmdEval(args []string, stdout io.Writer) error {
	fs := newFlagSet("eval", "<model>")
	xFlag := fs.String("x", "", "input vector, comma separated (default all zeros)")
	dxFlag := fs.String("dx", "", "input seed; prints the tangent-linear output when set")
	dyFlag := fs.String("dy", "", "output seed; prints the adjoint when set")
	noDropout := fs.Bool("ignore-dropout", false, "drop dropout records instead of keeping identity layers")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	opts := serialization.DefaultReaderOptions()
	opts.IgnoreDropout = *noDropout
	net, err := serialization.ReadFile(path, opts)
	if err != nil {
		return err
	}

	x := make([]float64, net.Nin())
	if *xFlag != "" {
		if x, err = parseVector(*xFlag); err != nil {
			return err
		}
	}

	y, err := net.ApplyLinearise(x)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "y  = %s\n", formatVector(y))

	if *dxFlag != "" {
		dx, err := parseVector(*dxFlag)
		if err != nil {
			return err
		}
		dy, err := net.ApplyTangentLinearX(dx)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "dy = %s\n", formatVector(dy))
	}

	if *dyFlag != "" {
		dy, err := parseVector(*dyFlag)
		if err != nil {
			return err
		}
		dx, err := net.ApplyAdjointX(dy)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "dx = %s\n", formatVector(dx))
	}
	return nil
}
