package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/fnn/internal/serialization"
)

func cmdConvert(args []string, stdout io.Writer) error {
	var opts serialization.ConvertOptions

	fs := newFlagSet("convert", "<description.json>")
	out := fs.String("o", "", "output model file (default stdout)")
	fs.BoolVar(&opts.AddNormIn, "norm-in", false, "add an input normalisation record")
	alphaIn := fs.String("alpha-in", "1", "input normalisation alpha, scalar or per element")
	betaIn := fs.String("beta-in", "0", "input normalisation beta, scalar or per element")
	fs.BoolVar(&opts.AddNormOut, "norm-out", false, "add an output normalisation record")
	alphaOut := fs.String("alpha-out", "1", "output normalisation alpha, scalar or per element")
	betaOut := fs.String("beta-out", "0", "output normalisation beta, scalar or per element")
	dropout := fs.String("dropout", "", "dropout rates: one for every layer or one per layer")
	compact := fs.Bool("compact", false, "write uniform normalisation coefficients as a scalar")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	for _, v := range []struct {
		flag string
		dst  *[]float64
	}{
		{*alphaIn, &opts.NormAlphaIn},
		{*betaIn, &opts.NormBetaIn},
		{*alphaOut, &opts.NormAlphaOut},
		{*betaOut, &opts.NormBetaOut},
	} {
		if *v.dst, err = parseVector(v.flag); err != nil {
			return err
		}
	}

	//nolint:gosec // G304: File path comes from the command line
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read description: %w", err)
	}
	var model serialization.ModelDescription
	if err := json.Unmarshal(data, &model); err != nil {
		return fmt.Errorf("%s: invalid description: %w", path, err)
	}

	if *dropout != "" {
		rates, err := parseVector(*dropout)
		if err != nil {
			return err
		}
		if len(rates) == 1 {
			opts.DropoutRates = serialization.UniformDropout(rates[0], len(model.Layers))
		} else {
			for i := range rates {
				opts.DropoutRates = append(opts.DropoutRates, &rates[i])
			}
		}
	}

	doc, err := serialization.Convert(model, opts)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	// Round through a network so coefficient layout follows the writer options.
	net, err := serialization.Build(doc, serialization.DefaultReaderOptions())
	if err != nil {
		return err
	}
	wopts := serialization.WriterOptions{CompactNormalisation: *compact}

	if *out == "" {
		return serialization.Encode(stdout, net, wopts)
	}
	if err := serialization.WriteFile(*out, net, wopts); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %d records to %s\n", len(doc.Records), *out)
	return nil
}
