package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/born-ml/fnn/internal/nn"
	"github.com/born-ml/fnn/internal/serialization"
)

func cmdInfo(args []string, stdout io.Writer) error {
	fs := newFlagSet("info", "<model>")
	path, err := parseArgs(fs, args)
	if err != nil {
		return err
	}

	//nolint:gosec // G304: File path comes from the command line
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	doc, err := serialization.ReadDocument(f, serialization.DefaultReaderOptions())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	net, err := serialization.Build(doc, serialization.DefaultReaderOptions())
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	sum, err := serialization.ComputeChecksum(doc)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "model:      %s\n", doc.Model)
	fmt.Fprintf(stdout, "records:    %d\n", len(doc.Records))
	fmt.Fprintf(stdout, "widths:     %d -> %d\n", net.Nin(), net.Nout())
	fmt.Fprintf(stdout, "parameters: %d\n", net.NumParameters())
	fmt.Fprintf(stdout, "checksum:   %s\n\n", serialization.FormatChecksum(sum))

	w := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tKIND\tNIN\tNOUT\tPARAMS\tDETAIL")
	for i, rec := range doc.Records {
		var detail string
		params := 0
		switch rec.Kind {
		case nn.KindDense:
			detail = rec.Activation
			params = len(rec.Parameters)
		case nn.KindNormalisation:
			detail = fmt.Sprintf("alpha %d, beta %d values", len(rec.Alpha), len(rec.Beta))
		case nn.KindDropout:
			detail = fmt.Sprintf("rate %g", rec.Rate)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%s\n", i, rec.Kind, rec.Nin, rec.Nout, params, detail)
	}
	return w.Flush()
}
