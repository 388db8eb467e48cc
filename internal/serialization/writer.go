package serialization

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/fnn/internal/nn"
)

// WriterOptions configures document output.
type WriterOptions struct {
	// CompactNormalisation writes uniform normalisation coefficients as a
	// single scalar, the layout of older producers. By default coefficients
	// are written per element.
	CompactNormalisation bool
}

// FromNetwork converts a network into a document, one record per layer.
// Nested Sequential containers are flattened.
func FromNetwork(net *nn.Sequential, opts WriterOptions) (*Document, error) {
	doc := &Document{Model: ModelSequential}
	if err := appendRecords(doc, net, opts); err != nil {
		return nil, err
	}
	return doc, nil
}

func appendRecords(doc *Document, net *nn.Sequential, opts WriterOptions) error {
	for i, layer := range net.Layers() {
		switch l := layer.(type) {
		case *nn.Dense:
			doc.Records = append(doc.Records, DenseRecord(l.Nin(), l.Nout(), l.Parameters(), l.ActivationName()))
		case *nn.Normalisation:
			alpha, beta := l.Alpha(), l.Beta()
			if opts.CompactNormalisation {
				alpha, beta = compact(alpha), compact(beta)
			}
			doc.Records = append(doc.Records, NormalisationRecord(l.Nin(), alpha, beta))
		case *nn.Dropout:
			doc.Records = append(doc.Records, DropoutRecord(l.Nin(), l.Rate()))
		case *nn.Sequential:
			if err := appendRecords(doc, l, opts); err != nil {
				return err
			}
		default:
			return fmt.Errorf("layer %d: %w: %q", i, nn.ErrUnsupportedLayer, layer.Kind())
		}
	}
	return nil
}

// compact returns a single-element slice when every value is identical.
func compact(v []float64) []float64 {
	for _, x := range v[1:] {
		if x != v[0] {
			return v
		}
	}
	return v[:1]
}

// WriteDocument writes a document in the interchange text format.
//
// The record count is recomputed from doc.Records.
func WriteDocument(w io.Writer, doc *Document) error {
	if doc.Model != ModelSequential {
		return fmt.Errorf("%w: %q", ErrUnsupportedModel, doc.Model)
	}

	bw := bufio.NewWriter(w)
	lines := []string{doc.Model, formatInt(len(doc.Records))}
	for i, rec := range doc.Records {
		recLines, err := recordLines(rec)
		if err != nil {
			return &RecordError{Index: i, Kind: rec.Kind, Err: err}
		}
		lines = append(lines, recLines...)
	}
	for _, line := range lines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return fmt.Errorf("failed to write document: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

func recordLines(rec Record) ([]string, error) {
	switch rec.Kind {
	case nn.KindDense:
		return []string{
			rec.Kind,
			formatInt(rec.Nin),
			formatInt(rec.Nout),
			formatFloats(rec.Parameters),
			rec.Activation,
		}, nil
	case nn.KindNormalisation:
		return []string{
			rec.Kind,
			formatInt(rec.Nin),
			formatFloats(rec.Alpha),
			formatFloats(rec.Beta),
		}, nil
	case nn.KindDropout:
		return []string{
			rec.Kind,
			formatInt(rec.Nin),
			formatFloat(rec.Rate),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", nn.ErrUnsupportedLayer, rec.Kind)
	}
}

func formatInt(v int) string {
	return fmt.Sprintf(IntFormat, v)
}

// formatFloat renders v as %.7e; Go and the solver agree on this layout
// (at least two exponent digits).
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'e', 7, 64)
}

func formatFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = formatFloat(x)
	}
	return strings.Join(parts, FieldSeparator)
}

// Encode writes a network in the interchange text format.
func Encode(w io.Writer, net *nn.Sequential, opts WriterOptions) error {
	doc, err := FromNetwork(net, opts)
	if err != nil {
		return err
	}
	return WriteDocument(w, doc)
}

// WriteFile encodes a network into a file, replacing any existing content.
func WriteFile(path string, net *nn.Sequential, opts WriterOptions) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Encode(f, net, opts); err != nil {
		_ = f.Close() // Best effort close on error
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}
