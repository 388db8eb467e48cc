package serialization

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/born-ml/fnn/internal/nn"
)

// maxLineSize bounds a single line; dense parameter blocks sit on one line.
const maxLineSize = 256 * 1024 * 1024

// ReaderOptions configures document parsing and network construction.
type ReaderOptions struct {
	IgnoreDropout   bool            // Drop dropout records instead of building identity layers
	ValidationLevel ValidationLevel // Validation strictness level
}

// DefaultReaderOptions returns options with strict validation that keep
// dropout records as identity layers.
func DefaultReaderOptions() ReaderOptions {
	return ReaderOptions{ValidationLevel: ValidationStrict}
}

// lineReader hands out trimmed lines and tracks the line number.
type lineReader struct {
	scanner *bufio.Scanner
	line    int
}

func newLineReader(r io.Reader) *lineReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &lineReader{scanner: s}
}

func (lr *lineReader) next() (string, error) {
	if !lr.scanner.Scan() {
		if err := lr.scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read line %d: %w", lr.line+1, err)
		}
		return "", malformed("unexpected end of document after line %d", lr.line)
	}
	lr.line++
	return strings.TrimSpace(lr.scanner.Text()), nil
}

func (lr *lineReader) nextInt(what string) (int, error) {
	s, err := lr.next()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, malformed("%s: invalid integer %q", what, s)
	}
	return v, nil
}

func (lr *lineReader) nextFloats(what string) ([]float64, error) {
	s, err := lr.next()
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, malformed("%s: empty line", what)
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		if out[i], err = strconv.ParseFloat(f, 64); err != nil {
			return nil, malformed("%s: invalid number %q", what, f)
		}
	}
	return out, nil
}

// ReadDocument parses an interchange text document.
//
// The record count on the second line must match the number of records that
// follow; trailing non-blank content is an error.
func ReadDocument(r io.Reader, opts ReaderOptions) (*Document, error) {
	lr := newLineReader(r)

	model, err := lr.next()
	if err != nil {
		return nil, &RecordError{Index: -1, Line: lr.line + 1, Err: err}
	}
	if model != ModelSequential {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, model)
	}

	count, err := lr.nextInt("record count")
	if err != nil {
		return nil, &RecordError{Index: -1, Line: lr.line, Err: err}
	}
	if err := checkRecordCount(count, opts.ValidationLevel); err != nil {
		return nil, &RecordError{Index: -1, Line: lr.line, Err: err}
	}

	doc := &Document{Model: model, Records: make([]Record, 0, count)}
	for i := 0; i < count; i++ {
		start := lr.line + 1
		rec, err := readRecord(lr, opts.ValidationLevel)
		if err != nil {
			return nil, &RecordError{Index: i, Line: start, Kind: rec.Kind, Err: err}
		}
		doc.Records = append(doc.Records, rec)
	}

	for lr.scanner.Scan() {
		lr.line++
		if strings.TrimSpace(lr.scanner.Text()) != "" {
			return nil, &RecordError{
				Index: count,
				Line:  lr.line,
				Err:   malformed("content after the %d declared records", count),
			}
		}
	}
	if err := lr.scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	if err := ValidateDocument(doc, opts.ValidationLevel); err != nil {
		return nil, err
	}
	return doc, nil
}

// readRecord parses one record. The returned record carries its Kind even
// on failure so the caller can report it.
func readRecord(lr *lineReader, level ValidationLevel) (Record, error) {
	kind, err := lr.next()
	if err != nil {
		return Record{}, err
	}
	rec := Record{Kind: kind}

	switch kind {
	case nn.KindDense:
		if rec.Nin, err = lr.nextInt("dense Nin"); err != nil {
			return rec, err
		}
		if rec.Nout, err = lr.nextInt("dense Nout"); err != nil {
			return rec, err
		}
		if err := checkWidth(rec.Nin, level); err != nil {
			return rec, err
		}
		if err := checkWidth(rec.Nout, level); err != nil {
			return rec, err
		}
		if rec.Parameters, err = lr.nextFloats("dense parameters"); err != nil {
			return rec, err
		}
		if want := rec.Nout * (rec.Nin + 1); len(rec.Parameters) != want {
			return rec, malformed("dense parameters: expected %d values, got %d", want, len(rec.Parameters))
		}
		if rec.Activation, err = lr.next(); err != nil {
			return rec, err
		}
		if rec.Activation == "" {
			return rec, malformed("dense activation: empty line")
		}

	case nn.KindNormalisation:
		width, err := lr.nextInt("normalisation width")
		if err != nil {
			return rec, err
		}
		if err := checkWidth(width, level); err != nil {
			return rec, err
		}
		rec.Nin, rec.Nout = width, width
		if rec.Alpha, err = lr.nextFloats("normalisation alpha"); err != nil {
			return rec, err
		}
		if rec.Beta, err = lr.nextFloats("normalisation beta"); err != nil {
			return rec, err
		}
		for _, c := range []struct {
			name string
			v    []float64
		}{{"alpha", rec.Alpha}, {"beta", rec.Beta}} {
			if len(c.v) != 1 && len(c.v) != width {
				return rec, malformed("normalisation %s: expected 1 or %d values, got %d", c.name, width, len(c.v))
			}
		}

	case nn.KindDropout:
		width, err := lr.nextInt("dropout width")
		if err != nil {
			return rec, err
		}
		if err := checkWidth(width, level); err != nil {
			return rec, err
		}
		rec.Nin, rec.Nout = width, width
		rate, err := lr.nextFloats("dropout rate")
		if err != nil {
			return rec, err
		}
		if len(rate) != 1 {
			return rec, malformed("dropout rate: expected 1 value, got %d", len(rate))
		}
		rec.Rate = rate[0]

	default:
		return rec, fmt.Errorf("%w: %q", nn.ErrUnsupportedLayer, kind)
	}
	return rec, nil
}

// Build constructs a network from a parsed document.
//
// Dense layers are created with the Value initialiser from the stored
// parameter block. Dropout records become identity layers unless
// opts.IgnoreDropout is set.
func Build(doc *Document, opts ReaderOptions) (*nn.Sequential, error) {
	if doc.Model != ModelSequential {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, doc.Model)
	}

	net, err := nn.NewSequential()
	if err != nil {
		return nil, err
	}
	for i, rec := range doc.Records {
		if rec.Kind == nn.KindDropout && opts.IgnoreDropout {
			continue
		}
		layer, err := buildLayer(rec)
		if err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.Kind, err)
		}
		if err := net.Add(layer); err != nil {
			return nil, fmt.Errorf("record %d (%s): %w", i, rec.Kind, err)
		}
	}
	return net, nil
}

func buildLayer(rec Record) (nn.Layer, error) {
	switch rec.Kind {
	case nn.KindDense:
		return nn.NewDense(rec.Nin, rec.Nout, rec.Activation, nn.Value(rec.Parameters))
	case nn.KindNormalisation:
		return nn.NewNormalisation(rec.Nin, rec.Alpha, rec.Beta)
	case nn.KindDropout:
		return nn.NewDropout(rec.Nin, rec.Rate)
	default:
		return nil, fmt.Errorf("%w: %q", nn.ErrUnsupportedLayer, rec.Kind)
	}
}

// Decode parses a text document and builds the network it describes.
func Decode(r io.Reader, opts ReaderOptions) (*nn.Sequential, error) {
	doc, err := ReadDocument(r, opts)
	if err != nil {
		return nil, err
	}
	return Build(doc, opts)
}

// ReadFile opens and decodes a text document from disk.
func ReadFile(path string, opts ReaderOptions) (*nn.Sequential, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for model loading
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	net, err := Decode(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return net, nil
}

// IsFormatError reports whether err originates from document content rather
// than from I/O.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrMalformedRecord) ||
		errors.Is(err, ErrUnsupportedModel) ||
		errors.Is(err, nn.ErrUnsupportedLayer)
}
