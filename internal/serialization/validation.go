package serialization

import (
	"fmt"

	"github.com/born-ml/fnn/internal/nn"
)

// Validation limits for resource protection.
const (
	MaxRecordCount = 100_000 // Maximum number of records in a document
	MaxWidth       = 1 << 20 // Maximum layer width
	MaxParameters  = 1 << 28 // Maximum parameters in a single dense record
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all validation checks (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal checks resource limits and width chaining only.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

func checkRecordCount(n int, level ValidationLevel) error {
	if n < 0 {
		return malformed("negative record count %d", n)
	}
	if level != ValidationNone && n > MaxRecordCount {
		return malformed("record count %d exceeds %d", n, MaxRecordCount)
	}
	return nil
}

func checkWidth(w int, level ValidationLevel) error {
	if w <= 0 {
		return malformed("width must be positive, got %d", w)
	}
	if level != ValidationNone && w > MaxWidth {
		return malformed("width %d exceeds %d", w, MaxWidth)
	}
	return nil
}

// ValidateDocument checks a parsed document for consistency.
//
// All levels except ValidationNone check that consecutive records chain
// (each record's Nin equals the previous record's Nout) and that dense blocks
// stay within MaxParameters. ValidationStrict additionally checks that
// activation names are known and dropout rates lie in [0, 1).
func ValidateDocument(doc *Document, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}
	if doc.Model != ModelSequential {
		return fmt.Errorf("%w: %q", ErrUnsupportedModel, doc.Model)
	}
	if len(doc.Records) > MaxRecordCount {
		return &RecordError{Index: -1, Err: malformed("%d records exceed %d", len(doc.Records), MaxRecordCount)}
	}

	prevOut := 0
	for i, rec := range doc.Records {
		if err := validateRecord(rec, level); err != nil {
			return &RecordError{Index: i, Kind: rec.Kind, Err: err}
		}
		if i > 0 && rec.Nin != prevOut {
			return &RecordError{
				Index: i,
				Kind:  rec.Kind,
				Err:   malformed("expects %d inputs, previous record produces %d", rec.Nin, prevOut),
			}
		}
		prevOut = rec.Nout
	}
	return nil
}

func validateRecord(rec Record, level ValidationLevel) error {
	switch rec.Kind {
	case nn.KindDense:
		if rec.Nin <= 0 || rec.Nout <= 0 {
			return malformed("widths must be positive, got %d -> %d", rec.Nin, rec.Nout)
		}
		n := rec.Nout * (rec.Nin + 1)
		if n > MaxParameters {
			return malformed("%d parameters exceed %d", n, MaxParameters)
		}
		if len(rec.Parameters) != n {
			return malformed("expected %d parameters, got %d", n, len(rec.Parameters))
		}
		if level == ValidationStrict {
			if _, err := nn.NewActivation(rec.Activation); err != nil {
				return err
			}
		}
	case nn.KindNormalisation:
		if rec.Nin <= 0 || rec.Nin != rec.Nout {
			return malformed("normalisation width must be positive and square, got %d -> %d", rec.Nin, rec.Nout)
		}
		for _, v := range [][]float64{rec.Alpha, rec.Beta} {
			if len(v) != 1 && len(v) != rec.Nin {
				return malformed("coefficients must have 1 or %d values, got %d", rec.Nin, len(v))
			}
		}
	case nn.KindDropout:
		if rec.Nin <= 0 || rec.Nin != rec.Nout {
			return malformed("dropout width must be positive and square, got %d -> %d", rec.Nin, rec.Nout)
		}
		if level == ValidationStrict && (rec.Rate < 0 || rec.Rate >= 1) {
			return malformed("dropout rate %g outside [0, 1)", rec.Rate)
		}
	default:
		return fmt.Errorf("%w: %q", nn.ErrUnsupportedLayer, rec.Kind)
	}
	return nil
}
