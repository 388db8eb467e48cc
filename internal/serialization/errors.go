package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrUnsupportedModel = errors.New("unsupported model")
	ErrMalformedRecord  = errors.New("malformed record")
)

// RecordError locates a failure inside an interchange document.
type RecordError struct {
	Index int    // Zero-based record index, -1 for the document header
	Line  int    // One-based line number where the failure was detected
	Kind  string // Record kind, if known
	Err   error  // Underlying error (wraps ErrMalformedRecord, nn.ErrUnsupportedLayer, ...)
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("header at line %d: %v", e.Line, e.Err)
	}
	if e.Kind != "" {
		return fmt.Sprintf("record %d (%s) at line %d: %v", e.Index, e.Kind, e.Line, e.Err)
	}
	return fmt.Sprintf("record %d at line %d: %v", e.Index, e.Line, e.Err)
}

// Unwrap returns the underlying error.
func (e *RecordError) Unwrap() error {
	return e.Err
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, fmt.Sprintf(format, args...))
}
