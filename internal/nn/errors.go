package nn

import (
	"errors"
)

// Common errors.
var (
	ErrUnsupportedLayer        = errors.New("unsupported layer")
	ErrParameterLengthMismatch = errors.New("parameter length mismatch")
	ErrNotLinearised           = errors.New("not linearised: call ApplyLinearise first")
	ErrShapeMismatch           = errors.New("shape mismatch")
	ErrEmptyNetwork            = errors.New("network has no layers")
)
