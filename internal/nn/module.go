// Package nn implements the differentiable layers of the fnn runtime.
//
// This package provides building blocks for feed-forward networks that can be
// evaluated, linearised and differentiated in both directions:
//   - Layer interface: apply, linearise, tangent-linear and adjoint operations
//   - Activations: Linear, Tanh, ReLU
//   - Dense: affine layer followed by an activation
//   - Normalisation: fixed element-wise affine map
//   - Dropout: identity placeholder kept for format round-trips
//   - Sequential: chain-rule composition of layers
//
// Every derivative operation is taken at the linearisation point established
// by the most recent ApplyLinearise call on the same instance. Instances are
// not safe for concurrent use; use Clone to obtain independent copies.
package nn

import "fmt"

// Layer kinds used by the interchange format.
const (
	KindDense         = "dense"
	KindNormalisation = "normalisation"
	KindDropout       = "dropout"
	KindSequential    = "sequential"
)

// Layer is the common contract of every differentiable unit.
//
// Vectors are plain float64 slices. Inputs are never modified and returned
// slices are always freshly allocated.
//
// The "X" operations differentiate with respect to the layer input, the "P"
// operations with respect to the parameter vector:
//
//	ApplyTangentLinearX: dx (Nin)  -> dy (Nout)
//	ApplyAdjointX:       dy (Nout) -> dx (Nin)
//	ApplyTangentLinearP: dp (NumParameters) -> dy (Nout)
//	ApplyAdjointP:       dy (Nout) -> dp (NumParameters)
type Layer interface {
	// Kind returns the interchange record kind.
	Kind() string

	// Nin returns the input width.
	Nin() int

	// Nout returns the output width.
	Nout() int

	// NumParameters returns the length of the parameter vector.
	NumParameters() int

	// Parameters returns a copy of the parameter vector.
	Parameters() []float64

	// SetParameters overwrites the parameter vector and invalidates the
	// linearisation point.
	SetParameters(p []float64) error

	// Initialise refills the parameter vector and invalidates the
	// linearisation point.
	Initialise(init Initialiser) error

	// Apply evaluates the layer without touching the linearisation point.
	Apply(x []float64) ([]float64, error)

	// ApplyLinearise evaluates the layer and records x as linearisation point.
	ApplyLinearise(x []float64) ([]float64, error)

	ApplyTangentLinearX(dx []float64) ([]float64, error)
	ApplyAdjointX(dy []float64) ([]float64, error)
	ApplyTangentLinearP(dp []float64) ([]float64, error)
	ApplyAdjointP(dy []float64) ([]float64, error)

	// Clone returns a deep copy, including the linearisation point.
	Clone() Layer
}

func checkLen(op string, v []float64, n int) error {
	if len(v) != n {
		return fmt.Errorf("%s: %w: expected %d elements, got %d", op, ErrShapeMismatch, n, len(v))
	}
	return nil
}
