package nn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// noParameters implements the parameter half of the Layer contract for
// layers without trainable parameters.
type noParameters struct {
	width int
}

func (n noParameters) Nin() int { return n.width }

func (n noParameters) Nout() int { return n.width }

func (n noParameters) NumParameters() int { return 0 }

func (n noParameters) Parameters() []float64 { return []float64{} }

func (n noParameters) SetParameters(p []float64) error {
	if len(p) != 0 {
		return fmt.Errorf("%w: expected 0, got %d", ErrParameterLengthMismatch, len(p))
	}
	return nil
}

func (n noParameters) Initialise(Initialiser) error { return nil }

// ApplyTangentLinearP returns a zero vector of length Nout.
func (n noParameters) ApplyTangentLinearP(dp []float64) ([]float64, error) {
	if err := checkLen("parameter-free layer", dp, 0); err != nil {
		return nil, err
	}
	return make([]float64, n.width), nil
}

// ApplyAdjointP returns a zero-length vector.
func (n noParameters) ApplyAdjointP(dy []float64) ([]float64, error) {
	if err := checkLen("parameter-free layer", dy, n.width); err != nil {
		return nil, err
	}
	return []float64{}, nil
}

// Normalisation applies the fixed element-wise map y = alpha ⊙ x + beta.
//
// It has no trainable parameters and, being affine, needs no linearisation
// state: ApplyLinearise is Apply and the derivative operations are valid at
// any time.
type Normalisation struct {
	noParameters
	alpha []float64
	beta  []float64
}

// NewNormalisation creates a normalisation layer of the given width.
//
// alpha and beta each hold either a single value, broadcast to every
// element, or exactly width values.
func NewNormalisation(width int, alpha, beta []float64) (*Normalisation, error) {
	if width <= 0 {
		return nil, fmt.Errorf("normalisation layer: %w: width must be positive, got %d", ErrShapeMismatch, width)
	}
	a, err := broadcast("alpha", alpha, width)
	if err != nil {
		return nil, err
	}
	b, err := broadcast("beta", beta, width)
	if err != nil {
		return nil, err
	}
	return &Normalisation{noParameters: noParameters{width: width}, alpha: a, beta: b}, nil
}

func broadcast(name string, v []float64, width int) ([]float64, error) {
	switch len(v) {
	case 1:
		out := make([]float64, width)
		for i := range out {
			out[i] = v[0]
		}
		return out, nil
	case width:
		return clone(v), nil
	default:
		return nil, fmt.Errorf("normalisation layer: %w: %s has %d values, want 1 or %d",
			ErrShapeMismatch, name, len(v), width)
	}
}

// Kind returns "normalisation".
func (n *Normalisation) Kind() string { return KindNormalisation }

// Alpha returns a copy of the per-element scale.
func (n *Normalisation) Alpha() []float64 { return clone(n.alpha) }

// Beta returns a copy of the per-element shift.
func (n *Normalisation) Beta() []float64 { return clone(n.beta) }

// Apply computes alpha ⊙ x + beta.
func (n *Normalisation) Apply(x []float64) ([]float64, error) {
	if err := checkLen("normalisation layer", x, n.width); err != nil {
		return nil, err
	}
	y := floats.MulTo(make([]float64, n.width), n.alpha, x)
	floats.Add(y, n.beta)
	return y, nil
}

// ApplyLinearise is identical to Apply.
func (n *Normalisation) ApplyLinearise(x []float64) ([]float64, error) {
	return n.Apply(x)
}

// ApplyTangentLinearX returns alpha ⊙ dx.
func (n *Normalisation) ApplyTangentLinearX(dx []float64) ([]float64, error) {
	if err := checkLen("normalisation layer", dx, n.width); err != nil {
		return nil, err
	}
	return floats.MulTo(make([]float64, n.width), n.alpha, dx), nil
}

// ApplyAdjointX returns alpha ⊙ dy; the diagonal map is its own transpose.
func (n *Normalisation) ApplyAdjointX(dy []float64) ([]float64, error) {
	return n.ApplyTangentLinearX(dy)
}

// Clone returns a deep copy.
func (n *Normalisation) Clone() Layer {
	return &Normalisation{noParameters: n.noParameters, alpha: clone(n.alpha), beta: clone(n.beta)}
}

// Dropout is the inference-time form of a dropout layer: the identity map.
//
// The rate is only kept so that documents survive a read/write round trip.
type Dropout struct {
	noParameters
	rate float64
}

// NewDropout creates a dropout placeholder of the given width.
func NewDropout(width int, rate float64) (*Dropout, error) {
	if width <= 0 {
		return nil, fmt.Errorf("dropout layer: %w: width must be positive, got %d", ErrShapeMismatch, width)
	}
	return &Dropout{noParameters: noParameters{width: width}, rate: rate}, nil
}

// Kind returns "dropout".
func (d *Dropout) Kind() string { return KindDropout }

// Rate returns the training-time dropout rate.
func (d *Dropout) Rate() float64 { return d.rate }

// Apply returns a copy of x.
func (d *Dropout) Apply(x []float64) ([]float64, error) {
	if err := checkLen("dropout layer", x, d.width); err != nil {
		return nil, err
	}
	return clone(x), nil
}

// ApplyLinearise returns a copy of x.
func (d *Dropout) ApplyLinearise(x []float64) ([]float64, error) { return d.Apply(x) }

// ApplyTangentLinearX returns a copy of dx.
func (d *Dropout) ApplyTangentLinearX(dx []float64) ([]float64, error) { return d.Apply(dx) }

// ApplyAdjointX returns a copy of dy.
func (d *Dropout) ApplyAdjointX(dy []float64) ([]float64, error) { return d.Apply(dy) }

// Clone returns a copy.
func (d *Dropout) Clone() Layer {
	return &Dropout{noParameters: d.noParameters, rate: d.rate}
}
