package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Activation names understood by NewActivation and the interchange format.
const (
	ActivationLinear = "linear"
	ActivationTanh   = "tanh"
	ActivationReLU   = "relu"
)

// Activation is an element-wise nonlinearity with its first derivative.
//
// ApplyLinearise evaluates the map and caches the element-wise derivative at z.
// ApplyTangentLinear and ApplyAdjoint multiply by that cached derivative; since
// the Jacobian is diagonal, the two operations coincide.
type Activation interface {
	// Name returns the interchange name of the activation.
	Name() string

	// Apply evaluates the activation without touching any cached state.
	Apply(z []float64) []float64

	// ApplyLinearise evaluates the activation and caches its derivative at z.
	ApplyLinearise(z []float64) []float64

	// ApplyTangentLinear returns prime ⊙ dz.
	ApplyTangentLinear(dz []float64) ([]float64, error)

	// ApplyAdjoint returns prime ⊙ dy.
	ApplyAdjoint(dy []float64) ([]float64, error)

	// Reset drops the cached derivative.
	Reset()

	// Clone returns an independent copy, including any cached derivative.
	Clone() Activation
}

// NewActivation constructs an activation from its interchange name.
//
// Unknown names fail with ErrUnsupportedLayer; there is no silent default.
func NewActivation(name string) (Activation, error) {
	switch name {
	case ActivationLinear:
		return &Linear{}, nil
	case ActivationTanh:
		return &Tanh{}, nil
	case ActivationReLU:
		return &ReLU{}, nil
	default:
		return nil, fmt.Errorf("%w: activation %q", ErrUnsupportedLayer, name)
	}
}

// Linear is the identity activation. Its derivative is 1 everywhere, so it
// carries no state and never requires linearisation.
type Linear struct{}

// Name returns "linear".
func (a *Linear) Name() string { return ActivationLinear }

// Apply returns a copy of z.
func (a *Linear) Apply(z []float64) []float64 {
	return clone(z)
}

// ApplyLinearise returns a copy of z.
func (a *Linear) ApplyLinearise(z []float64) []float64 {
	return clone(z)
}

// ApplyTangentLinear returns a copy of dz.
func (a *Linear) ApplyTangentLinear(dz []float64) ([]float64, error) {
	return clone(dz), nil
}

// ApplyAdjoint returns a copy of dy.
func (a *Linear) ApplyAdjoint(dy []float64) ([]float64, error) {
	return clone(dy), nil
}

// Reset is a no-op.
func (a *Linear) Reset() {}

// Clone returns a new Linear activation.
func (a *Linear) Clone() Activation { return &Linear{} }

// primeCache holds the derivative captured by ApplyLinearise.
type primeCache struct {
	prime []float64
}

func (c *primeCache) scale(name string, v []float64) ([]float64, error) {
	if c.prime == nil {
		return nil, fmt.Errorf("%s activation: %w", name, ErrNotLinearised)
	}
	if len(v) != len(c.prime) {
		return nil, fmt.Errorf("%s activation: %w: expected %d elements, got %d",
			name, ErrShapeMismatch, len(c.prime), len(v))
	}
	return floats.MulTo(make([]float64, len(v)), c.prime, v), nil
}

// Tanh is the hyperbolic tangent activation.
//
// The cached derivative is 1 - tanh(z)², computed from the forward output.
type Tanh struct {
	primeCache
}

// Name returns "tanh".
func (a *Tanh) Name() string { return ActivationTanh }

// Apply returns tanh(z) element-wise.
func (a *Tanh) Apply(z []float64) []float64 {
	y := make([]float64, len(z))
	for i, v := range z {
		y[i] = math.Tanh(v)
	}
	return y
}

// ApplyLinearise returns tanh(z) and caches 1 - tanh(z)².
func (a *Tanh) ApplyLinearise(z []float64) []float64 {
	y := a.Apply(z)
	prime := make([]float64, len(y))
	for i, v := range y {
		prime[i] = 1 - v*v
	}
	a.prime = prime
	return y
}

// ApplyTangentLinear returns (1 - tanh(z)²) ⊙ dz.
func (a *Tanh) ApplyTangentLinear(dz []float64) ([]float64, error) {
	return a.scale(ActivationTanh, dz)
}

// ApplyAdjoint returns (1 - tanh(z)²) ⊙ dy.
func (a *Tanh) ApplyAdjoint(dy []float64) ([]float64, error) {
	return a.scale(ActivationTanh, dy)
}

// Reset drops the cached derivative.
func (a *Tanh) Reset() { a.prime = nil }

// Clone returns an independent copy.
func (a *Tanh) Clone() Activation {
	return &Tanh{primeCache{prime: cloneOrNil(a.prime)}}
}

// ReLU is the rectified linear activation max(z, 0).
//
// The derivative at exactly z = 0 is taken as 0.
type ReLU struct {
	primeCache
}

// Name returns "relu".
func (a *ReLU) Name() string { return ActivationReLU }

// Apply returns max(z, 0) element-wise.
func (a *ReLU) Apply(z []float64) []float64 {
	y := make([]float64, len(z))
	for i, v := range z {
		y[i] = math.Max(v, 0)
	}
	return y
}

// ApplyLinearise returns max(z, 0) and caches the 0/1 derivative mask.
func (a *ReLU) ApplyLinearise(z []float64) []float64 {
	prime := make([]float64, len(z))
	for i, v := range z {
		if v > 0 {
			prime[i] = 1
		}
	}
	a.prime = prime
	return a.Apply(z)
}

// ApplyTangentLinear returns mask ⊙ dz.
func (a *ReLU) ApplyTangentLinear(dz []float64) ([]float64, error) {
	return a.scale(ActivationReLU, dz)
}

// ApplyAdjoint returns mask ⊙ dy.
func (a *ReLU) ApplyAdjoint(dy []float64) ([]float64, error) {
	return a.scale(ActivationReLU, dy)
}

// Reset drops the cached derivative.
func (a *ReLU) Reset() { a.prime = nil }

// Clone returns an independent copy.
func (a *ReLU) Clone() Activation {
	return &ReLU{primeCache{prime: cloneOrNil(a.prime)}}
}

func clone(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func cloneOrNil(v []float64) []float64 {
	if v == nil {
		return nil
	}
	return clone(v)
}
