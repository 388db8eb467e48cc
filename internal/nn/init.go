package nn

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Initialiser fills a layer's parameter vector in place.
//
// The layer passes its parameter slice together with its input and output
// widths, so initialisers that depend on fan-in/fan-out can be expressed.
type Initialiser interface {
	Initialise(p []float64, nin, nout int) error
}

// InitialiserFunc adapts a plain function to the Initialiser interface.
type InitialiserFunc func(p []float64, nin, nout int) error

// Initialise calls f.
func (f InitialiserFunc) Initialise(p []float64, nin, nout int) error {
	return f(p, nin, nout)
}

// Zero sets every parameter to zero.
func Zero() Initialiser {
	return InitialiserFunc(func(p []float64, _, _ int) error {
		clear(p)
		return nil
	})
}

// Randn fills the parameters with i.i.d. draws from N(0, 1).
//
// The generator is owned by the caller; seed it for reproducible results.
// A generator must not be shared between goroutines.
func Randn(rng *rand.Rand) Initialiser {
	return InitialiserFunc(func(p []float64, _, _ int) error {
		for i := range p {
			p[i] = rng.NormFloat64()
		}
		return nil
	})
}

// Value copies an explicit parameter vector, which must have exactly the
// layer's parameter count.
func Value(v []float64) Initialiser {
	return InitialiserFunc(func(p []float64, _, _ int) error {
		if len(v) != len(p) {
			return fmt.Errorf("%w: expected %d values, got %d", ErrParameterLengthMismatch, len(p), len(v))
		}
		copy(p, v)
		return nil
	})
}

// GlorotUniform (Xavier) initialisation.
//
// Every parameter, bias included, is drawn from
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))), which is how the
// producer's training framework initialises both kernel and bias when asked for
// glorot_uniform.
func GlorotUniform(rng *rand.Rand) Initialiser {
	return InitialiserFunc(func(p []float64, nin, nout int) error {
		if nin+nout == 0 {
			return nil
		}
		bound := math.Sqrt(6.0 / float64(nin+nout))
		for i := range p {
			p[i] = (rng.Float64()*2.0 - 1.0) * bound
		}
		return nil
	})
}
