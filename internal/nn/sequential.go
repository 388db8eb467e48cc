package nn

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Sequential is a container that chains layers together.
//
// Each layer's output becomes the next layer's input. The container exposes
// the same contract as a single layer: its parameter vector is the
// concatenation of the layer parameter vectors in forward order, and its
// derivatives are composed with the chain rule.
//
// Example:
//
//	net := nn.NewSequential()
//	_ = net.Add(norm)
//	_ = net.Add(hidden)
//	_ = net.Add(output)
//
//	y, err := net.ApplyLinearise(x)
//	dy, err := net.ApplyTangentLinear(dp, dx)
//	dp, dx, err := net.ApplyAdjoint(dy)
type Sequential struct {
	layers     []Layer
	linearised bool
}

// NewSequential creates a container holding the given layers.
//
// Returns ErrShapeMismatch if consecutive widths do not chain.
func NewSequential(layers ...Layer) (*Sequential, error) {
	s := &Sequential{}
	for _, l := range layers {
		if err := s.Add(l); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a layer. Its input width must match the current output width.
func (s *Sequential) Add(l Layer) error {
	if n := len(s.layers); n > 0 && s.layers[n-1].Nout() != l.Nin() {
		return fmt.Errorf("sequential: %w: layer %d (%s) expects %d inputs, previous layer produces %d",
			ErrShapeMismatch, n, l.Kind(), l.Nin(), s.layers[n-1].Nout())
	}
	s.layers = append(s.layers, l)
	s.linearised = false
	return nil
}

// Kind returns "sequential".
func (s *Sequential) Kind() string { return KindSequential }

// Len returns the number of layers.
func (s *Sequential) Len() int { return len(s.layers) }

// Layer returns the layer at the given index.
//
// Panics if index is out of bounds.
func (s *Sequential) Layer(index int) Layer {
	if index < 0 || index >= len(s.layers) {
		panic("Sequential.Layer: index out of bounds")
	}
	return s.layers[index]
}

// Layers returns the layers in forward order. The slice is a copy; the
// layers are shared.
func (s *Sequential) Layers() []Layer { return slices.Clone(s.layers) }

// Nin returns the input width of the first layer, or 0 when empty.
func (s *Sequential) Nin() int {
	if len(s.layers) == 0 {
		return 0
	}
	return s.layers[0].Nin()
}

// Nout returns the output width of the last layer, or 0 when empty.
func (s *Sequential) Nout() int {
	if len(s.layers) == 0 {
		return 0
	}
	return s.layers[len(s.layers)-1].Nout()
}

// NumParameters returns the sum of the layer parameter counts.
func (s *Sequential) NumParameters() int {
	n := 0
	for _, l := range s.layers {
		n += l.NumParameters()
	}
	return n
}

// Parameters returns a fresh concatenation of every layer's parameters.
func (s *Sequential) Parameters() []float64 {
	p := make([]float64, 0, s.NumParameters())
	for _, l := range s.layers {
		p = append(p, l.Parameters()...)
	}
	return p
}

// SetParameters redistributes p over the layers in forward order.
//
// The length is checked before any layer is touched, so a failed call leaves
// every parameter unmodified.
func (s *Sequential) SetParameters(p []float64) error {
	parts, err := s.splitParameters(p)
	if err != nil {
		return err
	}
	for i, l := range s.layers {
		if err := l.SetParameters(parts[i]); err != nil {
			return fmt.Errorf("sequential: layer %d: %w", i, err)
		}
	}
	s.linearised = false
	return nil
}

// Initialise initialises every layer with the same initialiser.
func (s *Sequential) Initialise(init Initialiser) error {
	for i, l := range s.layers {
		if err := l.Initialise(init); err != nil {
			return fmt.Errorf("sequential: layer %d: %w", i, err)
		}
	}
	s.linearised = false
	return nil
}

// splitParameters cuts p into per-layer blocks of exactly NumParameters
// each. The blocks alias p.
func (s *Sequential) splitParameters(p []float64) ([][]float64, error) {
	if n := s.NumParameters(); len(p) != n {
		return nil, fmt.Errorf("sequential: %w: expected %d, got %d", ErrParameterLengthMismatch, n, len(p))
	}
	parts := make([][]float64, len(s.layers))
	index := 0
	for i, l := range s.layers {
		parts[i] = p[index : index+l.NumParameters()]
		index += l.NumParameters()
	}
	return parts, nil
}

func (s *Sequential) ready() error {
	if len(s.layers) == 0 {
		return fmt.Errorf("sequential: %w", ErrEmptyNetwork)
	}
	return nil
}

func (s *Sequential) linearisedReady() error {
	if err := s.ready(); err != nil {
		return err
	}
	if !s.linearised {
		return fmt.Errorf("sequential: %w", ErrNotLinearised)
	}
	return nil
}

// Apply folds x through every layer in forward order.
func (s *Sequential) Apply(x []float64) ([]float64, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var err error
	for i, l := range s.layers {
		if x, err = l.Apply(x); err != nil {
			return nil, fmt.Errorf("sequential: layer %d: %w", i, err)
		}
	}
	return x, nil
}

// ApplyLinearise folds x through every layer's ApplyLinearise, establishing
// all linearisation points in a single left-to-right pass.
func (s *Sequential) ApplyLinearise(x []float64) ([]float64, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	s.linearised = false
	var err error
	for i, l := range s.layers {
		if x, err = l.ApplyLinearise(x); err != nil {
			return nil, fmt.Errorf("sequential: layer %d: %w", i, err)
		}
	}
	s.linearised = true
	return x, nil
}

// ApplyTangentLinearX folds dx through every layer in forward order.
func (s *Sequential) ApplyTangentLinearX(dx []float64) ([]float64, error) {
	if err := s.linearisedReady(); err != nil {
		return nil, err
	}
	var err error
	for i, l := range s.layers {
		if dx, err = l.ApplyTangentLinearX(dx); err != nil {
			return nil, fmt.Errorf("sequential: layer %d: %w", i, err)
		}
	}
	return dx, nil
}

// ApplyAdjointX folds dy through every layer in reverse order.
func (s *Sequential) ApplyAdjointX(dy []float64) ([]float64, error) {
	if err := s.linearisedReady(); err != nil {
		return nil, err
	}
	var err error
	for i := len(s.layers) - 1; i >= 0; i-- {
		if dy, err = s.layers[i].ApplyAdjointX(dy); err != nil {
			return nil, fmt.Errorf("sequential: layer %d: %w", i, err)
		}
	}
	return dy, nil
}

// ApplyTangentLinearP propagates a parameter perturbation forward.
//
// The perturbation leaving layer k is
//
//	dy_k = layer_k.ApplyTangentLinearX(dy_{k-1}) + layer_k.ApplyTangentLinearP(dp_k)
//
// where the first layer has no upstream term.
func (s *Sequential) ApplyTangentLinearP(dp []float64) ([]float64, error) {
	if err := s.linearisedReady(); err != nil {
		return nil, err
	}
	parts, err := s.splitParameters(dp)
	if err != nil {
		return nil, err
	}

	dy, err := s.layers[0].ApplyTangentLinearP(parts[0])
	if err != nil {
		return nil, fmt.Errorf("sequential: layer 0: %w", err)
	}
	for i := 1; i < len(s.layers); i++ {
		l := s.layers[i]
		up, err := l.ApplyTangentLinearX(dy)
		if err != nil {
			return nil, fmt.Errorf("sequential: layer %d: %w", i, err)
		}
		own, err := l.ApplyTangentLinearP(parts[i])
		if err != nil {
			return nil, fmt.Errorf("sequential: layer %d: %w", i, err)
		}
		dy = floats.AddTo(up, up, own)
	}
	return dy, nil
}

// ApplyAdjointP propagates an output seed backward and returns the adjoint
// with respect to the full parameter vector.
//
// Walking from the last layer to the first, each layer contributes
// ApplyAdjointP(dy) before dy is pulled upstream through ApplyAdjointX. The
// contributions are collected last-to-first and must be reversed before they
// are joined, so that block k lines up with layer k's parameters.
func (s *Sequential) ApplyAdjointP(dy []float64) ([]float64, error) {
	if err := s.linearisedReady(); err != nil {
		return nil, err
	}

	contributions := make([][]float64, 0, len(s.layers))
	last := len(s.layers) - 1
	for i := last; i > 0; i-- {
		l := s.layers[i]
		dp, err := l.ApplyAdjointP(dy)
		if err != nil {
			return nil, fmt.Errorf("sequential: layer %d: %w", i, err)
		}
		contributions = append(contributions, dp)
		if dy, err = l.ApplyAdjointX(dy); err != nil {
			return nil, fmt.Errorf("sequential: layer %d: %w", i, err)
		}
	}
	dp, err := s.layers[0].ApplyAdjointP(dy)
	if err != nil {
		return nil, fmt.Errorf("sequential: layer 0: %w", err)
	}
	contributions = append(contributions, dp)

	slices.Reverse(contributions)
	return slices.Concat(contributions...), nil
}

// ApplyTangentLinear returns ApplyTangentLinearP(dp) + ApplyTangentLinearX(dx).
func (s *Sequential) ApplyTangentLinear(dp, dx []float64) ([]float64, error) {
	dyp, err := s.ApplyTangentLinearP(dp)
	if err != nil {
		return nil, err
	}
	dyx, err := s.ApplyTangentLinearX(dx)
	if err != nil {
		return nil, err
	}
	return floats.AddTo(dyp, dyp, dyx), nil
}

// ApplyAdjoint returns (ApplyAdjointP(dy), ApplyAdjointX(dy)).
func (s *Sequential) ApplyAdjoint(dy []float64) (dp, dx []float64, err error) {
	if dp, err = s.ApplyAdjointP(dy); err != nil {
		return nil, nil, err
	}
	if dx, err = s.ApplyAdjointX(dy); err != nil {
		return nil, nil, err
	}
	return dp, dx, nil
}

// Clone returns a deep copy of the network and every layer.
func (s *Sequential) Clone() Layer {
	return s.CloneSequential()
}

// CloneSequential is Clone with a concrete result type.
func (s *Sequential) CloneSequential() *Sequential {
	c := &Sequential{layers: make([]Layer, len(s.layers)), linearised: s.linearised}
	for i, l := range s.layers {
		c.layers[i] = l.Clone()
	}
	return c
}
