// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand/v2"

	"github.com/born-ml/fnn/internal/nn"
)

// Layers

// Dense is a fully connected layer followed by an activation.
type Dense = nn.Dense

// NewDense creates a dense layer. A nil initialiser zeroes the parameters.
//
// Example:
//
//	rng := rand.New(rand.NewPCG(1, 2))
//	layer, err := nn.NewDense(5, 6, nn.ActivationTanh, nn.Randn(rng))
func NewDense(nin, nout int, activation string, init Initialiser) (*Dense, error) {
	return nn.NewDense(nin, nout, activation, init)
}

// Normalisation applies y = alpha⊙x + beta.
type Normalisation = nn.Normalisation

// NewNormalisation creates a normalisation layer. Coefficients of length 1
// are broadcast to the full width.
//
// Example:
//
//	norm, err := nn.NewNormalisation(5, []float64{2}, []float64{-1})
func NewNormalisation(width int, alpha, beta []float64) (*Normalisation, error) {
	return nn.NewNormalisation(width, alpha, beta)
}

// Dropout is the inference-time identity kept for dropout records.
type Dropout = nn.Dropout

// NewDropout creates a dropout layer.
func NewDropout(width int, rate float64) (*Dropout, error) {
	return nn.NewDropout(width, rate)
}

// Sequential is an ordered stack of layers.
type Sequential = nn.Sequential

// NewSequential creates a network from layers whose widths chain.
//
// Example:
//
//	net, err := nn.NewSequential(normIn, dense1, dense2, normOut)
func NewSequential(layers ...Layer) (*Sequential, error) {
	return nn.NewSequential(layers...)
}

// Activations

// NewActivation creates an activation by name: linear, tanh or relu.
func NewActivation(name string) (Activation, error) {
	return nn.NewActivation(name)
}

// Initialisers

// Zero sets every parameter to zero.
func Zero() Initialiser { return nn.Zero() }

// Randn draws every parameter from N(0, 1) using rng.
func Randn(rng *rand.Rand) Initialiser { return nn.Randn(rng) }

// Value copies an explicit parameter vector.
func Value(p []float64) Initialiser { return nn.Value(p) }

// GlorotUniform draws every parameter from U(-b, b), b = sqrt(6/(nin+nout)).
func GlorotUniform(rng *rand.Rand) Initialiser { return nn.GlorotUniform(rng) }
