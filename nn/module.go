// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/fnn/internal/nn"
)

// Layer is the contract shared by all layers and by Sequential.
//
// Vector operations take and return plain float64 slices and never modify
// their arguments:
//   - Apply: forward map
//   - ApplyLinearise: forward map, capturing the linearisation point
//   - ApplyTangentLinearX / ApplyTangentLinearP: tangent-linear map in x / p
//   - ApplyAdjointX / ApplyAdjointP: adjoint map in x / p
type Layer = nn.Layer

// Activation is an elementwise activation with a cached derivative.
type Activation = nn.Activation

// Initialiser fills a layer's parameter vector.
type Initialiser = nn.Initialiser

// InitialiserFunc adapts a function to Initialiser.
type InitialiserFunc = nn.InitialiserFunc

// Layer kinds as they appear in interchange documents.
const (
	KindDense         = nn.KindDense
	KindNormalisation = nn.KindNormalisation
	KindDropout       = nn.KindDropout
	KindSequential    = nn.KindSequential
)

// Activation names.
const (
	ActivationLinear = nn.ActivationLinear
	ActivationTanh   = nn.ActivationTanh
	ActivationReLU   = nn.ActivationReLU
)

// Errors returned by layers and networks.
var (
	ErrUnsupportedLayer        = nn.ErrUnsupportedLayer
	ErrParameterLengthMismatch = nn.ErrParameterLengthMismatch
	ErrNotLinearised           = nn.ErrNotLinearised
	ErrShapeMismatch           = nn.ErrShapeMismatch
	ErrEmptyNetwork            = nn.ErrEmptyNetwork
)
