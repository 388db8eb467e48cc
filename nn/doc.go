// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides a differentiable feed-forward network runtime.
//
// # Overview
//
// This package contains:
//   - Layers: Dense, Normalisation, Dropout
//   - Activations: linear, tanh, relu
//   - Containers: Sequential
//   - Initialisation: Zero, Randn, Value, GlorotUniform
//
// Every layer offers three maps: the forward map, its tangent-linear map
// (directional derivative) and the adjoint of the tangent-linear map, each
// with respect to both the input and the parameters.
//
// # Basic Usage
//
//	rng := rand.New(rand.NewPCG(1, 2))
//
//	d1, _ := nn.NewDense(5, 6, nn.ActivationReLU, nn.Randn(rng))
//	d2, _ := nn.NewDense(6, 4, nn.ActivationLinear, nn.Randn(rng))
//	net, _ := nn.NewSequential(d1, d2)
//
//	y, _ := net.Apply(x)
//
// # Linearisation
//
// Derivative calls use the state captured by the last ApplyLinearise:
//
//	y, _ := net.ApplyLinearise(x)
//	dy, _ := net.ApplyTangentLinear(dp, dx)
//	dp, dx, _ := net.ApplyAdjoint(dy)
//
// The state stays valid until the next ApplyLinearise, SetParameters or
// Initialise. Calling a derivative map before linearising returns
// ErrNotLinearised.
//
// # Parameters
//
// A dense layer stores its parameters as one vector: the Nout biases
// followed by the Nout×Nin weights in column-major order. Sequential
// concatenates the vectors of its layers in forward order; parameter-free
// layers contribute nothing.
//
// # Concurrency
//
// A network is not safe for concurrent use. Use Clone to give every
// goroutine its own copy.
package nn
