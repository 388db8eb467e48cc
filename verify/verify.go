// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package verify checks the derivative maps of a network.
//
// The gradient tests compare the tangent-linear map with a forward step and
// shrink like ε²; the adjoint tests check the exact bilinear identity
// ⟨adjoint(dy), d⟩ = ⟨tangent_linear(d), dy⟩ and stay at rounding level.
//
// Example:
//
//	cfg := verify.DefaultConfig()
//	report, err := verify.AdjointTest(net, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(report)
package verify

import (
	"github.com/born-ml/fnn/internal/parallel"
	"github.com/born-ml/fnn/internal/verify"
	"github.com/born-ml/fnn/nn"
)

// Config controls a verification run.
type Config = verify.Config

// Report summarises the per-trial errors of one check.
type Report = verify.Report

// JacobianComparison holds analytic and finite-difference Jacobians.
type JacobianComparison = verify.JacobianComparison

// ParallelConfig controls how trials are spread over goroutines.
type ParallelConfig = parallel.Config

// DefaultConfig returns 100 randomised trials with ε = 1e-6.
func DefaultConfig() Config { return verify.DefaultConfig() }

// GradientTestX checks the tangent-linear map in x.
func GradientTestX(net *nn.Sequential, cfg Config) (Report, error) {
	return verify.GradientTestX(net, cfg)
}

// GradientTestP checks the tangent-linear map in the parameters.
func GradientTestP(net *nn.Sequential, cfg Config) (Report, error) {
	return verify.GradientTestP(net, cfg)
}

// AdjointTestX checks the adjoint in x.
func AdjointTestX(net *nn.Sequential, cfg Config) (Report, error) {
	return verify.AdjointTestX(net, cfg)
}

// AdjointTestP checks the adjoint in the parameters.
func AdjointTestP(net *nn.Sequential, cfg Config) (Report, error) {
	return verify.AdjointTestP(net, cfg)
}

// AdjointTest checks the joint adjoint in (dp, dx).
func AdjointTest(net *nn.Sequential, cfg Config) (Report, error) {
	return verify.AdjointTest(net, cfg)
}

// GradientSweep returns the tangent-linear residual in x for each step.
func GradientSweep(net *nn.Sequential, x, dx, epsilons []float64) ([]float64, error) {
	return verify.GradientSweep(net, x, dx, epsilons)
}

// DefaultEpsilons returns the steps 1e-1 ... 1e-16.
func DefaultEpsilons() []float64 { return verify.DefaultEpsilons() }

// JacobianCheck compares the tangent-linear map with central differences.
func JacobianCheck(net *nn.Sequential, x []float64, step float64) (*JacobianComparison, error) {
	return verify.JacobianCheck(net, x, step)
}
