package verify

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/fnn/internal/nn"
)

// JacobianComparison holds the analytic and numeric Jacobians of a network
// in x at one point.
type JacobianComparison struct {
	Analytic *mat.Dense // Nout×Nin, column j = tangent_linear_x(e_j)
	Numeric  *mat.Dense // Nout×Nin, central differences
	MaxError float64    // Largest elementwise |Analytic − Numeric|
}

// JacobianCheck compares the tangent-linear map in x column by column with a
// central-difference Jacobian at x. A step of zero selects the default step
// of the finite-difference formula.
//
// The network itself is not modified.
func JacobianCheck(net *nn.Sequential, x []float64, step float64) (*JacobianComparison, error) {
	if net.Len() == 0 {
		return nil, nn.ErrEmptyNetwork
	}
	nin, nout := net.Nin(), net.Nout()
	if len(x) != nin {
		return nil, fmt.Errorf("jacobian check: %w: x has %d values, network expects %d",
			nn.ErrShapeMismatch, len(x), nin)
	}

	c := net.CloneSequential()
	y, err := c.ApplyLinearise(x)
	if err != nil {
		return nil, err
	}

	analytic := mat.NewDense(nout, nin, nil)
	e := make([]float64, nin)
	for j := range nin {
		e[j] = 1
		col, err := c.ApplyTangentLinearX(e)
		if err != nil {
			return nil, fmt.Errorf("jacobian check: column %d: %w", j, err)
		}
		analytic.SetCol(j, col)
		e[j] = 0
	}

	var applyErr error
	numeric := mat.NewDense(nout, nin, nil)
	fd.Jacobian(numeric, func(dst, xs []float64) {
		out, err := c.Apply(xs)
		if err != nil {
			if applyErr == nil {
				applyErr = err
			}
			return
		}
		copy(dst, out)
	}, x, &fd.JacobianSettings{
		Formula:     fd.Central,
		OriginValue: y,
		Step:        step,
	})
	if applyErr != nil {
		return nil, fmt.Errorf("jacobian check: %w", applyErr)
	}

	var diff mat.Dense
	diff.Sub(analytic, numeric)
	maxErr := 0.0
	for i := range nout {
		for j := range nin {
			maxErr = math.Max(maxErr, math.Abs(diff.At(i, j)))
		}
	}

	return &JacobianComparison{Analytic: analytic, Numeric: numeric, MaxError: maxErr}, nil
}
