package verify

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/fnn/internal/nn"
)

// GradientTestX checks the tangent-linear map in x against a forward step.
//
// Each trial draws x and dx and records
//
//	max|apply(x + ε·dx) − apply_linearise(x) − ε·tangent_linear_x(dx)|
//
// which is O(ε²) for a correct tangent-linear map.
func GradientTestX(net *nn.Sequential, cfg Config) (Report, error) {
	return run("gradient test x", net, cfg, func(c *nn.Sequential, rng *rand.Rand) (float64, error) {
		x := randn(rng, c.Nin())
		dx := randn(rng, c.Nin())
		return gradientErrorX(c, x, dx, cfg.Epsilon)
	})
}

func gradientErrorX(net *nn.Sequential, x, dx []float64, eps float64) (float64, error) {
	y, err := net.ApplyLinearise(x)
	if err != nil {
		return 0, err
	}
	dy, err := net.ApplyTangentLinearX(dx)
	if err != nil {
		return 0, err
	}

	xp := make([]float64, len(x))
	floats.AddScaledTo(xp, x, eps, dx)
	yp, err := net.Apply(xp)
	if err != nil {
		return 0, err
	}
	return taylorResidual(yp, y, dy, eps), nil
}

// GradientTestP checks the tangent-linear map in the parameters: each trial
// records max|apply_{p+ε·dp}(x) − apply_linearise_p(x) − ε·tangent_linear_p(dp)|.
func GradientTestP(net *nn.Sequential, cfg Config) (Report, error) {
	return run("gradient test p", net, cfg, func(c *nn.Sequential, rng *rand.Rand) (float64, error) {
		x := randn(rng, c.Nin())
		dp := randn(rng, c.NumParameters())

		y, err := c.ApplyLinearise(x)
		if err != nil {
			return 0, err
		}
		dy, err := c.ApplyTangentLinearP(dp)
		if err != nil {
			return 0, err
		}

		p := c.Parameters()
		floats.AddScaled(p, cfg.Epsilon, dp)
		if err := c.SetParameters(p); err != nil {
			return 0, err
		}
		yp, err := c.Apply(x)
		if err != nil {
			return 0, err
		}
		return taylorResidual(yp, y, dy, cfg.Epsilon), nil
	})
}

// taylorResidual returns max|yp − y − ε·dy|.
func taylorResidual(yp, y, dy []float64, eps float64) float64 {
	delta := make([]float64, len(yp))
	floats.SubTo(delta, yp, y)
	floats.AddScaled(delta, -eps, dy)
	return maxAbs(delta)
}

// DefaultEpsilons returns the steps 1e-1, 1e-2, ..., 1e-16.
func DefaultEpsilons() []float64 {
	eps := make([]float64, 16)
	for i := range eps {
		eps[i] = math.Pow(10, -float64(i+1))
	}
	return eps
}

// GradientSweep evaluates the tangent-linear residual in x for fixed x and dx
// over a range of steps. For a correct map the residual first falls with ε
// (quadratically, since the linear term cancels) until rounding noise takes over.
//
// The network itself is not modified.
func GradientSweep(net *nn.Sequential, x, dx, epsilons []float64) ([]float64, error) {
	if net.Len() == 0 {
		return nil, nn.ErrEmptyNetwork
	}
	if len(x) != net.Nin() || len(dx) != net.Nin() {
		return nil, fmt.Errorf("gradient sweep: %w: x has %d and dx %d values, network expects %d",
			nn.ErrShapeMismatch, len(x), len(dx), net.Nin())
	}

	c := net.CloneSequential()
	out := make([]float64, len(epsilons))
	for i, eps := range epsilons {
		e, err := gradientErrorX(c, x, dx, eps)
		if err != nil {
			return nil, fmt.Errorf("gradient sweep: ε=%g: %w", eps, err)
		}
		out[i] = e
	}
	return out, nil
}
