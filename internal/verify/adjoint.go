package verify

import (
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/fnn/internal/nn"
)

// The adjoint tests check the bilinear identity ⟨A(dy), d⟩ = ⟨T(d), dy⟩
// between a tangent-linear map T and its adjoint A for random seeds. The
// identity is exact, so the recorded error is the difference scaled by
// max(1, |⟨T(d), dy⟩|) and stays at rounding level.

// AdjointTestX checks the adjoint in x.
func AdjointTestX(net *nn.Sequential, cfg Config) (Report, error) {
	return run("adjoint test x", net, cfg, func(c *nn.Sequential, rng *rand.Rand) (float64, error) {
		if _, err := c.ApplyLinearise(randn(rng, c.Nin())); err != nil {
			return 0, err
		}
		dx := randn(rng, c.Nin())
		dy := randn(rng, c.Nout())

		adj, err := c.ApplyAdjointX(dy)
		if err != nil {
			return 0, err
		}
		tl, err := c.ApplyTangentLinearX(dx)
		if err != nil {
			return 0, err
		}
		return bilinearError(floats.Dot(adj, dx), floats.Dot(tl, dy)), nil
	})
}

// AdjointTestP checks the adjoint in the parameters.
func AdjointTestP(net *nn.Sequential, cfg Config) (Report, error) {
	return run("adjoint test p", net, cfg, func(c *nn.Sequential, rng *rand.Rand) (float64, error) {
		if _, err := c.ApplyLinearise(randn(rng, c.Nin())); err != nil {
			return 0, err
		}
		dp := randn(rng, c.NumParameters())
		dy := randn(rng, c.Nout())

		adj, err := c.ApplyAdjointP(dy)
		if err != nil {
			return 0, err
		}
		tl, err := c.ApplyTangentLinearP(dp)
		if err != nil {
			return 0, err
		}
		return bilinearError(floats.Dot(adj, dp), floats.Dot(tl, dy)), nil
	})
}

// AdjointTest checks the joint adjoint in (dp, dx).
func AdjointTest(net *nn.Sequential, cfg Config) (Report, error) {
	return run("adjoint test", net, cfg, func(c *nn.Sequential, rng *rand.Rand) (float64, error) {
		if _, err := c.ApplyLinearise(randn(rng, c.Nin())); err != nil {
			return 0, err
		}
		dp := randn(rng, c.NumParameters())
		dx := randn(rng, c.Nin())
		dy := randn(rng, c.Nout())

		adjP, adjX, err := c.ApplyAdjoint(dy)
		if err != nil {
			return 0, err
		}
		tl, err := c.ApplyTangentLinear(dp, dx)
		if err != nil {
			return 0, err
		}
		lhs := floats.Dot(slices.Concat(adjP, adjX), slices.Concat(dp, dx))
		return bilinearError(lhs, floats.Dot(tl, dy)), nil
	})
}

func bilinearError(lhs, rhs float64) float64 {
	return math.Abs(lhs-rhs) / math.Max(1, math.Abs(rhs))
}
