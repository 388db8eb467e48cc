package verify

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fnn/internal/nn"
	"github.com/born-ml/fnn/internal/parallel"
)

// referenceNetwork builds 5→6 relu, 6→6 tanh, 6→4 linear with input and
// output normalisation.
func referenceNetwork(t *testing.T) *nn.Sequential {
	t.Helper()
	return network(t, nn.ActivationReLU, nn.ActivationTanh, nn.ActivationLinear)
}

// smoothNetwork has no kinks, so Taylor residuals follow ε² exactly.
func smoothNetwork(t *testing.T) *nn.Sequential {
	t.Helper()
	return network(t, nn.ActivationTanh, nn.ActivationTanh, nn.ActivationLinear)
}

func network(t *testing.T, a1, a2, a3 string) *nn.Sequential {
	t.Helper()
	rng := rand.New(rand.NewPCG(7, 0x5eed))

	normIn, err := nn.NewNormalisation(5, []float64{2.0}, []float64{-1.0})
	require.NoError(t, err)
	d1, err := nn.NewDense(5, 6, a1, nn.Randn(rng))
	require.NoError(t, err)
	d2, err := nn.NewDense(6, 6, a2, nn.Randn(rng))
	require.NoError(t, err)
	d3, err := nn.NewDense(6, 4, a3, nn.Randn(rng))
	require.NoError(t, err)
	normOut, err := nn.NewNormalisation(4, []float64{0.5}, []float64{3.0})
	require.NoError(t, err)

	net, err := nn.NewSequential(normIn, d1, d2, d3, normOut)
	require.NoError(t, err)
	return net
}

func testConfig(trials int) Config {
	cfg := DefaultConfig()
	cfg.Trials = trials
	cfg.Parallel = parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	return cfg
}

// TestAdjointIdentity tests the bilinear identity over many random trials.
func TestAdjointIdentity(t *testing.T) {
	net := referenceNetwork(t)
	cfg := testConfig(120)

	for _, check := range []func(*nn.Sequential, Config) (Report, error){
		AdjointTestX, AdjointTestP, AdjointTest,
	} {
		r, err := check(net, cfg)
		require.NoError(t, err)
		assert.Equal(t, 120, r.Trials())
		assert.True(t, r.Passed(1e-10), "%s", r)
	}
}

// TestGradientTestX tests the first-order residual in x.
func TestGradientTestX(t *testing.T) {
	r, err := GradientTestX(referenceNetwork(t), testConfig(100))
	require.NoError(t, err)
	assert.Less(t, r.Max, 1e-3, "%s", r)
}

// TestGradientLaw tests that residuals shrink quadratically with ε.
func TestGradientLaw(t *testing.T) {
	net := smoothNetwork(t)

	for _, check := range []func(*nn.Sequential, Config) (Report, error){GradientTestX, GradientTestP} {
		coarse := testConfig(50)
		coarse.Epsilon = 1e-3
		fine := testConfig(50)
		fine.Epsilon = 1e-5

		rc, err := check(net, coarse)
		require.NoError(t, err)
		rf, err := check(net, fine)
		require.NoError(t, err)

		assert.Greater(t, rc.Mean, 100*rf.Mean, "%s%s", rc, rf)
	}
}

// TestReproducible tests that reports do not depend on scheduling.
func TestReproducible(t *testing.T) {
	net := referenceNetwork(t)

	par := testConfig(40)
	seq := testConfig(40)
	seq.Parallel = parallel.Sequential()

	a, err := AdjointTest(net, par)
	require.NoError(t, err)
	b, err := AdjointTest(net, seq)
	require.NoError(t, err)
	assert.Equal(t, a.Errors, b.Errors)

	g1, err := GradientTestP(net, par)
	require.NoError(t, err)
	g2, err := GradientTestP(net, seq)
	require.NoError(t, err)
	assert.Equal(t, g1.Errors, g2.Errors)

	other := par
	other.Seed = 2
	g3, err := GradientTestP(net, other)
	require.NoError(t, err)
	assert.NotEqual(t, g1.Errors, g3.Errors)
}

// TestCurrentParameters tests that trials leave the caller's network alone.
func TestCurrentParameters(t *testing.T) {
	net := referenceNetwork(t)
	before := net.Parameters()

	cfg := testConfig(10)
	cfg.Randomise = false
	_, err := GradientTestP(net, cfg)
	require.NoError(t, err)

	assert.Equal(t, before, net.Parameters())
	_, err = net.ApplyTangentLinearX(make([]float64, 5))
	assert.ErrorIs(t, err, nn.ErrNotLinearised)
}

// TestGradientSweep tests the decay of the residual over ε.
func TestGradientSweep(t *testing.T) {
	net := smoothNetwork(t)
	rng := rand.New(rand.NewPCG(3, 3))
	x, dx := randn(rng, 5), randn(rng, 5)

	eps := DefaultEpsilons()
	require.Len(t, eps, 16)
	assert.InDelta(t, 1e-1, eps[0], 1e-15)
	assert.InDelta(t, 1e-16, eps[15], 1e-30)

	errs, err := GradientSweep(net, x, dx, []float64{1e-2, 1e-3, 1e-4, 1e-5})
	require.NoError(t, err)
	require.Len(t, errs, 4)
	for i := 1; i < len(errs); i++ {
		assert.Less(t, errs[i], errs[i-1], "residual at step %d", i)
	}

	_, err = GradientSweep(net, x[:4], dx, eps)
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
}

// TestJacobianCheck tests the tangent-linear map against central differences.
func TestJacobianCheck(t *testing.T) {
	net := smoothNetwork(t)
	x := []float64{0.1, -0.2, 0.3, 0.05, -0.4}

	cmp, err := JacobianCheck(net, x, 0)
	require.NoError(t, err)

	r, c := cmp.Analytic.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 5, c)
	assert.Less(t, cmp.MaxError, 1e-6)

	_, err = JacobianCheck(net, x[:2], 0)
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
}

// TestEmptyNetwork tests that checks refuse an empty network.
func TestEmptyNetwork(t *testing.T) {
	net, err := nn.NewSequential()
	require.NoError(t, err)

	_, err = AdjointTest(net, testConfig(3))
	assert.ErrorIs(t, err, nn.ErrEmptyNetwork)
	_, err = GradientSweep(net, nil, nil, DefaultEpsilons())
	assert.ErrorIs(t, err, nn.ErrEmptyNetwork)
	_, err = JacobianCheck(net, nil, 0)
	assert.ErrorIs(t, err, nn.ErrEmptyNetwork)
}

// TestInvalidTrials tests the trial count check.
func TestInvalidTrials(t *testing.T) {
	_, err := GradientTestX(referenceNetwork(t), testConfig(0))
	assert.Error(t, err)
}

// TestReport tests the summary statistics.
func TestReport(t *testing.T) {
	r := newReport("demo", []float64{1, 2, 3})
	assert.InDelta(t, 2.0, r.Mean, 1e-15)
	assert.InDelta(t, 1.0, r.StdDev, 1e-15)
	assert.Equal(t, 1.0, r.Min)
	assert.Equal(t, 3.0, r.Max)
	assert.True(t, r.Passed(3))
	assert.False(t, r.Passed(2.5))
	assert.Contains(t, r.String(), "Ntest      3")

	single := newReport("one", []float64{4})
	assert.Equal(t, 0.0, single.StdDev)

	assert.False(t, newReport("none", nil).Passed(1))
}
