package nn

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildNetwork creates the reference 5→6→6→4 network with input and output
// normalisation used throughout the tests.
func buildNetwork(t *testing.T, init Initialiser) *Sequential {
	t.Helper()

	normIn, err := NewNormalisation(5, []float64{2.0}, []float64{-1.0})
	require.NoError(t, err)
	d1, err := NewDense(5, 6, ActivationReLU, init)
	require.NoError(t, err)
	d2, err := NewDense(6, 6, ActivationTanh, init)
	require.NoError(t, err)
	d3, err := NewDense(6, 4, ActivationLinear, init)
	require.NoError(t, err)
	normOut, err := NewNormalisation(4, []float64{0.5}, []float64{3.0})
	require.NoError(t, err)

	net, err := NewSequential(normIn, d1, d2, d3, normOut)
	require.NoError(t, err)
	return net
}

// TestSequentialPartition tests the parameter partition invariant.
func TestSequentialPartition(t *testing.T) {
	net := buildNetwork(t, Randn(newRNG(1)))

	sum := 0
	for _, l := range net.Layers() {
		sum += l.NumParameters()
	}
	assert.Equal(t, 6*6+6*7+4*7, sum)
	assert.Equal(t, sum, net.NumParameters())
	assert.Len(t, net.Parameters(), net.NumParameters())
	assert.Equal(t, 5, net.Nin())
	assert.Equal(t, 4, net.Nout())
}

// TestSequentialSetParameters tests redistribution in forward order.
func TestSequentialSetParameters(t *testing.T) {
	net := buildNetwork(t, Zero())

	p := make([]float64, net.NumParameters())
	for i := range p {
		p[i] = float64(i)
	}
	require.NoError(t, net.SetParameters(p))
	assert.Equal(t, p, net.Parameters())

	// Layer 1 is the first dense layer: its block starts at offset 0.
	assert.Equal(t, p[:36], net.Layer(1).Parameters())
	assert.Equal(t, p[36:78], net.Layer(2).Parameters())
	assert.Equal(t, p[78:], net.Layer(3).Parameters())
}

// TestSequentialSetParametersWrongLength tests that a wrong-length vector is
// rejected and leaves the parameters untouched.
func TestSequentialSetParametersWrongLength(t *testing.T) {
	net := buildNetwork(t, Randn(newRNG(2)))
	before := net.Parameters()

	err := net.SetParameters(make([]float64, net.NumParameters()-1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrParameterLengthMismatch))
	assert.Equal(t, before, net.Parameters())

	err = net.SetParameters(make([]float64, net.NumParameters()+1))
	assert.True(t, errors.Is(err, ErrParameterLengthMismatch))
	assert.Equal(t, before, net.Parameters())
}

// TestSequentialShapeMismatch tests width chaining on Add.
func TestSequentialShapeMismatch(t *testing.T) {
	d1, _ := NewDense(3, 4, ActivationLinear, Zero())
	d2, _ := NewDense(5, 2, ActivationLinear, Zero())
	_, err := NewSequential(d1, d2)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

// TestSequentialEmpty tests evaluation of an empty network.
func TestSequentialEmpty(t *testing.T) {
	net, err := NewSequential()
	require.NoError(t, err)
	_, err = net.Apply([]float64{1})
	assert.True(t, errors.Is(err, ErrEmptyNetwork))
	_, _, err = net.ApplyAdjoint([]float64{1})
	assert.True(t, errors.Is(err, ErrEmptyNetwork))
}

// TestSequentialNotLinearised tests the guard on derivative calls.
func TestSequentialNotLinearised(t *testing.T) {
	rng := newRNG(3)
	net := buildNetwork(t, Randn(rng))

	_, err := net.ApplyTangentLinearX(randVec(rng, 5))
	assert.True(t, errors.Is(err, ErrNotLinearised))
	_, err = net.ApplyAdjointP(randVec(rng, 4))
	assert.True(t, errors.Is(err, ErrNotLinearised))

	_, err = net.ApplyLinearise(randVec(rng, 5))
	require.NoError(t, err)
	_, err = net.ApplyAdjointX(randVec(rng, 4))
	require.NoError(t, err)

	require.NoError(t, net.SetParameters(net.Parameters()))
	_, err = net.ApplyTangentLinearP(randVec(rng, net.NumParameters()))
	assert.True(t, errors.Is(err, ErrNotLinearised))
}

// TestSequentialForward tests the forward fold against manual composition.
func TestSequentialForward(t *testing.T) {
	rng := newRNG(4)
	net := buildNetwork(t, Randn(rng))
	x := randVec(rng, 5)

	want := x
	var err error
	for _, l := range net.Layers() {
		want, err = l.Apply(want)
		require.NoError(t, err)
	}

	got, err := net.Apply(x)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	lin, err := net.ApplyLinearise(x)
	require.NoError(t, err)
	assert.Equal(t, want, lin)
}

// TestSequentialZeroInput tests the bias-only forward pass at x = 0.
func TestSequentialZeroInput(t *testing.T) {
	net := buildNetwork(t, Randn(newRNG(5)))

	// Input normalisation maps 0 to -1 everywhere.
	normIn := net.Layer(0)
	h, err := normIn.Apply(make([]float64, 5))
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -1, -1, -1, -1}, h)

	y, err := net.Apply(make([]float64, 5))
	require.NoError(t, err)
	assert.Len(t, y, 4)
}

// TestSequentialAdjointIdentity tests the exact bilinear identity
// <adjoint(dy), (dp, dx)> == <tangent_linear(dp, dx), dy> over many trials.
func TestSequentialAdjointIdentity(t *testing.T) {
	rng := newRNG(6)
	net := buildNetwork(t, Zero())

	for trial := 0; trial < 120; trial++ {
		require.NoError(t, net.Initialise(Randn(rng)))
		_, err := net.ApplyLinearise(randVec(rng, 5))
		require.NoError(t, err)

		dp := randVec(rng, net.NumParameters())
		dx := randVec(rng, 5)
		dy := randVec(rng, 4)

		tl, err := net.ApplyTangentLinear(dp, dx)
		require.NoError(t, err)
		adp, adx, err := net.ApplyAdjoint(dy)
		require.NoError(t, err)

		lhs := dot(adp, dp) + dot(adx, dx)
		rhs := dot(tl, dy)
		assertBilinear(t, lhs, rhs, "trial %d", trial)
	}
}

// TestSequentialTangentLinearP tests the forward accumulation of parameter
// perturbations against perturbing one layer at a time.
func TestSequentialTangentLinearP(t *testing.T) {
	rng := newRNG(7)
	net := buildNetwork(t, Randn(rng))
	_, err := net.ApplyLinearise(randVec(rng, 5))
	require.NoError(t, err)

	dp := randVec(rng, net.NumParameters())
	full, err := net.ApplyTangentLinearP(dp)
	require.NoError(t, err)

	// Linearity: the sum over single-block perturbations equals the full one.
	sum := make([]float64, 4)
	offset := 0
	for _, l := range net.Layers() {
		n := l.NumParameters()
		if n == 0 {
			continue
		}
		part := make([]float64, len(dp))
		copy(part[offset:offset+n], dp[offset:offset+n])
		dy, err := net.ApplyTangentLinearP(part)
		require.NoError(t, err)
		for i := range sum {
			sum[i] += dy[i]
		}
		offset += n
	}
	for i := range sum {
		assertBilinear(t, full[i], sum[i])
	}
}

// TestSequentialGradientLaw tests first-order convergence of the Taylor
// remainder for combined input and parameter perturbations.
func TestSequentialGradientLaw(t *testing.T) {
	rng := newRNG(8)
	net := buildNetwork(t, Randn(rng))
	p0 := net.Parameters()

	x := randVec(rng, 5)
	dx := randVec(rng, 5)
	dp := randVec(rng, net.NumParameters())

	y, err := net.ApplyLinearise(x)
	require.NoError(t, err)
	dy, err := net.ApplyTangentLinear(dp, dx)
	require.NoError(t, err)

	remainder := func(eps float64) float64 {
		p := make([]float64, len(p0))
		for i := range p {
			p[i] = p0[i] + eps*dp[i]
		}
		xp := make([]float64, 5)
		for i := range xp {
			xp[i] = x[i] + eps*dx[i]
		}
		pert := net.CloneSequential()
		require.NoError(t, pert.SetParameters(p))
		yp, err := pert.Apply(xp)
		require.NoError(t, err)
		m := 0.0
		for i := range yp {
			m = math.Max(m, math.Abs(yp[i]-y[i]-eps*dy[i]))
		}
		return m
	}

	r1, r2, r3 := remainder(1e-2), remainder(1e-3), remainder(1e-4)
	assert.Less(t, r2, r1)
	assert.Less(t, r3, r2)
}

// TestSequentialClone tests that clones keep the linearisation point and are
// independent of the original.
func TestSequentialClone(t *testing.T) {
	rng := newRNG(9)
	net := buildNetwork(t, Randn(rng))
	_, err := net.ApplyLinearise(randVec(rng, 5))
	require.NoError(t, err)

	c := net.CloneSequential()
	require.NoError(t, net.Initialise(Zero()))

	dy := randVec(rng, 4)
	_, err = c.ApplyAdjointX(dy)
	assert.NoError(t, err)
	assert.NotEqual(t, net.Parameters(), c.Parameters())
}

// TestSequentialNested tests that a Sequential can itself be used as a layer.
func TestSequentialNested(t *testing.T) {
	rng := newRNG(10)
	inner := buildNetwork(t, Randn(rng))
	tail, err := NewDense(4, 2, ActivationTanh, Randn(rng))
	require.NoError(t, err)

	outer, err := NewSequential(inner, tail)
	require.NoError(t, err)
	assert.Equal(t, inner.NumParameters()+tail.NumParameters(), outer.NumParameters())

	_, err = outer.ApplyLinearise(randVec(rng, 5))
	require.NoError(t, err)
	dp := randVec(rng, outer.NumParameters())
	dy := randVec(rng, 2)
	tl, err := outer.ApplyTangentLinearP(dp)
	require.NoError(t, err)
	adp, err := outer.ApplyAdjointP(dy)
	require.NoError(t, err)
	assertBilinear(t, dot(tl, dy), dot(adp, dp))
}
