package verify

import (
	"bytes"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fnn/internal/nn"
	"github.com/born-ml/fnn/internal/parallel"
	"github.com/born-ml/fnn/internal/serialization"
)

func samples(rng *rand.Rand, ne, n int) [][]float64 {
	m := make([][]float64, ne)
	for i := range m {
		m[i] = randn(rng, n)
	}
	return m
}

// TestTangentLinearBlocks tests per-sample evaluation against direct calls.
func TestTangentLinearBlocks(t *testing.T) {
	net := referenceNetwork(t)
	rng := rand.New(rand.NewPCG(11, 0))
	x, dx := samples(rng, 8, 5), samples(rng, 8, 5)
	dp := randn(rng, net.NumParameters())

	b, err := TangentLinearBlocks(net, x, dx, dp, parallel.Config{Enabled: true, NumWorkers: 3, MinChunkSize: 1})
	require.NoError(t, err)
	require.Len(t, b.Y, 8)
	require.Len(t, b.DY, 8)

	c := net.CloneSequential()
	for e := range x {
		y, err := c.ApplyLinearise(x[e])
		require.NoError(t, err)
		dy, err := c.ApplyTangentLinear(dp, dx[e])
		require.NoError(t, err)
		assert.Equal(t, y, b.Y[e])
		assert.Equal(t, dy, b.DY[e])
	}

	_, err = TangentLinearBlocks(net, x, dx[:3], dp, parallel.Sequential())
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
}

// TestCompareBlocks tests the oracle comparison through a binary exchange.
func TestCompareBlocks(t *testing.T) {
	net := referenceNetwork(t)
	rng := rand.New(rand.NewPCG(12, 0))
	want, err := TangentLinearBlocks(net, samples(rng, 6, 5), samples(rng, 6, 5),
		randn(rng, net.NumParameters()), parallel.Sequential())
	require.NoError(t, err)

	for _, tc := range []struct {
		precision serialization.Precision
		tol       float64
	}{
		{serialization.F8, 0},
		{serialization.F4, 1e-6},
	} {
		var buf bytes.Buffer
		fw, err := serialization.NewFortranWriter(&buf, tc.precision)
		require.NoError(t, err)
		require.NoError(t, serialization.WriteTangentLinearBlocks(fw, want))

		fr, err := serialization.NewFortranReader(&buf, tc.precision)
		require.NoError(t, err)
		got, err := serialization.ReadTangentLinearBlocks(fr, 6, 5, 4)
		require.NoError(t, err)

		diff, err := CompareBlocks(got, want)
		require.NoError(t, err)
		assert.LessOrEqual(t, diff.Y, tc.tol)
		assert.LessOrEqual(t, diff.DY, tc.tol)
	}

	shifted := *want
	shifted.Y = [][]float64{{1, 2, 3, 4}}
	_, err = CompareBlocks(&shifted, want)
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
}

// TestRelativeDifference tests the symmetric relative measure.
func TestRelativeDifference(t *testing.T) {
	d, err := relativeDifference([][]float64{{1, 0, -2}}, [][]float64{{3, 0, -2}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, d, 1e-15)
}
