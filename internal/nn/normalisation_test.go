package nn

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNormalisationScalarBroadcast tests that scalar coefficients are broadcast.
func TestNormalisationScalarBroadcast(t *testing.T) {
	n, err := NewNormalisation(3, []float64{2}, []float64{-1})
	require.NoError(t, err)

	assert.Equal(t, []float64{2, 2, 2}, n.Alpha())
	assert.Equal(t, []float64{-1, -1, -1}, n.Beta())

	y, err := n.Apply([]float64{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, 1, 3}, y)
}

// TestNormalisationVector tests per-element coefficients.
func TestNormalisationVector(t *testing.T) {
	n, err := NewNormalisation(2, []float64{2, 3}, []float64{1, -1})
	require.NoError(t, err)

	y, err := n.ApplyLinearise([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2}, y)

	dy, err := n.ApplyTangentLinearX([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, dy)

	dx, err := n.ApplyAdjointX([]float64{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 6}, dx)
}

// TestNormalisationBadCoefficients tests coefficient length validation.
func TestNormalisationBadCoefficients(t *testing.T) {
	_, err := NewNormalisation(3, []float64{1, 2}, []float64{0})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
	_, err = NewNormalisation(3, []float64{1}, nil)
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}

// TestNormalisationParameters tests the parameter-free contract.
func TestNormalisationParameters(t *testing.T) {
	n, err := NewNormalisation(4, []float64{1}, []float64{0})
	require.NoError(t, err)

	assert.Equal(t, 0, n.NumParameters())
	assert.Empty(t, n.Parameters())
	assert.NoError(t, n.SetParameters(nil))
	assert.True(t, errors.Is(n.SetParameters([]float64{1}), ErrParameterLengthMismatch))

	dy, err := n.ApplyTangentLinearP(nil)
	require.NoError(t, err)
	assert.Equal(t, make([]float64, 4), dy)

	dp, err := n.ApplyAdjointP([]float64{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Empty(t, dp)
}

// TestDropoutIdentity tests that dropout is the identity at inference time.
func TestDropoutIdentity(t *testing.T) {
	d, err := NewDropout(3, 0.2)
	require.NoError(t, err)
	assert.Equal(t, 0.2, d.Rate())
	assert.Equal(t, KindDropout, d.Kind())

	x := []float64{1, -2, 3}
	for _, f := range []func([]float64) ([]float64, error){
		d.Apply, d.ApplyLinearise, d.ApplyTangentLinearX, d.ApplyAdjointX,
	} {
		y, err := f(x)
		require.NoError(t, err)
		assert.Equal(t, x, y)
	}

	_, err = d.Apply([]float64{1})
	assert.True(t, errors.Is(err, ErrShapeMismatch))
}
