package verify

import (
	"fmt"
	"math"

	"github.com/born-ml/fnn/internal/nn"
	"github.com/born-ml/fnn/internal/parallel"
	"github.com/born-ml/fnn/internal/serialization"
)

// TangentLinearBlocks evaluates the network on every sample for exchange with
// the external solver: y_e = apply_linearise(x_e) and
// dy_e = tangent_linear(dp, dx_e). The parameter seed is shared by all samples.
//
// Samples run on clones; the network itself is not modified.
func TangentLinearBlocks(net *nn.Sequential, x, dx [][]float64, dp []float64, cfg parallel.Config) (*serialization.TangentLinearBlocks, error) {
	if net.Len() == 0 {
		return nil, nn.ErrEmptyNetwork
	}
	if len(x) != len(dx) {
		return nil, fmt.Errorf("%w: %d inputs but %d input seeds", nn.ErrShapeMismatch, len(x), len(dx))
	}

	type sample struct{ y, dy []float64 }
	out, err := parallel.Map(len(x), func(e int) (sample, error) {
		c := net.CloneSequential()
		y, err := c.ApplyLinearise(x[e])
		if err != nil {
			return sample{}, fmt.Errorf("sample %d: %w", e, err)
		}
		dy, err := c.ApplyTangentLinear(dp, dx[e])
		if err != nil {
			return sample{}, fmt.Errorf("sample %d: %w", e, err)
		}
		return sample{y: y, dy: dy}, nil
	}, cfg)
	if err != nil {
		return nil, err
	}

	b := &serialization.TangentLinearBlocks{
		X:  x,
		Y:  make([][]float64, len(out)),
		DP: dp,
		DX: dx,
		DY: make([][]float64, len(out)),
	}
	for e, s := range out {
		b.Y[e], b.DY[e] = s.y, s.dy
	}
	return b, nil
}

// BlockDifference is the largest symmetric relative difference between two
// sets of blocks, 2|a−b|/(|a|+|b|), for the outputs and for the tangent-linear
// outputs.
type BlockDifference struct {
	Y  float64
	DY float64
}

// CompareBlocks compares the outputs of two block sets sample by sample.
func CompareBlocks(got, want *serialization.TangentLinearBlocks) (BlockDifference, error) {
	y, err := relativeDifference(got.Y, want.Y)
	if err != nil {
		return BlockDifference{}, fmt.Errorf("y block: %w", err)
	}
	dy, err := relativeDifference(got.DY, want.DY)
	if err != nil {
		return BlockDifference{}, fmt.Errorf("dy block: %w", err)
	}
	return BlockDifference{Y: y, DY: dy}, nil
}

func relativeDifference(a, b [][]float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d samples vs %d", nn.ErrShapeMismatch, len(a), len(b))
	}
	worst := 0.0
	for e := range a {
		if len(a[e]) != len(b[e]) {
			return 0, fmt.Errorf("%w: sample %d has %d values vs %d", nn.ErrShapeMismatch, e, len(a[e]), len(b[e]))
		}
		for i := range a[e] {
			d := math.Abs(a[e][i] - b[e][i])
			if d == 0 {
				continue
			}
			worst = math.Max(worst, 2*d/(math.Abs(a[e][i])+math.Abs(b[e][i])))
		}
	}
	return worst, nil
}
