package nn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Dense implements a fully connected layer followed by an activation.
//
// Performs the transformation: y = activation(W x + b)
// where:
//   - x is the input vector with length Nin
//   - W is the weight matrix with shape [Nout, Nin]
//   - b is the bias vector with length Nout
//
// The parameter vector is the bias followed by the weights flattened in
// column-major order, i.e. W[o][i] lives at offset Nout + i*Nout + o. That
// block is exactly a row-major [Nin, Nout] matrix holding W transposed, which
// is how the layer views it without copying.
//
// Example:
//
//	rng := rand.New(rand.NewPCG(1, 2))
//	layer, err := nn.NewDense(5, 6, "relu", nn.Randn(rng))
//	if err != nil {
//	    return err
//	}
//	y, err := layer.ApplyLinearise(x)
//	dy, err := layer.ApplyTangentLinearX(dx)
type Dense struct {
	nin        int
	nout       int
	params     []float64  // [bias | weights], length Nout*(Nin+1)
	bias       []float64  // view of params[:nout]
	weightT    *mat.Dense // [Nin, Nout] view of params[nout:]
	activation Activation
	x          []float64 // linearisation point, nil until ApplyLinearise
}

// NewDense creates a dense layer with the named activation.
//
// Parameters:
//   - nin: Number of inputs
//   - nout: Number of outputs
//   - activation: "linear", "tanh" or "relu"
//   - init: Parameter initialiser (Zero, Randn, Value, GlorotUniform)
//
// Unknown activation names fail with ErrUnsupportedLayer.
func NewDense(nin, nout int, activation string, init Initialiser) (*Dense, error) {
	if nin <= 0 || nout <= 0 {
		return nil, fmt.Errorf("dense layer: %w: widths must be positive, got %d -> %d", ErrShapeMismatch, nin, nout)
	}
	act, err := NewActivation(activation)
	if err != nil {
		return nil, fmt.Errorf("dense layer: %w", err)
	}

	d := &Dense{
		nin:        nin,
		nout:       nout,
		params:     make([]float64, nout*(nin+1)),
		activation: act,
	}
	d.bindViews()

	if init == nil {
		init = Zero()
	}
	if err := d.Initialise(init); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Dense) bindViews() {
	d.bias = d.params[:d.nout]
	d.weightT = mat.NewDense(d.nin, d.nout, d.params[d.nout:])
}

// Kind returns "dense".
func (d *Dense) Kind() string { return KindDense }

// Nin returns the number of inputs.
func (d *Dense) Nin() int { return d.nin }

// Nout returns the number of outputs.
func (d *Dense) Nout() int { return d.nout }

// NumParameters returns Nout*(Nin+1).
func (d *Dense) NumParameters() int { return len(d.params) }

// ActivationName returns the interchange name of the activation.
func (d *Dense) ActivationName() string { return d.activation.Name() }

// Parameters returns a copy of [bias | column-major weights].
func (d *Dense) Parameters() []float64 { return clone(d.params) }

// Bias returns a copy of the bias vector.
func (d *Dense) Bias() []float64 { return clone(d.bias) }

// Weight returns W[o][i].
func (d *Dense) Weight(o, i int) float64 { return d.weightT.At(i, o) }

// SetParameters overwrites the parameter vector.
func (d *Dense) SetParameters(p []float64) error {
	if len(p) != len(d.params) {
		return fmt.Errorf("dense layer: %w: expected %d, got %d", ErrParameterLengthMismatch, len(d.params), len(p))
	}
	copy(d.params, p)
	d.invalidate()
	return nil
}

// Initialise refills the parameter vector.
func (d *Dense) Initialise(init Initialiser) error {
	if err := init.Initialise(d.params, d.nin, d.nout); err != nil {
		return fmt.Errorf("dense layer: %w", err)
	}
	d.invalidate()
	return nil
}

// FrameworkParameters returns the parameters in training-framework order:
// the kernel as a row-major [Nin, Nout] matrix followed by the bias.
func (d *Dense) FrameworkParameters() []float64 {
	out := make([]float64, 0, len(d.params))
	out = append(out, d.params[d.nout:]...)
	return append(out, d.bias...)
}

// SetFrameworkParameters is the inverse of FrameworkParameters.
func (d *Dense) SetFrameworkParameters(p []float64) error {
	if len(p) != len(d.params) {
		return fmt.Errorf("dense layer: %w: expected %d, got %d", ErrParameterLengthMismatch, len(d.params), len(p))
	}
	nw := d.nin * d.nout
	copy(d.params[d.nout:], p[:nw])
	copy(d.bias, p[nw:])
	d.invalidate()
	return nil
}

func (d *Dense) invalidate() {
	d.x = nil
	d.activation.Reset()
}

// affine returns W x + b.
func (d *Dense) affine(x []float64) []float64 {
	var z mat.VecDense
	z.MulVec(d.weightT.T(), mat.NewVecDense(d.nin, x))
	out := z.RawVector().Data
	floats.Add(out, d.bias)
	return out
}

// Apply computes activation(W x + b).
func (d *Dense) Apply(x []float64) ([]float64, error) {
	if err := checkLen("dense layer", x, d.nin); err != nil {
		return nil, err
	}
	return d.activation.Apply(d.affine(x)), nil
}

// ApplyLinearise computes activation(W x + b), storing a copy of x and the
// activation derivative at W x + b.
func (d *Dense) ApplyLinearise(x []float64) ([]float64, error) {
	if err := checkLen("dense layer", x, d.nin); err != nil {
		return nil, err
	}
	d.x = clone(x)
	return d.activation.ApplyLinearise(d.affine(x)), nil
}

func (d *Dense) linearised() error {
	if d.x == nil {
		return fmt.Errorf("dense layer: %w", ErrNotLinearised)
	}
	return nil
}

// ApplyTangentLinearX returns prime ⊙ (W dx).
func (d *Dense) ApplyTangentLinearX(dx []float64) ([]float64, error) {
	if err := d.linearised(); err != nil {
		return nil, err
	}
	if err := checkLen("dense layer", dx, d.nin); err != nil {
		return nil, err
	}
	var z mat.VecDense
	z.MulVec(d.weightT.T(), mat.NewVecDense(d.nin, dx))
	return d.activation.ApplyTangentLinear(z.RawVector().Data)
}

// ApplyAdjointX returns Wᵀ (prime ⊙ dy).
func (d *Dense) ApplyAdjointX(dy []float64) ([]float64, error) {
	if err := d.linearised(); err != nil {
		return nil, err
	}
	if err := checkLen("dense layer", dy, d.nout); err != nil {
		return nil, err
	}
	a, err := d.activation.ApplyAdjoint(dy)
	if err != nil {
		return nil, err
	}
	var dx mat.VecDense
	dx.MulVec(d.weightT, mat.NewVecDense(d.nout, a))
	return dx.RawVector().Data, nil
}

// ApplyTangentLinearP returns prime ⊙ (dW x + db), where dp = [db | dW] uses
// the same layout as the parameter vector and x is the linearisation point.
func (d *Dense) ApplyTangentLinearP(dp []float64) ([]float64, error) {
	if err := d.linearised(); err != nil {
		return nil, err
	}
	if err := checkLen("dense layer", dp, len(d.params)); err != nil {
		return nil, err
	}
	dwT := mat.NewDense(d.nin, d.nout, dp[d.nout:])
	var z mat.VecDense
	z.MulVec(dwT.T(), mat.NewVecDense(d.nin, d.x))
	out := z.RawVector().Data
	floats.Add(out, dp[:d.nout])
	return d.activation.ApplyTangentLinear(out)
}

// ApplyAdjointP returns [db | dW] with db = prime ⊙ dy and dW = db xᵀ,
// flattened in the parameter layout.
func (d *Dense) ApplyAdjointP(dy []float64) ([]float64, error) {
	if err := d.linearised(); err != nil {
		return nil, err
	}
	if err := checkLen("dense layer", dy, d.nout); err != nil {
		return nil, err
	}
	db, err := d.activation.ApplyAdjoint(dy)
	if err != nil {
		return nil, err
	}
	dp := make([]float64, len(d.params))
	copy(dp, db)
	// Column-major dW is row-major (x dbᵀ).
	dwT := mat.NewDense(d.nin, d.nout, dp[d.nout:])
	dwT.Outer(1, mat.NewVecDense(d.nin, d.x), mat.NewVecDense(d.nout, db))
	return dp, nil
}

// Clone returns a deep copy of the layer.
func (d *Dense) Clone() Layer {
	c := &Dense{
		nin:        d.nin,
		nout:       d.nout,
		params:     clone(d.params),
		activation: d.activation.Clone(),
		x:          cloneOrNil(d.x),
	}
	c.bindViews()
	return c
}
