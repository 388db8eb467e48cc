package serialization

import (
	"fmt"
	"slices"
	"strings"

	"github.com/born-ml/fnn/internal/nn"
)

// LayerDescription describes one layer of a model produced by a training
// framework.
type LayerDescription struct {
	Class      string    `json:"class"`      // Framework layer class; only "Dense" is supported
	Units      int       `json:"units"`      // Output width
	Kernel     []float64 `json:"kernel"`     // Row-major [Nin, Units] kernel
	Bias       []float64 `json:"bias"`       // Units values
	Activation string    `json:"activation"` // linear | tanh | relu
}

// ModelDescription is the framework-neutral form of a model handed over by
// a converter front end.
type ModelDescription struct {
	Name       string             `json:"name"` // Model name; must contain "sequential"
	InputWidth int                `json:"input_width"`
	Layers     []LayerDescription `json:"layers"`
}

// ConvertOptions configures the optional records added around the layers.
type ConvertOptions struct {
	AddNormIn    bool
	NormAlphaIn  []float64 // Defaults to 1
	NormBetaIn   []float64 // Defaults to 0
	AddNormOut   bool
	NormAlphaOut []float64 // Defaults to 1
	NormBetaOut  []float64 // Defaults to 0

	// DropoutRates holds one optional rate per layer; nil entries add no
	// dropout record. A shorter list is padded with nil. Use UniformDropout
	// to apply one rate after every layer.
	DropoutRates []*float64
}

// UniformDropout returns per-layer dropout rates all equal to rate.
func UniformDropout(rate float64, layers int) []*float64 {
	rates := make([]*float64, layers)
	for i := range rates {
		r := rate
		rates[i] = &r
	}
	return rates
}

// Convert turns a model description into an interchange document.
//
// Dense parameters are stored bias first, followed by the kernel: a
// row-major [Nin, Nout] kernel is exactly the column-major [Nout, Nin]
// weight block the runtime expects.
func Convert(model ModelDescription, opts ConvertOptions) (*Document, error) {
	if !strings.Contains(model.Name, ModelSequential) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, model.Name)
	}
	if model.InputWidth <= 0 {
		return nil, fmt.Errorf("%w: input width must be positive, got %d", nn.ErrShapeMismatch, model.InputWidth)
	}
	if len(opts.DropoutRates) > len(model.Layers) {
		return nil, fmt.Errorf("too many dropout rates: %d for %d layers", len(opts.DropoutRates), len(model.Layers))
	}
	rates := make([]*float64, len(model.Layers))
	copy(rates, opts.DropoutRates)

	doc := &Document{Model: ModelSequential}
	width := model.InputWidth

	if opts.AddNormIn {
		doc.Records = append(doc.Records, NormalisationRecord(width,
			orDefault(opts.NormAlphaIn, 1), orDefault(opts.NormBetaIn, 0)))
	}

	for i, l := range model.Layers {
		if l.Class != "Dense" {
			return nil, fmt.Errorf("layer %d: %w: %q", i, nn.ErrUnsupportedLayer, l.Class)
		}
		if len(l.Kernel) != width*l.Units || len(l.Bias) != l.Units {
			return nil, fmt.Errorf("layer %d: %w: kernel %d and bias %d values for %d -> %d",
				i, nn.ErrShapeMismatch, len(l.Kernel), len(l.Bias), width, l.Units)
		}
		doc.Records = append(doc.Records,
			DenseRecord(width, l.Units, slices.Concat(l.Bias, l.Kernel), l.Activation))
		if rates[i] != nil {
			doc.Records = append(doc.Records, DropoutRecord(l.Units, *rates[i]))
		}
		width = l.Units
	}

	if opts.AddNormOut {
		doc.Records = append(doc.Records, NormalisationRecord(width,
			orDefault(opts.NormAlphaOut, 1), orDefault(opts.NormBetaOut, 0)))
	}

	if err := ValidateDocument(doc, ValidationNormal); err != nil {
		return nil, err
	}
	return doc, nil
}

func orDefault(v []float64, def float64) []float64 {
	if len(v) == 0 {
		return []float64{def}
	}
	return v
}
