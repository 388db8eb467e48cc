package serialization

import (
	"slices"

	"github.com/born-ml/fnn/internal/nn"
)

// Format constants.
const (
	ModelSequential = "sequential"
	IntFormat       = "%7d"
	FloatFormat     = "%.7e"
	FieldSeparator  = "\t"
)

// Document is the parsed form of an interchange text document.
type Document struct {
	Model   string   // Model kind, always "sequential"
	Records []Record // Layer records in forward order
}

// Record is one layer record. Which fields are meaningful depends on Kind:
//
//	dense:         Nin, Nout, Parameters, Activation
//	normalisation: Nin (== Nout), Alpha, Beta
//	dropout:       Nin (== Nout), Rate
type Record struct {
	Kind       string
	Nin        int
	Nout       int
	Parameters []float64 // bias then column-major weights
	Activation string
	Alpha      []float64 // one value (scalar) or Nin values
	Beta       []float64
	Rate       float64
}

// DenseRecord builds a dense record.
func DenseRecord(nin, nout int, parameters []float64, activation string) Record {
	return Record{Kind: nn.KindDense, Nin: nin, Nout: nout, Parameters: slices.Clone(parameters), Activation: activation}
}

// NormalisationRecord builds a normalisation record.
func NormalisationRecord(width int, alpha, beta []float64) Record {
	return Record{Kind: nn.KindNormalisation, Nin: width, Nout: width, Alpha: slices.Clone(alpha), Beta: slices.Clone(beta)}
}

// DropoutRecord builds a dropout record.
func DropoutRecord(width int, rate float64) Record {
	return Record{Kind: nn.KindDropout, Nin: width, Nout: width, Rate: rate}
}

// Width returns the record's width, meaningful for normalisation and dropout.
func (r Record) Width() int { return r.Nin }
