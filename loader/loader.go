// Package loader reads and writes networks in the interchange text format
// shared with the external solver.
//
// This package wraps the internal serialization implementation and exports a
// clean public API.
//
// Example usage:
//
//	import (
//	    "github.com/born-ml/fnn/loader"
//	)
//
//	// Load a network written by the converter or by the solver
//	net, err := loader.Load("path/to/model.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	y, err := net.Apply(x)
//
//	// Save it back
//	if err := loader.Save("path/to/copy.txt", net); err != nil {
//	    log.Fatal(err)
//	}
package loader

import (
	"io"

	"github.com/born-ml/fnn/internal/serialization"
	"github.com/born-ml/fnn/nn"
)

// Document is the record-level form of an interchange document.
type Document = serialization.Document

// Record is one layer record of a document.
type Record = serialization.Record

// RecordError locates a parse failure inside a document.
type RecordError = serialization.RecordError

// ReaderOptions configures parsing.
type ReaderOptions = serialization.ReaderOptions

// WriterOptions configures output.
type WriterOptions = serialization.WriterOptions

// ValidationLevel controls how strictly documents are checked.
type ValidationLevel = serialization.ValidationLevel

// Validation levels.
const (
	ValidationStrict = serialization.ValidationStrict
	ValidationNormal = serialization.ValidationNormal
	ValidationNone   = serialization.ValidationNone
)

// Errors returned for unreadable documents.
var (
	ErrUnsupportedModel = serialization.ErrUnsupportedModel
	ErrMalformedRecord  = serialization.ErrMalformedRecord
)

// DefaultReaderOptions returns strict options that keep dropout layers.
func DefaultReaderOptions() ReaderOptions {
	return serialization.DefaultReaderOptions()
}

// Load reads a network from a file with default options.
func Load(path string) (*nn.Sequential, error) {
	return serialization.ReadFile(path, serialization.DefaultReaderOptions())
}

// LoadWithOptions reads a network from a file.
func LoadWithOptions(path string, opts ReaderOptions) (*nn.Sequential, error) {
	return serialization.ReadFile(path, opts)
}

// Save writes a network to a file with per-element normalisation lines.
func Save(path string, net *nn.Sequential) error {
	return serialization.WriteFile(path, net, WriterOptions{})
}

// SaveWithOptions writes a network to a file.
func SaveWithOptions(path string, net *nn.Sequential, opts WriterOptions) error {
	return serialization.WriteFile(path, net, opts)
}

// Decode reads a network from r.
func Decode(r io.Reader, opts ReaderOptions) (*nn.Sequential, error) {
	return serialization.Decode(r, opts)
}

// Encode writes a network to w.
func Encode(w io.Writer, net *nn.Sequential, opts WriterOptions) error {
	return serialization.Encode(w, net, opts)
}

// Model descriptions handed over by a training framework.

// ModelDescription describes a framework model layer by layer.
type ModelDescription = serialization.ModelDescription

// LayerDescription describes one framework layer.
type LayerDescription = serialization.LayerDescription

// ConvertOptions adds normalisation and dropout records around the layers.
type ConvertOptions = serialization.ConvertOptions

// Convert turns a model description into a document.
func Convert(model ModelDescription, opts ConvertOptions) (*Document, error) {
	return serialization.Convert(model, opts)
}

// UniformDropout returns one dropout rate per layer, all equal to rate.
func UniformDropout(rate float64, layers int) []*float64 {
	return serialization.UniformDropout(rate, layers)
}
