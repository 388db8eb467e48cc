package serialization

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Precision is the width in bytes of a real in a Fortran binary block.
type Precision int

// Supported precisions.
const (
	F4 Precision = 4 // float32 ("f4")
	F8 Precision = 8 // float64 ("f8")
)

// maxRecordBytes bounds a single Fortran record; the marker is an int32.
const maxRecordBytes = math.MaxInt32

func (p Precision) valid() error {
	if p != F4 && p != F8 {
		return fmt.Errorf("unsupported precision %d (want 4 or 8)", int(p))
	}
	return nil
}

// FortranWriter writes sequential unformatted Fortran records: every block
// is framed by its byte count as a little-endian int32 before and after the
// payload.
type FortranWriter struct {
	w         io.Writer
	precision Precision
}

// NewFortranWriter creates a writer emitting reals of the given precision.
func NewFortranWriter(w io.Writer, precision Precision) (*FortranWriter, error) {
	if err := precision.valid(); err != nil {
		return nil, err
	}
	return &FortranWriter{w: w, precision: precision}, nil
}

// WriteReals writes one record holding v.
func (fw *FortranWriter) WriteReals(v []float64) error {
	size := len(v) * int(fw.precision)
	if size > maxRecordBytes {
		return fmt.Errorf("record of %d bytes exceeds int32 marker", size)
	}

	buf := make([]byte, 4+size+4)
	binary.LittleEndian.PutUint32(buf, uint32(size))
	payload := buf[4 : 4+size]
	for i, x := range v {
		switch fw.precision {
		case F4:
			binary.LittleEndian.PutUint32(payload[i*4:], math.Float32bits(float32(x)))
		case F8:
			binary.LittleEndian.PutUint64(payload[i*8:], math.Float64bits(x))
		}
	}
	binary.LittleEndian.PutUint32(buf[4+size:], uint32(size))

	if _, err := fw.w.Write(buf); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}

// WriteMatrix writes the rows of m, concatenated, as one record.
func (fw *FortranWriter) WriteMatrix(m [][]float64) error {
	var flat []float64
	for _, row := range m {
		flat = append(flat, row...)
	}
	return fw.WriteReals(flat)
}

// FortranReader reads records written by FortranWriter or by the oracle.
type FortranReader struct {
	r         io.Reader
	precision Precision
	record    int
}

// NewFortranReader creates a reader expecting reals of the given precision.
func NewFortranReader(r io.Reader, precision Precision) (*FortranReader, error) {
	if err := precision.valid(); err != nil {
		return nil, err
	}
	return &FortranReader{r: r, precision: precision}, nil
}

// ReadReals reads the next record. It returns io.EOF when no record is left.
func (fr *FortranReader) ReadReals() ([]float64, error) {
	var head uint32
	if err := binary.Read(fr.r, binary.LittleEndian, &head); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("binary record %d: failed to read marker: %w", fr.record, err)
	}
	if int(head)%int(fr.precision) != 0 {
		return nil, fmt.Errorf("binary record %d: %w: %d bytes is not a multiple of %d",
			fr.record, ErrMalformedRecord, head, fr.precision)
	}

	payload := make([]byte, head)
	if _, err := io.ReadFull(fr.r, payload); err != nil {
		return nil, fmt.Errorf("binary record %d: %w: truncated payload: %v", fr.record, ErrMalformedRecord, err)
	}
	var tail uint32
	if err := binary.Read(fr.r, binary.LittleEndian, &tail); err != nil {
		return nil, fmt.Errorf("binary record %d: %w: missing trailing marker: %v", fr.record, ErrMalformedRecord, err)
	}
	if tail != head {
		return nil, fmt.Errorf("binary record %d: %w: markers differ (%d != %d)", fr.record, ErrMalformedRecord, head, tail)
	}

	n := int(head) / int(fr.precision)
	out := make([]float64, n)
	for i := range out {
		switch fr.precision {
		case F4:
			out[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(payload[i*4:])))
		case F8:
			out[i] = math.Float64frombits(binary.LittleEndian.Uint64(payload[i*8:]))
		}
	}
	fr.record++
	return out, nil
}

// ReadMatrix reads the next record and reshapes it row-major to rows×cols.
func (fr *FortranReader) ReadMatrix(rows, cols int) ([][]float64, error) {
	flat, err := fr.ReadReals()
	if err != nil {
		return nil, err
	}
	if len(flat) != rows*cols {
		return nil, fmt.Errorf("binary record %d: %w: expected %dx%d values, got %d",
			fr.record-1, ErrMalformedRecord, rows, cols, len(flat))
	}
	m := make([][]float64, rows)
	for i := range m {
		m[i] = flat[i*cols : (i+1)*cols : (i+1)*cols]
	}
	return m, nil
}

// TangentLinearBlocks is the oracle exchange for tangent-linear comparisons.
// The blocks are written and read in field order; the oracle depends on it.
type TangentLinearBlocks struct {
	X  [][]float64 // Inputs, Ne×Nx
	Y  [][]float64 // Outputs at X, Ne×Ny
	DP []float64   // Parameter seed, shared by all samples
	DX [][]float64 // Input seeds, Ne×Nx
	DY [][]float64 // Tangent-linear outputs, Ne×Ny
}

// WriteTangentLinearBlocks writes x, y, dp, dx, dy in that order.
func WriteTangentLinearBlocks(fw *FortranWriter, b *TangentLinearBlocks) error {
	if err := fw.WriteMatrix(b.X); err != nil {
		return err
	}
	if err := fw.WriteMatrix(b.Y); err != nil {
		return err
	}
	if err := fw.WriteReals(b.DP); err != nil {
		return err
	}
	if err := fw.WriteMatrix(b.DX); err != nil {
		return err
	}
	return fw.WriteMatrix(b.DY)
}

// ReadTangentLinearBlocks reads x, y, dp, dx, dy in that order.
func ReadTangentLinearBlocks(fr *FortranReader, ne, nx, ny int) (*TangentLinearBlocks, error) {
	var b TangentLinearBlocks
	var err error
	if b.X, err = fr.ReadMatrix(ne, nx); err != nil {
		return nil, fmt.Errorf("x block: %w", err)
	}
	if b.Y, err = fr.ReadMatrix(ne, ny); err != nil {
		return nil, fmt.Errorf("y block: %w", err)
	}
	if b.DP, err = fr.ReadReals(); err != nil {
		return nil, fmt.Errorf("dp block: %w", err)
	}
	if b.DX, err = fr.ReadMatrix(ne, nx); err != nil {
		return nil, fmt.Errorf("dx block: %w", err)
	}
	if b.DY, err = fr.ReadMatrix(ne, ny); err != nil {
		return nil, fmt.Errorf("dy block: %w", err)
	}
	return &b, nil
}

// WriteTangentLinearFile writes blocks to a new file.
func WriteTangentLinearFile(path string, precision Precision, b *TangentLinearBlocks) error {
	//nolint:gosec // G304: File path comes from user input
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	fw, err := NewFortranWriter(f, precision)
	if err == nil {
		err = WriteTangentLinearBlocks(fw, b)
	}
	if err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadTangentLinearFile reads blocks from a file.
func ReadTangentLinearFile(path string, precision Precision, ne, nx, ny int) (*TangentLinearBlocks, error) {
	//nolint:gosec // G304: File path comes from user input
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	fr, err := NewFortranReader(f, precision)
	if err != nil {
		return nil, err
	}
	return ReadTangentLinearBlocks(fr, ne, nx, ny)
}
