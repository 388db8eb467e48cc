package serialization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fnn/internal/nn"
)

// TestValidateDocument_Levels tests which checks each level runs.
func TestValidateDocument_Levels(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		strict  bool // Rejected by ValidationStrict
		normal  bool // Rejected by ValidationNormal
	}{
		{
			name: "valid",
			records: []Record{
				NormalisationRecord(2, []float64{1}, []float64{0, 1}),
				DenseRecord(2, 1, make([]float64, 3), nn.ActivationTanh),
				DropoutRecord(1, 0),
			},
		},
		{
			name:    "unknown activation",
			records: []Record{DenseRecord(1, 1, make([]float64, 2), "sigmoid")},
			strict:  true,
		},
		{
			name:    "rate out of range",
			records: []Record{DropoutRecord(3, 1)},
			strict:  true,
		},
		{
			name: "broken chain",
			records: []Record{
				DenseRecord(2, 3, make([]float64, 9), nn.ActivationReLU),
				DropoutRecord(2, 0.5),
			},
			strict: true,
			normal: true,
		},
		{
			name:    "parameter count",
			records: []Record{DenseRecord(2, 3, make([]float64, 8), nn.ActivationReLU)},
			strict:  true,
			normal:  true,
		},
		{
			name:    "coefficient length",
			records: []Record{NormalisationRecord(3, []float64{1, 2}, []float64{0})},
			strict:  true,
			normal:  true,
		},
		{
			name:    "non-square normalisation",
			records: []Record{{Kind: nn.KindNormalisation, Nin: 2, Nout: 3, Alpha: []float64{1}, Beta: []float64{0}}},
			strict:  true,
			normal:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &Document{Model: ModelSequential, Records: tt.records}

			err := ValidateDocument(doc, ValidationStrict)
			if tt.strict {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			err = ValidateDocument(doc, ValidationNormal)
			if tt.normal {
				assert.ErrorIs(t, err, ErrMalformedRecord)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, ValidateDocument(doc, ValidationNone))
		})
	}
}

// TestValidateDocument_Limits tests resource limits.
func TestValidateDocument_Limits(t *testing.T) {
	require.ErrorIs(t, checkRecordCount(MaxRecordCount+1, ValidationNormal), ErrMalformedRecord)
	require.NoError(t, checkRecordCount(MaxRecordCount+1, ValidationNone))
	require.ErrorIs(t, checkWidth(MaxWidth+1, ValidationStrict), ErrMalformedRecord)
	require.ErrorIs(t, checkWidth(0, ValidationNone), ErrMalformedRecord)

	huge := Record{Kind: nn.KindDense, Nin: MaxWidth, Nout: MaxWidth}
	err := ValidateDocument(&Document{Model: ModelSequential, Records: []Record{huge}}, ValidationNormal)
	assert.ErrorIs(t, err, ErrMalformedRecord)
	assert.Contains(t, err.Error(), "exceed")
}

// TestRecordError_Messages tests error formatting.
func TestRecordError_Messages(t *testing.T) {
	header := &RecordError{Index: -1, Line: 2, Err: malformed("bad count")}
	assert.Equal(t, "header at line 2: malformed record: bad count", header.Error())

	rec := &RecordError{Index: 3, Line: 10, Kind: nn.KindDense, Err: malformed("short")}
	assert.Equal(t, "record 3 (dense) at line 10: malformed record: short", rec.Error())
	assert.ErrorIs(t, rec, ErrMalformedRecord)

	bare := &RecordError{Index: 0, Line: 3, Err: malformed("x")}
	assert.Equal(t, "record 0 at line 3: malformed record: x", bare.Error())
}
