package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// ComputeChecksum returns the SHA-256 checksum of a document in its
// canonical text form. Two networks with the same records, formatted
// parameters included, have the same checksum regardless of how their source
// files were laid out (scalar or vector normalisation lines aside).
func ComputeChecksum(doc *Document) ([32]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocument(&buf, doc); err != nil {
		return [32]byte{}, err
	}
	return sha256.Sum256(buf.Bytes()), nil
}

// ComputeChecksumReader computes the SHA-256 checksum of raw file content.
func ComputeChecksumReader(r io.Reader) ([32]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return [32]byte{}, err
	}
	var sum [32]byte
	copy(sum[:], h.Sum(nil))
	return sum, nil
}

// FormatChecksum renders a checksum as lowercase hex.
func FormatChecksum(sum [32]byte) string {
	return hex.EncodeToString(sum[:])
}
