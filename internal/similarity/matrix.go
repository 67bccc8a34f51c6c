package similarity

import (
	"encoding/gob"
	"fmt"
	"io"

	"github.com/cinematch/cinematch/pkg/errors"
)

// Matrix is a dense, symmetric pairwise similarity matrix. Rows and columns
// are positional indices into the dataset ordering the matrix was built
// from; Fingerprint records that ordering. A Matrix is immutable once built.
type Matrix struct {
	Fingerprint string
	Size        int
	Data        []float64 // row-major, Size*Size entries
}

// NewMatrix allocates a zero matrix of the given size.
func NewMatrix(size int, fingerprint string) *Matrix {
	return &Matrix{
		Fingerprint: fingerprint,
		Size:        size,
		Data:        make([]float64, size*size),
	}
}

// At returns the similarity between rows i and j.
func (m *Matrix) At(i, j int) float64 {
	return m.Data[i*m.Size+j]
}

// Row returns row i. Callers must not mutate it.
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Size : (i+1)*m.Size]
}

// set stores a value at (i, j). Only used during construction.
func (m *Matrix) set(i, j int, v float64) {
	m.Data[i*m.Size+j] = v
}

// Validate checks the matrix against the current dataset snapshot. A matrix
// built from a different row count or a different fingerprint must never be
// indexed; the caller rebuilds instead.
func (m *Matrix) Validate(size int, fingerprint string) error {
	if m.Size != size || len(m.Data) != m.Size*m.Size {
		return errors.DimensionMismatch("similarity matrix does not match dataset", size, m.Size)
	}
	if m.Fingerprint != fingerprint {
		return errors.DimensionMismatch(
			fmt.Sprintf("similarity matrix was built from a stale dataset snapshot (%.12s)", m.Fingerprint),
			size, m.Size)
	}
	return nil
}

// Encode writes the matrix as an opaque binary blob.
func (m *Matrix) Encode(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(m); err != nil {
		return fmt.Errorf("encoding similarity matrix: %w", err)
	}
	return nil
}

// Decode reads a matrix written by Encode.
func Decode(r io.Reader) (*Matrix, error) {
	var m Matrix
	if err := gob.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding similarity matrix: %w", err)
	}
	return &m, nil
}
