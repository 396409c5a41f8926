package radialinterp

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Index addresses one cell of a dense 2D array.
type Index struct {
	Row, Col int
}

// Accumulate writes values[k] at indices[k] into a dense array sized
// (max row + 1) × (max col + 1). When two entries share a cell the later one
// wins; cells never written stay zero.
func Accumulate(indices []Index, values []float64) (*mat.Dense, error) {
	if len(indices) != len(values) {
		return nil, fmt.Errorf("%w: %d indices but %d values", ErrInvalidInput, len(indices), len(values))
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: nothing to accumulate", ErrInvalidInput)
	}

	rows, cols := 0, 0
	for k, ix := range indices {
		if ix.Row < 0 || ix.Col < 0 {
			return nil, fmt.Errorf("%w: negative index (%d,%d) at position %d", ErrInvalidInput, ix.Row, ix.Col, k)
		}
		rows = max(rows, ix.Row+1)
		cols = max(cols, ix.Col+1)
	}

	out := mat.NewDense(rows, cols, nil)
	for k, ix := range indices {
		out.Set(ix.Row, ix.Col, values[k])
	}
	return out, nil
}
