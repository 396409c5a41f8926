package radialinterp

import (
	"fmt"
	"math"
)

// Array is a dense row-major n-dimensional array of float64.
type Array struct {
	Shape []int
	Data  []float64
}

// NewArray allocates a zeroed array with the given shape.
func NewArray(shape ...int) *Array {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return &Array{Shape: append([]int(nil), shape...), Data: make([]float64, n)}
}

// Vector wraps vals as a 1D array without copying.
func Vector(vals []float64) *Array {
	return &Array{Shape: []int{len(vals)}, Data: vals}
}

// Ndim returns the number of dimensions.
func (a *Array) Ndim() int { return len(a.Shape) }

// Len returns the number of elements implied by Shape.
func (a *Array) Len() int {
	n := 1
	for _, s := range a.Shape {
		n *= s
	}
	return n
}

// Validate checks that Data holds exactly the number of elements Shape
// describes and that no extent is negative.
func (a *Array) Validate() error {
	if a == nil {
		return fmt.Errorf("%w: nil array", ErrInvalidInput)
	}
	for i, s := range a.Shape {
		if s < 0 {
			return fmt.Errorf("%w: negative extent %d on axis %d", ErrInvalidInput, s, i)
		}
	}
	if n := a.Len(); n != len(a.Data) {
		return fmt.Errorf("%w: shape %v needs %d values, have %d", ErrInvalidInput, a.Shape, n, len(a.Data))
	}
	return nil
}

// Column copies the j-th column of a 2D array.
func (a *Array) Column(j int) []float64 {
	rows, w := a.Shape[0], a.Shape[1]
	out := make([]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = a.Data[i*w+j]
	}
	return out
}

// Field is a continuous quantity on a regular longitude/latitude lattice.
//
// Data is indexed [lon][lat] for a single time slice, or [lon][lat][t] for a
// stack of time slices. Coordinate axes must be strictly monotonic, either
// ascending or descending.
type Field struct {
	Lons []float64
	Lats []float64
	Data *Array
}

// Times returns the number of time slices (1 for a 2D field).
func (f *Field) Times() int {
	if f.Data.Ndim() == 3 {
		return f.Data.Shape[2]
	}
	return 1
}

// Validate checks dimensionality, extents and axis monotonicity.
func (f *Field) Validate() error {
	if f == nil || f.Data == nil {
		return fmt.Errorf("%w: field has no data", ErrInvalidInput)
	}
	if err := f.Data.Validate(); err != nil {
		return fmt.Errorf("field data: %w", err)
	}
	if nd := f.Data.Ndim(); nd != 2 && nd != 3 {
		return fmt.Errorf("%w: field must have 2 or 3 dimensions, got %d", ErrInvalidInput, nd)
	}
	if f.Data.Shape[0] != len(f.Lons) || f.Data.Shape[1] != len(f.Lats) {
		return fmt.Errorf("%w: field shape %v does not match %d lons x %d lats",
			ErrInvalidInput, f.Data.Shape, len(f.Lons), len(f.Lats))
	}
	if f.Data.Ndim() == 3 && f.Data.Shape[2] < 1 {
		return fmt.Errorf("%w: field has an empty time axis", ErrInvalidInput)
	}
	if err := checkAxis("lon", f.Lons); err != nil {
		return err
	}
	return checkAxis("lat", f.Lats)
}

func checkAxis(name string, v []float64) error {
	if len(v) < 2 {
		return fmt.Errorf("%w: %s axis needs at least 2 points, got %d", ErrInvalidInput, name, len(v))
	}
	if math.IsNaN(v[0]) {
		return fmt.Errorf("%w: %s axis starts with NaN", ErrInvalidInput, name)
	}
	asc := v[1] > v[0]
	for i := 1; i < len(v); i++ {
		if math.IsNaN(v[i]) || (asc && v[i] <= v[i-1]) || (!asc && v[i] >= v[i-1]) {
			return fmt.Errorf("%w: %s axis must be strictly monotonic (break at index %d)", ErrInvalidInput, name, i)
		}
	}
	return nil
}

// at returns the value at lattice node (i, j) for time slice t.
func (f *Field) at(i, j, t int) float64 {
	nt := f.Times()
	return f.Data.Data[(i*len(f.Lats)+j)*nt+t]
}
