package radialinterp

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// Sampler interpolates a gridded field at arbitrary query coordinates.
//
// It returns one value per query pair, in input order: a 1D array [n] for a
// 2D field, or a 2D array [n, times] for a time-stacked field. Queries that
// fall outside the field must fail with an error wrapping ErrOutOfDomain.
type Sampler interface {
	Sample(ctx context.Context, field *Field, lons, lats []float64) (*Array, error)
}

// LinearSampler is a Sampler doing bilinear interpolation on the regular
// lon/lat lattice, independently for each time slice. Points on the lattice
// boundary are inside the domain.
type LinearSampler struct{}

// Sample implements Sampler.
func (LinearSampler) Sample(ctx context.Context, field *Field, lons, lats []float64) (*Array, error) {
	if err := field.Validate(); err != nil {
		return nil, err
	}
	if len(lons) != len(lats) {
		return nil, fmt.Errorf("%w: %d query lons but %d query lats", ErrInvalidInput, len(lons), len(lats))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	nt := field.Times()
	var out *Array
	if field.Data.Ndim() == 2 {
		out = NewArray(len(lons))
	} else {
		out = NewArray(len(lons), nt)
	}

	for k := range lons {
		i, wi, ok := bracket(field.Lons, lons[k])
		if !ok {
			return nil, fmt.Errorf("%w: query %d lon %g outside [%g, %g]",
				ErrOutOfDomain, k, lons[k], field.Lons[0], field.Lons[len(field.Lons)-1])
		}
		j, wj, ok := bracket(field.Lats, lats[k])
		if !ok {
			return nil, fmt.Errorf("%w: query %d lat %g outside [%g, %g]",
				ErrOutOfDomain, k, lats[k], field.Lats[0], field.Lats[len(field.Lats)-1])
		}
		for t := 0; t < nt; t++ {
			v00 := field.at(i, j, t)
			v10 := field.at(i+1, j, t)
			v01 := field.at(i, j+1, t)
			v11 := field.at(i+1, j+1, t)
			out.Data[k*nt+t] = lerp(lerp(v00, v10, wi), lerp(v01, v11, wi), wj)
		}
	}
	return out, nil
}

// bracket finds i with q between axis[i] and axis[i+1] and the fractional
// weight of axis[i+1]. The axis may be ascending or descending.
func bracket(axis []float64, q float64) (int, float64, bool) {
	n := len(axis)
	lo, hi := axis[0], axis[n-1]
	asc := hi > lo
	if !asc {
		lo, hi = hi, lo
	}
	if math.IsNaN(q) || q < lo || q > hi {
		return 0, 0, false
	}

	// First index whose value has passed q in the axis direction.
	idx := sort.Search(n, func(k int) bool {
		if asc {
			return axis[k] >= q
		}
		return axis[k] <= q
	})
	i := idx - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	w := (q - axis[i]) / (axis[i+1] - axis[i])
	return i, w, true
}

// lerp weights b by w and a by 1-w. A zero weight leaves the other operand
// untouched so a NaN neighbour does not leak onto an exact lattice hit.
func lerp(a, b, w float64) float64 {
	switch w {
	case 0:
		return a
	case 1:
		return b
	}
	return a + (b-a)*w
}
