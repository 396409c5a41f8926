package hrrr

import "math"

// Field is a decoded GRIB2 field: a Lambert conformal grid and its values,
// stored row-major as Vals[j*Grid.Ni+i]. Missing points are NaN.
type Field struct {
	Grid LambertGrid
	Vals []float64
}

// Lookup returns the nearest-neighbour value at (lat°N, lon°E), or NaN when
// the point is outside the grid.
func (f *Field) Lookup(lat, lon float64) float64 {
	i, j := f.Grid.LatLonToIJ(lat, lon)
	if i < 0 || i >= f.Grid.Ni || j < 0 || j >= f.Grid.Nj {
		return math.NaN()
	}
	return f.Vals[j*f.Grid.Ni+i]
}

// Bilinear interpolates the four grid points around (lat, lon). It returns
// NaN outside the grid or when a contributing neighbour is missing.
func (f *Field) Bilinear(lat, lon float64) float64 {
	g := &f.Grid
	fi, fj := g.LatLonToFracIJ(lat, lon)
	if math.IsNaN(fi) || math.IsNaN(fj) || fi < 0 || fj < 0 || fi > float64(g.Ni-1) || fj > float64(g.Nj-1) {
		return math.NaN()
	}
	i0, j0 := int(fi), int(fj)
	i1, j1 := min(i0+1, g.Ni-1), min(j0+1, g.Nj-1)
	wi, wj := fi-float64(i0), fj-float64(j0)

	at := func(i, j int) float64 { return f.Vals[j*g.Ni+i] }
	south := blend(at(i0, j0), at(i1, j0), wi)
	north := blend(at(i0, j1), at(i1, j1), wi)
	return blend(south, north, wj)
}

// blend weights b by w and a by 1-w, skipping an operand whose weight is 0.
func blend(a, b, w float64) float64 {
	switch w {
	case 0:
		return a
	case 1:
		return b
	}
	return a + (b-a)*w
}

// Resample interpolates the field onto the regular lattice lons × lats and
// returns the values lon-major: out[i*len(lats)+j] is at (lats[j], lons[i]).
// Points outside the Lambert grid are NaN.
func (f *Field) Resample(lons, lats []float64) []float64 {
	return f.resample(lons, lats, f.Bilinear)
}

// ResampleNearest is Resample with nearest-neighbour lookup, for fields
// such as categorical masks that must not be blended.
func (f *Field) ResampleNearest(lons, lats []float64) []float64 {
	return f.resample(lons, lats, f.Lookup)
}

func (f *Field) resample(lons, lats []float64, at func(lat, lon float64) float64) []float64 {
	out := make([]float64, len(lons)*len(lats))
	for i, lon := range lons {
		for j, lat := range lats {
			out[i*len(lats)+j] = at(lat, lon)
		}
	}
	return out
}
