package encode

import (
	"fmt"

	"github.com/geal-ai/radialinterp"
)

// Grid is the wire form of a polar grid.
type Grid struct {
	Radii    Floats `json:"radii" msgpack:"radii"`
	Azimuths Floats `json:"azimuths" msgpack:"azimuths"`
}

// NewGrid converts g.
func NewGrid(g radialinterp.Grid) Grid {
	return Grid{Radii: g.Radii, Azimuths: g.Azimuths}
}

// Mappable is the wire form of a mappable array.
type Mappable struct {
	Strategy string   `json:"strategy" msgpack:"strategy"`
	Array    []Floats `json:"array" msgpack:"array"`
	X        []Floats `json:"x" msgpack:"x"`
	Y        []Floats `json:"y" msgpack:"y"`
}

// NewMappable converts m, recording the strategy that built it.
func NewMappable(m *radialinterp.Mappable, s radialinterp.Strategy) *Mappable {
	return &Mappable{
		Strategy: s.String(),
		Array:    Rows(m.Array),
		X:        Rows(m.X),
		Y:        Rows(m.Y),
	}
}

// Result is the document a radial job writes.
type Result struct {
	Center radialinterp.GeoPoint `json:"center" msgpack:"center"`
	Grid   Grid                  `json:"grid" msgpack:"grid"`
	Field  string                `json:"field,omitempty" msgpack:"field,omitempty"`

	// Shape is [n] or [n, times]; Values is row-major over it.
	Shape  []int  `json:"shape" msgpack:"shape"`
	Values Floats `json:"values" msgpack:"values"`
	Lats   Floats `json:"lats,omitempty" msgpack:"lats,omitempty"`
	Lons   Floats `json:"lons,omitempty" msgpack:"lons,omitempty"`

	Summary []radialinterp.Stats `json:"summary" msgpack:"summary"`

	// Mappables holds one entry per time slice.
	Mappables []*Mappable `json:"mappables,omitempty" msgpack:"mappables,omitempty"`
}

// NewResult assembles the document for an interpolation.
func NewResult(center radialinterp.GeoPoint, grid radialinterp.Grid, in *radialinterp.Interpolation) *Result {
	return &Result{
		Center:  center,
		Grid:    NewGrid(grid),
		Shape:   in.Values.Shape,
		Values:  in.Values.Data,
		Lats:    in.Lats,
		Lons:    in.Lons,
		Summary: in.Summary(),
	}
}

// NewMappables builds one mappable per time slice of values, which is
// shaped [n] or [n, times].
func NewMappables(grid radialinterp.Grid, values *radialinterp.Array, s radialinterp.Strategy) ([]*Mappable, error) {
	slices := [][]float64{values.Data}
	if values.Ndim() == 2 {
		slices = make([][]float64, values.Shape[1])
		for t := range slices {
			slices[t] = values.Column(t)
		}
	}
	out := make([]*Mappable, len(slices))
	for t, vals := range slices {
		m, err := radialinterp.CreateMappable(grid, radialinterp.Vector(vals), radialinterp.WithStrategy(s))
		if err != nil {
			return nil, fmt.Errorf("time slice %d: %w", t, err)
		}
		out[t] = NewMappable(m, s)
	}
	return out, nil
}
