// Package source builds the regular lon/lat fields that jobs and the HTTP
// service sample on polar grids.
package source

import (
	"context"
	"fmt"
	"math"

	"github.com/geal-ai/radialinterp"
)

// Caps on what one field may materialise.
const (
	maxAxis   = 4096    // nodes on one lattice axis
	maxTimes  = 256     // time slices
	maxValues = 1 << 24 // lattice nodes × time slices
)

// Source produces the field to sample. center and grid let sources backed by
// remote data size their lattice to the grid's footprint.
type Source interface {
	Field(ctx context.Context, center radialinterp.GeoPoint, grid radialinterp.Grid) (*radialinterp.Field, error)
}

// Lattice describes ascending regular lon and lat axes with a shared step in
// degrees. The last node on each axis is at or past the maximum.
type Lattice struct {
	LonMin, LonMax float64
	LatMin, LatMax float64
	Step           float64
}

// Axes materialises the lattice.
func (l Lattice) Axes() (lons, lats []float64, err error) {
	for _, v := range []float64{l.LonMin, l.LonMax, l.LatMin, l.LatMax, l.Step} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("%w: lattice bounds must be finite", radialinterp.ErrInvalidParameter)
		}
	}
	if l.Step <= 0 {
		return nil, nil, fmt.Errorf("%w: lattice step must be positive, got %g", radialinterp.ErrInvalidParameter, l.Step)
	}
	if l.LatMin < -90 || l.LatMax > 90 {
		return nil, nil, fmt.Errorf("%w: lattice latitudes must lie in [-90, 90]", radialinterp.ErrInvalidParameter)
	}
	if lons, err = axis("lon", l.LonMin, l.LonMax, l.Step); err != nil {
		return nil, nil, err
	}
	if lats, err = axis("lat", l.LatMin, l.LatMax, l.Step); err != nil {
		return nil, nil, err
	}
	return lons, lats, nil
}

func axis(name string, lo, hi, step float64) ([]float64, error) {
	if hi <= lo {
		return nil, fmt.Errorf("%w: %s_max (%g) must exceed %s_min (%g)", radialinterp.ErrInvalidParameter, name, hi, name, lo)
	}
	steps := math.Ceil((hi-lo)/step - 1e-9)
	if !(steps < maxAxis) {
		return nil, fmt.Errorf("%w: %s axis would have %.0f nodes (max %d)", radialinterp.ErrInvalidParameter, name, steps+1, maxAxis)
	}
	n := int(steps) + 1
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out, nil
}

// Footprint returns the lon/lat bounding box of every node of grid around
// center, as reached by geo. Only the centre and the outer ring are
// projected; inner rings lie between them.
func Footprint(geo radialinterp.Geodesic, center radialinterp.GeoPoint, grid radialinterp.Grid) (Lattice, error) {
	box := Lattice{LonMin: center.Lon, LonMax: center.Lon, LatMin: center.Lat, LatMax: center.Lat}
	if len(grid.Radii) == 0 {
		return box, nil
	}
	outer := grid.Radii[len(grid.Radii)-1]
	for _, az := range grid.Azimuths {
		p, err := geo.Destination(center, az, outer)
		if err != nil {
			return Lattice{}, fmt.Errorf("%w: footprint at azimuth %g: %w", radialinterp.ErrExternalInterpolation, az, err)
		}
		box.LonMin = math.Min(box.LonMin, p.Lon)
		box.LonMax = math.Max(box.LonMax, p.Lon)
		box.LatMin = math.Min(box.LatMin, p.Lat)
		box.LatMax = math.Max(box.LatMax, p.Lat)
	}
	return box, nil
}

// checkSize rejects fields holding more than maxValues values.
func checkSize(lons, lats []float64, times int) error {
	if times > maxTimes {
		return fmt.Errorf("%w: %d time slices (max %d)", radialinterp.ErrInvalidParameter, times, maxTimes)
	}
	if n := len(lons) * len(lats) * times; n > maxValues {
		return fmt.Errorf("%w: field would hold %d values (max %d)", radialinterp.ErrInvalidParameter, n, maxValues)
	}
	return nil
}

// grow widens the box by margin degrees on every side, clamping latitude.
func (l Lattice) grow(margin float64) Lattice {
	l.LonMin -= margin
	l.LonMax += margin
	l.LatMin = math.Max(-90, l.LatMin-margin)
	l.LatMax = math.Min(90, l.LatMax+margin)
	return l
}

// stack assembles per-time-slice values, each lon-major over len(lons) x
// len(lats), into a field: 2D for one slice, [lon][lat][t] otherwise.
func stack(lons, lats []float64, slices [][]float64) *radialinterp.Field {
	if len(slices) == 1 {
		return &radialinterp.Field{
			Lons: lons,
			Lats: lats,
			Data: &radialinterp.Array{Shape: []int{len(lons), len(lats)}, Data: slices[0]},
		}
	}
	nt := len(slices)
	data := radialinterp.NewArray(len(lons), len(lats), nt)
	for t, s := range slices {
		for k, v := range s {
			data.Data[k*nt+t] = v
		}
	}
	return &radialinterp.Field{Lons: lons, Lats: lats, Data: data}
}
