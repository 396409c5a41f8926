// Package radialinterp samples gridded geographic fields on a polar
// ("unit circle") grid centred on a point of interest and reshapes the
// samples for polar-to-Cartesian contour rendering.
//
// The pipeline has three stages: BuildGrid generates radius and azimuth
// steps, Interpolator.Interpolate projects every polar point to a
// latitude/longitude with a Geodesic and samples a Field there with a
// Sampler, and CreateMappable turns the flat samples into a dense
// radius × azimuth array plus an x/y mesh.
package radialinterp

import (
	"fmt"
	"math"
)

// stepTol absorbs float rounding when deciding whether the last stepped value
// still lies on the closed interval.
const stepTol = 1e-9

// Sanity caps on grid size. Each bounds what a single BuildGrid call can
// allocate, whatever the parameters.
const (
	maxRadii     = 1 << 20
	maxAzimuths  = 360 * 1000
	maxGridNodes = 1 << 22
)

// Grid is a polar sampling grid. Radii are kilometres from the centre,
// Azimuths are degrees clockwise from north.
//
// When Radii[0] == 0 the azimuths cover [0, 360] with both ends present so
// that a contour plot closes its seam; otherwise they cover (0, 360].
type Grid struct {
	Radii    []float64
	Azimuths []float64
}

// PolarPoint is one (radius km, azimuth °) grid node.
type PolarPoint struct {
	Radius  float64
	Azimuth float64
}

// BuildGrid returns the radius and azimuth steps for a polar grid.
//
// Radii run from startRadius to endRadius inclusive in radiusStep increments;
// the last step may be short of endRadius when the span is not an exact
// multiple. If startRadius is 0 the azimuths are 0, res, ..., 360 (0 and 360
// both kept); otherwise they are res, 2·res, ..., 360.
func BuildGrid(startRadius, radiusStep, endRadius, degreeResolution float64) (Grid, error) {
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"start_radius", startRadius},
		{"radius_step", radiusStep},
		{"end_radius", endRadius},
		{"degree_resolution", degreeResolution},
	} {
		if math.IsNaN(p.v) || math.IsInf(p.v, 0) {
			return Grid{}, fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParameter, p.name, p.v)
		}
	}
	if startRadius < 0 {
		return Grid{}, fmt.Errorf("%w: start_radius must not be negative, got %g", ErrInvalidParameter, startRadius)
	}
	if radiusStep <= 0 {
		return Grid{}, fmt.Errorf("%w: radius_step must be positive, got %g", ErrInvalidParameter, radiusStep)
	}
	if !(radiusStep < endRadius-startRadius) {
		return Grid{}, fmt.Errorf("%w: radius_step (%g) must be less than end_radius - start_radius (%g)",
			ErrInvalidParameter, radiusStep, endRadius-startRadius)
	}
	if !(degreeResolution > 0 && degreeResolution <= 90) {
		return Grid{}, fmt.Errorf("%w: degree_resolution must be in (0, 90], got %g", ErrInvalidParameter, degreeResolution)
	}

	nr, err := stepCount("radius_step", startRadius, radiusStep, endRadius, maxRadii)
	if err != nil {
		return Grid{}, err
	}
	na, err := stepCount("degree_resolution", 0, degreeResolution, 360, maxAzimuths)
	if err != nil {
		return Grid{}, err
	}
	if nodes := float64(nr+1) * float64(na+1); nodes > maxGridNodes {
		return Grid{}, fmt.Errorf("%w: grid would have %.0f nodes (max %d)", ErrInvalidParameter, nodes, maxGridNodes)
	}

	first := 1
	if startRadius == 0 {
		first = 0
	}
	return Grid{
		Radii:    steps(startRadius, radiusStep, nr, 0),
		Azimuths: steps(0, degreeResolution, na, first),
	}, nil
}

// stepCount returns the largest k with from + k*step still on [from, to],
// rejecting counts above limit before converting to int.
func stepCount(name string, from, step, to float64, limit int) (int, error) {
	n := math.Floor((to-from)/step*(1+stepTol) + stepTol)
	if !(n <= float64(limit)) {
		return 0, fmt.Errorf("%w: %s %g gives more than %d steps", ErrInvalidParameter, name, step, limit)
	}
	return int(n), nil
}

// steps returns from + k*step for k = first..n. Each value is computed by
// multiplication so long sequences don't drift.
func steps(from, step float64, n, first int) []float64 {
	out := make([]float64, 0, n-first+1)
	for k := first; k <= n; k++ {
		out = append(out, from+float64(k)*step)
	}
	return out
}

// Size returns the number of polar nodes, len(Radii) × len(Azimuths).
func (g Grid) Size() int { return len(g.Radii) * len(g.Azimuths) }

// HasOrigin reports whether the innermost ring is the centre itself.
func (g Grid) HasOrigin() bool { return len(g.Radii) > 0 && g.Radii[0] == 0 }

// Points enumerates the grid radius-major: every azimuth of Radii[0], then
// every azimuth of Radii[1], and so on.
func (g Grid) Points() []PolarPoint {
	pts := make([]PolarPoint, 0, g.Size())
	for _, r := range g.Radii {
		for _, az := range g.Azimuths {
			pts = append(pts, PolarPoint{Radius: r, Azimuth: az})
		}
	}
	return pts
}
