package radialinterp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/geal-ai/radialinterp/internal/ctxlog"
)

// projectChunk is the number of polar points one worker projects per task.
const projectChunk = 256

// Interpolator samples a field on a polar grid around a centre point.
// A zero Interpolator uses WGS84 and LinearSampler and projects serially.
type Interpolator struct {
	Geodesic Geodesic
	Sampler  Sampler
	// Workers bounds the goroutines projecting polar points. Values <= 1
	// project on the calling goroutine.
	Workers int
}

// Interpolation is the output of Interpolate.
//
// Values has one entry per GeoPoint in enumeration order: [n] for a 2D field,
// [n, times] for a time-stacked one. When the grid does not start at the
// origin, entry 0 is the centre itself and every ring sample is shifted by
// one. Lats and Lons are set only when coordinates were requested.
type Interpolation struct {
	Values *Array
	Lats   []float64
	Lons   []float64
}

type interpOptions struct {
	coordinates bool
}

// InterpOption configures a single Interpolate call.
type InterpOption func(*interpOptions)

// WithCoordinates makes Interpolate return the sampled latitudes and
// longitudes, e.g. for plotting on projected map axes.
func WithCoordinates() InterpOption {
	return func(o *interpOptions) { o.coordinates = true }
}

// Interpolate projects every grid node from center and samples field there.
func (in *Interpolator) Interpolate(ctx context.Context, field *Field, center GeoPoint, grid Grid, opts ...InterpOption) (*Interpolation, error) {
	var o interpOptions
	for _, opt := range opts {
		opt(&o)
	}

	if err := field.Validate(); err != nil {
		return nil, err
	}
	if err := center.Validate(); err != nil {
		return nil, err
	}
	if len(grid.Radii) == 0 || len(grid.Azimuths) == 0 {
		return nil, fmt.Errorf("%w: grid has %d radii and %d azimuths", ErrInvalidInput, len(grid.Radii), len(grid.Azimuths))
	}
	if !(grid.Radii[0] >= 0) {
		return nil, fmt.Errorf("%w: starting radius must not be negative, got %g", ErrInvalidInput, grid.Radii[0])
	}

	lats, lons, err := in.project(ctx, center, grid)
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Sampling field on polar grid.",
		"radii", len(grid.Radii), "azimuths", len(grid.Azimuths),
		"points", len(lats), "times", field.Times(), "origin_prepended", !grid.HasOrigin())

	vals, err := in.sampler().Sample(ctx, field, lons, lats)
	if err != nil {
		if errors.Is(err, ErrOutOfDomain) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: sampling field: %w", ErrExternalInterpolation, err)
	}
	if vals == nil || vals.Ndim() == 0 || vals.Shape[0] != len(lats) {
		return nil, fmt.Errorf("%w: sampler returned %v values for %d points", ErrExternalInterpolation, shapeOf(vals), len(lats))
	}

	res := &Interpolation{Values: vals}
	if o.coordinates {
		res.Lats, res.Lons = lats, lons
	}
	return res, nil
}

// project returns the GeoPoints for grid in radius-major order, with the
// centre prepended when the grid does not include the origin ring.
func (in *Interpolator) project(ctx context.Context, center GeoPoint, grid Grid) (lats, lons []float64, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	pts := grid.Points()
	off := 0
	if !grid.HasOrigin() {
		off = 1
	}
	lats = make([]float64, len(pts)+off)
	lons = make([]float64, len(pts)+off)
	if off == 1 {
		lats[0], lons[0] = center.Lat, center.Lon
	}

	geo := in.geodesic()
	projectRange := func(from, to int) error {
		for k := from; k < to; k++ {
			p := pts[k]
			dst, err := geo.Destination(center, p.Azimuth, p.Radius)
			if err != nil {
				return fmt.Errorf("%w: projecting %g km at %g°: %w", ErrExternalInterpolation, p.Radius, p.Azimuth, err)
			}
			lats[k+off], lons[k+off] = dst.Lat, dst.Lon
		}
		return nil
	}

	if in.Workers <= 1 || len(pts) <= projectChunk {
		if err := projectRange(0, len(pts)); err != nil {
			return nil, nil, err
		}
		return lats, lons, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(in.Workers)
	for from := 0; from < len(pts); from += projectChunk {
		from, to := from, min(from+projectChunk, len(pts))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return projectRange(from, to)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return lats, lons, nil
}

func (in *Interpolator) geodesic() Geodesic {
	if in.Geodesic == nil {
		return WGS84
	}
	return in.Geodesic
}

func (in *Interpolator) sampler() Sampler {
	if in.Sampler == nil {
		return LinearSampler{}
	}
	return in.Sampler
}

func shapeOf(a *Array) []int {
	if a == nil {
		return nil
	}
	return a.Shape
}

// Stats summarises the finite values of one time slice.
type Stats struct {
	Count int     `json:"count" msgpack:"count"`
	Min   float64 `json:"min" msgpack:"min"`
	Max   float64 `json:"max" msgpack:"max"`
	Mean  float64 `json:"mean" msgpack:"mean"`
}

// Summary returns Stats per time slice (a single entry for a 2D field).
// NaN values are skipped; a slice with no finite values has Count 0.
func (r *Interpolation) Summary() []Stats {
	v := r.Values
	if v.Ndim() == 1 {
		return []Stats{summarize(v.Data)}
	}
	out := make([]Stats, v.Shape[1])
	for t := range out {
		out[t] = summarize(v.Column(t))
	}
	return out
}

func summarize(vals []float64) Stats {
	finite := make([]float64, 0, len(vals))
	for _, x := range vals {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			finite = append(finite, x)
		}
	}
	if len(finite) == 0 {
		return Stats{}
	}
	return Stats{
		Count: len(finite),
		Min:   floats.Min(finite),
		Max:   floats.Max(finite),
		Mean:  floats.Sum(finite) / float64(len(finite)),
	}
}
