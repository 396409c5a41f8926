package source

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/geal-ai/radialinterp"
	"github.com/geal-ai/radialinterp/hrrr"
	"github.com/geal-ai/radialinterp/internal/ctxlog"
)

// Defaults for the HRRR lattice. 0.03 degrees is close to the native 3 km
// spacing at mid latitudes.
const (
	DefaultHRRRStep   = 0.03
	DefaultHRRRMargin = 0.1
	latestLag         = 6
)

// Resampling methods for HRRR fields.
const (
	MethodBilinear = "bilinear"
	MethodNearest  = "nearest"
)

// Fetcher is the part of *hrrr.Client the HRRR source needs.
type Fetcher interface {
	FetchField(ctx context.Context, run time.Time, fxx int, varLevel string) (*hrrr.Field, error)
	FetchSeries(ctx context.Context, run time.Time, hours []int, varLevel string) ([]*hrrr.Field, error)
	FetchLatest(ctx context.Context, fxx int, varLevel string, maxLag int) (*hrrr.Field, time.Time, error)
}

// HRRR resamples HRRR forecast fields onto a regular lattice covering the
// grid's footprint. Several forecast hours give a time-stacked field.
type HRRR struct {
	Fetcher  Fetcher
	Variable string    // .idx search string, e.g. "TMP:2 m above ground"
	Run      time.Time // zero means the most recent available run
	Hours    []int     // forecast hours; empty means [0]
	Step     float64   // lattice spacing in degrees; zero means DefaultHRRRStep
	Margin   float64   // degrees added around the footprint; zero means DefaultHRRRMargin
	Method   string    // MethodBilinear (default) or MethodNearest
	Geodesic radialinterp.Geodesic
}

// Field fetches, decodes and resamples. A lattice node outside the HRRR
// domain fails the call with ErrOutOfDomain.
func (h *HRRR) Field(ctx context.Context, center radialinterp.GeoPoint, grid radialinterp.Grid) (*radialinterp.Field, error) {
	if h.Variable == "" {
		return nil, fmt.Errorf("%w: hrrr field needs a variable", radialinterp.ErrInvalidParameter)
	}
	resample := (*hrrr.Field).Resample
	switch h.Method {
	case "", MethodBilinear:
	case MethodNearest:
		resample = (*hrrr.Field).ResampleNearest
	default:
		return nil, fmt.Errorf("%w: hrrr method %q (want %q or %q)", radialinterp.ErrInvalidParameter, h.Method, MethodBilinear, MethodNearest)
	}
	geo := h.Geodesic
	if geo == nil {
		geo = radialinterp.WGS84
	}
	box, err := Footprint(geo, center, grid)
	if err != nil {
		return nil, err
	}
	box = box.grow(orDefault(h.Margin, DefaultHRRRMargin))
	box.Step = orDefault(h.Step, DefaultHRRRStep)
	lons, lats, err := box.Axes()
	if err != nil {
		return nil, err
	}
	if err := checkSize(lons, lats, max(len(h.Hours), 1)); err != nil {
		return nil, err
	}

	fields, run, err := h.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: hrrr %q: %w", radialinterp.ErrExternalInterpolation, h.Variable, err)
	}
	ctxlog.FromContext(ctx).Debug("resampling hrrr fields",
		"run", run.Format(time.RFC3339), "slices", len(fields), "lons", len(lons), "lats", len(lats))

	if err := covers(&fields[0].Grid, lons, lats); err != nil {
		return nil, err
	}

	slices := make([][]float64, len(fields))
	for t, f := range fields {
		vals := resample(f, lons, lats)
		for k, v := range vals {
			if math.IsNaN(v) {
				i, j := k/len(lats), k%len(lats)
				return nil, fmt.Errorf("%w: lattice node (lat=%g, lon=%g) is outside the HRRR domain or missing",
					radialinterp.ErrOutOfDomain, lats[j], lons[i])
			}
		}
		slices[t] = vals
	}
	return stack(lons, lats, slices), nil
}

func (h *HRRR) fetch(ctx context.Context) ([]*hrrr.Field, time.Time, error) {
	hours := h.Hours
	if len(hours) == 0 {
		hours = []int{0}
	}
	run := h.Run
	var fields []*hrrr.Field
	if run.IsZero() {
		// The probe for the latest run already yields the first hour.
		f, latest, err := h.Fetcher.FetchLatest(ctx, hours[0], h.Variable, latestLag)
		if err != nil {
			return nil, time.Time{}, err
		}
		fields, run, hours = []*hrrr.Field{f}, latest, hours[1:]
	}

	switch len(hours) {
	case 0:
	case 1:
		f, err := h.Fetcher.FetchField(ctx, run, hours[0], h.Variable)
		if err != nil {
			return nil, time.Time{}, err
		}
		fields = append(fields, f)
	default:
		rest, err := h.Fetcher.FetchSeries(ctx, run, hours, h.Variable)
		if err != nil {
			return nil, time.Time{}, err
		}
		fields = append(fields, rest...)
	}

	for t, f := range fields[1:] {
		if f.Grid != fields[0].Grid {
			return nil, time.Time{}, fmt.Errorf("time slice %d: grid differs from slice 0", t+1)
		}
	}
	return fields, run, nil
}

// covers fails with ErrOutOfDomain when a lattice corner lies outside g,
// before any resampling work is done.
func covers(g *hrrr.LambertGrid, lons, lats []float64) error {
	for _, lon := range []float64{lons[0], lons[len(lons)-1]} {
		for _, lat := range []float64{lats[0], lats[len(lats)-1]} {
			if !g.Covers(lat, lon) {
				first, last := g.Corners()
				return fmt.Errorf("%w: lattice corner (lat=%g, lon=%g) is outside the HRRR grid from (%.3f, %.3f) to (%.3f, %.3f)",
					radialinterp.ErrOutOfDomain, lat, lon, first[0], first[1], last[0], last[1])
			}
		}
	}
	return nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
