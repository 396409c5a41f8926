// Package job loads radial job files. A job file is HCL:
//
//	grid {
//	  start_radius      = 0
//	  radius_step       = 500
//	  end_radius        = 1000
//	  degree_resolution = 90
//	}
//
//	center {
//	  lat = 39.74
//	  lon = -104.98
//	}
//
//	field "analytic" {
//	  lon_min = -120
//	  lon_max = -90
//	  lat_min = 30
//	  lat_max = 50
//	  step    = 0.25
//	  value   = 20 + 0.5 * lat - abs(lon + 105) / 10
//	}
//
//	output {
//	  format      = "json"
//	  coordinates = true
//	  mappable    = true
//	  strategy    = "accumulate"
//	}
//
// A field "hrrr" block replaces the lattice attributes with variable, run,
// forecast_hours, step, margin and method ("bilinear" or "nearest").
package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/geal-ai/radialinterp"
	"github.com/geal-ai/radialinterp/hrrr"
	"github.com/geal-ai/radialinterp/internal/ctxlog"
	"github.com/geal-ai/radialinterp/internal/source"
)

// Job is a decoded and validated job file.
type Job struct {
	Grid   radialinterp.Grid
	Center radialinterp.GeoPoint
	Source source.Source
	Output Output

	// Kind is the field block label.
	Kind string
}

// Output controls what a run writes.
type Output struct {
	Format      string // "json" or "msgpack"
	Coordinates bool
	Mappable    bool
	Strategy    radialinterp.Strategy
}

type hclFile struct {
	Grid   hclGrid    `hcl:"grid,block"`
	Center hclCenter  `hcl:"center,block"`
	Field  hclField   `hcl:"field,block"`
	Output *hclOutput `hcl:"output,block"`
}

type hclGrid struct {
	StartRadius      float64 `hcl:"start_radius"`
	RadiusStep       float64 `hcl:"radius_step"`
	EndRadius        float64 `hcl:"end_radius"`
	DegreeResolution float64 `hcl:"degree_resolution"`
}

type hclCenter struct {
	Lat float64 `hcl:"lat"`
	Lon float64 `hcl:"lon"`
}

type hclField struct {
	Kind string   `hcl:"kind,label"`
	Body hcl.Body `hcl:",remain"`
}

type hclAnalytic struct {
	LonMin float64        `hcl:"lon_min"`
	LonMax float64        `hcl:"lon_max"`
	LatMin float64        `hcl:"lat_min"`
	LatMax float64        `hcl:"lat_max"`
	Step   float64        `hcl:"step"`
	Times  *int           `hcl:"times"`
	Value  hcl.Expression `hcl:"value"`
}

type hclHRRR struct {
	Variable      string   `hcl:"variable"`
	Run           *string  `hcl:"run"`
	ForecastHours []int    `hcl:"forecast_hours,optional"`
	Step          *float64 `hcl:"step"`
	Margin        *float64 `hcl:"margin"`
	Method        *string  `hcl:"method"`
}

type hclOutput struct {
	Format      *string `hcl:"format"`
	Coordinates *bool   `hcl:"coordinates"`
	Mappable    *bool   `hcl:"mappable"`
	Strategy    *string `hcl:"strategy"`
}

// ErrMissingDependency reports a job that needs a client the caller did not
// supply in Deps.
var ErrMissingDependency = errors.New("missing dependency")

// Deps carries what field sources need from the caller.
type Deps struct {
	HRRR source.Fetcher
}

// Load reads and decodes the job file at path.
func Load(ctx context.Context, path string, deps Deps) (*Job, error) {
	ctxlog.FromContext(ctx).Debug("loading job file", "path", path)
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse job file %s: %w", path, diags)
	}
	return decode(ctx, file.Body, path, deps)
}

// Parse decodes job source held in memory; filename is used in diagnostics.
func Parse(ctx context.Context, src []byte, filename string, deps Deps) (*Job, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse job file %s: %w", filename, diags)
	}
	return decode(ctx, file.Body, filename, deps)
}

func decode(ctx context.Context, body hcl.Body, filename string, deps Deps) (*Job, error) {
	var raw hclFile
	if diags := gohcl.DecodeBody(body, nil, &raw); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode job file %s: %w", filename, diags)
	}

	grid, err := radialinterp.BuildGrid(raw.Grid.StartRadius, raw.Grid.RadiusStep, raw.Grid.EndRadius, raw.Grid.DegreeResolution)
	if err != nil {
		return nil, fmt.Errorf("%s: grid: %w", filename, err)
	}
	center := radialinterp.GeoPoint{Lat: raw.Center.Lat, Lon: raw.Center.Lon}
	if err := center.Validate(); err != nil {
		return nil, fmt.Errorf("%s: center: %w", filename, err)
	}
	src, err := decodeField(ctx, raw.Field, deps)
	if err != nil {
		return nil, fmt.Errorf("%s: field %q: %w", filename, raw.Field.Kind, err)
	}
	out, err := decodeOutput(raw.Output)
	if err != nil {
		return nil, fmt.Errorf("%s: output: %w", filename, err)
	}

	ctxlog.FromContext(ctx).Debug("decoded job file", "path", filename,
		"field", raw.Field.Kind, "radii", len(grid.Radii), "azimuths", len(grid.Azimuths))
	return &Job{Grid: grid, Center: center, Source: src, Output: out, Kind: raw.Field.Kind}, nil
}

func decodeField(ctx context.Context, f hclField, deps Deps) (source.Source, error) {
	switch f.Kind {
	case "analytic":
		var a hclAnalytic
		if diags := gohcl.DecodeBody(f.Body, nil, &a); diags.HasErrors() {
			return nil, diags
		}
		if v, diags := a.Value.Value(nil); !diags.HasErrors() && v.IsNull() {
			return nil, fmt.Errorf("%w: missing value expression", radialinterp.ErrInvalidParameter)
		}
		times := 1
		if a.Times != nil {
			if *a.Times < 1 {
				return nil, fmt.Errorf("%w: times must be at least 1, got %d", radialinterp.ErrInvalidParameter, *a.Times)
			}
			times = *a.Times
		}
		return &source.Analytic{
			Lattice: source.Lattice{LonMin: a.LonMin, LonMax: a.LonMax, LatMin: a.LatMin, LatMax: a.LatMax, Step: a.Step},
			Times:   times,
			Expr:    a.Value,
		}, nil

	case "hrrr":
		var h hclHRRR
		if diags := gohcl.DecodeBody(f.Body, nil, &h); diags.HasErrors() {
			return nil, diags
		}
		if !strings.Contains(h.Variable, ":") {
			return nil, fmt.Errorf("%w: variable %q: want a \"VAR:level\" key such as \"TMP:2 m above ground\"", radialinterp.ErrInvalidParameter, h.Variable)
		}
		if _, ok := hrrr.LookupVariable(h.Variable); !ok {
			ctxlog.FromContext(ctx).Warn("variable not in the known HRRR table; decoding may fail", "variable", h.Variable)
		}
		if deps.HRRR == nil {
			return nil, fmt.Errorf("%w: no HRRR client configured", ErrMissingDependency)
		}
		src := &source.HRRR{Fetcher: deps.HRRR, Variable: h.Variable, Hours: h.ForecastHours}
		if h.Run != nil && *h.Run != "latest" {
			run, err := time.Parse(time.RFC3339, *h.Run)
			if err != nil {
				return nil, fmt.Errorf("%w: run %q: use RFC3339, e.g. 2026-02-21T12:00:00Z", radialinterp.ErrInvalidParameter, *h.Run)
			}
			src.Run = run.UTC().Truncate(time.Hour)
		}
		for _, fxx := range h.ForecastHours {
			if fxx < 0 || fxx > 48 {
				return nil, fmt.Errorf("%w: forecast hour %d outside 0..48", radialinterp.ErrInvalidParameter, fxx)
			}
		}
		if h.Step != nil {
			src.Step = *h.Step
		}
		if h.Margin != nil {
			src.Margin = *h.Margin
		}
		if h.Method != nil {
			switch m := strings.ToLower(*h.Method); m {
			case source.MethodBilinear, source.MethodNearest:
				src.Method = m
			default:
				return nil, fmt.Errorf("%w: method %q: must be %q or %q", radialinterp.ErrInvalidParameter, *h.Method, source.MethodBilinear, source.MethodNearest)
			}
		}
		return src, nil

	default:
		return nil, fmt.Errorf("%w: unknown field kind (want \"analytic\" or \"hrrr\")", radialinterp.ErrInvalidParameter)
	}
}

func decodeOutput(o *hclOutput) (Output, error) {
	out := Output{Format: "json"}
	if o == nil {
		return out, nil
	}
	if o.Format != nil {
		out.Format = strings.ToLower(*o.Format)
		if out.Format != "json" && out.Format != "msgpack" {
			return Output{}, fmt.Errorf("%w: format %q: must be \"json\" or \"msgpack\"", radialinterp.ErrInvalidParameter, *o.Format)
		}
	}
	if o.Coordinates != nil {
		out.Coordinates = *o.Coordinates
	}
	if o.Mappable != nil {
		out.Mappable = *o.Mappable
	}
	if o.Strategy != nil {
		s, err := radialinterp.ParseStrategy(*o.Strategy)
		if err != nil {
			return Output{}, err
		}
		out.Strategy = s
	}
	return out, nil
}
