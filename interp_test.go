package radialinterp_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/geal-ai/radialinterp"
)

// flatGeodesic moves 1° per 100 km on a flat plane and counts calls.
type flatGeodesic struct {
	calls atomic.Int64
	fail  bool
}

func (g *flatGeodesic) Destination(o radialinterp.GeoPoint, bearing, km float64) (radialinterp.GeoPoint, error) {
	g.calls.Add(1)
	if g.fail {
		return radialinterp.GeoPoint{}, errors.New("solver exploded")
	}
	b := bearing * math.Pi / 180
	return radialinterp.GeoPoint{Lat: o.Lat + km/100*math.Cos(b), Lon: o.Lon + km/100*math.Sin(b)}, nil
}

// recordingSampler returns lon + 1000·lat per query and keeps the queries.
type recordingSampler struct {
	calls      int
	lons, lats []float64
	err        error
}

func (s *recordingSampler) Sample(_ context.Context, f *radialinterp.Field, lons, lats []float64) (*radialinterp.Array, error) {
	s.calls++
	s.lons, s.lats = lons, lats
	if s.err != nil {
		return nil, s.err
	}
	out := make([]float64, len(lons))
	for k := range lons {
		out[k] = lons[k] + 1000*lats[k]
	}
	return radialinterp.Vector(out), nil
}

func smallField() *radialinterp.Field {
	return planeField(linspace(-20, 20, 41), linspace(-20, 20, 41), 0)
}

func TestInterpolateOriginGridCount(t *testing.T) {
	g, err := radialinterp.BuildGrid(0, 250, 1000, 45)
	if err != nil {
		t.Fatal(err)
	}
	geo := &flatGeodesic{}
	s := &recordingSampler{}
	in := &radialinterp.Interpolator{Geodesic: geo, Sampler: s}
	res, err := in.Interpolate(context.Background(), smallField(), radialinterp.GeoPoint{}, g)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	want := len(g.Radii) * len(g.Azimuths)
	if len(s.lons) != want {
		t.Errorf("sampled %d GeoPoints, want %d (no origin prepend)", len(s.lons), want)
	}
	if int(geo.calls.Load()) != want {
		t.Errorf("geodesic called %d times, want %d", geo.calls.Load(), want)
	}
	if s.calls != 1 {
		t.Errorf("sampler called %d times, want exactly once", s.calls)
	}
	// Radius-0 ring: every azimuth maps to the centre, not deduplicated.
	for k := 0; k < len(g.Azimuths); k++ {
		if s.lats[k] != 0 || s.lons[k] != 0 {
			t.Errorf("point %d = (%g, %g), want centre", k, s.lats[k], s.lons[k])
		}
	}
	if res.Lats != nil || res.Lons != nil {
		t.Error("coordinates returned without WithCoordinates")
	}
	if diff := cmp.Diff([]int{want}, res.Values.Shape); diff != "" {
		t.Errorf("values shape (-want +got):\n%s", diff)
	}
}

func TestInterpolateNonZeroStartPrependsOrigin(t *testing.T) {
	g, err := radialinterp.BuildGrid(250, 250, 1000, 90)
	if err != nil {
		t.Fatal(err)
	}
	center := radialinterp.GeoPoint{Lat: 1.5, Lon: -2.5}
	s := &recordingSampler{}
	in := &radialinterp.Interpolator{Geodesic: &flatGeodesic{}, Sampler: s}
	res, err := in.Interpolate(context.Background(), smallField(), center, g, radialinterp.WithCoordinates())
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	want := len(g.Radii)*len(g.Azimuths) + 1
	if len(res.Lats) != want || len(res.Lons) != want || res.Values.Shape[0] != want {
		t.Fatalf("got %d lats, %d lons, %d values; want %d each", len(res.Lats), len(res.Lons), res.Values.Shape[0], want)
	}
	if res.Lats[0] != center.Lat || res.Lons[0] != center.Lon {
		t.Errorf("first point = (%g, %g), want centre", res.Lats[0], res.Lons[0])
	}
	// First ring point: 250 km at 90° is 2.5° east on the flat plane.
	if math.Abs(res.Lons[1]-0) > 1e-12 || math.Abs(res.Lats[1]-1.5) > 1e-12 {
		t.Errorf("second point = (%g, %g), want (1.5, 0)", res.Lats[1], res.Lons[1])
	}
	if got, want := res.Values.Data[0], center.Lon+1000*center.Lat; got != want {
		t.Errorf("origin value = %g, want %g", got, want)
	}
}

func TestInterpolateRadiusMajorOrder(t *testing.T) {
	g := radialinterp.Grid{Radii: []float64{0, 100, 200}, Azimuths: []float64{0, 90, 180, 270, 360}}
	in := &radialinterp.Interpolator{Geodesic: &flatGeodesic{}}
	res, err := in.Interpolate(context.Background(), smallField(), radialinterp.GeoPoint{}, g, radialinterp.WithCoordinates())
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	// Ring 2 (200 km), azimuth index 1 (90°) is 2° east.
	k := 2*len(g.Azimuths) + 1
	if math.Abs(res.Lons[k]-2) > 1e-12 || math.Abs(res.Lats[k]) > 1e-12 {
		t.Errorf("point %d = (%g, %g), want (0, 2)", k, res.Lats[k], res.Lons[k])
	}
	// Plane field: v = 2·lon + 3·lat.
	if math.Abs(res.Values.Data[k]-4) > 1e-9 {
		t.Errorf("value %d = %g, want 4", k, res.Values.Data[k])
	}
}

func TestInterpolateTimeStackedField(t *testing.T) {
	g, err := radialinterp.BuildGrid(0, 100, 500, 30)
	if err != nil {
		t.Fatal(err)
	}
	f := planeField(linspace(-10, 10, 21), linspace(-10, 10, 21), 4)
	in := &radialinterp.Interpolator{Geodesic: &flatGeodesic{}}
	res, err := in.Interpolate(context.Background(), f, radialinterp.GeoPoint{}, g)
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	if diff := cmp.Diff([]int{g.Size(), 4}, res.Values.Shape); diff != "" {
		t.Fatalf("shape (-want +got):\n%s", diff)
	}
	stats := res.Summary()
	if len(stats) != 4 {
		t.Fatalf("Summary has %d slices, want 4", len(stats))
	}
	for tt := 1; tt < 4; tt++ {
		if d := stats[tt].Mean - stats[tt-1].Mean; math.Abs(d-100) > 1e-9 {
			t.Errorf("slice %d mean step = %g, want 100", tt, d)
		}
	}
}

func TestInterpolateParallelMatchesSerial(t *testing.T) {
	g, err := radialinterp.BuildGrid(0, 10, 1500, 1)
	if err != nil {
		t.Fatal(err)
	}
	f := planeField(linspace(-130, -80, 101), linspace(20, 60, 81), 0)
	center := radialinterp.GeoPoint{Lat: 39.54, Lon: -106.19}

	serial := &radialinterp.Interpolator{}
	parallel := &radialinterp.Interpolator{Workers: 8}
	a, err := serial.Interpolate(context.Background(), f, center, g, radialinterp.WithCoordinates())
	if err != nil {
		t.Fatalf("serial: %v", err)
	}
	b, err := parallel.Interpolate(context.Background(), f, center, g, radialinterp.WithCoordinates())
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("parallel result differs from serial (-serial +parallel):\n%s", diff)
	}
}

func TestInterpolateWGS84OnPlane(t *testing.T) {
	g, err := radialinterp.BuildGrid(0, 500, 1000, 90)
	if err != nil {
		t.Fatal(err)
	}
	f := planeField(linspace(-30, 30, 61), linspace(-30, 30, 61), 0)
	res, err := (&radialinterp.Interpolator{}).Interpolate(context.Background(), f, radialinterp.GeoPoint{}, g, radialinterp.WithCoordinates())
	if err != nil {
		t.Fatalf("Interpolate: %v", err)
	}
	want := make([]float64, len(res.Lats))
	for k := range want {
		want[k] = 2*res.Lons[k] + 3*res.Lats[k]
	}
	if diff := cmp.Diff(want, res.Values.Data, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
	// 1000 km due east along the equator.
	k := 2*len(g.Azimuths) + 1
	if math.Abs(res.Lons[k]-1000/equatorDegreeKm) > 1e-6 {
		t.Errorf("east point lon = %.8f, want %.8f", res.Lons[k], 1000/equatorDegreeKm)
	}
}

func TestInterpolatePreconditions(t *testing.T) {
	good, err := radialinterp.BuildGrid(0, 100, 300, 90)
	if err != nil {
		t.Fatal(err)
	}
	f := smallField()
	tests := []struct {
		name   string
		field  *radialinterp.Field
		center radialinterp.GeoPoint
		grid   radialinterp.Grid
	}{
		{"1D field", &radialinterp.Field{Lons: f.Lons, Lats: f.Lats, Data: radialinterp.NewArray(41 * 41)}, radialinterp.GeoPoint{}, good},
		{"4D field", &radialinterp.Field{Lons: f.Lons, Lats: f.Lats, Data: radialinterp.NewArray(41, 41, 2, 2)}, radialinterp.GeoPoint{}, good},
		{"nil field", nil, radialinterp.GeoPoint{}, good},
		{"negative start radius", f, radialinterp.GeoPoint{}, radialinterp.Grid{Radii: []float64{-5, 100}, Azimuths: good.Azimuths}},
		{"empty grid", f, radialinterp.GeoPoint{}, radialinterp.Grid{}},
		{"latitude beyond pole", f, radialinterp.GeoPoint{Lat: 95}, good},
		{"NaN longitude", f, radialinterp.GeoPoint{Lon: math.NaN()}, good},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			geo := &flatGeodesic{}
			in := &radialinterp.Interpolator{Geodesic: geo}
			_, err := in.Interpolate(context.Background(), tc.field, tc.center, tc.grid)
			if !errors.Is(err, radialinterp.ErrInvalidInput) {
				t.Fatalf("got %v, want ErrInvalidInput", err)
			}
			if geo.calls.Load() != 0 {
				t.Errorf("geodesic called %d times before precondition failure", geo.calls.Load())
			}
		})
	}
}

func TestInterpolateOutOfDomainSurfacedUnchanged(t *testing.T) {
	g, err := radialinterp.BuildGrid(0, 1000, 5000, 90)
	if err != nil {
		t.Fatal(err)
	}
	_, err = (&radialinterp.Interpolator{Geodesic: &flatGeodesic{}}).Interpolate(context.Background(), smallField(), radialinterp.GeoPoint{}, g)
	if !errors.Is(err, radialinterp.ErrOutOfDomain) {
		t.Fatalf("got %v, want ErrOutOfDomain", err)
	}
	if errors.Is(err, radialinterp.ErrExternalInterpolation) {
		t.Errorf("out-of-domain error was re-tagged as external failure: %v", err)
	}
}

func TestInterpolateExternalFailures(t *testing.T) {
	g, err := radialinterp.BuildGrid(0, 100, 300, 90)
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("sampler backend down")
	tests := []struct {
		name string
		in   *radialinterp.Interpolator
		want error
	}{
		{"geodesic", &radialinterp.Interpolator{Geodesic: &flatGeodesic{fail: true}}, nil},
		{"geodesic parallel", &radialinterp.Interpolator{Geodesic: &flatGeodesic{fail: true}, Workers: 4}, nil},
		{"sampler", &radialinterp.Interpolator{Geodesic: &flatGeodesic{}, Sampler: &recordingSampler{err: boom}}, boom},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.in.Interpolate(context.Background(), smallField(), radialinterp.GeoPoint{}, g)
			if !errors.Is(err, radialinterp.ErrExternalInterpolation) {
				t.Fatalf("got %v, want ErrExternalInterpolation", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Errorf("cause %v lost from chain: %v", tc.want, err)
			}
		})
	}
}

func TestInterpolateCanceledContext(t *testing.T) {
	g, err := radialinterp.BuildGrid(0, 10, 1000, 1)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&radialinterp.Interpolator{Workers: 4}).Interpolate(ctx, smallField(), radialinterp.GeoPoint{}, g)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
}

func ExampleInterpolator_Interpolate() {
	g, _ := radialinterp.BuildGrid(0, 500, 1000, 90)
	f := &radialinterp.Field{
		Lons: []float64{-20, 20},
		Lats: []float64{-20, 20},
		Data: &radialinterp.Array{Shape: []int{2, 2}, Data: []float64{5, 5, 5, 5}},
	}
	res, err := (&radialinterp.Interpolator{}).Interpolate(context.Background(), f, radialinterp.GeoPoint{}, g)
	if err != nil {
		panic(err)
	}
	fmt.Println(res.Values.Shape, res.Summary()[0].Mean)
	// Output: [15] 5
}
