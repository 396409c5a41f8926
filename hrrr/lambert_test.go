package hrrr_test

import (
	"math"
	"testing"

	"github.com/geal-ai/radialinterp/hrrr"
)

// conus is the HRRR CONUS Lambert conformal grid.
func conus() hrrr.LambertGrid {
	return hrrr.LambertGrid{
		Ni:       1799,
		Nj:       1059,
		La1:      21.138123,
		Lo1:      237.280472,
		LoV:      262.5,
		Latin1:   38.5,
		Latin2:   38.5,
		Dx:       3000.0,
		Dy:       3000.0,
		ScanMode: 0x40,
	}
}

func TestNormLon(t *testing.T) {
	tests := []struct{ lon, want float64 }{
		{0, 0},
		{90, 90},
		{180, 180},
		{181, -179},
		{270, -90},
		{360, 0},
		{-10, -10},
		{-180, -180},
	}
	for _, tc := range tests {
		if got := hrrr.NormLon(tc.lon); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("NormLon(%g) = %g, want %g", tc.lon, got, tc.want)
		}
	}
}

// Reference indices come from herbie/cfgrib on the same grid.
func TestLatLonToIJKnownPoints(t *testing.T) {
	g := conus()
	tests := []struct {
		name     string
		lat, lon float64
		i, j     int
	}{
		{"Vail Pass CO", 39.54, -106.19, 651, 579},
		{"Denver CO", 39.74, -104.98, 686, 584},
		{"Seattle WA", 47.61, -122.33, 278, 953},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			i, j := g.LatLonToIJ(tc.lat, tc.lon)
			if abs(i-tc.i) > 1 || abs(j-tc.j) > 1 {
				t.Errorf("LatLonToIJ(%g, %g) = (%d, %d), want (%d, %d) ±1", tc.lat, tc.lon, i, j, tc.i, tc.j)
			}
		})
	}
}

func TestLatLonToIJFirstPoint(t *testing.T) {
	g := conus()
	fi, fj := g.LatLonToFracIJ(g.La1, g.Lo1)
	if math.Abs(fi) > 1e-6 || math.Abs(fj) > 1e-6 {
		t.Errorf("first grid point maps to (%g, %g), want (0, 0)", fi, fj)
	}
}

func TestIJRoundTrip(t *testing.T) {
	g := conus()
	for i := 0; i < g.Ni; i += 157 {
		for j := 0; j < g.Nj; j += 131 {
			lat, lon := g.IjToLatLon(i, j)
			fi, fj := g.LatLonToFracIJ(lat, lon)
			if math.Abs(fi-float64(i)) > 1e-6 || math.Abs(fj-float64(j)) > 1e-6 {
				t.Errorf("(%d, %d) -> (%.5f, %.5f) -> (%.6f, %.6f)", i, j, lat, lon, fi, fj)
			}
		}
	}
}

func TestIjToLatLonCorner(t *testing.T) {
	g := conus()
	lat, lon := g.IjToLatLon(0, 0)
	if math.Abs(lat-g.La1) > 1e-4 || math.Abs(lon-hrrr.NormLon(g.Lo1)) > 1e-4 {
		t.Errorf("IjToLatLon(0, 0) = (%g, %g), want (%g, %g)", lat, lon, g.La1, hrrr.NormLon(g.Lo1))
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
