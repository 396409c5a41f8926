// Package hrrr fetches and decodes NOAA HRRR GRIB2 fields (Lambert
// conformal grids, DRS templates 5.0 and 5.3) and resamples them onto
// regular longitude/latitude lattices.
package hrrr

import "math"

// earthRadiusM is the spherical earth HRRR declares (shape of earth 6).
const earthRadiusM = 6371229.0

// LambertGrid holds GDT 3.30 parameters.
type LambertGrid struct {
	Ni, Nj         int
	La1, Lo1       float64 // first grid point (south-west corner), degrees
	LoV            float64 // central meridian, degrees
	Latin1, Latin2 float64 // standard parallels, degrees
	Dx, Dy         float64 // grid spacing, metres
	ScanMode       byte
}

// cone returns the cone constant n and the scale F for the grid's standard
// parallels (tangent cone when they coincide).
func (g *LambertGrid) cone() (n, F float64) {
	φ1, φ2 := toRad(g.Latin1), toRad(g.Latin2)
	if g.Latin1 == g.Latin2 {
		n = math.Sin(φ1)
	} else {
		n = math.Log(math.Cos(φ1)/math.Cos(φ2)) /
			math.Log(math.Tan(math.Pi/4+φ2/2)/math.Tan(math.Pi/4+φ1/2))
	}
	F = math.Cos(φ1) * math.Pow(math.Tan(math.Pi/4+φ1/2), n) / n
	return n, F
}

// project maps (lat, lon) to cone-plane metres, x east and y north.
func (g *LambertGrid) project(lat, lon float64) (x, y float64) {
	n, F := g.cone()
	ρ := earthRadiusM * F / math.Pow(math.Tan(math.Pi/4+toRad(lat)/2), n)
	θ := n * toRad(NormLon(lon)-NormLon(g.LoV))
	return ρ * math.Sin(θ), -ρ * math.Cos(θ)
}

// LatLonToFracIJ maps (lat°N, lon°E) to fractional grid indices; i grows
// eastward and j northward (scan mode 0x40).
func (g *LambertGrid) LatLonToFracIJ(lat, lon float64) (fi, fj float64) {
	x, y := g.project(lat, lon)
	x0, y0 := g.project(g.La1, g.Lo1)
	return (x - x0) / g.Dx, (y - y0) / g.Dy
}

// LatLonToIJ returns the nearest grid indices to (lat, lon). They may lie
// outside [0, Ni) × [0, Nj).
func (g *LambertGrid) LatLonToIJ(lat, lon float64) (i, j int) {
	fi, fj := g.LatLonToFracIJ(lat, lon)
	return int(math.Round(fi)), int(math.Round(fj))
}

// IjToLatLon maps grid indices back to (lat°N, lon°E signed).
func (g *LambertGrid) IjToLatLon(i, j int) (lat, lon float64) {
	n, F := g.cone()
	x0, y0 := g.project(g.La1, g.Lo1)
	x := x0 + float64(i)*g.Dx
	y := y0 + float64(j)*g.Dy

	ρ := math.Hypot(x, y)
	if ρ == 0 {
		return 90, NormLon(g.LoV)
	}
	θ := math.Atan2(x, -y)
	lat = toDeg(2*math.Atan(math.Pow(earthRadiusM*F/ρ, 1/n)) - math.Pi/2)
	lon = NormLon(g.LoV) + toDeg(θ)/n
	return lat, lon
}

// Covers reports whether (lat, lon) falls inside the grid, edges included.
func (g *LambertGrid) Covers(lat, lon float64) bool {
	fi, fj := g.LatLonToFracIJ(lat, lon)
	return fi >= 0 && fj >= 0 && fi <= float64(g.Ni-1) && fj <= float64(g.Nj-1)
}

// Corners returns the first and last grid points as (lat, lon) pairs.
func (g *LambertGrid) Corners() (first, last [2]float64) {
	first[0], first[1] = g.IjToLatLon(0, 0)
	last[0], last[1] = g.IjToLatLon(g.Ni-1, g.Nj-1)
	return first, last
}

func toRad(d float64) float64 { return d * math.Pi / 180 }
func toDeg(r float64) float64 { return r * 180 / math.Pi }

// NormLon converts a 0-360 longitude (the GRIB2 convention) to -180..+180.
func NormLon(lon float64) float64 {
	if lon > 180 {
		return lon - 360
	}
	return lon
}
