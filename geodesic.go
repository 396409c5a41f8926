package radialinterp

import (
	"fmt"
	"math"

	"github.com/tidwall/geodesic"
)

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Lat float64 `json:"lat" msgpack:"lat"`
	Lon float64 `json:"lon" msgpack:"lon"`
}

// Validate checks the point is a usable projection centre.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: center latitude must be in [-90, 90], got %v", ErrInvalidInput, p.Lat)
	}
	if math.IsNaN(p.Lon) || math.IsInf(p.Lon, 0) {
		return fmt.Errorf("%w: center longitude must be finite, got %v", ErrInvalidInput, p.Lon)
	}
	return nil
}

// Geodesic solves the direct geodesic problem: the point reached by
// travelling distanceKm from origin on an initial bearing measured clockwise
// from north.
type Geodesic interface {
	Destination(origin GeoPoint, bearingDeg, distanceKm float64) (GeoPoint, error)
}

// EllipsoidGeodesic solves geodesics on an ellipsoid of revolution with
// Karney's algorithm (GeographicLib).
type EllipsoidGeodesic struct {
	e *geodesic.Ellipsoid
}

// WGS84 is the geodesic on the WGS-84 ellipsoid, GeographicLib's default.
var WGS84 = &EllipsoidGeodesic{e: geodesic.WGS84}

// NewEllipsoidGeodesic returns a solver for an ellipsoid with equatorial
// radius a (metres) and flattening f.
func NewEllipsoidGeodesic(a, f float64) *EllipsoidGeodesic {
	return &EllipsoidGeodesic{e: geodesic.NewEllipsoid(a, f)}
}

// Destination implements Geodesic. Longitudes come back in [-180, 180].
func (g *EllipsoidGeodesic) Destination(origin GeoPoint, bearingDeg, distanceKm float64) (GeoPoint, error) {
	if math.IsNaN(bearingDeg) || math.IsNaN(distanceKm) || math.IsInf(distanceKm, 0) {
		return GeoPoint{}, fmt.Errorf("geodesic: bad bearing %v or distance %v", bearingDeg, distanceKm)
	}
	if distanceKm == 0 {
		return origin, nil
	}
	var lat2, lon2 float64
	g.e.Direct(origin.Lat, origin.Lon, bearingDeg, distanceKm*1000, &lat2, &lon2, nil)
	if math.IsNaN(lat2) || math.IsNaN(lon2) {
		return GeoPoint{}, fmt.Errorf("geodesic: no solution from (%g, %g) bearing %g distance %g km",
			origin.Lat, origin.Lon, bearingDeg, distanceKm)
	}
	return GeoPoint{Lat: lat2, Lon: lon2}, nil
}
