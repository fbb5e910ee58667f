// Package transform provides the coordinate conversions behind field
// evaluation: geodetic to geocentric for the spherical-harmonic
// expansion, and ECEF/TEME helpers for sampling along satellite tracks.
package transform

import "math"

// Reference-frame constants used by the geomagnetic expansion.
const (
	// EarthRadiusKm is the mean Earth radius of the geomagnetic
	// reference sphere.
	EarthRadiusKm = 6371.2

	// WGS84 squared semi-axes, in km².
	wgs84A2 = 40680631.59
	wgs84B2 = 40408299.98
)

// Geocentric holds the geocentric projection of a geodetic location.
// SinLat and CosLat are the sine and cosine of the geocentric latitude;
// CosDelta and SinDelta rotate vectors between the geocentric and
// geodetic vertical at the point.
type Geocentric struct {
	R        float64 // geocentric radius, km
	SinLat   float64
	CosLat   float64
	CosDelta float64
	SinDelta float64
}

// GeodeticToGeocentric converts a geodetic latitude (degrees) and an
// altitude above the WGS84 ellipsoid (km) to the geocentric quantities
// used by the harmonic summation.
//
// Latitudes within 0.001° of a pole use a clamped value for the cosine
// auxiliary so that downstream divisions stay finite; the true
// sin(latitude) is kept everywhere else.
func GeodeticToGeocentric(latDeg, altKm float64) Geocentric {
	slat := math.Sin(latDeg * math.Pi / 180)

	aa := latDeg
	if 90-latDeg < 0.001 {
		aa = 89.999
	} else if 90+latDeg < 0.001 {
		aa = -89.999
	}
	clat := math.Cos(aa * math.Pi / 180)

	a := wgs84A2 * clat * clat
	b := wgs84B2 * slat * slat
	c := a + b
	d := math.Sqrt(c)
	r := math.Sqrt(altKm*(altKm+2*d) + (wgs84A2*a+wgs84B2*b)/c)
	cd := (altKm + d) / r
	sd := (wgs84A2 - wgs84B2) * slat * clat / (d * r)

	return Geocentric{
		R:        r,
		SinLat:   slat*cd - clat*sd,
		CosLat:   clat*cd + slat*sd,
		CosDelta: cd,
		SinDelta: sd,
	}
}
