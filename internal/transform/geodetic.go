package transform

import "math"

// WGS-84 ellipsoid parameters (meters-based helpers).
const (
	wgs84A  = 6378137.0             // semi-major axis (meters)
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// GeodeticPoint holds a geodetic position (latitude/longitude in
// degrees, altitude in meters above the WGS-84 ellipsoid).
type GeodeticPoint struct {
	LatDeg, LonDeg, AltM float64
}

// ECEFToGeodetic converts ECEF coordinates (meters) to geodetic
// coordinates using the iterative Bowring method. Converges in 2-3
// iterations for Earth orbits.
func ECEFToGeodetic(x, y, z float64) GeodeticPoint {
	lon := math.Atan2(y, x)

	p := math.Sqrt(x*x + y*y)

	// Initial estimate using Bowring's method.
	lat := math.Atan2(z, p*(1-wgs84E2))

	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)
		lat = math.Atan2(z+wgs84E2*N*sinLat, p)
	}

	sinLat := math.Sin(lat)
	cosLat := math.Cos(lat)
	N := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	var alt float64
	if math.Abs(cosLat) > 1e-10 {
		alt = p/cosLat - N
	} else {
		alt = math.Abs(z)/math.Abs(sinLat) - N*(1-wgs84E2)
	}

	return GeodeticPoint{
		LatDeg: lat * 180.0 / math.Pi,
		LonDeg: lon * 180.0 / math.Pi,
		AltM:   alt,
	}
}

// TEMEToECEF rotates a TEME position (km) into the ECEF frame (meters)
// using a precomputed GMST angle in radians. Polar motion and the
// equation of equinoxes are ignored; the ~50 m error is well below the
// scale a geomagnetic model resolves.
func TEMEToECEF(xKm, yKm, zKm, gmst float64) (x, y, z float64) {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	x = (xKm*cosG + yKm*sinG) * 1000.0
	y = (-xKm*sinG + yKm*cosG) * 1000.0
	z = zKm * 1000.0
	return x, y, z
}
