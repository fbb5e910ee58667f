// Package field evaluates the geomagnetic field from a date-resolved
// coefficient snapshot via a recursive Schmidt quasi-normalized
// spherical-harmonic expansion.
//
// The formulation follows the geomag70/shval3 routine, itself based on
// the subroutine 'igrf' by D. R. Barraclough and S. R. C. Malin, report
// no. 71/1, Institute of Geological Sciences, U.K.
package field

import (
	"fmt"
	"math"

	"github.com/geomag/geofield/internal/model"
	"github.com/geomag/geofield/internal/transform"
)

// Model is the read-only view of a resolved coefficient snapshot needed
// for evaluation. *model.Snapshot implements it.
type Model interface {
	Order() int
	AltitudeRangeKm() (minKm, maxKm float64)
	Coeff(k int) (g, h float64)
}

// Field holds the magnetic field components in the local East/North/
// Upward frame at the query point, in tesla.
type Field struct {
	East  float64 `json:"east"`
	North float64 `json:"north"`
	Up    float64 `json:"up"`
}

// Scratch is a reusable evaluation buffer. A zero Scratch is ready to
// use; it grows on first evaluation and is reused afterwards. Each
// concurrent caller must own its own Scratch; the snapshot itself is
// never mutated, so evaluations sharing a snapshot but not a Scratch
// are safe in parallel.
type Scratch struct {
	buf []float64
}

// slots returns a zeroed-or-dirty backing slice of length n, growing
// the buffer when needed. Evaluation overwrites every slot it reads.
func (s *Scratch) slots(n int) []float64 {
	if cap(s.buf) < n {
		s.buf = make([]float64, n)
	}
	return s.buf[:n]
}

// Evaluate computes the ENU magnetic field at a geodetic location.
// Latitude and longitude are in degrees, altitude in meters above the
// WGS84 ellipsoid. scratch may be nil, in which case a transient buffer
// is allocated for the call.
func Evaluate(mdl Model, latDeg, lonDeg, altM float64, scratch *Scratch) (Field, error) {
	altKm := altM * 1e-3
	altMin, altMax := mdl.AltitudeRangeKm()
	if altKm < altMin || altKm > altMax {
		return Field{}, fmt.Errorf("%w: invalid altitude value %.5E m", model.ErrDomain, altM)
	}

	order := mdl.Order()
	if order < 1 {
		return Field{}, fmt.Errorf("%w: invalid model order %d", model.ErrDomain, order)
	}
	npq := order * (order + 3) / 2
	if scratch == nil {
		scratch = &Scratch{}
	}

	// Buffer layout: longitude sine/cosine recursion tables, then the
	// Legendre-like P and Q recursion tables.
	w := scratch.slots(order * (order + 5))
	sl := w[:order]
	cl := w[order : 2*order]
	p := w[2*order : 2*order+npq]
	q := w[2*order+npq:]

	gc := transform.GeodeticToGeocentric(latDeg, altKm)
	slat, clat := gc.SinLat, gc.CosLat
	ratio := transform.EarthRadiusKm / gc.R

	lon := lonDeg * math.Pi / 180
	sl[0] = math.Sin(lon)
	cl[0] = math.Cos(lon)

	// Closed-form seeds for the first harmonics; the recursions build
	// the rest.
	sq3 := math.Sqrt(3)
	p[0] = 2 * slat
	p[1] = 2 * clat
	q[0] = -clat
	q[1] = slat
	if npq > 2 {
		p[2] = 4.5*slat*slat - 1.5
		p[3] = 3 * sq3 * clat * slat
		q[2] = -3 * clat * slat
		q[3] = sq3 * (slat*slat - clat*clat)
	}

	var x, y, z float64
	rr := 0.0
	n, m := 0, 1
	for k := 0; k < npq; k++ {
		if m > n {
			m = 0
			n++
			rr = math.Pow(ratio, float64(n+2))
		}
		if k >= 4 {
			if m == n {
				// Diagonal recursion.
				aa := math.Sqrt(1 - 0.5/float64(m))
				j := k - n - 1
				p[k] = (1 + 1/float64(m)) * aa * clat * p[j]
				q[k] = aa * (clat*q[j] + slat/float64(m)*p[j])
				// Longitude harmonics by angle addition, not
				// repeated trigonometric calls.
				sl[m-1] = sl[m-2]*cl[0] + cl[m-2]*sl[0]
				cl[m-1] = cl[m-2]*cl[0] - sl[m-2]*sl[0]
			} else {
				// Off-diagonal recursion.
				aa := math.Sqrt(float64(n*n - m*m))
				bb := math.Sqrt(float64((n-1)*(n-1)-m*m)) / aa
				cc := (2*float64(n) - 1) / aa
				i := k - n
				j := k - 2*n + 1
				p[k] = (float64(n) + 1) * (cc*slat/float64(n)*p[i] - bb/(float64(n)-1)*p[j])
				q[k] = cc*(slat*q[i]-clat/float64(n)*p[i]) - bb*q[j]
			}
		}

		g, h := mdl.Coeff(k)
		aa := rr * g
		if m == 0 {
			x += aa * q[k]
			z -= aa * p[k]
		} else {
			bb := rr * h
			cc := aa*cl[m-1] + bb*sl[m-1]
			x += cc * q[k]
			z -= cc * p[k]
			if clat > 0 {
				y += (aa*sl[m-1] - bb*cl[m-1]) * float64(m) * p[k] / ((float64(n) + 1) * clat)
			} else {
				// Degenerate branch near the poles: avoid the
				// division by a vanishing cosine.
				y += (aa*sl[m-1] - bb*cl[m-1]) * q[k] * slat
			}
		}
		m++
	}

	// Rotate back from the geocentric to the geodetic frame and scale
	// nT -> T.
	return Field{
		East:  y * 1e-9,
		North: (x*gc.CosDelta + z*gc.SinDelta) * 1e-9,
		Up:    -(z*gc.CosDelta - x*gc.SinDelta) * 1e-9,
	}, nil
}
