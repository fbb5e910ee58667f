// Package track samples the geomagnetic field along a satellite orbit.
// The satellite is propagated with SGP4 from a NORAD two-line element
// set, each position is converted to geodetic coordinates, and the
// field snapshot is evaluated there. LEO altitudes sit inside the
// validity range of IGRF/WMM-class models, so the samples are
// physically meaningful; points outside the range carry a per-point
// error instead of failing the whole track.
package track

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/geomag/geofield/internal/field"
	"github.com/geomag/geofield/internal/transform"
)

// Request describes a track sampling run.
type Request struct {
	Line1, Line2 string
	NoradID      int
	Start        time.Time
	Step         time.Duration
	Count        int
}

// Point is one sample along the track.
type Point struct {
	Time   time.Time   `json:"time"`
	LatDeg float64     `json:"lat"`
	LonDeg float64     `json:"lon"`
	AltM   float64     `json:"alt_m"`
	Field  field.Field `json:"field"`
	Error  string      `json:"error,omitempty"`
}

// Sample propagates the satellite and evaluates the field at each step.
// Returns an error only when the TLE itself is unusable; per-point
// failures (NaN propagation output, altitude outside the model bounds)
// are reported in Point.Error.
func Sample(mdl field.Model, req Request) ([]Point, error) {
	if req.Count < 1 {
		return nil, fmt.Errorf("track count must be positive")
	}
	if req.Step <= 0 {
		return nil, fmt.Errorf("track step must be positive")
	}
	if err := validateTLELines(req.Line1, req.Line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", req.NoradID, err)
	}

	sat := satellite.TLEToSat(req.Line1, req.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", req.NoradID, sat.Error, sat.ErrorStr)
	}

	points := make([]Point, 0, req.Count)
	var scratch field.Scratch
	for i := 0; i < req.Count; i++ {
		t := req.Start.Add(time.Duration(i) * req.Step).UTC()
		pt := Point{Time: t}

		pos, _ := satellite.Propagate(sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())
		if bad(pos.X) || bad(pos.Y) || bad(pos.Z) {
			pt.Error = "sgp4 propagation produced NaN/Inf"
			points = append(points, pt)
			continue
		}

		gmst := transform.GMST(t)
		x, y, z := transform.TEMEToECEF(pos.X, pos.Y, pos.Z, gmst)
		gp := transform.ECEFToGeodetic(x, y, z)
		pt.LatDeg, pt.LonDeg, pt.AltM = gp.LatDeg, gp.LonDeg, gp.AltM

		f, err := field.Evaluate(mdl, gp.LatDeg, gp.LonDeg, gp.AltM, &scratch)
		if err != nil {
			pt.Error = err.Error()
			points = append(points, pt)
			continue
		}
		pt.Field = f
		points = append(points, pt)
	}

	return points, nil
}

func bad(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// validateTLELines performs basic format validation on TLE lines before
// they reach the SGP4 library, which aborts the process on garbage
// input.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}
