package track

import (
	"math"
	"testing"
	"time"
)

// ISS TLE (epoch 2024). Real orbital elements used for testing.
const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

// leoModel is an axial dipole whose validity range covers low Earth
// orbit altitudes.
type leoModel struct{}

func (leoModel) Order() int                          { return 1 }
func (leoModel) AltitudeRangeKm() (float64, float64) { return -1, 600 }
func (leoModel) Coeff(k int) (g, h float64) {
	if k == 0 {
		return -29442, 0
	}
	return 0, 0
}

// TestSampleISS verifies a short ISS track yields plausible positions
// and field values at every step.
func TestSampleISS(t *testing.T) {
	req := Request{
		Line1:   issLine1,
		Line2:   issLine2,
		NoradID: 25544,
		Start:   time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC),
		Step:    time.Minute,
		Count:   10,
	}

	points, err := Sample(leoModel{}, req)
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if len(points) != 10 {
		t.Fatalf("got %d points, want 10", len(points))
	}

	for i, pt := range points {
		if pt.Error != "" {
			t.Errorf("point %d carries error: %s", i, pt.Error)
			continue
		}
		if wantT := req.Start.Add(time.Duration(i) * time.Minute); !pt.Time.Equal(wantT) {
			t.Errorf("point %d time = %v, want %v", i, pt.Time, wantT)
		}
		// ISS orbits near 51.6 degrees inclination at roughly 420 km.
		if math.Abs(pt.LatDeg) > 52.5 {
			t.Errorf("point %d latitude %v exceeds the orbit inclination", i, pt.LatDeg)
		}
		if pt.AltM < 300e3 || pt.AltM > 500e3 {
			t.Errorf("point %d altitude %v m, want roughly 420 km", i, pt.AltM)
		}

		mag := math.Sqrt(pt.Field.East*pt.Field.East + pt.Field.North*pt.Field.North + pt.Field.Up*pt.Field.Up)
		if mag < 1e-5 || mag > 7e-5 {
			t.Errorf("point %d |B| = %v T, outside the geomagnetic range", i, mag)
		}
	}
}

// TestSampleValidation verifies requests that cannot produce a track
// fail up front.
func TestSampleValidation(t *testing.T) {
	base := Request{
		Line1: issLine1,
		Line2: issLine2,
		Start: time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC),
		Step:  time.Minute,
		Count: 5,
	}

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"zero count", func(r *Request) { r.Count = 0 }},
		{"negative step", func(r *Request) { r.Step = -time.Second }},
		{"short line1", func(r *Request) { r.Line1 = "1 25544U" }},
		{"short line2", func(r *Request) { r.Line2 = "2 25544" }},
		{"swapped lines", func(r *Request) { r.Line1, r.Line2 = r.Line2, r.Line1 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			if _, err := Sample(leoModel{}, req); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

// TestSamplePerPointErrors verifies altitude violations surface as
// per-point errors rather than failing the whole track.
func TestSamplePerPointErrors(t *testing.T) {
	// groundModel's ceiling sits below the ISS orbit.
	points, err := Sample(groundModel{}, Request{
		Line1:   issLine1,
		Line2:   issLine2,
		NoradID: 25544,
		Start:   time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC),
		Step:    time.Minute,
		Count:   3,
	})
	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3", len(points))
	}
	for i, pt := range points {
		if pt.Error == "" {
			t.Errorf("point %d should carry an altitude error", i)
		}
		if pt.LatDeg == 0 && pt.LonDeg == 0 && pt.AltM == 0 {
			t.Errorf("point %d lost its position on evaluation failure", i)
		}
	}
}

// groundModel only covers altitudes up to 100 km, below any orbit.
type groundModel struct{}

func (groundModel) Order() int                          { return 1 }
func (groundModel) AltitudeRangeKm() (float64, float64) { return -1, 100 }
func (groundModel) Coeff(k int) (g, h float64)          { return -29442, 0 }
