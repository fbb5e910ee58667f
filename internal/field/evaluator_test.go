package field

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/geomag/geofield/internal/model"
	"github.com/geomag/geofield/internal/transform"
)

// testModel is a synthetic coefficient set for evaluation tests. Cells
// follow the degree-then-order layout of model.CellIndex.
type testModel struct {
	order          int
	altMin, altMax float64 // km
	coeff          []float64
}

func (m *testModel) Order() int                          { return m.order }
func (m *testModel) AltitudeRangeKm() (float64, float64) { return m.altMin, m.altMax }
func (m *testModel) Coeff(k int) (g, h float64)          { return m.coeff[2*k], m.coeff[2*k+1] }

// dipole2015 carries the degree-1 IGRF coefficients for epoch 2015, nT.
func dipole2015() *testModel {
	return &testModel{
		order:  1,
		altMin: -1,
		altMax: 600,
		coeff: []float64{
			-29442.0, 0, // g(1,0), h(1,0)
			-1501.0, 4797.1, // g(1,1), h(1,1)
		},
	}
}

// axialDipole has only the g(1,0) term, so the field is analytic.
func axialDipole(g10 float64) *testModel {
	return &testModel{
		order:  1,
		altMin: -1,
		altMax: 600,
		coeff:  []float64{g10, 0, 0, 0},
	}
}

// syntheticModel fills every cell of a degree-n model with small
// deterministic values, for recursion and reuse tests.
func syntheticModel(order int) *testModel {
	nc := order * (order + 3) / 2
	coeff := make([]float64, 2*nc)
	coeff[0] = -30000
	for k := 1; k < nc; k++ {
		coeff[2*k] = 1000.0 / float64(k)
		coeff[2*k+1] = -500.0 / float64(k+1)
	}
	return &testModel{order: order, altMin: -1, altMax: 600, coeff: coeff}
}

// TestEvaluateAxialDipoleEquator checks the analytic equatorial value
// of a pure axial dipole: the field is horizontal, pointing north with
// magnitude |g10| (r_e/r)^3.
func TestEvaluateAxialDipoleEquator(t *testing.T) {
	const g10 = -29442.0
	mdl := axialDipole(g10)

	f, err := Evaluate(mdl, 0, 0, 0, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	gc := transform.GeodeticToGeocentric(0, 0)
	want := -g10 * math.Pow(transform.EarthRadiusKm/gc.R, 3) * 1e-9
	if math.Abs(f.North-want) > 1e-15 {
		t.Errorf("North = %v T, want %v T", f.North, want)
	}
	if math.Abs(f.East) > 1e-18 {
		t.Errorf("East = %v T, want 0", f.East)
	}
	if math.Abs(f.Up) > 1e-18 {
		t.Errorf("Up = %v T, want 0", f.Up)
	}
}

// TestEvaluateAxialDipoleLongitudeInvariance verifies an axial dipole
// cannot depend on longitude.
func TestEvaluateAxialDipoleLongitudeInvariance(t *testing.T) {
	mdl := axialDipole(-29442)
	ref, err := Evaluate(mdl, 37.5, 0, 1000, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	for _, lon := range []float64{-180, -90, 45, 123.456, 180} {
		f, err := Evaluate(mdl, 37.5, lon, 1000, nil)
		if err != nil {
			t.Fatalf("Evaluate at lon=%v failed: %v", lon, err)
		}
		if math.Abs(f.North-ref.North) > 1e-18 || math.Abs(f.Up-ref.Up) > 1e-18 {
			t.Errorf("field at lon=%v differs from lon=0: %+v vs %+v", lon, f, ref)
		}
	}
}

// TestEvaluateDipoleMagnitude checks the full degree-1 field at a
// mid-latitude point has a realistic geomagnetic magnitude.
func TestEvaluateDipoleMagnitude(t *testing.T) {
	mdl := dipole2015()
	f, err := Evaluate(mdl, 45.76415653, 2.95536402, 1090, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	mag := math.Sqrt(f.East*f.East + f.North*f.North + f.Up*f.Up)
	if mag < 2e-5 || mag > 7e-5 {
		t.Errorf("|B| = %v T, want 20-70 uT", mag)
	}
	if f.North <= 0 {
		t.Errorf("North = %v T, want positive in the northern hemisphere", f.North)
	}
	if math.Abs(f.North) <= math.Abs(f.East) {
		t.Errorf("expected |North| > |East| at mid-latitude, got %+v", f)
	}
}

// TestEvaluateFiniteAtPoles verifies the degenerate pole branches stay
// finite at the exact poles.
func TestEvaluateFiniteAtPoles(t *testing.T) {
	mdl := syntheticModel(8)
	for _, lat := range []float64{90, -90, 89.9999, -89.9999} {
		f, err := Evaluate(mdl, lat, 42, 0, nil)
		if err != nil {
			t.Fatalf("Evaluate at lat=%v failed: %v", lat, err)
		}
		for _, v := range []float64{f.East, f.North, f.Up} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Errorf("non-finite component at lat=%v: %+v", lat, f)
			}
		}
	}
}

// TestEvaluateAltitudeDomain verifies out-of-range altitudes are
// rejected with a domain error and a zero field value.
func TestEvaluateAltitudeDomain(t *testing.T) {
	mdl := dipole2015()
	for _, altM := range []float64{-2000, 600001, 1e9} {
		f, err := Evaluate(mdl, 0, 0, altM, nil)
		if err == nil {
			t.Fatalf("Evaluate accepted altitude %v m", altM)
		}
		if !errors.Is(err, model.ErrDomain) {
			t.Errorf("error %v does not match model.ErrDomain", err)
		}
		if f != (Field{}) {
			t.Errorf("field value %+v not zero on domain error", f)
		}
	}

	// The bounds themselves are valid.
	if _, err := Evaluate(mdl, 0, 0, -1000, nil); err != nil {
		t.Errorf("Evaluate at lower bound failed: %v", err)
	}
	if _, err := Evaluate(mdl, 0, 0, 600000, nil); err != nil {
		t.Errorf("Evaluate at upper bound failed: %v", err)
	}
}

// TestEvaluateScratchReuse verifies a reused scratch buffer gives
// bit-identical results, including after an order change grows it.
func TestEvaluateScratchReuse(t *testing.T) {
	small := syntheticModel(3)
	big := syntheticModel(13)

	var scratch Scratch
	want, err := Evaluate(big, 12.3, -45.6, 5000, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := Evaluate(small, -60, 100, 0, &scratch); err != nil {
			t.Fatalf("small Evaluate failed: %v", err)
		}
		got, err := Evaluate(big, 12.3, -45.6, 5000, &scratch)
		if err != nil {
			t.Fatalf("big Evaluate failed: %v", err)
		}
		if got != want {
			t.Errorf("iteration %d: reused scratch gave %+v, transient gave %+v", i, got, want)
		}
	}
}

// TestEvaluateConcurrent runs evaluations sharing one snapshot from
// many goroutines, each with its own scratch. Run with -race.
func TestEvaluateConcurrent(t *testing.T) {
	mdl := syntheticModel(13)
	want, err := Evaluate(mdl, 30, 60, 10000, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var scratch Scratch
			for j := 0; j < 50; j++ {
				got, err := Evaluate(mdl, 30, 60, 10000, &scratch)
				if err != nil {
					t.Errorf("concurrent Evaluate failed: %v", err)
					return
				}
				if got != want {
					t.Errorf("concurrent Evaluate gave %+v, want %+v", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
}

// TestEvaluateRejectsDegenerateOrder verifies models without even the
// degree-1 terms are refused instead of indexing an empty buffer.
func TestEvaluateRejectsDegenerateOrder(t *testing.T) {
	for _, order := range []int{0, -1} {
		mdl := &testModel{order: order, altMin: -1, altMax: 600}
		f, err := Evaluate(mdl, 45, 45, 0, nil)
		if err == nil {
			t.Fatalf("Evaluate accepted a model of order %d", order)
		}
		if !errors.Is(err, model.ErrDomain) {
			t.Errorf("error %v does not match model.ErrDomain", err)
		}
		if f != (Field{}) {
			t.Errorf("field value %+v not zero on order error", f)
		}
	}
}

// TestEvaluateOrderOne verifies a model of order 1 works despite the
// recursion seeds covering the first four cells of larger models.
func TestEvaluateOrderOne(t *testing.T) {
	mdl := axialDipole(-30000)
	f, err := Evaluate(mdl, 45, 45, 0, nil)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if math.IsNaN(f.North) || math.IsNaN(f.East) || math.IsNaN(f.Up) {
		t.Errorf("non-finite field for order-1 model: %+v", f)
	}
}

func BenchmarkEvaluate(b *testing.B) {
	mdl := syntheticModel(13)
	var scratch Scratch
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Evaluate(mdl, 45.76, 2.95, 1090, &scratch); err != nil {
			b.Fatal(err)
		}
	}
}
