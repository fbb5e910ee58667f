package model

// Snapshot is an immutable, date-resolved set of Gauss coefficients for
// a spherical-harmonic geomagnetic model. It is built once by Load and
// never mutated, so it is safe for concurrent readers.
type Snapshot struct {
	order  int
	altMin float64 // km
	altMax float64 // km

	// coeff holds one resolved (g, h) pair per harmonic cell, in
	// nanotesla: cell k occupies coeff[2k] and coeff[2k+1]. Cells are
	// ordered by degree then order, i.e. k = CellIndex(i, j).
	coeff []float64
}

// Order returns the maximum spherical-harmonic degree of the snapshot.
func (s *Snapshot) Order() int { return s.order }

// AltitudeRangeKm returns the altitude validity range in kilometers.
func (s *Snapshot) AltitudeRangeKm() (minKm, maxKm float64) {
	return s.altMin, s.altMax
}

// NumCells returns the number of (degree, order) coefficient cells.
func (s *Snapshot) NumCells() int { return s.order * (s.order + 3) / 2 }

// Coeff returns the resolved (g, h) pair of harmonic cell k, in nT.
func (s *Snapshot) Coeff(k int) (g, h float64) {
	return s.coeff[2*k], s.coeff[2*k+1]
}

// GH returns the resolved coefficients for degree i and order j,
// with 1 <= i <= Order() and 0 <= j <= i.
func (s *Snapshot) GH(i, j int) (g, h float64) {
	return s.Coeff(CellIndex(i, j))
}

// CellIndex maps a degree i and order j (0 <= j <= i) to the flat cell
// index used by Coeff. The mapping is injective and covers exactly
// n(n+3)/2 cells for a model of order n.
func CellIndex(i, j int) int { return (i-1)*(i+2)/2 + j }
