package model

import "testing"

// TestCellIndexLayout verifies the degree/order to flat-index mapping
// is injective, dense and ordered by degree then order.
func TestCellIndexLayout(t *testing.T) {
	const order = 13
	seen := make(map[int]bool)
	next := 0
	for i := 1; i <= order; i++ {
		for j := 0; j <= i; j++ {
			k := CellIndex(i, j)
			if k != next {
				t.Fatalf("CellIndex(%d, %d) = %d, want %d", i, j, k, next)
			}
			if seen[k] {
				t.Fatalf("CellIndex(%d, %d) = %d already used", i, j, k)
			}
			seen[k] = true
			next++
		}
	}
	if want := order * (order + 3) / 2; next != want {
		t.Errorf("mapping covers %d cells, want %d", next, want)
	}
}

// TestSnapshotAccessors cross-checks GH against Coeff via CellIndex.
func TestSnapshotAccessors(t *testing.T) {
	snap := &Snapshot{
		order:  2,
		altMin: -1,
		altMax: 600,
		coeff:  []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	}

	if snap.NumCells() != 5 {
		t.Fatalf("NumCells() = %d, want 5", snap.NumCells())
	}
	for i := 1; i <= 2; i++ {
		for j := 0; j <= i; j++ {
			g1, h1 := snap.GH(i, j)
			g2, h2 := snap.Coeff(CellIndex(i, j))
			if g1 != g2 || h1 != h2 {
				t.Errorf("GH(%d, %d) = (%v, %v), Coeff gives (%v, %v)", i, j, g1, h1, g2, h2)
			}
		}
	}
}
