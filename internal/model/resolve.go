package model

// resolve collapses the raw 4-slot cells into a snapshot holding one
// date-resolved (g, h) pair per cell.
//
// One dataset: the cell carries base coefficients and annual rates, so
// the value is extrapolated linearly from the epoch. Two datasets: the
// cell carries both epochs' coefficients and the value is a linear
// blend. The blend weight is deliberately not clamped to [0, 1]; a date
// outside the bracketing epochs extrapolates silently.
func resolve(order int, ds []rawDataset, raw []float64, date float64) *Snapshot {
	nc := order * (order + 3) / 2
	coeff := make([]float64, 2*nc)

	if len(ds) == 1 {
		h := date - ds[0].epoch
		for k := 0; k < nc; k++ {
			c := raw[4*k:]
			coeff[2*k] = c[0] + c[2]*h
			coeff[2*k+1] = c[1] + c[3]*h
		}
		return &Snapshot{
			order:  order,
			altMin: ds[0].altMin,
			altMax: ds[0].altMax,
			coeff:  coeff,
		}
	}

	w := (date - ds[0].epoch) / (ds[1].epoch - ds[0].epoch)
	for k := 0; k < nc; k++ {
		c := raw[4*k:]
		coeff[2*k] = c[0]*(1-w) + c[2]*w
		coeff[2*k+1] = c[1]*(1-w) + c[3]*w
	}
	return &Snapshot{
		order: order,
		// The combined validity range is the intersection of the two
		// datasets' ranges.
		altMin: max(ds[0].altMin, ds[1].altMin),
		altMax: min(ds[0].altMax, ds[1].altMax),
		coeff:  coeff,
	}
}
