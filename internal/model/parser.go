package model

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// lineWidth is the fixed content width, in characters, of every
// non-blank line in a geomag70-style .COF model file.
const lineWidth = 80

// rawDataset describes one coefficient block located in a model file.
// Instances only live for the duration of a Load call.
type rawDataset struct {
	epoch  float64 // reference decimal year
	nmax1  int     // max degree of the main-field coefficients
	nmax2  int     // max degree of the secular-variation terms, or <= 0
	altMin float64 // km
	altMax float64 // km
	start  int     // index into lines of the first coefficient line
}

// Load builds a snapshot of the geomagnetic model stored in the file at
// path, resolved at the given calendar date.
func Load(path string, day, month, year int) (*Snapshot, error) {
	date, err := DecimalYear(day, month, year)
	if err != nil {
		return nil, err
	}
	return LoadAt(path, date)
}

// LoadAt is Load for an already-computed decimal year.
func LoadAt(path string, date float64) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrPath, path, err)
	}
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	ds, ndat, err := locateDatasets(path, lines, date)
	if err != nil {
		return nil, err
	}

	var order int
	if ndat == 1 {
		order = max(ds[0].nmax1, ds[0].nmax2)
	} else {
		order = max(ds[0].nmax1, ds[1].nmax1)
	}

	// Raw cells hold 4 slots each: either base coefficients plus their
	// annual rates, or the epoch-0 and epoch-1 coefficient pairs.
	raw := make([]float64, 2*order*(order+3))
	for idat := 0; idat < ndat; idat++ {
		if err := readCoefficients(path, lines, ds[idat], idat, ndat, order, raw); err != nil {
			return nil, err
		}
	}

	return resolve(order, ds[:ndat], raw, date), nil
}

// locateDatasets scans header lines in file order and returns the one or
// two datasets applicable to the target date. The first header whose
// year range brackets the date is accepted; the header immediately
// following is accepted as well so the two epochs can be interpolated.
// Scanning stops early when the first accepted dataset carries its own
// secular-variation terms (nmax2 > 0).
func locateDatasets(path string, lines []string, date float64) ([2]rawDataset, int, error) {
	var ds [2]rawDataset
	ndat := 0
	for idx := 0; idx < len(lines); idx++ {
		line := lines[idx]
		if line == "" {
			continue
		}
		if len(line) != lineWidth {
			return ds, 0, &SyntaxError{Path: path, Line: idx + 1}
		}
		if !strings.HasPrefix(line, "   ") {
			continue
		}

		// Header fields: name epoch nmax1 nmax2 skip yrmin yrmax altmin altmax.
		f := strings.Fields(line)
		if len(f) < 9 {
			return ds, 0, &SyntaxError{Path: path, Line: idx + 1}
		}
		epoch, err1 := strconv.ParseFloat(f[1], 64)
		nmax1, err2 := strconv.Atoi(f[2])
		nmax2, err3 := strconv.Atoi(f[3])
		_, err4 := strconv.Atoi(f[4])
		yrMin, err5 := strconv.ParseFloat(f[5], 64)
		yrMax, err6 := strconv.ParseFloat(f[6], 64)
		altMin, err7 := strconv.ParseFloat(f[7], 64)
		altMax, err8 := strconv.ParseFloat(f[8], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil ||
			err5 != nil || err6 != nil || err7 != nil || err8 != nil {
			return ds, 0, &SyntaxError{Path: path, Line: idx + 1}
		}
		// A main-field block needs at least the degree-1 terms; the
		// snapshot order is derived from these bounds, so bad values
		// here would corrupt the coefficient layout.
		if nmax1 < 1 || nmax2 < 0 {
			return ds, 0, &SyntaxError{Path: path, Line: idx + 1}
		}
		if ndat == 0 && (date < yrMin || date > yrMax) {
			continue
		}

		ds[ndat] = rawDataset{
			epoch:  epoch,
			nmax1:  nmax1,
			nmax2:  nmax2,
			altMin: altMin,
			altMax: altMax,
			start:  idx + 1,
		}
		ndat++
		if ndat == 2 || ds[0].nmax2 > 0 {
			break
		}
	}

	if ndat == 0 || (ndat == 1 && ds[0].nmax2 <= 0) {
		return ds, 0, fmt.Errorf("%w: %s", ErrMissingData, path)
	}
	return ds, ndat, nil
}

// readCoefficients reads the triangular block of coefficient lines that
// follows a dataset header into the raw cell buffer. A cell written
// twice means the file listed a coefficient twice, which is a format
// error.
func readCoefficients(path string, lines []string, d rawDataset, idat, ndat, order int, raw []float64) error {
	nc := d.nmax1 * (d.nmax1 + 3) / 2
	if ndat == 1 {
		nc = order * (order + 3) / 2
	}

	for ic := 0; ic < nc; ic++ {
		idx := d.start + ic
		lineNo := idx + 1
		if idx >= len(lines) {
			return &SyntaxError{Path: path, Line: lineNo}
		}
		line := lines[idx]
		if len(line) != lineWidth {
			return &SyntaxError{Path: path, Line: lineNo}
		}

		f := strings.Fields(line)
		if len(f) < 6 {
			return &SyntaxError{Path: path, Line: lineNo}
		}
		i, err1 := strconv.Atoi(f[0])
		j, err2 := strconv.Atoi(f[1])
		g1, err3 := strconv.ParseFloat(f[2], 64)
		h1, err4 := strconv.ParseFloat(f[3], 64)
		g2, err5 := strconv.ParseFloat(f[4], 64)
		h2, err6 := strconv.ParseFloat(f[5], 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil ||
			err5 != nil || err6 != nil ||
			i < 1 || j < 0 || j > i || i > order {
			return &SyntaxError{Path: path, Line: lineNo}
		}

		c := raw[4*CellIndex(i, j):][:4]
		switch {
		case ndat == 1:
			if c[0] != 0 || c[1] != 0 || c[2] != 0 || c[3] != 0 {
				return &SyntaxError{Path: path, Line: lineNo}
			}
			c[0], c[1], c[2], c[3] = g1, h1, g2, h2
		case idat == 0:
			if c[0] != 0 || c[1] != 0 {
				return &SyntaxError{Path: path, Line: lineNo}
			}
			c[0], c[1] = g1, h1
		default:
			if c[2] != 0 || c[3] != 0 {
				return &SyntaxError{Path: path, Line: lineNo}
			}
			c[2], c[3] = g1, h1
		}
	}
	return nil
}
