package model

import (
	"errors"
	"math"
	"testing"
)

// TestDecimalYearKnownValues checks conversions against hand-computed
// fractions, including leap and non-leap years.
func TestDecimalYearKnownValues(t *testing.T) {
	tests := []struct {
		day, month, year int
		want             float64
	}{
		{1, 1, 2019, 2019 + 1.0/365},
		{31, 12, 2019, 2019 + 365.0/365},
		{1, 1, 2020, 2020 + 1.0/366},   // leap year
		{29, 2, 2020, 2020 + 60.0/366}, // leap day
		{1, 3, 2020, 2020 + 61.0/366},
		{31, 12, 2020, 2020 + 366.0/366},
		{1, 3, 1900, 1900 + 60.0/365}, // century, not leap
		{1, 3, 2000, 2000 + 61.0/366}, // quadricentennial, leap
		{15, 6, 2015, 2015 + 166.0/365},
	}
	for _, tc := range tests {
		got, err := DecimalYear(tc.day, tc.month, tc.year)
		if err != nil {
			t.Errorf("DecimalYear(%d, %d, %d) returned error: %v", tc.day, tc.month, tc.year, err)
			continue
		}
		if math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("DecimalYear(%d, %d, %d) = %.12f, want %.12f", tc.day, tc.month, tc.year, got, tc.want)
		}
	}
}

// TestDecimalYearInvalidDates verifies that impossible calendar dates
// are rejected with a domain error.
func TestDecimalYearInvalidDates(t *testing.T) {
	tests := []struct {
		name             string
		day, month, year int
	}{
		{"month zero", 1, 0, 2020},
		{"month thirteen", 1, 13, 2020},
		{"day zero", 0, 1, 2020},
		{"day 32 in january", 32, 1, 2020},
		{"feb 30", 30, 2, 2020},
		{"feb 29 in non-leap year", 29, 2, 2019},
		{"feb 29 in 1900", 29, 2, 1900},
		{"april 31", 31, 4, 2020},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecimalYear(tc.day, tc.month, tc.year)
			if err == nil {
				t.Fatalf("DecimalYear(%d, %d, %d) accepted an invalid date", tc.day, tc.month, tc.year)
			}
			if !errors.Is(err, ErrDomain) {
				t.Errorf("error %v does not match ErrDomain", err)
			}
		})
	}
}

// TestDecimalYearMonotonic verifies ordering across consecutive days of
// a leap year.
func TestDecimalYearMonotonic(t *testing.T) {
	prev := 0.0
	for month := 1; month <= 12; month++ {
		for day := 1; day <= 28; day++ {
			v, err := DecimalYear(day, month, 2020)
			if err != nil {
				t.Fatalf("DecimalYear(%d, %d, 2020): %v", day, month, err)
			}
			if v <= prev {
				t.Fatalf("DecimalYear(%d, %d, 2020) = %v not greater than previous %v", day, month, v, prev)
			}
			prev = v
		}
	}
}
