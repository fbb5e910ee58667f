package model

import "fmt"

// startDay[m] is the ordinal day of the last day of month m in a
// non-leap year; startDay[0] is 0.
var startDay = [13]int{0, 31, 59, 90, 120, 151, 181, 212, 243, 273, 304, 334, 365}

// DecimalYear converts a calendar date to a decimal year, e.g.
// (23, 3, 2020) to 2020.2267759... The date is validated against the
// Gregorian calendar, including leap years. Pure function.
func DecimalYear(day, month, year int) (float64, error) {
	if month < 1 || month > 12 {
		return 0, fmt.Errorf("%w: invalid month %d", ErrDomain, month)
	}

	leap := 0
	if year%4 == 0 && (year%100 != 0 || year%400 == 0) {
		leap = 1
	}
	daysInMonth := startDay[month] - startDay[month-1]
	if month == 2 {
		daysInMonth += leap
	}
	if day < 1 || day > daysInMonth {
		return 0, fmt.Errorf("%w: invalid day %d for month %d", ErrDomain, day, month)
	}

	dayInYear := startDay[month-1] + day
	if month > 2 {
		dayInYear += leap
	}
	return float64(year) + float64(dayInYear)/(365+float64(leap)), nil
}
