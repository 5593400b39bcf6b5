// Package calendar derives whole-year/month intervals between calendar dates.
package calendar

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the serialised form used for every stored date.
const DateLayout = "2006-01-02"

var (
	// ErrMissingDate is returned by ParseDate for empty input.
	ErrMissingDate = errors.New("date is missing")
	// ErrMalformedDate is returned by ParseDate when the input is not YYYY-MM-DD.
	ErrMalformedDate = errors.New("date is malformed")
)

// Interval is a calendar distance expressed as whole years plus remaining months.
type Interval struct {
	Years  int `json:"years"`
	Months int `json:"months"`
}

// IsZero reports whether the interval is empty.
func (i Interval) IsZero() bool {
	return i.Years == 0 && i.Months == 0
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight date.
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrMissingDate
	}
	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, ErrMalformedDate
	}
	return t, nil
}

// Between returns the calendar interval from start to end.
//
// Months are counted by stepping start forward one calendar month at a time,
// clamping the day to the end of shorter months, so Jan 31 -> Mar 1 is one
// month. When end precedes start both fields come back negative (or zero).
func Between(start, end time.Time) Interval {
	start, end = dateOnly(start), dateOnly(end)

	total := (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
	probe := AddMonths(start, total)
	if !end.Before(start) {
		for end.Before(probe) {
			total--
			probe = AddMonths(start, total)
		}
	} else {
		for end.After(probe) {
			total++
			probe = AddMonths(start, total)
		}
	}
	return Interval{Years: total / 12, Months: total % 12}
}

// AddMonths moves t by n calendar months, clamping the day to the target month length.
func AddMonths(t time.Time, n int) time.Time {
	t = dateOnly(t)
	idx := int(t.Month()) - 1 + n
	year := t.Year() + floorDiv(idx, 12)
	month := time.Month(idx - floorDiv(idx, 12)*12 + 1)
	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddYears moves t by n years keeping month and day; Feb 29 falls back to Feb 28.
func AddYears(t time.Time, n int) time.Time {
	return AddMonths(t, n*12)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
