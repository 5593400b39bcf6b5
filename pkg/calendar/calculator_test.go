package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fixedCalculator(t *testing.T, today string) *Calculator {
	t.Helper()
	now, err := time.Parse(DateLayout, today)
	require.NoError(t, err)
	return NewCalculator(func() time.Time { return now.Add(10 * time.Hour) }, time.UTC, zap.NewNop())
}

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := ParseDate(raw)
	require.NoError(t, err)
	return d
}

func TestBetweenCalendarAware(t *testing.T) {
	cases := []struct {
		name  string
		start string
		end   string
		want  Interval
	}{
		{"same day", "2024-05-10", "2024-05-10", Interval{}},
		{"month end into march", "2024-01-31", "2024-03-01", Interval{Months: 1}},
		{"month end into march non leap", "2023-01-31", "2023-03-01", Interval{Months: 1}},
		{"anniversary not reached", "2000-03-01", "2024-02-01", Interval{Years: 23, Months: 11}},
		{"one day short of anniversary", "2000-06-15", "2024-06-14", Interval{Years: 23, Months: 11}},
		{"anniversary reached", "2000-06-15", "2024-06-15", Interval{Years: 24}},
		{"worked example", "2000-01-31", "2024-03-01", Interval{Years: 24, Months: 1}},
		{"leap day birthday", "2000-02-29", "2001-02-28", Interval{Years: 1}},
		{"reversed", "2024-03-15", "2024-01-10", Interval{Months: -2}},
		{"reversed whole years", "2024-03-01", "2000-03-01", Interval{Years: -24}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Between(mustDate(t, tc.start), mustDate(t, tc.end))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAddMonthsClampsDay(t *testing.T) {
	assert.Equal(t, mustDate(t, "2024-02-29"), AddMonths(mustDate(t, "2024-01-31"), 1))
	assert.Equal(t, mustDate(t, "2023-02-28"), AddMonths(mustDate(t, "2023-01-31"), 1))
	assert.Equal(t, mustDate(t, "2023-11-30"), AddMonths(mustDate(t, "2024-01-30"), -2))
	assert.Equal(t, mustDate(t, "2060-02-28"), RetirementDate(mustDate(t, "2000-02-29")))
}

func TestParseDate(t *testing.T) {
	_, err := ParseDate("")
	assert.ErrorIs(t, err, ErrMissingDate)
	_, err = ParseDate("   ")
	assert.ErrorIs(t, err, ErrMissingDate)
	_, err = ParseDate("not-a-date")
	assert.ErrorIs(t, err, ErrMalformedDate)
	_, err = ParseDate("2024-02-30")
	assert.ErrorIs(t, err, ErrMalformedDate)
	_, err = ParseDate("01/02/2024")
	assert.ErrorIs(t, err, ErrMalformedDate)

	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, time.February, d.Month())
}

func TestCalculatorAge(t *testing.T) {
	calc := fixedCalculator(t, "2024-02-01")
	assert.Equal(t, Interval{Years: 23, Months: 11}, calc.Age("2000-03-01"))
	assert.Equal(t, Interval{}, calc.Age(""))
	assert.Equal(t, Interval{}, calc.Age("not-a-date"))

	calc = fixedCalculator(t, "2024-03-01")
	assert.Equal(t, Interval{Years: 24, Months: 1}, calc.Age("2000-01-31"))
	assert.Equal(t, "WIB", calc.Location().String())
	assert.Equal(t, "UTC", NewCalculator(nil, nil, nil).Location().String())
}

func TestCalculatorAgeRangeForPastDates(t *testing.T) {
	calc := fixedCalculator(t, "2024-06-15")
	today := calc.Today()
	for d := mustDate(t, "1990-01-01"); !d.After(today); d = d.AddDate(0, 0, 13) {
		got := calc.AgeOf(d)
		require.GreaterOrEqual(t, got.Years, 0, d.Format(DateLayout))
		require.GreaterOrEqual(t, got.Months, 0, d.Format(DateLayout))
		require.LessOrEqual(t, got.Months, 11, d.Format(DateLayout))
	}
}

func TestCalculatorFutureBirthDateDoesNotPanic(t *testing.T) {
	calc := fixedCalculator(t, "2024-06-15")
	got := calc.Age("2030-01-01")
	assert.Equal(t, Interval{Years: -5, Months: -6}, got)
}

func TestCalculatorTenure(t *testing.T) {
	calc := fixedCalculator(t, "2024-06-15")
	assert.Equal(t, Interval{}, calc.Tenure("2024-06-15"))
	assert.Equal(t, Interval{Years: 10, Months: 3}, calc.Tenure("2014-03-01"))
	assert.Equal(t, Interval{}, calc.Tenure(""))
	assert.Equal(t, Interval{}, calc.Tenure("2014/03/01"))
}

func TestCalculatorRemainingTenure(t *testing.T) {
	calc := fixedCalculator(t, "2024-06-15")

	assert.Equal(t, Interval{}, calc.RemainingTenure("1960-01-01"), "already retired")
	assert.Equal(t, Interval{}, calc.RemainingTenure("1964-06-15"), "retires today")
	assert.Equal(t, Interval{Years: 26, Months: 2}, calc.RemainingTenure("1990-08-20"))
	assert.Equal(t, Interval{}, calc.RemainingTenure(""))
	assert.Equal(t, Interval{}, calc.RemainingTenure("garbage"))
}

func TestCalculatorRemainingTenureLeapDay(t *testing.T) {
	calc := fixedCalculator(t, "2024-06-15")
	assert.NotPanics(t, func() {
		got := calc.RemainingTenure("2000-02-29")
		assert.Equal(t, Interval{Years: 35, Months: 8}, got)
	})
}

func TestCalculatorIdempotent(t *testing.T) {
	calc := fixedCalculator(t, "2024-06-15")
	for _, raw := range []string{"1985-12-31", "2000-02-29", "", "oops"} {
		assert.Equal(t, calc.Age(raw), calc.Age(raw))
		assert.Equal(t, calc.Tenure(raw), calc.Tenure(raw))
		assert.Equal(t, calc.RemainingTenure(raw), calc.RemainingTenure(raw))
	}
}

func TestCalculatorUsesLocationForToday(t *testing.T) {
	instant := time.Date(2024, time.February, 29, 20, 0, 0, 0, time.UTC)
	wib := time.FixedZone("WIB", 7*60*60)
	calc := NewCalculator(func() time.Time { return instant }, wib, nil)

	assert.Equal(t, mustDate(t, "2024-03-01"), calc.Today())
	assert.Equal(t, Interval{Years: 24, Months: 1}, calc.Age("2000-01-31"))
}

func TestCalculatorTracksClock(t *testing.T) {
	current := time.Date(2024, time.January, 14, 0, 0, 0, 0, time.UTC)
	calc := NewCalculator(func() time.Time { return current }, nil, nil)
	before := calc.Age("2000-01-15")

	current = current.AddDate(0, 0, 1)
	after := calc.Age("2000-01-15")

	assert.Equal(t, Interval{Years: 23, Months: 11}, before)
	assert.Equal(t, Interval{Years: 24}, after)
}
