package calendar

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// RetirementAge is the age in years at which staff service ends.
const RetirementAge = 60

// Clock supplies the current instant.
type Clock func() time.Time

// Calculator derives age and tenure facts relative to "today" as reported by its clock.
// Invalid input never produces an error; it yields a zero Interval.
type Calculator struct {
	now      Clock
	location *time.Location
	logger   *zap.Logger
}

// NewCalculator constructs a calculator. A nil clock uses time.Now and a nil
// location uses UTC.
func NewCalculator(now Clock, location *time.Location, logger *zap.Logger) *Calculator {
	if now == nil {
		now = time.Now
	}
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{now: now, location: location, logger: logger}
}

// Location is the timezone used to decide the current date. Today itself is
// normalised to UTC midnight and does not carry it.
func (c *Calculator) Location() *time.Location {
	return c.location
}

// Today returns the current calendar date in the calculator's location.
func (c *Calculator) Today() time.Time {
	return dateOnly(c.now().In(c.location))
}

// Age returns the age for a YYYY-MM-DD birth date.
func (c *Calculator) Age(birthDate string) Interval {
	birth, ok := c.parse("birth_date", birthDate)
	if !ok {
		return Interval{}
	}
	return c.AgeOf(birth)
}

// AgeOf returns the age for an already parsed birth date.
func (c *Calculator) AgeOf(birth time.Time) Interval {
	return Between(birth, c.Today())
}

// Tenure returns the time elapsed since a decree date.
func (c *Calculator) Tenure(referenceDate string) Interval {
	ref, ok := c.parse("decree_date", referenceDate)
	if !ok {
		return Interval{}
	}
	return c.TenureSince(ref)
}

// TenureSince is Tenure for an already parsed date.
func (c *Calculator) TenureSince(reference time.Time) Interval {
	return Between(reference, c.Today())
}

// RemainingTenure returns the time left until RetirementAge. Staff past
// retirement get a zero interval, never a negative one.
func (c *Calculator) RemainingTenure(birthDate string) Interval {
	birth, ok := c.parse("birth_date", birthDate)
	if !ok {
		return Interval{}
	}
	return c.RemainingTenureOf(birth)
}

// RemainingTenureOf is RemainingTenure for an already parsed birth date.
func (c *Calculator) RemainingTenureOf(birth time.Time) Interval {
	retirement := RetirementDate(birth)
	today := c.Today()
	if retirement.Before(today) {
		return Interval{}
	}
	return Between(today, retirement)
}

// RetirementDate is birth plus RetirementAge years.
func RetirementDate(birth time.Time) time.Time {
	return AddYears(birth, RetirementAge)
}

func (c *Calculator) parse(field, raw string) (time.Time, bool) {
	t, err := ParseDate(raw)
	if err == nil {
		return t, true
	}
	if errors.Is(err, ErrMissingDate) {
		c.logger.Debug("date missing, using zero interval", zap.String("field", field))
	} else {
		c.logger.Debug("date malformed, using zero interval", zap.String("field", field), zap.String("value", raw))
	}
	return time.Time{}, false
}
