package calendar

import (
	"time"

	"github.com/golang-sql/civil"
	"github.com/pkg/errors"
)

// Date is a single calendar day. It carries no time-of-day and no location,
// so two Dates are equal exactly when they name the same day and can be used
// directly as map keys.
type Date struct {
	d civil.Date
}

// Decomposed is the (year, month, day) triple of a Date.
type Decomposed struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// NewDate returns the Date for the given components. Out-of-range components
// are normalized the same way time.Date normalizes them (e.g. Feb 30 becomes
// Mar 1 or Mar 2).
func NewDate(year int, month time.Month, day int) Date {
	return Date{d: civil.DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))}
}

// DateOf truncates t to its calendar day in loc. A nil loc means UTC.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	return Date{d: civil.DateOf(t.In(loc))}
}

// ParseDate parses an RFC 3339 full-date ("2006-01-02").
func ParseDate(s string) (Date, error) {
	cd, err := civil.ParseDate(s)
	if err != nil {
		return Date{}, errors.Wrapf(err, "parse date %q", s)
	}
	return Date{d: cd}, nil
}

func (d Date) Year() int          { return d.d.Year }
func (d Date) Month() time.Month  { return d.d.Month }
func (d Date) Day() int           { return d.d.Day }
func (d Date) IsZero() bool       { return d == Date{} }
func (d Date) Before(o Date) bool { return d.d.Before(o.d) }
func (d Date) After(o Date) bool  { return d.d.After(o.d) }

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.d.Before(o.d):
		return -1
	case d.d.After(o.d):
		return 1
	default:
		return 0
	}
}

func (d Date) AddDays(n int) Date { return Date{d: d.d.AddDays(n)} }

// AddMonths moves d by n months, normalizing overflowing days like time.Date.
func (d Date) AddMonths(n int) Date {
	return NewDate(d.d.Year, d.d.Month+time.Month(n), d.d.Day)
}

// FirstOfMonth returns day 1 of d's month.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.d.Year, d.d.Month, 1)
}

// DaysSince returns the signed number of days from o to d.
func (d Date) DaysSince(o Date) int { return d.d.DaysSince(o.d) }

// In returns midnight at the start of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return d.d.In(loc)
}

func (d Date) Decompose() Decomposed {
	return Decomposed{Year: d.d.Year, Month: d.d.Month, Day: d.d.Day}
}

// Date converts the triple back into a Date.
func (x Decomposed) Date() Date {
	return NewDate(x.Year, x.Month, x.Day)
}

func (d Date) String() string { return d.d.String() }

func (d Date) MarshalText() ([]byte, error) {
	return d.d.MarshalText()
}

func (d *Date) UnmarshalText(data []byte) error {
	parsed, err := ParseDate(string(data))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
