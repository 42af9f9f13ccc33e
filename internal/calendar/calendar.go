package calendar

import (
	"strings"
	"time"
)

// Calendar is the calendar abstraction the grid builder consumes. Weekdays
// use Go's numbering (Sunday = 0 ... Saturday = 6) for both the weekday of a
// month's first day and the configured first day of the week.
type Calendar interface {
	DaysInMonth(year int, month time.Month) int
	WeekdayOfFirstDayOfMonth(year int, month time.Month) time.Weekday
	FirstWeekday() time.Weekday
}

// Gregorian is the proleptic Gregorian calendar evaluated in a display
// timezone with a configurable first day of the week.
type Gregorian struct {
	loc   *time.Location
	first time.Weekday
}

// NewGregorian returns a Gregorian calendar for loc (UTC when nil) whose
// weeks start on first.
func NewGregorian(loc *time.Location, first time.Weekday) *Gregorian {
	if loc == nil {
		loc = time.UTC
	}
	return &Gregorian{loc: loc, first: ((first % 7) + 7) % 7}
}

func (g *Gregorian) Location() *time.Location { return g.loc }

func (g *Gregorian) FirstWeekday() time.Weekday { return g.first }

func (g *Gregorian) DaysInMonth(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func (g *Gregorian) WeekdayOfFirstDayOfMonth(year int, month time.Month) time.Weekday {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
}

// DateOf truncates t to its day in the calendar's timezone.
func (g *Gregorian) DateOf(t time.Time) Date {
	return DateOf(t, g.loc)
}

// Decompose splits t into year, month and day in the calendar's timezone.
func (g *Gregorian) Decompose(t time.Time) Decomposed {
	return g.DateOf(t).Decompose()
}

// StartOfDay returns 00:00 of t's day in the calendar's timezone.
func (g *Gregorian) StartOfDay(t time.Time) time.Time {
	return g.DateOf(t).In(g.loc)
}

// EndOfDay returns the last representable instant of t's day.
func (g *Gregorian) EndOfDay(t time.Time) time.Time {
	return g.DateOf(t).AddDays(1).In(g.loc).Add(-time.Nanosecond)
}

var weekdaysByName = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps an English weekday name ("monday", "Sunday", ...) to a
// time.Weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	wd, ok := weekdaysByName[strings.ToLower(strings.TrimSpace(name))]
	return wd, ok
}

// Params bundles the explicit context the picker needs per render pass: the
// calendar and the current day. Nothing in the core reads the wall clock.
type Params struct {
	Calendar Calendar
	Today    Date
}
