package calendar

import "time"

// AllowedRange is the inclusive span of days a picker lets the user select.
// A range whose Lower is after Upper contains no days; taps inside it are
// all treated as out of range.
type AllowedRange struct {
	Lower Date `json:"lower" yaml:"lower"`
	Upper Date `json:"upper" yaml:"upper"`
}

// NewAllowedRange normalizes two instants to whole days in loc: lower is
// taken from the start of its day and upper through the end of its day.
func NewAllowedRange(lower, upper time.Time, loc *time.Location) AllowedRange {
	return AllowedRange{Lower: DateOf(lower, loc), Upper: DateOf(upper, loc)}
}

// Contains reports whether d lies within the range, bounds included.
func (r AllowedRange) Contains(d Date) bool {
	return !d.Before(r.Lower) && !d.After(r.Upper)
}

// IsEmpty reports whether the range is degenerate (Lower after Upper).
func (r AllowedRange) IsEmpty() bool {
	return r.Lower.After(r.Upper)
}

// Days returns the number of days in the range, 0 when empty.
func (r AllowedRange) Days() int {
	if r.IsEmpty() {
		return 0
	}
	return r.Upper.DaysSince(r.Lower) + 1
}

// StartTime is 00:00 of the first allowed day in loc.
func (r AllowedRange) StartTime(loc *time.Location) time.Time {
	return r.Lower.In(loc)
}

// EndTime is the last instant (23:59:59.999999999) of the final allowed day.
func (r AllowedRange) EndTime(loc *time.Location) time.Time {
	return r.Upper.AddDays(1).In(loc).Add(-time.Nanosecond)
}
