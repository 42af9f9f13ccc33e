// Package grid turns a month of a calendar into the fixed 7-column sequence
// of day cells a month view renders.
package grid

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"pickcal/internal/calendar"
)

// Columns is the number of cells per week row.
const Columns = 7

// ErrInvalidMonth is returned for a month outside January..December.
var ErrInvalidMonth = errors.New("grid: month out of range")

// CellKind distinguishes blank padding cells from cells showing a day.
type CellKind int

const (
	Filler CellKind = iota
	Dated
)

func (k CellKind) String() string {
	if k == Dated {
		return "dated"
	}
	return "filler"
}

// DayCell is one position in a month grid. Date is zero for fillers.
//
// ID is stable across rebuilds: "2024-2-29" for dated cells and a
// position-derived token for fillers ("2024-2-lead-0", "2024-2-trail-1"), so
// list reconciliation never sees two cells with the same key.
type DayCell struct {
	Kind CellKind      `json:"kind"`
	Date calendar.Date `json:"date"`
	ID   string        `json:"id"`
}

// IsFiller reports whether the cell is padding.
func (c DayCell) IsFiller() bool { return c.Kind == Filler }

// MonthGrid is the grid of one month within a multi-month picker.
type MonthGrid struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	ID    string     `json:"id"`
	Cells []DayCell  `json:"cells"`
}

// Rows returns the number of week rows in the grid.
func (m MonthGrid) Rows() int { return len(m.Cells) / Columns }

// LeadingFillers returns how many blank cells precede day 1 of the month:
// (weekday of day 1 - first weekday) mod 7, always within [0, 6].
func LeadingFillers(year int, month time.Month, cal calendar.Calendar) int {
	n := (int(cal.WeekdayOfFirstDayOfMonth(year, month)) - int(cal.FirstWeekday())) % Columns
	if n < 0 {
		n += Columns
	}
	return n
}

// TrailingFillers returns the padding needed after n cells to complete the
// last row. An already complete row needs none.
func TrailingFillers(n int) int {
	if n%Columns == 0 {
		return 0
	}
	return Columns - n%Columns
}

// BuildMonthGrid lays out (year, month) under cal: leading fillers, one dated
// cell per day, then trailing fillers so that the length is a multiple of 7.
func BuildMonthGrid(year int, month time.Month, cal calendar.Calendar) ([]DayCell, error) {
	if month < time.January || month > time.December {
		return nil, errors.Wrapf(ErrInvalidMonth, "month %d", int(month))
	}

	lastDay := cal.DaysInMonth(year, month)
	leading := LeadingFillers(year, month, cal)
	trailing := TrailingFillers(leading + lastDay)

	cells := make([]DayCell, 0, leading+lastDay+trailing)
	for i := 0; i < leading; i++ {
		cells = append(cells, fillerCell(year, month, "lead", i))
	}
	for day := 1; day <= lastDay; day++ {
		cells = append(cells, DayCell{
			Kind: Dated,
			Date: calendar.NewDate(year, month, day),
			ID:   fmt.Sprintf("%d-%d-%d", year, int(month), day),
		})
	}
	for i := 0; i < trailing; i++ {
		cells = append(cells, fillerCell(year, month, "trail", i))
	}

	return cells, nil
}

func fillerCell(year int, month time.Month, side string, i int) DayCell {
	return DayCell{Kind: Filler, ID: fmt.Sprintf("%d-%d-%s-%d", year, int(month), side, i)}
}

// BuildRangeGrids builds one MonthGrid per month touched by allowed, starting
// at the month of allowed.Lower and stopping once a month's first day falls
// after allowed.Upper.
func BuildRangeGrids(allowed calendar.AllowedRange, cal calendar.Calendar) ([]MonthGrid, error) {
	months := make([]MonthGrid, 0)

	for first := allowed.Lower.FirstOfMonth(); !first.After(allowed.Upper); first = first.AddMonths(1) {
		cells, err := BuildMonthGrid(first.Year(), first.Month(), cal)
		if err != nil {
			return nil, err
		}
		months = append(months, MonthGrid{
			Year:  first.Year(),
			Month: first.Month(),
			ID:    MonthID(first.Year(), first.Month()),
			Cells: cells,
		})
	}

	return months, nil
}

// MonthID is the identity of a month grid, e.g. "2024-2".
func MonthID(year int, month time.Month) string {
	return fmt.Sprintf("%d-%d", year, int(month))
}
