package picker

import (
	"time"

	"pickcal/internal/calendar"
	"pickcal/internal/grid"
	"pickcal/internal/selection"
)

// Highlighter picks an extra style tag for a day, e.g. to render today
// differently. An empty tag means no special styling.
type Highlighter interface {
	Highlight(d calendar.Date) string
}

// HighlighterFunc adapts a function to Highlighter.
type HighlighterFunc func(d calendar.Date) string

func (f HighlighterFunc) Highlight(d calendar.Date) string { return f(d) }

// TodayHighlighter tags Today with Style.
type TodayHighlighter struct {
	Today calendar.Date
	Style string
}

func (h TodayHighlighter) Highlight(d calendar.Date) string {
	if h.Style == "" || d != h.Today {
		return ""
	}
	return h.Style
}

// Marker reports how many events fall on a day.
type Marker interface {
	Count(d calendar.Date) int
}

// Decorations are optional display-only inputs to Annotate.
type Decorations struct {
	Highlighter Highlighter
	Marker      Marker
}

// DayView is the render state of one grid cell.
type DayView struct {
	ID     string         `json:"id"`
	Filler bool           `json:"filler"`
	Date   *calendar.Date `json:"date,omitempty"`
	Day    int            `json:"day,omitempty"`

	Available bool `json:"available"`
	Today     bool `json:"today"`
	Selected  bool `json:"selected"`
	// Count is the number of occurrences in a multiset selection.
	Count    int  `json:"count,omitempty"`
	Endpoint bool `json:"endpoint"`
	Interior bool `json:"interior"`
	// RangeStart and RangeEnd mark the lower and upper end of a range of
	// two distinct days; the range band is drawn on the inner half only.
	RangeStart bool `json:"range_start"`
	RangeEnd   bool `json:"range_end"`

	Marks int    `json:"marks,omitempty"`
	Style string `json:"style,omitempty"`
}

// MonthView is an annotated month grid.
type MonthView struct {
	ID    string     `json:"id"`
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Days  []DayView  `json:"days"`
}

// Annotate evaluates the selection predicates for every dated cell.
func Annotate(cells []grid.DayCell, snap Snapshot, params calendar.Params, deco Decorations) []DayView {
	span, hasSpan := selection.EffectiveRange(snap.Selection, snap.Mode)

	out := make([]DayView, 0, len(cells))
	for _, c := range cells {
		if c.IsFiller() {
			out = append(out, DayView{ID: c.ID, Filler: true})
			continue
		}

		d := c.Date
		v := DayView{
			ID:        c.ID,
			Date:      &d,
			Day:       d.Day(),
			Available: snap.Allowed.Contains(d),
			Today:     !params.Today.IsZero() && d == params.Today,
			Selected:  selection.IsSelected(snap.Selection, d),
			Count:     snap.Selection.Count(d),
			Endpoint:  selection.IsRangeEndpoint(snap.Selection, snap.Mode, d),
			Interior:  selection.IsInteriorToRange(snap.Selection, snap.Mode, d),
		}
		if hasSpan {
			v.RangeStart = d == span.Lower
			v.RangeEnd = d == span.Upper
		}
		if deco.Marker != nil {
			v.Marks = deco.Marker.Count(d)
		}
		if deco.Highlighter != nil {
			v.Style = deco.Highlighter.Highlight(d)
		}
		out = append(out, v)
	}
	return out
}

// BuildMonthView builds and annotates the grid of (year, month).
func BuildMonthView(year int, month time.Month, snap Snapshot, params calendar.Params, deco Decorations) (MonthView, error) {
	cells, err := grid.BuildMonthGrid(year, month, params.Calendar)
	if err != nil {
		return MonthView{}, err
	}
	return MonthView{
		ID:    grid.MonthID(year, month),
		Year:  year,
		Month: month,
		Days:  Annotate(cells, snap, params, deco),
	}, nil
}
