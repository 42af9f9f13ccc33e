package ics

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"

	"pickcal/internal/calendar"
	appLog "pickcal/internal/log"
	"pickcal/internal/model"
)

// maxMarkedDaysPerEvent caps how many days a single occurrence can mark.
const maxMarkedDaysPerEvent = 366

// Marks indexes event marks by day. The zero value is empty and usable.
type Marks struct {
	byDay map[calendar.Date][]model.Mark
}

// BuildMarks marks every day each occurrence touches in loc. End is
// exclusive; a zero-length occurrence marks its start day.
func BuildMarks(occs []model.Occurrence, loc *time.Location) Marks {
	if loc == nil {
		loc = time.UTC
	}
	m := Marks{byDay: make(map[calendar.Date][]model.Mark)}
	for _, o := range occs {
		first := calendar.DateOf(o.Start, loc)
		last := first
		if o.End.After(o.Start) {
			last = calendar.DateOf(o.End.Add(-time.Nanosecond), loc)
		}
		for d, n := first, 0; !d.After(last) && n < maxMarkedDaysPerEvent; d, n = d.AddDays(1), n+1 {
			m.byDay[d] = append(m.byDay[d], model.Mark{
				Date:     d,
				SourceID: o.SourceID,
				UID:      o.UID,
				Summary:  o.Summary,
				AllDay:   o.AllDay,
			})
		}
	}
	return m
}

// Count is the number of marks on d.
func (m Marks) Count(d calendar.Date) int { return len(m.byDay[d]) }

// Has reports whether any event touches d.
func (m Marks) Has(d calendar.Date) bool { return len(m.byDay[d]) > 0 }

// Marks returns a copy of the marks on d.
func (m Marks) Marks(d calendar.Date) []model.Mark {
	src := m.byDay[d]
	if len(src) == 0 {
		return nil
	}
	out := make([]model.Mark, len(src))
	copy(out, src)
	return out
}

// Summaries lists the event summaries on d in mark order.
func (m Marks) Summaries(d calendar.Date) []string {
	src := m.byDay[d]
	out := make([]string, 0, len(src))
	for _, mk := range src {
		out = append(out, mk.Summary)
	}
	return out
}

// Days lists the marked days in ascending order.
func (m Marks) Days() []calendar.Date {
	out := make([]calendar.Date, 0, len(m.byDay))
	for d := range m.byDay {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Len is the number of marked days.
func (m Marks) Len() int { return len(m.byDay) }

// LoadMarks fetches, parses and expands every source and indexes the result.
// A source that fails is logged and skipped; the error is returned only when
// every source failed.
func LoadMarks(ctx context.Context, f *Fetcher, sources []Source, cfg ExpandConfig) (Marks, error) {
	if len(sources) == 0 {
		return Marks{}, nil
	}

	results, fetchErrs := f.FetchAll(ctx, sources)
	if len(results) == 0 && len(fetchErrs) > 0 {
		return Marks{}, errors.Wrap(fetchErrs[0], "ics: all sources failed")
	}

	var events []ParsedEvent
	for _, res := range results {
		evs, err := ParseICS(res.Source, res.Body)
		if err != nil {
			continue
		}
		events = append(events, evs...)
	}

	expanded, err := ExpandOccurrences(events, cfg)
	if err != nil {
		return Marks{}, errors.Wrap(err, "ics: expand")
	}

	marks := BuildMarks(expanded.Occurrences, cfg.DisplayLocation)
	appLog.Info("ics marks loaded",
		"sources", len(sources),
		"failed", len(fetchErrs),
		"events", len(events),
		"occurrences", len(expanded.Occurrences),
		"days", marks.Len(),
	)
	return marks, nil
}
