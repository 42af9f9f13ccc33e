package ics

import (
	"time"

	"github.com/pkg/errors"
	"github.com/teambition/rrule-go"

	appLog "pickcal/internal/log"
	"pickcal/internal/model"
)

const defaultMaxOccurrencesPerEvent = 5000

// ExpandConfig controls recurrence expansion.
type ExpandConfig struct {
	// DisplayLocation is the timezone occurrences are converted to.
	// If nil, time.UTC is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd bound the occurrences, inclusive. Callers
	// usually pass AllowedRange.StartTime / EndTime.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps runaway rules. Zero means the default.
	MaxOccurrencesPerEvent int
}

// ExpandResult is the set of occurrences plus the UIDs that hit the cap.
type ExpandResult struct {
	Occurrences     []model.Occurrence
	TruncatedEvents []string
}

// ExpandOccurrences turns parsed events into concrete occurrences within the
// configured window, honoring RRULE, EXDATE and RECURRENCE-ID overrides.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.UTC
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	bases := make([]ParsedEvent, 0, len(events))
	overrides := make(map[string][]ParsedEvent)
	for _, ev := range events {
		if ev.IsOverride() {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
			continue
		}
		bases = append(bases, ev)
	}

	for _, ev := range bases {
		var (
			occ    []model.Occurrence
			capped bool
		)
		if ev.RawRRule == "" {
			occ = expandSingle(ev, overrides[ev.UID], cfg)
		} else {
			occ, capped = expandRecurring(ev, overrides[ev.UID], cfg)
		}
		result.Occurrences = append(result.Occurrences, occ...)

		if capped {
			result.TruncatedEvents = append(result.TruncatedEvents, ev.UID)
			appLog.Error("expand: occurrences truncated", errors.New("max occurrences reached"),
				"uid", ev.UID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	return result, nil
}

func expandSingle(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.Occurrence {
	if o, ok := findOverride(overrides, ev.Start); ok {
		ev = o
	}
	if !overlaps(ev.Start, ev.End, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []model.Occurrence{toOccurrence(ev, ev.Start, ev.End, cfg.DisplayLocation)}
}

func expandRecurring(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.Occurrence, bool) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: bad RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the lower bound by the event length so instances that started
	// before the window but still run into it are kept.
	dur := ev.End.Sub(ev.Start)
	from := cfg.RangeStart.Add(-dur).In(ev.Start.Location())
	to := cfg.RangeEnd.In(ev.Start.Location())

	starts := set.Between(from, to, true)
	capped := false
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		starts = starts[:cfg.MaxOccurrencesPerEvent]
		capped = true
	}

	out := make([]model.Occurrence, 0, len(starts))
	for _, start := range starts {
		inst := ev
		inst.Start, inst.End = start, start.Add(dur)
		if o, ok := findOverride(overrides, start); ok {
			inst = o
		}
		if !overlaps(inst.Start, inst.End, cfg.RangeStart, cfg.RangeEnd) {
			continue
		}
		out = append(out, toOccurrence(inst, inst.Start, inst.End, cfg.DisplayLocation))
	}
	return out, capped
}

// findOverride returns the override whose RECURRENCE-ID equals start.
func findOverride(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, o := range overrides {
		if o.Recurrence != nil && o.Recurrence.Equal(start) {
			return o, true
		}
	}
	return ParsedEvent{}, false
}

func toOccurrence(ev ParsedEvent, start, end time.Time, loc *time.Location) model.Occurrence {
	if ev.AllDay {
		// All-day events name dates, not instants: keep the dates.
		start = floatingDate(start, loc)
		end = floatingDate(end, loc)
	}
	return model.Occurrence{
		SourceID:    ev.Source.ID,
		UID:         ev.UID,
		InstanceKey: start.In(loc).Format(time.RFC3339),
		Summary:     ev.Summary,
		AllDay:      ev.AllDay,
		Start:       start.In(loc),
		End:         end.In(loc),
	}
}

// overlaps treats [aStart, aEnd) against the inclusive window [bStart, bEnd].
// Zero-length events overlap when their start lies in the window.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aStart.After(bEnd) {
		return false
	}
	if !aEnd.After(aStart) {
		return !aStart.Before(bStart)
	}
	return aEnd.After(bStart)
}

func floatingDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
