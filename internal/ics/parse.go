package ics

import (
	"bytes"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/pkg/errors"

	appLog "pickcal/internal/log"
)

// ParsedEvent is one VEVENT reduced to what day marking needs. Recurrences
// are kept as raw RRULE/EXDATE data and expanded by ExpandOccurrences.
type ParsedEvent struct {
	Source Source

	UID     string
	Summary string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule string
	ExDates  []time.Time
	// Recurrence is the RECURRENCE-ID of an override instance.
	Recurrence *time.Time
}

// IsOverride reports whether the event replaces one instance of a recurring
// event.
func (ev ParsedEvent) IsOverride() bool { return ev.Recurrence != nil }

// ParseICS parses a single ICS payload. Malformed VEVENTs are logged and
// skipped; only an unreadable calendar is an error.
func ParseICS(src Source, body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	events := make([]ParsedEvent, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(src, ve)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr, "id", src.ID)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (ParsedEvent, error) {
	ev := ParsedEvent{Source: src}

	ev.UID = propValue(ve, ical.ComponentPropertyUniqueId)
	if ev.UID == "" {
		return ev, errors.New("missing UID")
	}
	ev.Summary = propValue(ve, ical.ComponentPropertySummary)

	start, err := ve.GetStartAt()
	if err != nil {
		return ev, err
	}
	ev.Start = start

	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		// VALUE=DATE or a bare YYYYMMDD value marks an all-day event.
		ev.AllDay = strings.EqualFold(param(p, "VALUE"), "DATE") || !strings.Contains(p.Value, "T")
	}

	// DTEND is optional: all-day events default to one day, timed events
	// to zero length.
	end, err := ve.GetEndAt()
	switch {
	case err == nil && end.After(start):
		ev.End = end
	case ev.AllDay:
		ev.End = start.AddDate(0, 0, 1)
	default:
		ev.End = start
	}

	ev.RawRRule = propValue(ve, ical.ComponentPropertyRrule)

	for _, p := range ve.Properties {
		if !strings.EqualFold(p.IANAToken, string(ical.ComponentPropertyExdate)) {
			continue
		}
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, start.Location()); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}

	if rid := propValue(ve, "RECURRENCE-ID"); rid != "" {
		if t, err := parseICSTime(rid, start.Location()); err == nil {
			ev.Recurrence = &t
		}
	}

	return ev, nil
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	p := ve.GetProperty(name)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Value)
}

func param(p *ical.IANAProperty, name string) string {
	if vs := p.ICalParameters[name]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// parseICSTime parses the DATE / DATE-TIME / UTC forms found in EXDATE and
// RECURRENCE-ID values. Floating values are read in loc.
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
