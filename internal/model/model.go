package model

import (
	"time"

	"pickcal/internal/calendar"
)

// Occurrence is a single concrete instance of a calendar event after
// recurrence expansion, in the picker's display timezone.
type Occurrence struct {
	SourceID string // calendar source ID
	UID      string // iCalendar UID

	// InstanceKey uniquely identifies one occurrence of a recurring event.
	InstanceKey string

	Summary string
	AllDay  bool

	// Start / End are in the display timezone; End is exclusive.
	Start time.Time
	End   time.Time
}

// Mark is the display-only note that an event touches a picker day.
type Mark struct {
	Date     calendar.Date `json:"date"`
	SourceID string        `json:"source_id"`
	UID      string        `json:"uid"`
	Summary  string        `json:"summary"`
	AllDay   bool          `json:"all_day"`
}
