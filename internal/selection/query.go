package selection

import "pickcal/internal/calendar"

// IsSelected reports whether d is one of the picked dates.
func IsSelected(s Selection, d calendar.Date) bool {
	return s.Contains(d)
}

// IsRangeEndpoint reports whether d is the lower or upper end of a completed
// range in Range mode.
func IsRangeEndpoint(s Selection, mode Mode, d calendar.Date) bool {
	if mode != Range {
		return false
	}
	b, ok := s.Bounds()
	return ok && (d == b.Lower || d == b.Upper)
}

// IsInteriorToRange reports whether d lies strictly between the ends of a
// completed range in Range mode.
func IsInteriorToRange(s Selection, mode Mode, d calendar.Date) bool {
	if mode != Range {
		return false
	}
	b, ok := s.Bounds()
	return ok && d.After(b.Lower) && d.Before(b.Upper)
}

// EffectiveRange returns the selected span in Range mode once two distinct
// days are picked. A lone anchor or a one-day range yields false.
func EffectiveRange(s Selection, mode Mode) (Span, bool) {
	if mode != Range {
		return Span{}, false
	}
	b, ok := s.Bounds()
	if !ok || b.Lower == b.Upper {
		return Span{}, false
	}
	return b, true
}
