package selection

import "pickcal/internal/calendar"

// ApplyTap returns the selection that results from tapping the day tapped.
//
// A tap outside allowed returns current unchanged. Otherwise:
//   - Single: the tapped day replaces whatever was selected.
//   - Range: the first tap sets an anchor, the second completes the range
//     (ascending, whichever order the days were tapped in; tapping the anchor
//     again completes a one-day range), and any tap after completion starts a
//     new range anchored at the tapped day.
//   - Multi: without repetition a tap toggles the day in or out; with
//     repetition every tap appends another occurrence.
//
// current is never modified.
func ApplyTap(current Selection, mode Mode, allowed calendar.AllowedRange, tapped calendar.Date, allowsRepetition bool) Selection {
	if !allowed.Contains(tapped) {
		return current
	}

	switch mode {
	case Range:
		return tapRange(current, tapped)
	case Multi:
		return tapMulti(current, tapped, allowsRepetition)
	default:
		return One(tapped)
	}
}

func tapRange(current Selection, tapped calendar.Date) Selection {
	if anchor, ok := current.Anchor(); ok {
		return Pair(anchor, tapped)
	}
	// Empty, a completed range, or a shape left over from another mode.
	return One(tapped)
}

func tapMulti(current Selection, tapped calendar.Date, allowsRepetition bool) Selection {
	dates := current.Dates()
	if !allowsRepetition && current.Contains(tapped) {
		return Many(removeLast(dates, tapped)...)
	}
	return Many(append(dates, tapped)...)
}

// removeLast drops the most recent occurrence of d.
func removeLast(dates []calendar.Date, d calendar.Date) []calendar.Date {
	for i := len(dates) - 1; i >= 0; i-- {
		if dates[i] == d {
			return append(dates[:i], dates[i+1:]...)
		}
	}
	return dates
}
