// Package selection holds the date-picker selection state machine: an
// immutable Selection value, the ApplyTap transition and the predicates a
// renderer consults per day cell.
package selection

import (
	"encoding/json"

	"pickcal/internal/calendar"
)

// Kind is the shape of a Selection.
type Kind int

const (
	KindEmpty Kind = iota
	// KindOne is a single date: the Single mode pick, or a range anchor.
	KindOne
	// KindPair is a completed range, always stored Lower <= Upper.
	KindPair
	// KindMany is an insertion-ordered multiset of dates.
	KindMany
)

func (k Kind) String() string {
	switch k {
	case KindOne:
		return "one"
	case KindPair:
		return "pair"
	case KindMany:
		return "many"
	default:
		return "empty"
	}
}

// Span is an inclusive pair of days.
type Span struct {
	Lower calendar.Date `json:"lower"`
	Upper calendar.Date `json:"upper"`
}

// Contains reports whether d is within the span, ends included.
func (s Span) Contains(d calendar.Date) bool {
	return !d.Before(s.Lower) && !d.After(s.Upper)
}

// Selection is an immutable set of picked dates. The zero value is empty.
// Values never share mutable storage, so callers may keep old ones around
// (e.g. for undo).
type Selection struct {
	kind  Kind
	lo    calendar.Date
	hi    calendar.Date
	many  []calendar.Date
	index map[calendar.Date]int
}

func Empty() Selection { return Selection{} }

func One(d calendar.Date) Selection {
	return Selection{kind: KindOne, lo: d}
}

// Pair returns the completed range between a and b regardless of their
// order.
func Pair(a, b calendar.Date) Selection {
	if b.Before(a) {
		a, b = b, a
	}
	return Selection{kind: KindPair, lo: a, hi: b}
}

// Many returns a multiset of dates in the given order. No dates yields an
// empty selection.
func Many(dates ...calendar.Date) Selection {
	if len(dates) == 0 {
		return Empty()
	}
	s := Selection{
		kind:  KindMany,
		many:  make([]calendar.Date, len(dates)),
		index: make(map[calendar.Date]int, len(dates)),
	}
	copy(s.many, dates)
	for _, d := range dates {
		s.index[d]++
	}
	return s
}

func (s Selection) Kind() Kind    { return s.kind }
func (s Selection) IsEmpty() bool { return s.kind == KindEmpty }

// Len is the number of stored dates, counting repeated occurrences.
func (s Selection) Len() int {
	switch s.kind {
	case KindOne:
		return 1
	case KindPair:
		return 2
	case KindMany:
		return len(s.many)
	default:
		return 0
	}
}

// Dates returns a copy of the stored dates: the pair ascending, a multiset in
// insertion order.
func (s Selection) Dates() []calendar.Date {
	switch s.kind {
	case KindOne:
		return []calendar.Date{s.lo}
	case KindPair:
		return []calendar.Date{s.lo, s.hi}
	case KindMany:
		out := make([]calendar.Date, len(s.many))
		copy(out, s.many)
		return out
	default:
		return nil
	}
}

// Count returns how many times d occurs in the selection.
func (s Selection) Count(d calendar.Date) int {
	switch s.kind {
	case KindOne:
		if s.lo == d {
			return 1
		}
	case KindPair:
		if s.lo == d || s.hi == d {
			return 1
		}
	case KindMany:
		return s.index[d]
	}
	return 0
}

// Contains reports whether d is one of the picked dates. Days strictly
// inside a completed range are not members; see Bounds.
func (s Selection) Contains(d calendar.Date) bool {
	return s.Count(d) > 0
}

// Anchor returns the single stored date of a KindOne selection.
func (s Selection) Anchor() (calendar.Date, bool) {
	if s.kind != KindOne {
		return calendar.Date{}, false
	}
	return s.lo, true
}

// Bounds returns the ends of a completed range, including zero-length ones.
func (s Selection) Bounds() (Span, bool) {
	if s.kind != KindPair {
		return Span{}, false
	}
	return Span{Lower: s.lo, Upper: s.hi}, true
}

// Equal reports value equality; multisets compare in order.
func (s Selection) Equal(o Selection) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case KindOne:
		return s.lo == o.lo
	case KindPair:
		return s.lo == o.lo && s.hi == o.hi
	case KindMany:
		if len(s.many) != len(o.many) {
			return false
		}
		for i := range s.many {
			if s.many[i] != o.many[i] {
				return false
			}
		}
	}
	return true
}

type selectionJSON struct {
	Kind  string          `json:"kind"`
	Dates []calendar.Date `json:"dates"`
}

func (s Selection) MarshalJSON() ([]byte, error) {
	dates := s.Dates()
	if dates == nil {
		dates = []calendar.Date{}
	}
	return json.Marshal(selectionJSON{Kind: s.kind.String(), Dates: dates})
}
