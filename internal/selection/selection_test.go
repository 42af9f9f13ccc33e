package selection

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pickcal/internal/calendar"
)

func day(d int) calendar.Date {
	return calendar.NewDate(2024, time.March, d)
}

var march = calendar.AllowedRange{Lower: day(1), Upper: day(31)}

func tapAll(t *testing.T, mode Mode, rep bool, days ...int) Selection {
	t.Helper()
	s := Empty()
	for _, d := range days {
		s = ApplyTap(s, mode, march, day(d), rep)
	}
	return s
}

func TestSingleAlwaysReplaces(t *testing.T) {
	s := tapAll(t, Single, false, 3)
	require.Equal(t, []calendar.Date{day(3)}, s.Dates())

	s = ApplyTap(s, Single, march, day(9), false)
	require.Equal(t, KindOne, s.Kind())
	require.Equal(t, []calendar.Date{day(9)}, s.Dates())

	s = ApplyTap(s, Single, march, day(9), false)
	require.Equal(t, []calendar.Date{day(9)}, s.Dates())
}

func TestRangeNormalizesTapOrder(t *testing.T) {
	for _, order := range [][]int{{5, 12}, {12, 5}} {
		s := tapAll(t, Range, false, order...)
		b, ok := s.Bounds()
		require.True(t, ok)
		require.Equal(t, day(5), b.Lower)
		require.Equal(t, day(12), b.Upper)
		require.Equal(t, []calendar.Date{day(5), day(12)}, s.Dates())
	}
}

func TestRangeAnchor(t *testing.T) {
	s := tapAll(t, Range, false, 7)
	a, ok := s.Anchor()
	require.True(t, ok)
	require.Equal(t, day(7), a)

	_, ok = EffectiveRange(s, Range)
	require.False(t, ok)
	require.False(t, IsRangeEndpoint(s, Range, day(7)))
	require.True(t, IsSelected(s, day(7)))
}

func TestRangeRetapAnchorCompletesOneDayRange(t *testing.T) {
	for _, rep := range []bool{false, true} {
		s := tapAll(t, Range, rep, 7, 7)
		require.Equal(t, KindPair, s.Kind())

		b, ok := s.Bounds()
		require.True(t, ok)
		require.Equal(t, Span{Lower: day(7), Upper: day(7)}, b)
		require.True(t, IsRangeEndpoint(s, Range, day(7)))
		require.False(t, IsInteriorToRange(s, Range, day(7)))

		_, ok = EffectiveRange(s, Range)
		require.False(t, ok)
	}
}

func TestRangeReanchorsAfterCompletion(t *testing.T) {
	for _, tapped := range []int{1, 5, 8, 10, 20, 31} {
		s := tapAll(t, Range, false, 5, 10)
		s = ApplyTap(s, Range, march, day(tapped), false)
		require.Equal(t, KindOne, s.Kind(), "tap %d", tapped)
		require.Equal(t, []calendar.Date{day(tapped)}, s.Dates())
	}
}

func TestMultiToggleWithoutRepetition(t *testing.T) {
	require.True(t, tapAll(t, Multi, false, 4, 4).IsEmpty())

	s := tapAll(t, Multi, false, 4, 4, 4)
	require.Equal(t, []calendar.Date{day(4)}, s.Dates())
	require.Equal(t, 1, s.Count(day(4)))

	s = tapAll(t, Multi, false, 4, 9, 2, 9)
	require.Equal(t, []calendar.Date{day(4), day(2)}, s.Dates())
	require.False(t, IsSelected(s, day(9)))
}

func TestMultiWithRepetitionAppends(t *testing.T) {
	s := tapAll(t, Multi, true, 4, 4, 4)
	require.Equal(t, KindMany, s.Kind())
	require.Equal(t, 3, s.Len())
	require.Equal(t, 3, s.Count(day(4)))
	require.True(t, IsSelected(s, day(4)))

	s = tapAll(t, Multi, true, 4, 6, 4)
	require.Equal(t, []calendar.Date{day(4), day(6), day(4)}, s.Dates())
}

func TestMultiRemovesMostRecentOccurrence(t *testing.T) {
	s := tapAll(t, Multi, true, 4, 6, 4)
	s = ApplyTap(s, Multi, march, day(4), false)
	require.Equal(t, []calendar.Date{day(4), day(6)}, s.Dates())
}

func TestOutOfRangeTapIsNoOp(t *testing.T) {
	outside := []calendar.Date{
		calendar.NewDate(2024, time.February, 29),
		calendar.NewDate(2024, time.April, 1),
		calendar.NewDate(2023, time.March, 15),
	}
	starts := map[Mode]Selection{
		Single: One(day(3)),
		Range:  Pair(day(3), day(8)),
		Multi:  Many(day(3), day(3), day(8)),
	}

	for mode, start := range starts {
		for _, rep := range []bool{false, true} {
			for _, d := range outside {
				next := ApplyTap(start, mode, march, d, rep)
				require.True(t, next.Equal(start), "mode=%s date=%s", mode, d)
			}
			require.True(t, ApplyTap(Empty(), mode, march, outside[0], rep).IsEmpty())
		}
	}
}

func TestDegenerateAllowedRangeSelectsNothing(t *testing.T) {
	empty := calendar.AllowedRange{Lower: day(10), Upper: day(1)}
	for _, mode := range []Mode{Single, Range, Multi} {
		require.True(t, ApplyTap(Empty(), mode, empty, day(5), false).IsEmpty())
	}
}

func TestApplyTapDoesNotShareStorage(t *testing.T) {
	before := Many(day(1), day(2))
	after := ApplyTap(before, Multi, march, day(3), false)

	require.Equal(t, []calendar.Date{day(1), day(2)}, before.Dates())
	require.Equal(t, []calendar.Date{day(1), day(2), day(3)}, after.Dates())

	removed := ApplyTap(after, Multi, march, day(1), false)
	require.Equal(t, []calendar.Date{day(1), day(2), day(3)}, after.Dates())
	require.Equal(t, []calendar.Date{day(2), day(3)}, removed.Dates())
}

func TestForeignShapesAreHandled(t *testing.T) {
	// A multiset reaching Range mode behaves like a finished gesture.
	s := ApplyTap(Many(day(1), day(2)), Range, march, day(9), false)
	require.Equal(t, []calendar.Date{day(9)}, s.Dates())

	// A completed range reaching Multi mode is treated as its two dates.
	s = ApplyTap(Pair(day(2), day(6)), Multi, march, day(6), false)
	require.Equal(t, []calendar.Date{day(2)}, s.Dates())
}

func TestRangePredicates(t *testing.T) {
	s := Pair(day(20), day(10))

	span, ok := EffectiveRange(s, Range)
	require.True(t, ok)
	require.Equal(t, Span{Lower: day(10), Upper: day(20)}, span)

	require.True(t, IsRangeEndpoint(s, Range, day(10)))
	require.True(t, IsRangeEndpoint(s, Range, day(20)))
	require.False(t, IsRangeEndpoint(s, Range, day(15)))

	require.True(t, IsInteriorToRange(s, Range, day(11)))
	require.True(t, IsInteriorToRange(s, Range, day(19)))
	require.False(t, IsInteriorToRange(s, Range, day(10)))
	require.False(t, IsInteriorToRange(s, Range, day(20)))
	require.False(t, IsInteriorToRange(s, Range, day(21)))

	// The same value is not a range outside Range mode.
	require.False(t, IsRangeEndpoint(s, Multi, day(10)))
	require.False(t, IsInteriorToRange(s, Single, day(15)))
	_, ok = EffectiveRange(s, Multi)
	require.False(t, ok)
}

func TestParseMode(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Mode
	}{
		{"single", Single},
		{"Range", Range},
		{" multi ", Multi},
	} {
		got, err := ParseMode(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, got)
	}

	_, err := ParseMode("week")
	require.ErrorIs(t, err, ErrUnknownMode)

	var m Mode
	require.NoError(t, m.UnmarshalText([]byte("range")))
	require.Equal(t, Range, m)
}

func TestSelectionJSON(t *testing.T) {
	raw, err := json.Marshal(Pair(day(9), day(2)))
	require.NoError(t, err)
	require.JSONEq(t, `{"kind":"pair","dates":["2024-03-02","2024-03-09"]}`, string(raw))

	raw, err = json.Marshal(Empty())
	require.NoError(t, err)
	require.JSONEq(t, `{"kind":"empty","dates":[]}`, string(raw))
}
