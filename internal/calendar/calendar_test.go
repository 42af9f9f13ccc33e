package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGregorianDaysInMonth(t *testing.T) {
	cal := NewGregorian(time.UTC, time.Monday)

	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, cal.DaysInMonth(tc.year, tc.month), "%d-%02d", tc.year, tc.month)
	}
}

func TestGregorianWeekdayOfFirstDay(t *testing.T) {
	cal := NewGregorian(nil, time.Sunday)
	require.Equal(t, time.Thursday, cal.WeekdayOfFirstDayOfMonth(2024, time.February))
	require.Equal(t, time.Sunday, cal.WeekdayOfFirstDayOfMonth(2023, time.October))
	require.Equal(t, time.UTC, cal.Location())
}

func TestNewGregorianNormalizesFirstWeekday(t *testing.T) {
	require.Equal(t, time.Monday, NewGregorian(time.UTC, 8).FirstWeekday())
	require.Equal(t, time.Saturday, NewGregorian(time.UTC, -1).FirstWeekday())
}

func TestDateOfUsesLocation(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	instant := time.Date(2024, time.March, 31, 20, 0, 0, 0, time.UTC)

	require.Equal(t, NewDate(2024, time.March, 31), DateOf(instant, time.UTC))
	require.Equal(t, NewDate(2024, time.April, 1), DateOf(instant, seoul))

	cal := NewGregorian(seoul, time.Monday)
	require.Equal(t, Decomposed{Year: 2024, Month: time.April, Day: 1}, cal.Decompose(instant))
	require.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, seoul), cal.StartOfDay(instant))
	require.Equal(t, time.Date(2024, time.April, 1, 23, 59, 59, 999999999, seoul), cal.EndOfDay(instant))
}

func TestDateOrderingAndArithmetic(t *testing.T) {
	a := NewDate(2024, time.January, 31)
	b := NewDate(2024, time.February, 1)

	require.True(t, a.Before(b))
	require.True(t, b.After(a))
	require.Equal(t, -1, a.Compare(b))
	require.Equal(t, 1, b.Compare(a))
	require.Equal(t, 0, a.Compare(NewDate(2024, time.January, 31)))
	require.Equal(t, b, a.AddDays(1))
	require.Equal(t, 1, b.DaysSince(a))
	require.Equal(t, NewDate(2024, time.March, 2), a.AddMonths(1))
	require.Equal(t, NewDate(2024, time.January, 1), a.FirstOfMonth())
	require.Equal(t, NewDate(2024, time.March, 1), NewDate(2024, time.February, 30))
}

func TestDateTextRoundTrip(t *testing.T) {
	d := NewDate(2024, time.February, 29)
	require.Equal(t, "2024-02-29", d.String())

	raw, err := json.Marshal(struct {
		D Date `json:"d"`
	}{D: d})
	require.NoError(t, err)
	require.JSONEq(t, `{"d":"2024-02-29"}`, string(raw))

	var out struct {
		D Date `json:"d"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Equal(t, d, out.D)

	_, err = ParseDate("2024-13-01")
	require.Error(t, err)
}

func TestParseWeekday(t *testing.T) {
	wd, ok := ParseWeekday(" Sunday ")
	require.True(t, ok)
	require.Equal(t, time.Sunday, wd)

	_, ok = ParseWeekday("funday")
	require.False(t, ok)
}

func TestAllowedRange(t *testing.T) {
	loc := time.UTC
	r := NewAllowedRange(
		time.Date(2024, time.March, 1, 15, 30, 0, 0, loc),
		time.Date(2024, time.March, 10, 8, 0, 0, 0, loc),
		loc,
	)

	require.True(t, r.Contains(NewDate(2024, time.March, 1)))
	require.True(t, r.Contains(NewDate(2024, time.March, 10)))
	require.False(t, r.Contains(NewDate(2024, time.February, 29)))
	require.False(t, r.Contains(NewDate(2024, time.March, 11)))
	require.Equal(t, 10, r.Days())
	require.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, loc), r.StartTime(loc))
	require.Equal(t, time.Date(2024, time.March, 10, 23, 59, 59, 999999999, loc), r.EndTime(loc))

	empty := AllowedRange{Lower: NewDate(2024, time.March, 10), Upper: NewDate(2024, time.March, 1)}
	require.True(t, empty.IsEmpty())
	require.Zero(t, empty.Days())
	require.False(t, empty.Contains(NewDate(2024, time.March, 5)))
}
