package locale

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultFirstWeekday(t *testing.T) {
	cases := []struct {
		tag  string
		want time.Weekday
	}{
		{"en-US", time.Sunday},
		{"en-GB", time.Monday},
		{"ko-KR", time.Sunday},
		{"de", time.Monday},
		{"ar-EG", time.Saturday},
		{"", time.Sunday},
		{"not a tag", time.Sunday},
	}
	for _, tc := range cases {
		t.Run(tc.tag, func(t *testing.T) {
			require.Equal(t, tc.want, DefaultFirstWeekday(Parse(tc.tag)))
		})
	}
}

func TestWeekdayHeadersRotateToFirstWeekday(t *testing.T) {
	s := New(Parse("en-US"))
	require.Equal(t, "en", s.Locale())

	require.Equal(t,
		[]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"},
		s.WeekdayHeaders(time.Sunday),
	)
	require.Equal(t,
		[]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
		s.WeekdayHeaders(time.Monday),
	)
}

func TestMonthTitle(t *testing.T) {
	require.Equal(t, "February 2024", New(Parse("en")).MonthTitle(2024, time.February))
	require.Equal(t, "Februar 2024", New(Parse("de-AT")).MonthTitle(2024, time.February))
}

func TestUnsupportedLanguageFallsBackToEnglish(t *testing.T) {
	s := New(Parse("sw-KE"))
	require.Equal(t, "en", s.Locale())
	require.Equal(t, "January", s.MonthName(time.January))
}
