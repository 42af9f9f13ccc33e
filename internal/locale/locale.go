// Package locale supplies the locale-dependent pieces of a month view: the
// default first day of the week and the weekday and month names.
package locale

import (
	"fmt"
	"time"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/de"
	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/es"
	"github.com/go-playground/locales/fr"
	"github.com/go-playground/locales/ja"
	"github.com/go-playground/locales/ko"
	"github.com/go-playground/locales/ru"
	"github.com/go-playground/locales/zh"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// supported is ordered like translators; the matcher returns an index into it.
var supported = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
	language.Korean,
	language.Japanese,
	language.Russian,
	language.Chinese,
}

var translators = []func() locales.Translator{
	en.New,
	de.New,
	fr.New,
	es.New,
	ko.New,
	ja.New,
	ru.New,
	zh.New,
}

var matcher = language.NewMatcher(supported)

// Regions whose weeks do not start on Monday (subset of CLDR weekData).
var firstDayByRegion = map[string]time.Weekday{
	"US": time.Sunday,
	"CA": time.Sunday,
	"JP": time.Sunday,
	"KR": time.Sunday,
	"BR": time.Sunday,
	"MX": time.Sunday,
	"IL": time.Sunday,
	"PH": time.Sunday,
	"TW": time.Sunday,
	"HK": time.Sunday,
	"IN": time.Sunday,
	"ZA": time.Sunday,
	"EG": time.Saturday,
	"SA": time.Saturday,
	"AE": time.Saturday,
}

// Parse parses a BCP 47 tag such as "en-US" or "ko", falling back to
// English for empty or malformed input.
func Parse(tag string) language.Tag {
	if tag == "" {
		return language.English
	}
	t, err := language.Parse(tag)
	if err != nil {
		return language.English
	}
	return t
}

// DefaultFirstWeekday returns the customary first day of the week for tag's
// region. A tag without an explicit region uses its most likely one ("en" is
// treated as "en-US", "de" as "de-DE").
func DefaultFirstWeekday(tag language.Tag) time.Weekday {
	region, _ := tag.Region()
	if wd, ok := firstDayByRegion[region.String()]; ok {
		return wd
	}
	return time.Monday
}

// Symbols renders weekday and month names for one locale.
type Symbols struct {
	tag language.Tag
	tr  locales.Translator
}

// New returns Symbols for the closest supported language to tag.
func New(tag language.Tag) *Symbols {
	_, idx, _ := matcher.Match(tag)
	return &Symbols{tag: tag, tr: translators[idx]()}
}

func (s *Symbols) Tag() language.Tag { return s.tag }

// Locale returns the name of the translator in use, e.g. "en" or "ko".
func (s *Symbols) Locale() string { return s.tr.Locale() }

// FirstWeekday is DefaultFirstWeekday for the symbols' tag.
func (s *Symbols) FirstWeekday() time.Weekday { return DefaultFirstWeekday(s.tag) }

// WeekdayHeaders returns the seven abbreviated weekday names in column
// order for a week starting on first.
func (s *Symbols) WeekdayHeaders(first time.Weekday) []string {
	caser := cases.Title(s.tag)
	out := make([]string, 7)
	for i := range out {
		wd := time.Weekday((int(first) + i) % 7)
		out[i] = caser.String(s.tr.WeekdayAbbreviated(wd))
	}
	return out
}

// MonthName returns the full, title-cased name of month.
func (s *Symbols) MonthName(month time.Month) string {
	return cases.Title(s.tag).String(s.tr.MonthWide(month))
}

// MonthTitle returns the heading shown above a month grid, e.g. "March 2024".
func (s *Symbols) MonthTitle(year int, month time.Month) string {
	return fmt.Sprintf("%s %d", s.MonthName(month), year)
}
