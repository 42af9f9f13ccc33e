package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"pickcal/internal/calendar"
	"pickcal/internal/grid"
	"pickcal/internal/ics"
	"pickcal/internal/locale"
	appLog "pickcal/internal/log"
	"pickcal/internal/picker"
)

// cellWidth is the printed width of one grid column.
const cellWidth = 5

func newGridCmd(root *rootFlags) *cobra.Command {
	var (
		year      int
		month     int
		weekStart string
		all       bool
		withMarks bool
	)

	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Print month grids as text",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(root)
			if err != nil {
				return err
			}
			if weekStart != "" {
				if _, ok := calendar.ParseWeekday(weekStart); !ok {
					return fmt.Errorf("invalid --week-start %q", weekStart)
				}
				cfg.WeekStart = weekStart
				cfg.Normalize()
			}

			cal := cfg.Calendar()
			params := calendar.Params{Calendar: cal, Today: cal.DateOf(time.Now())}
			sym := locale.New(locale.Parse(cfg.Locale))
			allowed, err := cfg.AllowedRange(params.Today)
			if err != nil {
				return err
			}

			var months []grid.MonthGrid
			if all {
				months, err = grid.BuildRangeGrids(allowed, cal)
			} else {
				y, m := params.Today.Year(), params.Today.Month()
				if year != 0 {
					y = year
				}
				if month != 0 {
					m = time.Month(month)
				}
				var cells []grid.DayCell
				cells, err = grid.BuildMonthGrid(y, m, cal)
				months = []grid.MonthGrid{{Year: y, Month: m, ID: grid.MonthID(y, m), Cells: cells}}
			}
			if err != nil {
				return err
			}
			if len(months) == 0 {
				appLog.Info("allowed range is empty, no months to render",
					"range_start", cfg.Range.Start, "range_end", cfg.Range.End)
				return nil
			}

			deco := picker.Decorations{Highlighter: picker.TodayHighlighter{Today: params.Today, Style: "today"}}
			if withMarks {
				loc := cfg.Location()
				first, last := months[0], months[len(months)-1]
				window := calendar.AllowedRange{
					Lower: calendar.NewDate(first.Year, first.Month, 1),
					Upper: calendar.NewDate(last.Year, last.Month, 1).AddMonths(1).AddDays(-1),
				}
				marks, err := ics.LoadMarks(cmd.Context(), ics.NewFetcher("./cache/ics-cache"), ics.SourcesFromConfig(cfg.ICS), ics.ExpandConfig{
					DisplayLocation: loc,
					RangeStart:      window.StartTime(loc),
					RangeEnd:        window.EndTime(loc),
				})
				if err != nil {
					return err
				}
				deco.Marker = marks
			}

			snap := picker.Snapshot{Mode: cfg.SelectionMode(), Allowed: allowed}
			out := cmd.OutOrStdout()
			for i, mg := range months {
				if i > 0 {
					fmt.Fprintln(out)
				}
				days := picker.Annotate(mg.Cells, snap, params, deco)
				renderMonth(out, sym.MonthTitle(mg.Year, mg.Month), sym.WeekdayHeaders(cal.FirstWeekday()), days)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&year, "year", 0, "Year to print (default: current year)")
	cmd.Flags().IntVar(&month, "month", 0, "Month to print, 1-12 (default: current month)")
	cmd.Flags().StringVar(&weekStart, "week-start", "", "First weekday column, e.g. monday (overrides config)")
	cmd.Flags().BoolVar(&all, "all", false, "Print every month of the configured allowed range")
	cmd.Flags().BoolVar(&withMarks, "marks", false, "Fetch configured ICS feeds and flag days with events")
	return cmd
}

// renderMonth prints a title line, the weekday header row and one line per
// week. Day suffixes: '*' has events, '<' is today, '-' is outside the
// allowed range.
func renderMonth(w io.Writer, title string, headers []string, days []picker.DayView) {
	width := cellWidth * grid.Columns
	pad := (width - len([]rune(title))) / 2
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintln(w, strings.Repeat(" ", pad)+title)

	var b strings.Builder
	for _, h := range headers {
		r := []rune(h)
		if len(r) > cellWidth-1 {
			r = r[:cellWidth-1]
		}
		fmt.Fprintf(&b, "%*s ", cellWidth-1, string(r))
	}
	fmt.Fprintln(w, strings.TrimRight(b.String(), " "))

	for row := 0; row*grid.Columns < len(days); row++ {
		b.Reset()
		for _, d := range days[row*grid.Columns : (row+1)*grid.Columns] {
			if d.Filler {
				b.WriteString(strings.Repeat(" ", cellWidth))
				continue
			}
			fmt.Fprintf(&b, "%*d%c", cellWidth-1, d.Day, daySuffix(d))
		}
		fmt.Fprintln(w, strings.TrimRight(b.String(), " "))
	}
}

func daySuffix(d picker.DayView) rune {
	switch {
	case d.Marks > 0:
		return '*'
	case d.Style != "":
		return '<'
	case !d.Available:
		return '-'
	default:
		return ' '
	}
}
