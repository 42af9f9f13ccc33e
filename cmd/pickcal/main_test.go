package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pickcal/internal/calendar"
	"pickcal/internal/grid"
	"pickcal/internal/picker"
	"pickcal/internal/selection"
)

type markerFunc func(d calendar.Date) int

func (f markerFunc) Count(d calendar.Date) int { return f(d) }

func TestRenderMonth(t *testing.T) {
	cal := calendar.NewGregorian(time.UTC, time.Sunday)
	cells, err := grid.BuildMonthGrid(2024, time.February, cal)
	require.NoError(t, err)

	feb := func(d int) calendar.Date { return calendar.NewDate(2024, time.February, d) }
	params := calendar.Params{Calendar: cal, Today: feb(14)}
	snap := picker.Snapshot{
		Mode:    selection.Single,
		Allowed: calendar.AllowedRange{Lower: feb(3), Upper: feb(29)},
	}
	deco := picker.Decorations{
		Highlighter: picker.TodayHighlighter{Today: params.Today, Style: "today"},
		Marker: markerFunc(func(d calendar.Date) int {
			if d == feb(20) {
				return 2
			}
			return 0
		}),
	}

	var buf bytes.Buffer
	headers := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	renderMonth(&buf, "February 2024", headers, picker.Annotate(cells, snap, params, deco))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, []string{
		strings.Repeat(" ", 11) + "February 2024",
		" Sun  Mon  Tue  Wed  Thu  Fri  Sat",
		strings.Repeat(" ", 20) + "   1-   2-   3",
		"   4    5    6    7    8    9   10",
		"  11   12   13   14<  15   16   17",
		"  18   19   20*  21   22   23   24",
		"  25   26   27   28   29",
	}, lines)
}

func TestReplay(t *testing.T) {
	march := calendar.AllowedRange{
		Lower: calendar.NewDate(2024, time.March, 1),
		Upper: calendar.NewDate(2024, time.March, 31),
	}
	sess := picker.NewSession(picker.Options{Mode: selection.Range, Allowed: march})

	var buf bytes.Buffer
	err := replay(&buf, sess, []string{"2024-03-10", "2024-03-05", "undo", "redo", "2024-04-01", "reset"})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Equal(t, []string{
		"mode=range allowed=2024-03-01..2024-03-31 repetition=false",
		"2024-03-10 -> one [2024-03-10]",
		"2024-03-05 -> pair [2024-03-05 2024-03-10]",
		"undo       -> one [2024-03-10]",
		"redo       -> pair [2024-03-05 2024-03-10]",
		"2024-04-01 -> pair [2024-03-05 2024-03-10] (unchanged)",
		"reset      -> empty []",
	}, lines)

	err = replay(&buf, sess, []string{"tomorrow"})
	require.Error(t, err)
}

func TestReplayMultiWithRepetition(t *testing.T) {
	march := calendar.AllowedRange{
		Lower: calendar.NewDate(2024, time.March, 1),
		Upper: calendar.NewDate(2024, time.March, 31),
	}
	sess := picker.NewSession(picker.Options{Mode: selection.Multi, Allowed: march, AllowsRepetition: true})

	var buf bytes.Buffer
	require.NoError(t, replay(&buf, sess, []string{"2024-03-02", "2024-03-02", "2024-03-01"}))
	require.Contains(t, buf.String(), "2024-03-01 -> many [2024-03-02 2024-03-02 2024-03-01]")
}

func TestGridCommand(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--config", cfgPath, "grid", "--year", "2024", "--month", "2", "--week-start", "monday"})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(out.String(), "\n")
	require.Equal(t, " Mon  Tue  Wed  Thu  Fri  Sat  Sun", lines[1])
	require.Equal(t, strings.Repeat(" ", 15)+"   1-   2-   3-   4-", lines[2])
	require.FileExists(t, cfgPath)
}

func TestGridCommandRejectsBadInput(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")

	for _, args := range [][]string{
		{"--config", cfgPath, "grid", "--year", "2024", "--month", "13"},
		{"--config", cfgPath, "grid", "--week-start", "someday"},
	} {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetArgs(args)
		require.Error(t, cmd.Execute(), args)
	}
}

func TestGridCommandEmptyRange(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	cfgYAML := "timezone: UTC\nmode: range\nrange:\n  start: \"2024-03-10\"\n  end: \"2024-02-01\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o600))

	for _, args := range [][]string{
		{"--config", cfgPath, "grid", "--all"},
		{"--config", cfgPath, "grid", "--all", "--marks"},
	} {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(args)
		require.NotPanics(t, func() { require.NoError(t, cmd.Execute(), args) })
		require.Empty(t, out.String(), args)
	}
}
