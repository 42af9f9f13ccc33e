package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLevelsAndFields(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(LevelInfo)
	t.Cleanup(func() { SetLevel(LevelInfo) })

	Debug("hidden", "k", "v")
	require.Empty(t, buf.String())

	Info("tap applied", "date", "2024-03-01", "changed", true, 42, "skipped", "dangling")
	line := buf.String()
	require.Contains(t, line, "tap applied")
	require.Contains(t, line, "date=2024-03-01")
	require.Contains(t, line, "changed=true")
	require.NotContains(t, line, "skipped")
	require.NotContains(t, line, "dangling")

	buf.Reset()
	SetLevel(LevelError)
	Info("quiet")
	require.Empty(t, buf.String())

	Error("fetch failed", errors.New("boom"), "id", "holidays")
	require.Contains(t, buf.String(), "boom")
	require.Contains(t, buf.String(), "id=holidays")
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, LevelDebug, ParseLevel("debug"))
	require.Equal(t, LevelError, ParseLevel(" Error "))
	require.Equal(t, LevelInfo, ParseLevel("verbose"))
}
