package selection

import (
	"strings"

	"github.com/pkg/errors"
)

// Mode decides how taps evolve a selection. It is fixed for one picker
// session; switching modes starts over from an empty selection.
type Mode int

const (
	Single Mode = iota
	Range
	Multi
)

var ErrUnknownMode = errors.New("selection: unknown mode")

func (m Mode) String() string {
	switch m {
	case Single:
		return "single"
	case Range:
		return "range"
	case Multi:
		return "multi"
	default:
		return "unknown"
	}
}

// ParseMode accepts "single", "range" or "multi" (case-insensitive).
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return Single, nil
	case "range":
		return Range, nil
	case "multi":
		return Multi, nil
	default:
		return Single, errors.Wrapf(ErrUnknownMode, "%q", s)
	}
}

func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Mode) UnmarshalText(data []byte) error {
	parsed, err := ParseMode(string(data))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
