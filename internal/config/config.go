package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/caarlos0/env/v11"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"pickcal/internal/calendar"
	"pickcal/internal/locale"
	"pickcal/internal/selection"
)

// EnvPrefix prefixes every environment override, e.g. PICKCAL_LISTEN.
const EnvPrefix = "PICKCAL_"

// ICSConfig describes a calendar subscription whose events are shown as
// marks on picker days.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// RangeConfig is the allowed selection range as "YYYY-MM-DD" strings.
type RangeConfig struct {
	// Start is the first selectable day. Empty means today.
	Start string `yaml:"start" json:"start" env:"START"`
	// End is the last selectable day. Empty means Start + HorizonDays.
	End string `yaml:"end" json:"end" env:"END"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen" env:"LISTEN"`

	// Timezone is the IANA timezone the calendar is evaluated in.
	Timezone string `yaml:"timezone" json:"timezone" env:"TIMEZONE"`

	// Locale is a BCP 47 tag used for weekday/month names and, when
	// WeekStart is empty, for the first day of the week.
	Locale string `yaml:"locale" json:"locale" env:"LOCALE"`

	// WeekStart is the first column of the month grid: "sunday" ..
	// "saturday", or empty to follow Locale.
	WeekStart string `yaml:"week_start" json:"week_start" env:"WEEK_START"`

	// Mode is the selection mode: "single", "range" or "multi".
	Mode string `yaml:"mode" json:"mode" env:"MODE"`

	// AllowsRepetition lets multi mode count repeated taps of a day instead
	// of toggling it off.
	AllowsRepetition bool `yaml:"allows_repetition" json:"allows_repetition" env:"ALLOWS_REPETITION"`

	Range RangeConfig `yaml:"range" json:"range" envPrefix:"RANGE_"`

	// HorizonDays sizes the allowed range when Range.End is empty.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days" env:"HORIZON_DAYS"`

	// TodayStyle is the style tag attached to today's cell. Empty disables it.
	TodayStyle string `yaml:"today_style" json:"today_style" env:"TODAY_STYLE"`

	// RefreshCron is the cron schedule for refreshing ICS marks.
	RefreshCron string `yaml:"refresh" json:"refresh" env:"REFRESH"`

	// ICS is the list of subscribed ICS sources.
	ICS []ICSConfig `yaml:"ics" json:"ics" env:"-"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty" env:"-"`

	// LogLevel is "debug", "info" or "error".
	LogLevel string `yaml:"log_level" json:"log_level" env:"LOG_LEVEL"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "UTC",
		Locale:      "en-US",
		WeekStart:   "",
		Mode:        "single",
		HorizonDays: 365,
		TodayStyle:  "accent",
		RefreshCron: "*/15 * * * *",
		ICS:         []ICSConfig{},
		BasicAuth:   nil,
		LogLevel:    "info",
	}
}

// Normalize fills in missing/zero values and replaces unknown enum values
// with defaults so that partially-filled configs still behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Locale == "" {
		c.Locale = "en-US"
	}
	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	if _, ok := calendar.ParseWeekday(c.WeekStart); !ok {
		c.WeekStart = ""
	}
	if m, err := selection.ParseMode(c.Mode); err != nil {
		c.Mode = "single"
	} else {
		c.Mode = m.String()
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 365
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	switch c.LogLevel {
	case "debug", "info", "error":
	default:
		c.LogLevel = "info"
	}
}

// Validate checks the fields Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return pkgerrors.Wrapf(err, "config: timezone %q", c.Timezone)
	}
	if c.Range.Start != "" {
		if _, err := calendar.ParseDate(c.Range.Start); err != nil {
			return pkgerrors.Wrap(err, "config: range.start")
		}
	}
	if c.Range.End != "" {
		if _, err := calendar.ParseDate(c.Range.End); err != nil {
			return pkgerrors.Wrap(err, "config: range.end")
		}
	}
	return nil
}

// ApplyEnv overrides fields from PICKCAL_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return pkgerrors.Wrap(err, "config: environment")
	}
	return nil
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FirstWeekday is WeekStart when set, else the locale's customary first day.
func (c *Config) FirstWeekday() time.Weekday {
	if wd, ok := calendar.ParseWeekday(c.WeekStart); ok {
		return wd
	}
	return locale.DefaultFirstWeekday(locale.Parse(c.Locale))
}

// SelectionMode parses Mode, defaulting to single.
func (c *Config) SelectionMode() selection.Mode {
	m, err := selection.ParseMode(c.Mode)
	if err != nil {
		return selection.Single
	}
	return m
}

// Calendar builds the Gregorian calendar described by the config.
func (c *Config) Calendar() *calendar.Gregorian {
	return calendar.NewGregorian(c.Location(), c.FirstWeekday())
}

// AllowedRange resolves the configured range; today fills in a missing
// start, HorizonDays a missing end.
func (c *Config) AllowedRange(today calendar.Date) (calendar.AllowedRange, error) {
	lower := today
	if c.Range.Start != "" {
		d, err := calendar.ParseDate(c.Range.Start)
		if err != nil {
			return calendar.AllowedRange{}, pkgerrors.Wrap(err, "config: range.start")
		}
		lower = d
	}

	horizon := c.HorizonDays
	if horizon <= 0 {
		horizon = 365
	}
	upper := lower.AddDays(horizon - 1)
	if c.Range.End != "" {
		d, err := calendar.ParseDate(c.Range.End)
		if err != nil {
			return calendar.AllowedRange{}, pkgerrors.Wrap(err, "config: range.end")
		}
		upper = d
	}

	return calendar.AllowedRange{Lower: lower, Upper: upper}, nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - If the file exists, read YAML and unmarshal into Config
//   - Environment overrides are applied, then defaults normalized
//   - The result is validated
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// First run: create default config file.
		if err := Save(path, cfg); err != nil {
			// Even if save fails, return cfg with error so caller can decide.
			return cfg, err
		}
	case err != nil:
		return nil, pkgerrors.Wrapf(err, "config: read %s", path)
	default:
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, pkgerrors.Wrapf(err, "config: parse %s", path)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".pickcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
