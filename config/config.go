/*
Package config loads process configuration and the HR settings file.

PROCESS CONFIGURATION:
  Read from the environment after loading an optional .env file:

    APP_PORT                8080
    APP_ENV                 development | production
    LOG_LEVEL               debug | info | warn | error
    DB_PATH                 overtime.db
    OVERTIME_SETTINGS_FILE  path to the HR settings TOML (optional)
    EDIT_CACHE_TTL          24h
    CACHE_SWEEP_INTERVAL    10m
    CORS_ORIGINS            comma separated, default "*"

HR SETTINGS FILE:
  enable_overtime_tracking    = true
  standard_hours_per_month    = 225
  weekday_overtime_multiplier = 1.5
  holiday_overtime_multiplier = 2
  sunday_overtime_multiplier  = 2
  overtime_variance_seconds   = 3
  weekday_overtime_component  = "Overtime Pay - Weekday"
  holiday_overtime_component  = "Overtime Pay - Holiday"

  Missing keys take their defaults. A missing file yields the defaults.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/warp/overtime-engine/overtime"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Cache    CacheConfig
	CORS     CORSConfig

	SettingsFile string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
}

type DatabaseConfig struct {
	Path string
}

// CacheConfig controls the operator edit cache.
type CacheConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

type CORSConfig struct {
	Origins []string
}

// IsProduction reports whether the process runs in production mode.
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	port, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	ttl, err := time.ParseDuration(getEnv("EDIT_CACHE_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid EDIT_CACHE_TTL: %w", err)
	}
	sweep, err := time.ParseDuration(getEnv("CACHE_SWEEP_INTERVAL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_SWEEP_INTERVAL: %w", err)
	}

	return &Config{
		App: AppConfig{
			Port:     port,
			Env:      getEnv("APP_ENV", "development"),
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "overtime.db"),
		},
		Cache: CacheConfig{
			TTL:           ttl,
			SweepInterval: sweep,
		},
		CORS: CORSConfig{
			Origins: splitList(getEnv("CORS_ORIGINS", "*")),
		},
		SettingsFile: os.Getenv("OVERTIME_SETTINGS_FILE"),
	}, nil
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func (c *Config) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(c.App.LogLevel)}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// =============================================================================
// HR SETTINGS FILE
// =============================================================================

// LoadSettings decodes the HR settings file. An empty path or a missing file
// yields the provisioning defaults. Unknown keys are rejected.
func LoadSettings(path string) (overtime.Settings, error) {
	if path == "" {
		return overtime.DefaultSettings().WithDefaultComponents(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return overtime.DefaultSettings().WithDefaultComponents(), nil
	}

	s := overtime.Settings{Enabled: true}
	md, err := toml.DecodeFile(path, &s)
	if err != nil {
		return overtime.Settings{}, fmt.Errorf("decode settings %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return overtime.Settings{}, fmt.Errorf("unknown settings keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := s.Validate(); err != nil {
		return overtime.Settings{}, err
	}
	s = s.WithDefaults()
	if !md.IsDefined("weekday_overtime_component") {
		s.WeekdayComponent = overtime.DefaultWeekdayComponent
	}
	if !md.IsDefined("holiday_overtime_component") {
		s.HolidayComponent = overtime.DefaultHolidayComponent
	}
	return s, nil
}

// SaveSettings writes the HR settings to path in TOML.
func SaveSettings(path string, s overtime.Settings) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(s)
}

// Helper functions

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
