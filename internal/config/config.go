// Package config loads LexiGo configuration.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (LEXIGO_GEMINI_API_KEY, LEXIGO_STORAGE_DSN, ...), including a .env file
//  2. YAML config file (lexigo.yaml by default)
//  3. Hardcoded defaults
//
// Environment variables drop the LEXIGO_ prefix and split on the first underscore:
//
//	LEXIGO_GEMINI_API_KEY      -> gemini.api_key
//	LEXIGO_LESSON_REVIEW_LIMIT -> lesson.review_limit
//	LEXIGO_TIMEZONE            -> timezone
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/example/lexigo/internal/ai"
	"github.com/example/lexigo/internal/api"
	"github.com/example/lexigo/internal/bot"
	"github.com/example/lexigo/internal/database"
	"github.com/example/lexigo/internal/lesson"
	"github.com/example/lexigo/internal/logging"
	"github.com/example/lexigo/internal/scheduler"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	// DefaultPath is the config file read when no --config flag is given
	DefaultPath = "lexigo.yaml"
	// EnvPrefix prefixes every environment override
	EnvPrefix = "LEXIGO_"

	maxConfigFileSize = 1024 * 1024
)

// Config is the complete application configuration
type Config struct {
	Storage   database.Config  `koanf:"storage"`
	Log       logging.Config   `koanf:"log"`
	Gemini    ai.Config        `koanf:"gemini"`
	Lesson    lesson.Config    `koanf:"lesson"`
	Server    api.Config       `koanf:"server"`
	Reminders scheduler.Config `koanf:"reminders"`
	Telegram  bot.Config       `koanf:"telegram"`
	Timezone  string           `koanf:"timezone"`
}

// Load reads .env, the YAML file at path and LEXIGO_ environment variables.
// A missing file is not an error; an explicitly named one must exist.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	content, err := readConfigFile(path)
	switch {
	case err == nil:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, err
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}

// envKey maps LEXIGO_SECTION_FIELD_NAME to section.field_name
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// applyDefaults sets default values for missing configuration fields
func applyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = database.DriverSQLite
	}
	if cfg.Storage.DSN == "" && cfg.Storage.Driver == database.DriverSQLite {
		cfg.Storage.DSN = "data/lexigo.db"
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}

	if cfg.Gemini.BaseURL == "" {
		cfg.Gemini.BaseURL = ai.DefaultBaseURL
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = ai.DefaultTextModel
	}
	if cfg.Gemini.ImageModel == "" {
		cfg.Gemini.ImageModel = ai.DefaultImageModel
	}
	if cfg.Gemini.AudioModel == "" {
		cfg.Gemini.AudioModel = ai.DefaultAudioModel
	}
	if cfg.Gemini.Timeout == 0 {
		cfg.Gemini.Timeout = 60 * time.Second
	}
	if cfg.Gemini.RequestsPerMinute == 0 {
		cfg.Gemini.RequestsPerMinute = 30
	}

	if cfg.Lesson.ReviewLimit == 0 {
		cfg.Lesson.ReviewLimit = lesson.ReviewQueueLimit
	}
	if cfg.Lesson.ReviewRatio == 0 {
		cfg.Lesson.ReviewRatio = lesson.ReviewRatio
	}
	if cfg.Lesson.ImageConcurrency == 0 {
		cfg.Lesson.ImageConcurrency = 4
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Reminders.Interval == 0 {
		cfg.Reminders.Interval = time.Hour
	}
	if cfg.Reminders.StartHour == 0 && cfg.Reminders.EndHour == 0 {
		cfg.Reminders.StartHour = scheduler.DefaultNotificationStartHour
		cfg.Reminders.EndHour = scheduler.DefaultNotificationEndHour
	}

	if cfg.Timezone == "" {
		cfg.Timezone = "Local"
	}
}

// Validate checks the configuration for values the application cannot run with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case database.DriverSQLite, database.DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for driver %s", c.Storage.Driver)
		}
	case database.DriverMemory:
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}

	if c.Lesson.ReviewLimit < 0 {
		return fmt.Errorf("lesson.review_limit must not be negative, got %d", c.Lesson.ReviewLimit)
	}
	if c.Lesson.ReviewRatio < 0 || c.Lesson.ReviewRatio > 1 {
		return fmt.Errorf("lesson.review_ratio must be between 0 and 1, got %v", c.Lesson.ReviewRatio)
	}
	if c.Lesson.ImageConcurrency < 1 {
		return fmt.Errorf("lesson.image_concurrency must be positive, got %d", c.Lesson.ImageConcurrency)
	}

	if c.Reminders.StartHour < 0 || c.Reminders.StartHour > 23 || c.Reminders.EndHour < 0 || c.Reminders.EndHour > 23 {
		return fmt.Errorf("reminder hours must be within 0-23, got %d-%d", c.Reminders.StartHour, c.Reminders.EndHour)
	}
	if c.Reminders.StartHour > c.Reminders.EndHour {
		return fmt.Errorf("reminders.start_hour %d is after reminders.end_hour %d", c.Reminders.StartHour, c.Reminders.EndHour)
	}

	if c.Gemini.Timeout < 0 {
		return fmt.Errorf("gemini.timeout must not be negative")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}
