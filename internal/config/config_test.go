package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/lexigo/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// inTempDir runs the test from an empty directory so no stray lexigo.yaml or .env is picked up
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, database.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "data/lexigo.db", cfg.Storage.DSN)
	assert.Equal(t, 5, cfg.Lesson.ReviewLimit)
	assert.InDelta(t, 0.4, cfg.Lesson.ReviewRatio, 1e-9)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 8, cfg.Reminders.StartHour)
	assert.Equal(t, 22, cfg.Reminders.EndHour)
	assert.Equal(t, time.Hour, cfg.Reminders.Interval)
	assert.Equal(t, 60*time.Second, cfg.Gemini.Timeout)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := inTempDir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  driver: memory
gemini:
  api_key: from-file
  timeout: 15s
lesson:
  review_limit: 3
  fetch_images: true
server:
  addr: ":9000"
timezone: UTC
`), 0600))

	t.Setenv("LEXIGO_GEMINI_API_KEY", "from-env")
	t.Setenv("LEXIGO_LESSON_IMAGE_CONCURRENCY", "2")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, database.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "from-env", cfg.Gemini.APIKey)
	assert.Equal(t, 15*time.Second, cfg.Gemini.Timeout)
	assert.Equal(t, 3, cfg.Lesson.ReviewLimit)
	assert.True(t, cfg.Lesson.FetchImages)
	assert.Equal(t, 2, cfg.Lesson.ImageConcurrency)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "UTC", cfg.Timezone)
}

func TestLoadDotEnv(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LEXIGO_TELEGRAM_TOKEN=abc\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("LEXIGO_TELEGRAM_TOKEN") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "abc", cfg.Telegram.Token)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	dir := inTempDir(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "gemini.api_key", envKey("LEXIGO_GEMINI_API_KEY"))
	assert.Equal(t, "storage.dsn", envKey("LEXIGO_STORAGE_DSN"))
	assert.Equal(t, "timezone", envKey("LEXIGO_TIMEZONE"))
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := Config{}
		applyDefaults(&cfg)
		return cfg
	}

	cfg := valid()
	require.NoError(t, cfg.Validate())

	cases := map[string]func(*Config){
		"driver":       func(c *Config) { c.Storage.Driver = "mongo" },
		"postgres dsn": func(c *Config) { c.Storage.Driver = database.DriverPostgres; c.Storage.DSN = "" },
		"ratio":        func(c *Config) { c.Lesson.ReviewRatio = 1.5 },
		"hours":        func(c *Config) { c.Reminders.StartHour = 23; c.Reminders.EndHour = 7 },
		"hour range":   func(c *Config) { c.Reminders.EndHour = 24 },
		"timezone":     func(c *Config) { c.Timezone = "Mars/Olympus" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
