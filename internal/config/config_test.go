package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/job-alerts/internal/core"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `
sources: [acme, "lever:globex"]
keywords: [software, backend]
store:
  driver: memory
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"acme", "lever:globex"}, cfg.Sources)
	assert.Equal(t, 30*time.Minute, cfg.FreshnessWindow.Duration)
	assert.Equal(t, 48*time.Hour, cfg.DedupTTL.Duration)
	assert.Equal(t, "*/30 * * * *", cfg.Schedule)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, core.DefaultCountryMarkers, cfg.CountryMarkers)
	assert.Equal(t, core.DefaultZoneNames, cfg.Zones)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLoadDurations(t *testing.T) {
	path := writeConfig(t, `
sources: [acme]
keywords: [go]
freshness_window: 6h
dedup_ttl: 72h
store: {driver: sqlite3, dsn: "file:alerts.db"}
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6*time.Hour, cfg.FreshnessWindow.Duration)
	assert.Equal(t, 72*time.Hour, cfg.DedupTTL.Duration)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, "sources: [a]\nkeywords: [b]\nfreshness_window: soon\n")
	_, err := Load(path)
	assert.ErrorContains(t, err, "invalid duration")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg := Config{Sources: []string{"acme"}, Keywords: []string{"go"}, Store: Store{Driver: "memory"}}
		applyDefaults(&cfg)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"no sources", func(c *Config) { c.Sources = nil }, false},
		{"no keywords", func(c *Config) { c.Keywords = nil }, false},
		{"ttl not above window", func(c *Config) { c.DedupTTL.Duration = c.FreshnessWindow.Duration }, false},
		{"bad schedule", func(c *Config) { c.Schedule = "sometimes" }, false},
		{"bad zone", func(c *Config) { c.Zones = []string{"Nowhere/Town"} }, false},
		{"bad driver", func(c *Config) { c.Store.Driver = "mongo" }, false},
		{"sqlite without dsn", func(c *Config) { c.Store = Store{Driver: "sqlite3"} }, false},
		{"telegram without chat", func(c *Config) { c.Telegram.Token = "t" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := validate(cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestEnvironmentOverrides(t *testing.T) {
	env := map[string]string{
		"COMPANY_TOKENS":   "acme, globex,,",
		"KEYWORDS":         "Software,Platform",
		"DATABASE_URL":     "postgres://db/alerts",
		"PORT":             "9090",
		"SMTP_HOST":        "smtp.example.com",
		"SMTP_PORT":        "465",
		"EMAIL_TO":         "a@example.com,b@example.com",
		"TELEGRAM_CHAT_ID": "-100123",
		"TWILIO_SID":       "AC1",
		"MY_PHONE":         "+15550002222",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	var cfg Config
	applyEnvironmentOverrides(&cfg, lookup)

	assert.Equal(t, []string{"acme", "globex"}, cfg.Sources)
	assert.Equal(t, []string{"Software", "Platform"}, cfg.Keywords)
	assert.Equal(t, "postgres://db/alerts", cfg.Store.DSN)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 465, cfg.Email.Port)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, cfg.Email.To)
	assert.EqualValues(t, -100123, cfg.Telegram.ChatID)
	assert.True(t, cfg.Email.Enabled())
	assert.True(t, cfg.Twilio.Enabled())
	assert.False(t, cfg.Telegram.Enabled())
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("COMPANY_TOKENS", "acme")
	t.Setenv("KEYWORDS", "go")
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, cfg.Sources)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestDefaultsDoNotAliasCoreSlices(t *testing.T) {
	var cfg Config
	applyDefaults(&cfg)
	cfg.Zones[0] = "UTC"
	cfg.CountryMarkers[0] = "canada"

	assert.Equal(t, "America/New_York", core.DefaultZoneNames[0])
	assert.Equal(t, "united states", core.DefaultCountryMarkers[0])
}
