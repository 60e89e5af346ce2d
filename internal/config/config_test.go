package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, "assistant.db", cfg.DB.Path)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Telegram.Enabled)
	assert.False(t, cfg.Telegram.TestMode)
	assert.Equal(t, 30*time.Second, cfg.Telegram.DedupeWindow)
	assert.Equal(t, time.Hour, cfg.CoolingCheckInterval)
	assert.Equal(t, 10*time.Second, cfg.Parser.Timeout)
	assert.Equal(t, int(time.Monday), cfg.WeeklyStats.Weekday)
	assert.Equal(t, 9, cfg.WeeklyStats.Hour)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("DB_PATH", "/tmp/other.db")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("PARSER_TIMEOUT", "3s")
	t.Setenv("WEEKLY_STATS_HOUR", "18")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, "/tmp/other.db", cfg.DB.Path)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 3*time.Second, cfg.Parser.Timeout)
	assert.Equal(t, 18, cfg.WeeklyStats.Hour)

	driver, dsn := cfg.DBSource()
	assert.Equal(t, "sqlite", driver)
	assert.Equal(t, "/tmp/other.db", dsn)
}

func TestLoad_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ADMIN_USER=from-dotenv\n"), 0o600))
	t.Setenv("ADMIN_USER", "")
	os.Unsetenv("ADMIN_USER")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Admin.User)
}

func TestLoad_MissingEnvFileIsFine(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assistant.yaml")
	content := "port: \"7070\"\ntelegram:\n  enabled: true\n  bot_token: abc\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("ASSISTANT_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
	assert.True(t, cfg.Telegram.Enabled)
	assert.Equal(t, "abc", cfg.Telegram.BotToken)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			DB:                   DBConfig{Driver: "sqlite", Path: "x.db"},
			CoolingCheckInterval: time.Hour,
			WeeklyStats:          WeeklyStatsConfig{Weekday: 1, Hour: 9},
		}
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.DB.Driver = "mysql" }},
		{"postgres without dsn", func(c *Config) { c.DB.Driver = "postgres" }},
		{"telegram without token", func(c *Config) { c.Telegram.Enabled = true }},
		{"bad weekday", func(c *Config) { c.WeeklyStats.Weekday = 7 }},
		{"bad hour", func(c *Config) { c.WeeklyStats.Hour = 24 }},
		{"zero interval", func(c *Config) { c.CoolingCheckInterval = 0 }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.modify(&c)
			assert.Error(t, c.Validate())
		})
	}
}
