package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		key        string
		envValue   string
		defaultVal string
		expected   string
	}{
		{"uses env value", "TEST_VAR_1", "hello", "default", "hello"},
		{"uses default when empty", "TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.envValue)
			assert.Equal(t, tc.expected, getEnvOrDefault(tc.key, tc.defaultVal))
		})
	}
}

func TestGetEnvAsIntOrDefault(t *testing.T) {
	tests := []struct {
		name       string
		envValue   string
		defaultVal int
		expected   int
	}{
		{"parses integer", "42", 10, 42},
		{"uses default for empty", "", 10, 10},
		{"uses default for non-numeric", "abc", 10, 10},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("TEST_INT", tc.envValue)
			assert.Equal(t, tc.expected, getEnvAsIntOrDefault("TEST_INT", tc.defaultVal))
		})
	}
}

func TestGetEnvAsDurationOrDefault(t *testing.T) {
	t.Setenv("TEST_DURATION", "90s")
	assert.Equal(t, 90*time.Second, getEnvAsDurationOrDefault("TEST_DURATION", time.Minute))

	t.Setenv("TEST_DURATION", "soon")
	assert.Equal(t, time.Minute, getEnvAsDurationOrDefault("TEST_DURATION", time.Minute))
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"ENV", "DB_TYPE", "DATABASE_PATH", "HTTP_ADDR", "HEART_CHECK_INTERVAL", "TELEGRAM_OWNER_ID", "TIMEZONE"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, DBSQLite, cfg.DBType)
	assert.Equal(t, "data/reader.db", cfg.DatabasePath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, time.Minute, cfg.HeartCheckInterval)
	assert.Equal(t, time.Hour, cfg.MembershipCheckInterval)
	assert.Equal(t, int64(0), cfg.TelegramOwnerID)
	assert.True(t, cfg.IsDevelopment())
	require.NoError(t, cfg.Validate())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_TYPE", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("TELEGRAM_OWNER_ID", "123456789")
	t.Setenv("HEART_CHECK_INTERVAL", "30s")

	cfg := Load()
	assert.Equal(t, DBRedis, cfg.DBType)
	assert.Equal(t, int64(123456789), cfg.TelegramOwnerID)
	assert.Equal(t, 30*time.Second, cfg.HeartCheckInterval)
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			DBType:                  DBSQLite,
			DatabasePath:            "data/reader.db",
			HeartCheckInterval:      time.Minute,
			MembershipCheckInterval: time.Hour,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"sqlite ok", func(c *Config) {}, ""},
		{"postgres without url", func(c *Config) { c.DBType = DBPostgres }, "DATABASE_URL"},
		{"redis without url", func(c *Config) { c.DBType = DBRedis }, "REDIS_URL"},
		{"unknown backend", func(c *Config) { c.DBType = "mongo" }, "unsupported DB_TYPE"},
		{"zero interval", func(c *Config) { c.HeartCheckInterval = 0 }, "intervals"},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, "timezone"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(c)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateBot(t *testing.T) {
	c := &Config{}
	assert.Error(t, c.ValidateBot())

	c.TelegramBotToken = "token"
	assert.Error(t, c.ValidateBot())

	c.TelegramOwnerID = 42
	assert.NoError(t, c.ValidateBot())
}
