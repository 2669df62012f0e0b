package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends selectable with DB_TYPE
const (
	DBSQLite   = "sqlite"
	DBPostgres = "postgres"
	DBRedis    = "redis"
)

type Config struct {
	// Runtime
	Env      string
	LogLevel string
	HTTPAddr string
	Timezone string

	// Storage
	DBType       string
	DatabasePath string
	DatabaseURL  string
	RedisURL     string

	// Lookups
	DictionaryAPIURL string
	OpenAIAPIKey     string
	OpenAIAPIURL     string
	OpenAIModel      string

	// Speech
	TTSAPIKey          string
	TTSAPIURL          string
	TTSFallbackCommand string

	// Leaderboard
	SyncURL string

	// Telegram
	TelegramBotToken string
	TelegramOwnerID  int64

	// Jobs
	HeartCheckInterval      time.Duration
	MembershipCheckInterval time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Env:                     getEnvOrDefault("ENV", "development"),
		LogLevel:                getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPAddr:                getEnvOrDefault("HTTP_ADDR", ":8080"),
		Timezone:                getEnvOrDefault("TIMEZONE", "Local"),
		DBType:                  getEnvOrDefault("DB_TYPE", DBSQLite),
		DatabasePath:            getEnvOrDefault("DATABASE_PATH", "data/reader.db"),
		DatabaseURL:             getEnvOrDefault("DATABASE_URL", ""),
		RedisURL:                getEnvOrDefault("REDIS_URL", ""),
		DictionaryAPIURL:        getEnvOrDefault("DICTIONARY_API_URL", "https://api.dictionaryapi.dev/api/v2/entries/en"),
		OpenAIAPIKey:            getEnvOrDefault("OPENAI_API_KEY", ""),
		OpenAIAPIURL:            getEnvOrDefault("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:             getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		TTSAPIKey:               getEnvOrDefault("TTS_API_KEY", ""),
		TTSAPIURL:               getEnvOrDefault("TTS_API_URL", "https://texttospeech.googleapis.com/v1/text:synthesize"),
		TTSFallbackCommand:      getEnvOrDefault("TTS_FALLBACK_COMMAND", "espeak-ng"),
		SyncURL:                 getEnvOrDefault("SYNC_URL", ""),
		TelegramBotToken:        getEnvOrDefault("TELEGRAM_BOT_TOKEN", ""),
		TelegramOwnerID:         getEnvAsInt64OrDefault("TELEGRAM_OWNER_ID", 0),
		HeartCheckInterval:      getEnvAsDurationOrDefault("HEART_CHECK_INTERVAL", time.Minute),
		MembershipCheckInterval: getEnvAsDurationOrDefault("MEMBERSHIP_CHECK_INTERVAL", time.Hour),
	}
}

// Validate reports settings that the selected backend cannot run without
func (c *Config) Validate() error {
	switch c.DBType {
	case DBSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required for sqlite storage")
		}
	case DBPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres storage")
		}
	case DBRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required for redis storage")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.HeartCheckInterval <= 0 || c.MembershipCheckInterval <= 0 {
		return fmt.Errorf("job intervals must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// ValidateBot reports settings the Telegram front-end needs
func (c *Config) ValidateBot() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is not set")
	}
	if c.TelegramOwnerID == 0 {
		return fmt.Errorf("TELEGRAM_OWNER_ID environment variable is not set")
	}
	return nil
}

// Location resolves TIMEZONE, used for streak day boundaries
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsInt64OrDefault(key string, defaultVal int64) int64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
