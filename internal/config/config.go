// Package config loads application configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/OracleGuard/models"
)

// App holds all application configuration
type App struct {
	ServerAddr string
	LogLevel   string

	Engine models.Config

	// Postgres audit sink; disabled when DBHost is empty.
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Telegram alerting; disabled when the token is empty.
	TelegramToken  string
	TelegramChatID int64

	// History feed; disabled when the URL is empty.
	HistoryFeedURL string
	HistoryFeedKey string
	RequestTimeout int // seconds

	// Simulator settings for cmd/simulate.
	SimInterval time.Duration
	SimCycles   int
}

// Load initializes configuration from environment variables
func Load() (*App, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &App{
		ServerAddr: getEnvWithDefault("SERVER_ADDR", ":8080"),
		LogLevel:   getEnvWithDefault("LOG_LEVEL", "info"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     getEnvWithDefault("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSSLMode:  getEnvWithDefault("DB_SSLMODE", "disable"),

		TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID: getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0),

		HistoryFeedURL: os.Getenv("HISTORY_FEED_URL"),
		HistoryFeedKey: os.Getenv("HISTORY_FEED_API_KEY"),
		RequestTimeout: getEnvIntWithDefault("REQUEST_TIMEOUT", 30),

		SimInterval: time.Duration(getEnvIntWithDefault("SIM_INTERVAL_SEC", 5)) * time.Second,
		SimCycles:   getEnvIntWithDefault("SIM_CYCLES", 20),
	}

	engine := models.DefaultConfig()
	engine.StdDevThreshold = getEnvFloatWithDefault("STDDEV_THRESHOLD", engine.StdDevThreshold)
	engine.SuddenChangeThreshold = getEnvFloatWithDefault("SUDDEN_CHANGE_THRESHOLD", engine.SuddenChangeThreshold)
	engine.MinDataPoints = getEnvIntWithDefault("MIN_DATA_POINTS", engine.MinDataPoints)
	engine.MaxDataAge = time.Duration(getEnvIntWithDefault("MAX_DATA_AGE_HOURS", int(engine.MaxDataAge.Hours()))) * time.Hour
	engine.ConfidenceThreshold = getEnvFloatWithDefault("CONFIDENCE_THRESHOLD", engine.ConfidenceThreshold)
	engine.InvalidThreshold = getEnvFloatWithDefault("INVALID_THRESHOLD", engine.InvalidThreshold)
	engine.MaxRetries = getEnvIntWithDefault("MAX_RETRIES", engine.MaxRetries)
	if overrides := os.Getenv("ASSET_THRESHOLDS"); overrides != "" {
		parsed, err := parseAssetThresholds(overrides)
		if err != nil {
			return nil, fmt.Errorf("parsing ASSET_THRESHOLDS: %w", err)
		}
		engine.AssetThresholds = parsed
	}
	cfg.Engine = engine

	if err := engine.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseAssetThresholds parses "BTC:15,ETH:20" into per-asset overrides.
func parseAssetThresholds(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed entry %q", pair)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("malformed threshold in %q: %w", pair, err)
		}
		out[strings.TrimSpace(parts[0])] = value
	}
	return out, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
