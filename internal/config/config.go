// Package config loads environment configuration and the scoring policy.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration for the service.
type Config struct {
	// Telegram
	TelegramToken  string
	TelegramChatID int64
	Channel        string

	// Mode
	DryRun bool
	Debug  bool

	// Upstream APIs
	GammaAPIURL string
	DataAPIURL  string

	// Ingress
	HTTPAddr   string
	AdminToken string

	// Persistence
	DataDir     string
	ArchivePath string

	// Scoring policy
	Thresholds Thresholds
}

// Load builds a Config from environment variables and the thresholds
// file. The Telegram token is only required when dry-run is off.
func Load() (*Config, error) {
	cfg := &Config{
		TelegramToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		Channel:       getEnv("TELEGRAM_CHANNEL", "signals"),

		DryRun: getEnvBool("DRY_RUN", true),
		Debug:  getEnvBool("DEBUG", false),

		GammaAPIURL: getEnv("GAMMA_API_URL", "https://gamma-api.polymarket.com"),
		DataAPIURL:  getEnv("DATA_API_URL", "https://data-api.polymarket.com"),

		HTTPAddr:   getEnv("HTTP_ADDR", "127.0.0.1:8080"),
		AdminToken: os.Getenv("ADMIN_BEARER_TOKEN"),

		DataDir:     getEnv("DATA_DIR", "data"),
		ArchivePath: getEnv("ARCHIVE_PATH", "data/archive.db"),
	}

	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.TelegramChatID = id
	}

	thresholds, err := LoadThresholds(getEnv("THRESHOLDS_PATH", "thresholds.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.Thresholds = thresholds

	if !cfg.DryRun && cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required outside dry-run")
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
