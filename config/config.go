package config

import (
	"log"
	"os"
)

// Config holds infrastructure configuration loaded from environment
// variables. Strategy parameters live in the YAML params file; env
// vars carry only endpoints and credentials.
type Config struct {
	// Terminal bridge
	BridgeURL   string
	BridgeWSURL string

	// Trading target
	Symbol string

	// Infrastructure
	RedisAddr     string
	RedisPassword string
	JournalPath   string
	MetricsAddr   string
	ParamsPath    string

	// Notifications
	TelegramBotToken string
	TelegramChatID   string
	WebhookURL       string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		BridgeURL:   getEnv("BRIDGE_URL", "http://127.0.0.1:5001"),
		BridgeWSURL: getEnv("BRIDGE_WS_URL", ""),

		Symbol: mustEnv("SYMBOL"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		JournalPath:   getEnv("JOURNAL_PATH", "data/journal.db"),
		MetricsAddr:   getEnv("METRICS_ADDR", ":9090"),
		ParamsPath:    getEnv("PARAMS_PATH", "config/params.yaml"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		WebhookURL:       getEnv("WEBHOOK_URL", ""),
	}
}

func mustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("[config] required env var %s not set", key)
	}
	return v
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}
