package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	TelegramToken string

	// Bot mode configuration
	WebhookMode bool   // If true, use webhook mode; if false, use polling mode
	WebhookURL  string // URL for webhook (required if WebhookMode is true)

	// Directory where uploaded book texts are stored
	BooksDir string

	// PostgreSQL configuration (settings, books, positions, bookmarks)
	PostgresHost     string
	PostgresPort     int
	PostgresDatabase string
	PostgresUser     string
	PostgresPassword string
	PostgresSSLMode  string

	// ClickHouse configuration (reading session log)
	ClickHouseHost     string
	ClickHousePort     int
	ClickHouseDatabase string
	ClickHouseUser     string
	ClickHousePassword string
	ClickHouseUseTLS   bool

	// Optional redis cache; empty addr disables the external tier
	RedisAddr     string
	RedisPassword string

	UseMockDB bool
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	// Telegram Bot Token (required)
	config.TelegramToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	if config.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	// Bot mode configuration
	config.WebhookMode = os.Getenv("WEBHOOK_MODE") == "true"
	if config.WebhookMode {
		config.WebhookURL = os.Getenv("WEBHOOK_URL")
		if config.WebhookURL == "" {
			return nil, fmt.Errorf("WEBHOOK_URL is required when WEBHOOK_MODE is true")
		}
	}

	config.BooksDir = os.Getenv("BOOKS_DIR")
	if config.BooksDir == "" {
		config.BooksDir = "./files"
	}

	// Use Mock DB (default: false)
	config.UseMockDB = os.Getenv("USE_MOCK_DB") == "true"

	// Database configuration (required if not using mock)
	if !config.UseMockDB {
		config.PostgresHost = os.Getenv("POSTGRES_HOST")
		if config.PostgresHost == "" {
			return nil, fmt.Errorf("POSTGRES_HOST is required when USE_MOCK_DB is not set")
		}

		port, err := intEnv("POSTGRES_PORT", 5432)
		if err != nil {
			return nil, err
		}
		config.PostgresPort = port

		config.PostgresDatabase = envDefault("POSTGRES_DATABASE", "bookkicker")
		config.PostgresUser = envDefault("POSTGRES_USER", "postgres")
		config.PostgresPassword = os.Getenv("POSTGRES_PASSWORD")
		// Password is optional, can be empty
		config.PostgresSSLMode = envDefault("POSTGRES_SSLMODE", "disable")

		config.ClickHouseHost = os.Getenv("CLICKHOUSE_HOST")
		if config.ClickHouseHost == "" {
			return nil, fmt.Errorf("CLICKHOUSE_HOST is required when USE_MOCK_DB is not set")
		}

		chPort, err := intEnv("CLICKHOUSE_PORT", 9000)
		if err != nil {
			return nil, err
		}
		config.ClickHousePort = chPort

		config.ClickHouseDatabase = envDefault("CLICKHOUSE_DATABASE", "default")
		config.ClickHouseUser = envDefault("CLICKHOUSE_USER", "default")
		config.ClickHousePassword = os.Getenv("CLICKHOUSE_PASSWORD")
		config.ClickHouseUseTLS = os.Getenv("CLICKHOUSE_USE_TLS") == "true"
	}

	// Redis is optional in every mode
	config.RedisAddr = os.Getenv("REDIS_ADDR")
	config.RedisPassword = os.Getenv("REDIS_PASSWORD")

	return config, nil
}

func envDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
