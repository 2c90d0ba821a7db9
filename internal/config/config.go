// Package config handles loading and validating configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the sniper.
type Config struct {
	// Search source
	SourceURL     string
	SourceTimeout time.Duration
	SourceRetries int

	// Exchange rate
	RateEndpoint string
	RateTTL      time.Duration

	// Delivery
	WebhookURL    string
	WSEndpoint    string
	DeliveryPause time.Duration

	// Workers
	WorkerCount int

	// Persistence
	DataDir       string
	PostgresDSN   string
	ClickhouseDSN string
	UseMemory     bool

	// HTTP server (health, metrics, status)
	ListenAddr string

	// Scoring
	QualityThreshold float64
}

// Load reads configuration from environment variables with fallback to .env file.
// Priority order: Environment variables > .env file > hardcoded defaults
func Load() (*Config, error) {
	// Attempt to load .env file (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		// Search source
		SourceURL:     getEnv("SOURCE_URL", ""),
		SourceTimeout: time.Duration(getEnvInt("SOURCE_TIMEOUT_SECONDS", 15)) * time.Second,
		SourceRetries: getEnvInt("SOURCE_RETRIES", 2),

		// Exchange rate
		RateEndpoint: getEnv("RATE_ENDPOINT", "https://api.exchangerate-api.com/v4/latest/USD"),
		RateTTL:      time.Duration(getEnvInt("RATE_TTL_MINUTES", 60)) * time.Minute,

		// Delivery
		WebhookURL:    getEnv("WEBHOOK_URL", ""),
		WSEndpoint:    getEnv("WS_ENDPOINT", ""),
		DeliveryPause: time.Duration(getEnvInt("DELIVERY_PAUSE_MS", 500)) * time.Millisecond,

		// Workers
		WorkerCount: getEnvInt("WORKER_COUNT", 4),

		// Persistence
		DataDir:       getEnv("DATA_DIR", "./data"),
		PostgresDSN:   getEnv("POSTGRES_DSN", ""),
		ClickhouseDSN: getEnv("CLICKHOUSE_DSN", ""),
		UseMemory:     getEnvBool("USE_MEMORY", false),

		// HTTP server
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),

		// Scoring
		QualityThreshold: getEnvFloat("QUALITY_THRESHOLD", 0.01),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set and valid.
func (c *Config) Validate() error {
	if c.SourceURL == "" {
		return fmt.Errorf("SOURCE_URL is required")
	}

	if c.WebhookURL == "" && c.WSEndpoint == "" {
		return fmt.Errorf("at least one of WEBHOOK_URL or WS_ENDPOINT is required")
	}

	if c.WorkerCount < 1 {
		return fmt.Errorf("WORKER_COUNT must be at least 1")
	}

	if c.QualityThreshold < 0 || c.QualityThreshold > 1 {
		return fmt.Errorf("QUALITY_THRESHOLD must be in [0, 1]")
	}

	if !c.UseMemory && c.DataDir == "" {
		return fmt.Errorf("DATA_DIR is required unless USE_MEMORY is set")
	}

	return nil
}

// MaskedPostgresDSN returns the DSN with most characters hidden for logging.
func (c *Config) MaskedPostgresDSN() string {
	return maskSecret(c.PostgresDSN)
}

// MaskedWebhookURL returns the webhook URL with most characters hidden for logging.
func (c *Config) MaskedWebhookURL() string {
	return maskSecret(c.WebhookURL)
}

// maskSecret hides all but the first and last 4 characters of a secret.
func maskSecret(s string) string {
	if len(s) <= 8 {
		if len(s) == 0 {
			return "(not set)"
		}
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as an integer or returns a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat retrieves an environment variable as a float64 or returns a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvBool retrieves an environment variable as a boolean or returns a default.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
