// Package configs provides application configuration loaded from environment variables.
// All configuration is externalized via environment variables for 12-factor app compliance.
package configs

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all application configuration.
// Load it once at startup using AppLoad().
type AppConfig struct {
	// ServerPort is the port the HTTP API listens on.
	ServerPort string

	// DBPath is the SQLite database file path.
	DBPath string

	// ImagePath is where the summary image is written and served from.
	ImagePath string

	// GDPMultiplier is the fixed per-capita proxy constant used when
	// estimating GDP from population and exchange rate.
	GDPMultiplier int64

	// Countries contains settings for the restcountries.com client.
	Countries UpstreamConfig

	// Rates contains settings for the open.er-api.com client.
	Rates UpstreamConfig

	// Kafka contains settings for the refresh-event publisher.
	// An empty Broker disables event publishing.
	Kafka KafkaConfig
}

// UpstreamConfig holds settings for one external data source.
type UpstreamConfig struct {
	// BaseURL is the root URL of the upstream API.
	BaseURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// RequestsPerSecond caps the outbound request rate.
	RequestsPerSecond float64

	// MaxRetries is the number of additional attempts on transient failure.
	MaxRetries int
}

// KafkaConfig holds Kafka connection settings for refresh events.
type KafkaConfig struct {
	// Broker is the Kafka broker address (e.g., "localhost:9092").
	Broker string

	// Topic is the Kafka topic refresh events are published to.
	Topic string
}

// AppLoad loads all application configuration from environment variables.
// It attempts to load a .env file first (for local development).
// Call this once at application startup.
func AppLoad() *AppConfig {
	_ = godotenv.Load() // Ignore error - .env is optional

	return &AppConfig{
		ServerPort:    getEnv("SERVER_PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "countryatlas.db"),
		ImagePath:     getEnv("IMAGE_PATH", "cache/summary.png"),
		GDPMultiplier: int64(getEnvInt("GDP_MULTIPLIER", 1500)),
		Countries: UpstreamConfig{
			BaseURL:           getEnv("COUNTRIES_BASE_URL", "https://restcountries.com"),
			Timeout:           time.Duration(getEnvInt("COUNTRIES_TIMEOUT_SECONDS", 10)) * time.Second,
			RequestsPerSecond: getEnvFloat("COUNTRIES_REQUESTS_PER_SECOND", 2),
			MaxRetries:        getEnvInt("COUNTRIES_MAX_RETRIES", 2),
		},
		Rates: UpstreamConfig{
			BaseURL:           getEnv("RATES_BASE_URL", "https://open.er-api.com"),
			Timeout:           time.Duration(getEnvInt("RATES_TIMEOUT_SECONDS", 10)) * time.Second,
			RequestsPerSecond: getEnvFloat("RATES_REQUESTS_PER_SECOND", 2),
			MaxRetries:        getEnvInt("RATES_MAX_RETRIES", 2),
		},
		Kafka: KafkaConfig{
			Broker: getEnv("KAFKA_BROKER", ""),
			Topic:  getEnv("KAFKA_REFRESH_TOPIC", "countryatlas_refreshes"),
		},
	}
}

// getEnv returns the environment variable value or a default.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns the environment variable as int or a default.
func getEnvInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvFloat returns the environment variable as float64 or a default.
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}
