package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Retell webhook authentication
	RetellWebhookKey string

	// Accuro EMR upstream
	AccuroBaseURL      string
	AccuroTokenURL     string
	AccuroClientID     string
	AccuroClientSecret string
	AccuroTimeout      time.Duration
	AccuroTokenMargin  time.Duration

	// Simulated mode: book/reschedule answered from canned data instead of
	// the live backend.
	SimulatedScheduling bool
}

// Load reads configuration from environment variables
func Load() *Config {
	baseURL := strings.TrimSuffix(getEnv("ACCURO_BASE_URL", "https://sandbox.accuroemr.com/api"), "/")
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		RetellWebhookKey: getEnv("RETELL_WEBHOOK_KEY", ""),

		AccuroBaseURL:      baseURL,
		AccuroTokenURL:     getEnv("ACCURO_TOKEN_URL", baseURL+"/oauth2/token"),
		AccuroClientID:     getEnv("ACCURO_CLIENT_ID", ""),
		AccuroClientSecret: getEnv("ACCURO_CLIENT_SECRET", ""),
		AccuroTimeout:      getEnvAsDuration("ACCURO_TIMEOUT", 15*time.Second),
		AccuroTokenMargin:  getEnvAsDuration("ACCURO_TOKEN_MARGIN", 5*time.Minute),

		SimulatedScheduling: getEnvAsBool("SIMULATED_SCHEDULING", false),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
