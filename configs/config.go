// config.go - Configuration loaded from environment variables

package configs

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	// Server Configuration
	PORT            string
	ALLOWED_ORIGINS string
	GIN_MODE        string
	LOG_LEVEL       string
	ENV_FILE_LOADED bool // false = no .env file, environment variables only

	// Debug: allow ?debug=true to return step timings with the analysis
	ALLOW_DEBUG_QUERY bool

	// MongoDB Configuration (payment records that hold the expected dekont metadata)
	MONGO_URI           string // empty = payment lookup disabled
	MONGO_DB_NAME       string
	PAYMENTS_COLLECTION string
	PAYMENT_CACHE_TTL   time.Duration

	// Analysis settings
	ANALYSIS_TIMEOUT time.Duration // upper bound per HTTP request
	MAX_BATCH_SIZE   int
	BATCH_WORKERS    int

	// Rate limiting for the public endpoints
	RATE_LIMIT_TOKENS int
	RATE_LIMIT_REFILL time.Duration
)

// LoadConfig loads configuration from environment variables
func LoadConfig() error {
	// Load .env file if exists (for local development)
	envLoaded := godotenv.Load() == nil

	PORT = getEnv("PORT", "8080")
	ALLOWED_ORIGINS = getEnv("ALLOWED_ORIGINS", "*")
	GIN_MODE = getEnv("GIN_MODE", "debug")
	LOG_LEVEL = getEnv("LOG_LEVEL", "info")
	ALLOW_DEBUG_QUERY = getEnvBool("ALLOW_DEBUG_QUERY", false)

	MONGO_URI = getEnv("MONGO_URI", "")
	MONGO_DB_NAME = getEnv("MONGO_DB_NAME", "stajtakip")
	PAYMENTS_COLLECTION = getEnv("PAYMENTS_COLLECTION", "payments")
	PAYMENT_CACHE_TTL = time.Duration(getEnvInt("PAYMENT_CACHE_TTL_SEC", 300)) * time.Second

	ANALYSIS_TIMEOUT = time.Duration(getEnvInt("ANALYSIS_TIMEOUT_SEC", 30)) * time.Second
	MAX_BATCH_SIZE = getEnvInt("MAX_BATCH_SIZE", 100)
	BATCH_WORKERS = getEnvInt("BATCH_WORKERS", 4)

	RATE_LIMIT_TOKENS = getEnvInt("RATE_LIMIT_TOKENS", 60)
	RATE_LIMIT_REFILL = time.Duration(getEnvInt("RATE_LIMIT_REFILL_MS", 1000)) * time.Millisecond

	if MAX_BATCH_SIZE <= 0 {
		return fmt.Errorf("MAX_BATCH_SIZE must be positive, got %d", MAX_BATCH_SIZE)
	}
	if BATCH_WORKERS <= 0 {
		return fmt.Errorf("BATCH_WORKERS must be positive, got %d", BATCH_WORKERS)
	}
	if RATE_LIMIT_TOKENS <= 0 || RATE_LIMIT_REFILL <= 0 {
		return fmt.Errorf("rate limit settings must be positive (tokens=%d, refill=%s)", RATE_LIMIT_TOKENS, RATE_LIMIT_REFILL)
	}
	if ANALYSIS_TIMEOUT <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT_SEC must be positive")
	}

	ENV_FILE_LOADED = envLoaded
	return nil
}

// PaymentLookupEnabled reports whether expected metadata can be loaded by payment id
func PaymentLookupEnabled() bool {
	return MONGO_URI != ""
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
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
