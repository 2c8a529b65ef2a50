package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port         string
	DatabasePath string // empty keeps every sheet in memory
	LogLevel     string

	// Sheet names
	RatesSheet     string
	CustomersSheet string
	LogSheet       string

	// Upstream rate sources
	CurrentRatesURL    string
	HistoricalRatesURL string
	RatesCacheTTL      time.Duration
	HTTPTimeout        time.Duration
	HTTPRateLimit      int

	// Reconciliation window
	MinHistoryDate civil.Date

	MaxUploadSizeBytes int64
}

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() *AppConfig {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")
	cfg := FromEnv()
	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, RatesSheet=%s",
		cfg.Port, cfg.LogLevel, cfg.DatabasePath, cfg.RatesSheet)
	return cfg
}

// FromEnv builds the configuration from the process environment only.
func FromEnv() *AppConfig {
	// --- File Size Limits ---
	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760") // 10MB default
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil || maxUploadSizeBytes <= 0 {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	return &AppConfig{
		Port:         getEnv("PORT", "8080"),
		DatabasePath: getEnv("DATABASE_PATH", "./dolarhistorico.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		RatesSheet:     getEnv("RATES_SHEET", "Cotizaciones"),
		CustomersSheet: getEnv("CUSTOMERS_SHEET", "Clientes"),
		LogSheet:       getEnv("LOG_SHEET", "Log"),

		CurrentRatesURL:    getEnv("CURRENT_RATES_URL", "https://dolarapi.com/v1/dolares"),
		HistoricalRatesURL: getEnv("HISTORICAL_RATES_URL", "https://api.argentinadatos.com/v1/cotizaciones/dolares"),
		RatesCacheTTL:      getEnvAsDuration("RATES_CACHE_TTL", time.Hour),
		HTTPTimeout:        getEnvAsDuration("HTTP_TIMEOUT", 20*time.Second),
		HTTPRateLimit:      getEnvAsInt("HTTP_RATE_LIMIT_PER_SEC", 5),

		MinHistoryDate: getEnvAsDate("MIN_HISTORY_DATE", civil.Date{Year: 2015, Month: time.January, Day: 1}),

		MaxUploadSizeBytes: maxUploadSizeBytes,
	}
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsDate retrieves an environment variable as a yyyy-mm-dd civil date or returns a fallback.
func getEnvAsDate(key string, fallback civil.Date) civil.Date {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := civil.ParseDate(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid date value for %s ('%s'), using default: %s", key, valueStr, fallback)
	return fallback
}
