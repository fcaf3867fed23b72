package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	Secret        string
	HTTPPort      string
	DBDriver      string
	DatabaseDSN   string
	LogLevel      string
	Env           string
	AlertInterval time.Duration
	TokenTTL      time.Duration
	SeedCSV       string
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads configuration from a .env file, if present, and environment
// variables with reasonable defaults.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		Secret:        getEnv("SECRET", "dev_secret"),
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseDSN:   os.Getenv("DATABASE_DSN"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Env:           getEnv("APP_ENV", "development"),
		AlertInterval: getEnvAsDuration("ALERT_INTERVAL", 5*time.Minute),
		TokenTTL:      getEnvAsDuration("TOKEN_TTL", 24*time.Hour),
		SeedCSV:       os.Getenv("SEED_CSV"),
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}

	if cfg.DatabaseDSN == "" {
		switch cfg.DBDriver {
		case "pgx":
			cfg.DatabaseDSN = "postgres://postgres@localhost:5432/pharmapos?sslmode=disable"
		default:
			cfg.DatabaseDSN = "file:pharmapos.db?_pragma=busy_timeout(5000)"
		}
	}

	// Validate that port is numeric.
	if _, err := strconv.Atoi(cfg.HTTPPort); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", cfg.HTTPPort)
		cfg.HTTPPort = "8080"
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}
