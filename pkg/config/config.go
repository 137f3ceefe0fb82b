package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
// Load() is the only place that reads environment variables.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Market data provider
	Quotes QuotesConfig

	// Batch jobs
	Batch BatchConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	URL string

	// Connection pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Migrations
	MigrationsPath string
}

// RedisConfig holds Redis configuration for the price cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// QuotesConfig holds the B3 quotes provider configuration.
type QuotesConfig struct {
	BaseURL string
	// Requests per second against the provider.
	RateLimit float64
	Timeout   time.Duration
}

// BatchConfig holds batch orchestration settings.
type BatchConfig struct {
	// Wall-clock budget for a single orchestrator invocation. The run
	// checkpoints and stops between indices once the budget is spent.
	Budget time.Duration

	// Default rebalance threshold when an index config does not set one.
	RebalanceThreshold float64

	// Tolerance for composition weight sums.
	WeightEpsilon float64
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
			MigrationsPath:  getEnv("DB_MIGRATIONS_PATH", "migrations"),
		},

		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		Quotes: QuotesConfig{
			BaseURL:   getEnv("QUOTES_BASE_URL", "https://www.fundamentus.com.br"),
			RateLimit: getEnvAsFloat("QUOTES_RATE_LIMIT", 2.0),
			Timeout:   getEnvAsDuration("QUOTES_TIMEOUT", "30s"),
		},

		Batch: BatchConfig{
			Budget:             getEnvAsDuration("BATCH_BUDGET", "8m"),
			RebalanceThreshold: getEnvAsFloat("REBALANCE_THRESHOLD", 0.05),
			WeightEpsilon:      getEnvAsFloat("WEIGHT_EPSILON", 0.001),
		},

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set.
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Batch.RebalanceThreshold < 0 || c.Batch.RebalanceThreshold > 1 {
		return fmt.Errorf("REBALANCE_THRESHOLD must be within [0, 1]")
	}

	if c.Batch.Budget <= 0 {
		return fmt.Errorf("BATCH_BUDGET must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from a few well-known locations.
func loadEnvFile() {
	paths := []string{".env"}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
