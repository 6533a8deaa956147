package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode     string // Set via flag, not env
	Environment string // "development" or "production"

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// JWT
	JwtSecret string
	JwtTTL    time.Duration

	// Server
	ApiPort string

	// Moderation
	HideReportThreshold int
	BanReportThreshold  int
	TopReportedLimit    int
	SweepResultTTL      time.Duration

	// Query caps
	NearbyLimit     int
	SearchLimit     int
	DefaultPageSize int

	// Caching
	HotRoomsCacheTTL time.Duration
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{RunMode: runMode}

	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	getEnvInt := func(key string, defaultValue int) (int, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return defaultValue, nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid integer value for %s: %q", key, value)
		}
		return n, nil
	}

	getEnvDuration := func(key string, defaultValue time.Duration) (time.Duration, error) {
		value, exists := os.LookupEnv(key)
		if !exists {
			return defaultValue, nil
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration value for %s: %q", key, value)
		}
		return d, nil
	}

	cfg.Environment = getEnv("ENVIRONMENT", "development")
	cfg.MongoURI = getEnv("MONGO_URI", "mongodb://localhost:27017")
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "timnhatro")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.JwtSecret = getEnv("JWT_SECRET", "")
	cfg.ApiPort = getEnv("API_PORT", "8080")

	var err error
	if cfg.RedisDB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.JwtTTL, err = getEnvDuration("JWT_TTL", 24*time.Hour); err != nil {
		return nil, err
	}
	if cfg.HideReportThreshold, err = getEnvInt("HIDE_REPORT_THRESHOLD", 5); err != nil {
		return nil, err
	}
	if cfg.BanReportThreshold, err = getEnvInt("BAN_REPORT_THRESHOLD", 10); err != nil {
		return nil, err
	}
	if cfg.TopReportedLimit, err = getEnvInt("TOP_REPORTED_LIMIT", 5); err != nil {
		return nil, err
	}
	if cfg.SweepResultTTL, err = getEnvDuration("SWEEP_RESULT_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.NearbyLimit, err = getEnvInt("NEARBY_LIMIT", 20); err != nil {
		return nil, err
	}
	if cfg.SearchLimit, err = getEnvInt("SEARCH_LIMIT", 50); err != nil {
		return nil, err
	}
	if cfg.DefaultPageSize, err = getEnvInt("DEFAULT_PAGE_SIZE", 10); err != nil {
		return nil, err
	}
	if cfg.HotRoomsCacheTTL, err = getEnvDuration("HOT_ROOMS_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}

	if cfg.RunMode != "bg" && cfg.JwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required in %q mode", cfg.RunMode)
	}

	return cfg, nil
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
