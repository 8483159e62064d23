package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv              string
	Port                string
	DatabaseURL         string
	ProviderCatalogPath string
	PublicBaseURL       string
	GeoIPDBPath         string
	PollInterval        time.Duration
	TimeoutMultiplier   float64
	MaxAttempts         int
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPIdleTimeout     time.Duration
	HTTPShutdownTimeout time.Duration
	RateLimitPerMin     int
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL is optional: without it the service
// runs on in-memory repositories, which suits local and CI environments.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:              getEnv("APP_ENV", "development"),
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		ProviderCatalogPath: getEnv("PROVIDER_CATALOG_PATH", "providers.toml"),
		PublicBaseURL:       getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		GeoIPDBPath:         os.Getenv("GEOIP_DB_PATH"),
		PollInterval:        time.Second * time.Duration(getEnvInt("POLL_INTERVAL_SECONDS", 3)),
		TimeoutMultiplier:   getEnvFloat("POLL_TIMEOUT_MULTIPLIER", 1.5),
		MaxAttempts:         getEnvInt("MAX_ATTEMPTS", 0),
		HTTPReadTimeout:     time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:    time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:     time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		HTTPShutdownTimeout: time.Second * time.Duration(getEnvInt("HTTP_SHUTDOWN_TIMEOUT_SECONDS", 15)),
		RateLimitPerMin:     getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
	}

	if cfg.ProviderCatalogPath == "" {
		return nil, fmt.Errorf("PROVIDER_CATALOG_PATH is required")
	}
	if cfg.TimeoutMultiplier <= 1 {
		return nil, fmt.Errorf("POLL_TIMEOUT_MULTIPLIER must be greater than 1")
	}
	if cfg.MaxAttempts < 0 {
		return nil, fmt.Errorf("MAX_ATTEMPTS must not be negative")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
