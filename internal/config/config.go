package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// AppConfig is the process-wide configuration loaded once at startup.
type AppConfig struct {
	// Upstream weather provider.
	WeatherAPIKey     string
	WeatherAPIBaseURL string

	// History store.
	MongoURL string
	DBName   string

	// Per-call deadline and transport-only retry budget for upstream calls.
	UpstreamTimeout    time.Duration
	UpstreamMaxRetries int

	Port string
}

// Load reads configuration from the environment. Missing required keys fail
// immediately rather than surfacing on the first request.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY environment variable is required")
	}

	cfg.MongoURL = os.Getenv("MONGO_URL")
	if cfg.MongoURL == "" {
		return nil, fmt.Errorf("MONGO_URL environment variable is required")
	}

	cfg.DBName = os.Getenv("DB_NAME")
	if cfg.DBName == "" {
		return nil, fmt.Errorf("DB_NAME environment variable is required")
	}

	cfg.WeatherAPIBaseURL = getenvDefault("WEATHER_API_BASE_URL", "http://api.weatherapi.com/v1")

	timeoutStr := getenvDefault("UPSTREAM_TIMEOUT", "10s")
	timeout, err := time.ParseDuration(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}
	cfg.UpstreamTimeout = timeout

	cfg.UpstreamMaxRetries = getenvInt("UPSTREAM_MAX_RETRIES", 1)
	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}
