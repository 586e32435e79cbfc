package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	defaultAPIURL          = "http://127.0.0.1:8000/api"
	defaultAddr            = ":8080"
	defaultDBPath          = "blog.db"
	defaultAPITimeout      = 10 * time.Second
	defaultRefreshInterval = time.Duration(0)
)

type Config struct {
	APIURL          string
	Addr            string
	DBPath          string
	SecureCookies   bool
	APITimeout      time.Duration
	RefreshInterval time.Duration
	LogLevel        slog.Level
}

func loadConfig() (*Config, error) {
	cfg := &Config{
		APIURL:        getEnvOrDefault("RESTAPI_URL", defaultAPIURL),
		Addr:          getEnvOrDefault("ADDR", defaultAddr),
		DBPath:        getEnvOrDefault("DB_PATH", defaultDBPath),
		SecureCookies: os.Getenv("SECURE_COOKIES") == "true",
	}

	var err error
	if cfg.APITimeout, err = getDurationOrDefault("API_TIMEOUT", defaultAPITimeout); err != nil {
		return nil, err
	}
	if cfg.RefreshInterval, err = getDurationOrDefault("REFRESH_INTERVAL", defaultRefreshInterval); err != nil {
		return nil, err
	}
	if err = cfg.LogLevel.UnmarshalText([]byte(getEnvOrDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("parsing LOG_LEVEL: %w", err)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parsing %s: negative duration %s", key, d)
	}
	return d, nil
}
