// Package config reads the service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQL    = "sql"
)

// Config holds settings for the HTTP service.
type Config struct {
	HTTPAddr       string
	DBDriver       string
	DBDSN          string
	RedisURL       string
	AuthSecret     string
	CORSOrigins    []string
	SessionTTL     time.Duration
	SessionBackend string
	LogLevel       string
	LogFormat      string
}

// LoadDotEnv loads .env from the working directory. Variables already set
// in the environment win. A missing file is not an error.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) {
			slog.Debug("no .env file found")
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// FromEnv loads .env when present and reads NEUROMATH_* variables.
func FromEnv() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	return parse()
}

func parse() (*Config, error) {
	cfg := &Config{
		HTTPAddr:    getEnv("NEUROMATH_HTTP_ADDR", ":8080"),
		DBDriver:    getEnv("NEUROMATH_DB_DRIVER", "sqlite"),
		DBDSN:       getEnv("NEUROMATH_DB_DSN", ""),
		RedisURL:    getEnv("NEUROMATH_REDIS_URL", ""),
		AuthSecret:  getEnv("NEUROMATH_AUTH_SECRET", ""),
		CORSOrigins: splitList(getEnv("NEUROMATH_CORS_ORIGINS", "")),
		LogLevel:    getEnv("NEUROMATH_LOG_LEVEL", "info"),
		LogFormat:   getEnv("NEUROMATH_LOG_FORMAT", "text"),
	}

	ttl, err := time.ParseDuration(getEnv("NEUROMATH_SESSION_TTL", "2h"))
	if err != nil {
		return nil, fmt.Errorf("NEUROMATH_SESSION_TTL: %w", err)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("NEUROMATH_SESSION_TTL must be positive, got %s", ttl)
	}
	cfg.SessionTTL = ttl

	backend := strings.ToLower(getEnv("NEUROMATH_SESSION_BACKEND", ""))
	switch backend {
	case "":
		backend = BackendSQL
		if cfg.RedisURL != "" {
			backend = BackendRedis
		}
	case BackendMemory, BackendSQL:
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("session backend redis requires NEUROMATH_REDIS_URL")
		}
	default:
		return nil, fmt.Errorf("unknown session backend %q", backend)
	}
	cfg.SessionBackend = backend

	return cfg, nil
}

// Validate checks the settings the HTTP service cannot run without.
func (c *Config) Validate() error {
	if c.AuthSecret == "" {
		return fmt.Errorf("NEUROMATH_AUTH_SECRET is required")
	}
	if len(c.AuthSecret) < 16 {
		return fmt.Errorf("NEUROMATH_AUTH_SECRET must be at least 16 bytes")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
