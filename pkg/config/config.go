// Package config loads application configuration from HERCULES_* environment
// variables with sensible defaults. The JWT secret is the one value with no
// default: the server refuses to start without it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pjecz/hercules-api/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Auth          AuthConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	S3            S3Config
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// AuthConfig holds credential and token settings
type AuthConfig struct {
	// SecretKey signs access tokens; required, never defaulted
	SecretKey string
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	PrimaryURL   string
	ReplicaURLs  string
	MaxOpenConns int
	MaxIdleConns int
	ConnLifetime time.Duration
}

// RedisConfig holds Redis settings for the distributed login rate limiter
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// S3Config holds object storage settings for document downloads
type S3Config struct {
	Endpoint      string
	Region        string
	Bucket        string
	AccessKey     string
	SecretKey     string
	UsePathStyle  bool
	PresignExpiry time.Duration
}

// RateLimitConfig holds login rate limiting settings
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
	StatsSchedule  string

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("HERCULES_HOST", "0.0.0.0"),
			Port:            getEnv("HERCULES_PORT", "8080"),
			ReadTimeout:     getEnvDuration("HERCULES_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("HERCULES_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("HERCULES_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("HERCULES_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("HERCULES_HEALTH_PORT", "9090"),
		},
		Auth: AuthConfig{
			SecretKey: getEnv("HERCULES_SECRET_KEY", ""),
		},
		Database: DatabaseConfig{
			PrimaryURL:   getEnv("HERCULES_POSTGRES_URL", ""),
			ReplicaURLs:  getEnv("HERCULES_POSTGRES_REPLICA_URLS", ""),
			MaxOpenConns: getEnvInt("HERCULES_POSTGRES_MAX_CONNS", 25),
			MaxIdleConns: getEnvInt("HERCULES_POSTGRES_IDLE_CONNS", 5),
			ConnLifetime: getEnvDuration("HERCULES_POSTGRES_CONN_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:      getEnv("HERCULES_REDIS_URL", ""),
			Password: getEnv("HERCULES_REDIS_PASSWORD", ""),
			DB:       getEnvInt("HERCULES_REDIS_DB", 0),
		},
		S3: S3Config{
			Endpoint:      getEnv("HERCULES_S3_ENDPOINT", ""),
			Region:        getEnv("HERCULES_S3_REGION", "us-east-1"),
			Bucket:        getEnv("HERCULES_S3_BUCKET", ""),
			AccessKey:     getEnv("HERCULES_S3_ACCESS_KEY", ""),
			SecretKey:     getEnv("HERCULES_S3_SECRET_KEY", ""),
			UsePathStyle:  getEnvBool("HERCULES_S3_USE_PATH_STYLE", false),
			PresignExpiry: getEnvDuration("HERCULES_S3_PRESIGN_EXPIRY", 15*time.Minute),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnvBool("HERCULES_RATELIMIT_ENABLED", true),
			Requests: getEnvInt("HERCULES_RATELIMIT_REQUESTS", 10),
			Window:   getEnvDuration("HERCULES_RATELIMIT_WINDOW", time.Minute),
		},
		Observability: ObservabilityConfig{
			LogLevel:           parseLogLevel(getEnv("HERCULES_LOG_LEVEL", "info")),
			MetricsEnabled:     getEnvBool("HERCULES_METRICS_ENABLED", true),
			StatsSchedule:      getEnv("HERCULES_STATS_SCHEDULE", "@every 5m"),
			OTelEnabled:        getEnvBool("HERCULES_OTEL_ENABLED", false),
			OTelEndpoint:       getEnv("HERCULES_OTEL_ENDPOINT", "localhost:4317"),
			OTelServiceName:    getEnv("HERCULES_OTEL_SERVICE_NAME", "hercules-api"),
			OTelServiceVersion: getEnv("HERCULES_OTEL_SERVICE_VERSION", "1.0.0"),
			OTelInsecure:       getEnvBool("HERCULES_OTEL_INSECURE", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Auth.SecretKey == "" {
		return fmt.Errorf("HERCULES_SECRET_KEY is required")
	}

	if c.Database.PrimaryURL == "" {
		return fmt.Errorf("HERCULES_POSTGRES_URL is required")
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 {
			return fmt.Errorf("rate limit requests must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate limit window must be positive")
		}
	}

	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
