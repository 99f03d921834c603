package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Database    DatabaseConfig
	Attachments AttachmentsConfig
	Refresh     RefreshConfig
	Chat        ChatConfig
	Metrics     MetricsConfig
	Log         LogConfig
}

type DatabaseConfig struct {
	Path        string
	BusyTimeout time.Duration
}

type AttachmentsConfig struct {
	Dir      string
	MaxBytes int64
}

type RefreshConfig struct {
	Interval time.Duration
}

type ChatConfig struct {
	// StrictMembership gates group sends and group transcript reads on
	// membership. Off by default: groups are open, matching the observed
	// behavior of the stock client.
	StrictMembership bool
}

type MetricsConfig struct {
	// Addr enables a localhost /metrics listener when non-empty.
	Addr string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Path:        getEnv("DESKCHAT_DB_PATH", "deskchat.db"),
			BusyTimeout: getEnvAsDuration("DESKCHAT_DB_BUSY_TIMEOUT", 5*time.Second),
		},
		Attachments: AttachmentsConfig{
			Dir:      getEnv("DESKCHAT_ATTACHMENTS_DIR", "attachments"),
			MaxBytes: getEnvAsInt64("DESKCHAT_ATTACHMENT_MAX_BYTES", 50<<20),
		},
		Refresh: RefreshConfig{
			Interval: getEnvAsDuration("DESKCHAT_REFRESH_INTERVAL", 2*time.Second),
		},
		Chat: ChatConfig{
			StrictMembership: getEnvAsBool("CHAT_STRICT_MEMBERSHIP", false),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("DESKCHAT_METRICS_ADDR", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path must be set")
	}
	if c.Attachments.Dir == "" {
		return fmt.Errorf("attachments directory must be set")
	}
	if c.Attachments.MaxBytes <= 0 {
		return fmt.Errorf("attachment size limit must be positive")
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
