// Package config holds process-wide configuration loaded from environment
// variables, with validated defaults for every tunable.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// Config is the flat process configuration.
type Config struct {
	// LLM endpoint (OpenAI-compatible chat API).
	LLMEndpoint string
	LLMModel    string
	LLMAPIKey   string

	// Sensor/session store (sqlite file path; ":memory:" for tests).
	StorePath string

	// Ingestion pipeline.
	IngestBatchSize     int
	IngestFlushInterval time.Duration
	IngestQueueSize     int

	// Session lifecycle.
	SessionTTL        time.Duration // idle time before a session is marked inactive
	SessionRetainDays int
	SweepInterval     time.Duration
	ContextTurns      int // turns of conversation context loaded per query

	// Alert subsystem.
	AlertSuppress     time.Duration
	AlertTickInterval time.Duration

	// HTTP server.
	HTTPPort string

	LogLevel LogLevel
}

// LoadFromEnv builds a Config from the environment, applying defaults for
// anything unset.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LLMEndpoint:         getEnvOrDefault("LLM_ENDPOINT", "http://localhost:11434/v1"),
		LLMModel:            getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
		LLMAPIKey:           os.Getenv("LLM_API_KEY"),
		StorePath:           getEnvOrDefault("STORE_PATH", "./data/agrosense.db"),
		IngestBatchSize:     getEnvInt("INGEST_BATCH_SIZE", 100),
		IngestFlushInterval: getEnvDurationMS("INGEST_FLUSH_INTERVAL_MS", 2000),
		IngestQueueSize:     getEnvInt("INGEST_QUEUE_SIZE", 1024),
		SessionTTL:          time.Duration(getEnvInt("SESSION_TTL_MIN", 30)) * time.Minute,
		SessionRetainDays:   getEnvInt("SESSION_RETAIN_DAYS", 7),
		SweepInterval:       time.Duration(getEnvInt("SWEEP_INTERVAL_SEC", 60)) * time.Second,
		ContextTurns:        getEnvInt("CONTEXT_TURNS", 10),
		AlertSuppress:       time.Duration(getEnvInt("ALERT_SUPPRESS_SEC", 300)) * time.Second,
		AlertTickInterval:   time.Duration(getEnvInt("ALERT_TICK_SEC", 30)) * time.Second,
		HTTPPort:            getEnvOrDefault("HTTP_PORT", "8080"),
		LogLevel:            LogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants that would otherwise surface as runtime faults.
func (c *Config) Validate() error {
	if c.IngestBatchSize < 1 || c.IngestBatchSize > 10000 {
		return fmt.Errorf("config: ingest_batch_size must be between 1 and 10000, got %d", c.IngestBatchSize)
	}
	if c.IngestFlushInterval < 10*time.Millisecond {
		return fmt.Errorf("config: ingest_flush_interval too small: %s", c.IngestFlushInterval)
	}
	if c.IngestQueueSize < 1 {
		return fmt.Errorf("config: ingest_queue_size must be positive, got %d", c.IngestQueueSize)
	}
	if c.SessionRetainDays < 1 {
		return fmt.Errorf("config: session_retain_days must be positive, got %d", c.SessionRetainDays)
	}
	if c.ContextTurns < 1 {
		return fmt.Errorf("config: context_turns must be positive, got %d", c.ContextTurns)
	}
	if c.StorePath == "" {
		return fmt.Errorf("config: store_path is empty")
	}
	if !c.LogLevel.Valid() {
		return fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		slog.Warn("Invalid integer env var, using default", "key", key, "value", val, "default", defaultVal)
		return defaultVal
	}
	return n
}

func getEnvDurationMS(key string, defaultMS int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMS)) * time.Millisecond
}
