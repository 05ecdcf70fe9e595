// Package config reads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Catalogs; empty means the embedded copy
	SourcesConfigPath   string
	TopicsConfigPath    string
	TemplatesConfigPath string

	// Output
	OutputPath         string
	JSONOutputPath     string
	MaxRecommendations int

	// Aggregation
	ProviderTimeout     time.Duration
	ProviderConcurrency int
	ContentDedup        bool

	// HTTP
	RequestTimeout time.Duration
	RetryAttempts  int
	RetryDelay     time.Duration

	// Optional integrations
	GeminiAPIKey      string
	MaxGeminiRequests int // per 24h, 0 = unlimited
	IntroCacheTTL     time.Duration
	TelegramToken     string
	TelegramChatID    string

	// Process
	RunInterval      time.Duration // 0 runs once
	EnableMonitoring bool
	MonitoringPort   string
	Debug            bool
	LogFormat        string
}

// Load reads .env when present, then the environment, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		SourcesConfigPath:   os.Getenv("SOURCES_CONFIG_PATH"),
		TopicsConfigPath:    os.Getenv("TOPICS_CONFIG_PATH"),
		TemplatesConfigPath: os.Getenv("TEMPLATES_CONFIG_PATH"),

		OutputPath:         getEnvOrDefault("OUTPUT_PATH", "report.html"),
		JSONOutputPath:     os.Getenv("JSON_OUTPUT_PATH"),
		MaxRecommendations: getEnvIntOrDefault("MAX_RECOMMENDATIONS", 5),

		ProviderTimeout:     getEnvDurationOrDefault("PROVIDER_TIMEOUT", 20*time.Second),
		ProviderConcurrency: getEnvIntOrDefault("PROVIDER_CONCURRENCY", 8),
		ContentDedup:        getEnvBool("CONTENT_DEDUP"),

		RequestTimeout: getEnvDurationOrDefault("REQUEST_TIMEOUT", 8*time.Second),
		RetryAttempts:  getEnvIntOrDefault("RETRY_ATTEMPTS", 2),
		RetryDelay:     getEnvDurationOrDefault("RETRY_DELAY", 500*time.Millisecond),

		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		MaxGeminiRequests: getEnvIntOrDefault("MAX_GEMINI_REQUESTS", 24),
		IntroCacheTTL:     getEnvDurationOrDefault("INTRO_CACHE_TTL", 6*time.Hour),
		TelegramToken:     os.Getenv("TELEGRAM_TOKEN"),
		TelegramChatID:    os.Getenv("TELEGRAM_CHAT_ID"),

		RunInterval:      getEnvDurationOrDefault("RUN_INTERVAL", 0),
		EnableMonitoring: getEnvBool("ENABLE_HTTP_MONITORING"),
		MonitoringPort:   getEnvOrDefault("MONITORING_PORT", "8080"),
		Debug:            getEnvBool("DEBUG"),
		LogFormat:        getEnvOrDefault("LOG_FORMAT", "text"),
	}

	return cfg, cfg.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

// TelegramEnabled reports whether a digest should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

func (c *Config) Validate() error {
	if c.OutputPath == "" {
		return fmt.Errorf("OUTPUT_PATH is required")
	}
	if c.MaxRecommendations < 1 {
		return fmt.Errorf("MAX_RECOMMENDATIONS must be positive, got %d", c.MaxRecommendations)
	}
	if c.ProviderTimeout < 0 || c.RequestTimeout < 0 || c.RetryDelay < 0 || c.RunInterval < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.MaxGeminiRequests < 0 || c.IntroCacheTTL < 0 {
		return fmt.Errorf("MAX_GEMINI_REQUESTS and INTRO_CACHE_TTL must not be negative")
	}
	if c.ProviderConcurrency < 0 {
		return fmt.Errorf("PROVIDER_CONCURRENCY must not be negative")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("RETRY_ATTEMPTS must be at least 1")
	}
	if (c.TelegramToken == "") != (c.TelegramChatID == "") {
		return fmt.Errorf("TELEGRAM_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json'")
	}
	return nil
}
