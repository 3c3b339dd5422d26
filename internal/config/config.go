package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Database configuration
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseURL    string

	// Poll loop configuration
	PollInterval      time.Duration
	BrandQuery        string
	MaxResults        int
	DefaultReach      int
	DedupeBySourceRef bool

	// Social API credentials
	TwitterBearerToken string
	TwitterAPIURL      string
	RedditClientID     string
	RedditClientSecret string

	// Sentiment model endpoint; empty falls back to the built-in lexicon
	SentimentAPIURL   string
	SentimentAPIToken string

	// Notification configuration
	SlackWebhookURL string
	EmailHost       string
	EmailPort       int
	EmailUser       string
	EmailPass       string
	SupportEmail    string

	// Azure Storage configuration (alert archive)
	StorageAccount   string
	StorageContainer string

	// Redis configuration (live event bus shared between replicas)
	RedisAddr     string
	RedisPassword string
	RedisChannel  string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	interval, err := getDurationEnv("POLL_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		DatabaseDriver: strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:    getEnv("DATABASE_URL", "sentinel.db"),

		PollInterval:      interval,
		BrandQuery:        getEnv("BRAND_QUERY", "SentinelAI"),
		MaxResults:        getIntEnv("MAX_RESULTS", 10),
		DefaultReach:      getIntEnv("DEFAULT_REACH", 100),
		DedupeBySourceRef: getBoolEnv("DEDUPE_BY_SOURCE_REF", true),

		TwitterBearerToken: getEnv("TWITTER_BEARER_TOKEN", ""),
		TwitterAPIURL:      getEnv("TWITTER_API_URL", "https://api.twitter.com"),
		RedditClientID:     getEnv("REDDIT_CLIENT_ID", ""),
		RedditClientSecret: getEnv("REDDIT_CLIENT_SECRET", ""),

		SentimentAPIURL:   getEnv("SENTIMENT_API_URL", ""),
		SentimentAPIToken: getEnv("SENTIMENT_API_TOKEN", ""),

		SlackWebhookURL: getEnv("SLACK_WEBHOOK_URL", ""),
		EmailHost:       getEnv("EMAIL_HOST", ""),
		EmailPort:       getIntEnv("EMAIL_PORT", 587),
		EmailUser:       getEnv("EMAIL_USER", ""),
		EmailPass:       getEnv("EMAIL_PASS", ""),
		SupportEmail:    getEnv("SUPPORT_EMAIL", "support@sentinelai.com"),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "alerts"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisChannel:  getEnv("REDIS_CHANNEL", "alert_events"),
	}

	// Validate required configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseDriver != "sqlite" && c.DatabaseDriver != "postgres" {
		return fmt.Errorf("DATABASE_DRIVER must be 'sqlite' or 'postgres'")
	}

	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}

	if c.MaxResults <= 0 {
		return fmt.Errorf("MAX_RESULTS must be positive")
	}

	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric: %w", err)
	}

	return nil
}

// EmailEnabled reports whether an SMTP relay is configured
func (c *Config) EmailEnabled() bool {
	return c.EmailHost != ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration (e.g. 30s): %w", key, err)
	}
	return parsed, nil
}
