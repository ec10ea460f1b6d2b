package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	GoEnv string `env:"GO_ENV" default:"development"`

	// Content page the client is attached to
	APIURL   string `env:"API_URL" default:"http://localhost:8000"`
	ManhwaID int64  `env:"MANHWA_ID" default:"0"`

	// Anti-forgery token
	CSRFCookieName string `env:"CSRF_COOKIE_NAME" default:"csrftoken"`
	CSRFHeaderName string `env:"CSRF_HEADER_NAME" default:"X-CSRFToken"`

	// Requests
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" default:"10s"`
	RequestsPerSecond float64       `env:"REQUESTS_PER_SECOND" default:"5"`
	RequestBurst      int           `env:"REQUEST_BURST" default:"5"`

	// UI behaviour
	NotifyTTL     time.Duration `env:"NOTIFY_TTL" default:"2s"`
	RenderReplies bool          `env:"RENDER_REPLIES" default:"false"`

	// Shared thread fragment cache (empty URL disables it)
	RedisURL      string `env:"REDIS_URL"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" default:"60"`

	// Development
	LogLevel      string `env:"LOG_LEVEL" default:"info"`
	LogFormat     string `env:"LOG_FORMAT" default:"text"`
	DevServerPort int    `env:"DEV_SERVER_PORT" default:"8000"`
	SessionSecret string `env:"SESSION_SECRET" default:"dev-session-secret-change-me"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// .env is optional, system env vars still apply without it
	_ = godotenv.Load(".env")

	config := &Config{}

	if err := loadEnvString(&config.GoEnv, "GO_ENV", "development"); err != nil {
		return nil, err
	}

	// Page
	if err := loadEnvString(&config.APIURL, "API_URL", "http://localhost:8000"); err != nil {
		return nil, err
	}
	if err := loadEnvInt64(&config.ManhwaID, "MANHWA_ID", 0); err != nil {
		return nil, err
	}

	// Anti-forgery
	if err := loadEnvString(&config.CSRFCookieName, "CSRF_COOKIE_NAME", "csrftoken"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.CSRFHeaderName, "CSRF_HEADER_NAME", "X-CSRFToken"); err != nil {
		return nil, err
	}

	// Requests
	if err := loadEnvDuration(&config.RequestTimeout, "REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvFloat(&config.RequestsPerSecond, "REQUESTS_PER_SECOND", 5); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.RequestBurst, "REQUEST_BURST", 5); err != nil {
		return nil, err
	}

	// UI behaviour
	if err := loadEnvDuration(&config.NotifyTTL, "NOTIFY_TTL", 2*time.Second); err != nil {
		return nil, err
	}
	if err := loadEnvBool(&config.RenderReplies, "RENDER_REPLIES", false); err != nil {
		return nil, err
	}

	// Redis
	if err := loadEnvString(&config.RedisURL, "REDIS_URL", ""); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.RedisPassword, "REDIS_PASSWORD", ""); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.CacheTTL, "CACHE_TTL", 60); err != nil {
		return nil, err
	}

	// Development
	if err := loadEnvString(&config.LogLevel, "LOG_LEVEL", "info"); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.LogFormat, "LOG_FORMAT", "text"); err != nil {
		return nil, err
	}
	if err := loadEnvInt(&config.DevServerPort, "DEV_SERVER_PORT", 8000); err != nil {
		return nil, err
	}
	if err := loadEnvString(&config.SessionSecret, "SESSION_SECRET", "dev-session-secret-change-me"); err != nil {
		return nil, err
	}
	return config, nil
}

// Helper functions for type conversion and validation
func loadEnvString(target *string, key, defaultValue string) error {
	if value := os.Getenv(key); value != "" {
		*target = value
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt(target *int, key string, defaultValue int) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvInt64(target *int64, key string, defaultValue int64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvFloat(target *float64, key string, defaultValue float64) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid float value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvBool(target *bool, key string, defaultValue bool) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

func loadEnvDuration(target *time.Duration, key string, defaultValue time.Duration) error {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration value for %s: %v", key, err)
		}
		*target = parsed
	} else {
		*target = defaultValue
	}
	return nil
}

// Validate performs validation on the loaded configuration
func (c *Config) Validate() error {
	var errors []string

	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		errors = append(errors, "API_URL must start with http:// or https://")
	}
	if c.ManhwaID < 0 {
		errors = append(errors, "MANHWA_ID must not be negative")
	}
	if c.CSRFCookieName == "" || c.CSRFHeaderName == "" {
		errors = append(errors, "CSRF_COOKIE_NAME and CSRF_HEADER_NAME must not be empty")
	}
	if c.RequestTimeout <= 0 {
		errors = append(errors, "REQUEST_TIMEOUT must be positive")
	}
	if c.RequestsPerSecond <= 0 || c.RequestBurst < 1 {
		errors = append(errors, "REQUESTS_PER_SECOND must be positive and REQUEST_BURST at least 1")
	}
	if c.NotifyTTL <= 0 {
		errors = append(errors, "NOTIFY_TTL must be positive")
	}
	if c.DevServerPort < 1 || c.DevServerPort > 65535 {
		errors = append(errors, "DEV_SERVER_PORT must be between 1 and 65535")
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %s", strings.Join(validLogLevels, ", ")))
	}

	validLogFormats := []string{"text", "json"}
	if !contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("LOG_FORMAT must be one of: %s", strings.Join(validLogFormats, ", ")))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GoEnv == "development"
}

// CacheEnabled reports whether a shared thread fragment cache is configured
func (c *Config) CacheEnabled() bool {
	return c.RedisURL != ""
}

// CacheExpiry returns CACHE_TTL as a duration
func (c *Config) CacheExpiry() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// Helper function to check if slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
