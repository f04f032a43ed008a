package config

import (
	"os"
	"strconv"
	"time"

	"sheetwise/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	AI       AIConfig
	Upload   UploadConfig
	Blob     BlobConfig
	Server   ServerConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// AIConfig holds semantic classifier settings. An empty key disables the
// classifier entirely; the mapper then runs its deterministic fallback.
type AIConfig struct {
	OpenAIKey   string
	OpenAIModel string
	BaseURL     string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Enabled reports whether the external classifier may be called
func (c AIConfig) Enabled() bool {
	return c.OpenAIKey != ""
}

// TimeoutMode selects how the orchestrator treats a sheet that exceeds
// its wall-clock budget.
type TimeoutMode string

const (
	// TimeoutObserve reports TIMED_OUT but lets the underlying work finish;
	// a late persistence write may still land.
	TimeoutObserve TimeoutMode = "observe"
	// TimeoutCancel propagates context cancellation into the pipeline.
	TimeoutCancel TimeoutMode = "cancel"
)

// UploadConfig holds orchestrator settings
type UploadConfig struct {
	Workers       int
	SheetTimeout  time.Duration
	TimeoutMode   TimeoutMode
	MaxHeaderRows int
}

// BlobConfig holds raw-bytes storage settings
type BlobConfig struct {
	Dir string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnvOrDefault("SSL_MODE", "disable"),
		},
		AI: AIConfig{
			OpenAIKey:   os.Getenv("OPENAI_API_KEY"),
			OpenAIModel: getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL:     getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			MaxTokens:   getEnvIntOrDefault("OPENAI_MAX_TOKENS", 4096),
			Temperature: getEnvFloatOrDefault("OPENAI_TEMPERATURE", 0.1),
			Timeout:     time.Duration(getEnvIntOrDefault("OPENAI_TIMEOUT_SECONDS", 60)) * time.Second,
		},
		Upload: UploadConfig{
			Workers:       getEnvIntOrDefault("UPLOAD_WORKERS", 4),
			SheetTimeout:  time.Duration(getEnvIntOrDefault("SHEET_TIMEOUT_SECONDS", 180)) * time.Second,
			TimeoutMode:   TimeoutMode(getEnvOrDefault("TIMEOUT_MODE", string(TimeoutObserve))),
			MaxHeaderRows: getEnvIntOrDefault("MAX_HEADER_ROWS", 5),
		},
		Blob: BlobConfig{
			Dir: getEnvOrDefault("BLOB_DIR", "data/blobs"),
		},
		Server: ServerConfig{
			Port: getEnvOrDefault("PORT", "8080"),
		},
	}

	if err := validate(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func validate(c *Config) error {
	if c.Upload.Workers < 1 {
		return errors.ConfigInvalid("UPLOAD_WORKERS must be at least 1")
	}
	if c.Upload.SheetTimeout <= 0 {
		return errors.ConfigInvalid("SHEET_TIMEOUT_SECONDS must be positive")
	}
	if c.Upload.MaxHeaderRows < 1 {
		return errors.ConfigInvalid("MAX_HEADER_ROWS must be at least 1")
	}
	switch c.Upload.TimeoutMode {
	case TimeoutObserve, TimeoutCancel:
	default:
		return errors.ConfigInvalid("TIMEOUT_MODE must be \"observe\" or \"cancel\"")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
