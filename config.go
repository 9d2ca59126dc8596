package triviaquiz

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const secretsDir = "/run/secrets"

// Config holds all runtime settings. Values come from the environment.
type Config struct {
	// Model provider
	OpenAIBaseURL  string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model          string        `envconfig:"OPENAI_MODEL" default:"gpt-4-turbo"`
	RequestTimeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"60s"`
	// Secret, read from OPENAI_API_KEY or /run/secrets/openai_api_key
	APIKey string `ignored:"true"`

	// Rate limiting
	MaxCallsPerWindow int           `envconfig:"MAX_CALLS_PER_MINUTE" default:"20"`
	RateWindow        time.Duration `envconfig:"RATE_WINDOW" default:"60s"`

	// Quiz behaviour
	Format              QuestionFormat `envconfig:"QUESTION_FORMAT" default:"multiple"`
	QuestionTime        time.Duration  `envconfig:"QUESTION_TIME" default:"10s"`
	MaxDuplicateRetries int            `envconfig:"MAX_DUPLICATE_RETRIES" default:"5"`
	TemperatureMin      float32        `envconfig:"TEMPERATURE_MIN" default:"0.8"`
	TemperatureMax      float32        `envconfig:"TEMPERATURE_MAX" default:"1.2"`

	// Storage and web
	HistoryDBPath string `envconfig:"HISTORY_DB_PATH" default:":memory:"`
	Port          string `envconfig:"PORT" default:"8180"`
	SessionSecret string `envconfig:"SESSION_SECRET" default:"change-me-session-secret"`
	MaxSessions   int    `envconfig:"MAX_SESSIONS" default:"100"`
	TranscriptDir string `envconfig:"TRANSCRIPT_DIR"`

	// Logging
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"console"`
}

// LoadConfig reads settings from the environment and the API credential
// from the environment or the secrets directory.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if cfg.APIKey == "" {
		key, err := ReadSecret("openai_api_key")
		if err != nil {
			return nil, fmt.Errorf("OPENAI_API_KEY is not set and no secret file was found: %w", err)
		}
		cfg.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.MaxCallsPerWindow <= 0 {
		return errors.New("MAX_CALLS_PER_MINUTE must be positive")
	}
	if c.RateWindow <= 0 {
		return errors.New("RATE_WINDOW must be positive")
	}
	if c.Format != FormatSingle && c.Format != FormatMultiple {
		return fmt.Errorf("QUESTION_FORMAT must be %q or %q, got %q", FormatSingle, FormatMultiple, c.Format)
	}
	if c.MaxDuplicateRetries <= 0 {
		return errors.New("MAX_DUPLICATE_RETRIES must be positive")
	}
	if c.TemperatureMin > c.TemperatureMax {
		return fmt.Errorf("TEMPERATURE_MIN (%.2f) is above TEMPERATURE_MAX (%.2f)", c.TemperatureMin, c.TemperatureMax)
	}
	return nil
}

// GenerateTimeout bounds one question generation: the first model call
// plus every duplicate retry, each limited by RequestTimeout.
func (c *Config) GenerateTimeout() time.Duration {
	retries := c.MaxDuplicateRetries
	if retries <= 0 {
		retries = DefaultMaxDuplicateRetries
	}
	return c.RequestTimeout * time.Duration(retries+1)
}

// LogConfig returns the logger part of the configuration
func (c *Config) LogConfig() LogConfig {
	return LogConfig{Level: c.LogLevel, Encoding: c.LogEncoding}
}

// ReadSecret reads a secret from the Docker secrets directory
func ReadSecret(name string) (string, error) {
	return readSecretFrom(secretsDir, name)
}

func readSecretFrom(dir, name string) (string, error) {
	filePath := dir + "/" + name
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}
