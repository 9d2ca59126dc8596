package triviaquiz

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, 20, cfg.MaxCallsPerWindow)
	assert.Equal(t, time.Minute, cfg.RateWindow)
	assert.Equal(t, FormatMultiple, cfg.Format)
	assert.Equal(t, 10*time.Second, cfg.QuestionTime)
	assert.Equal(t, 5, cfg.MaxDuplicateRetries)
	assert.Equal(t, ":memory:", cfg.HistoryDBPath)
	assert.Equal(t, "gpt-4-turbo", cfg.Model)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("MAX_CALLS_PER_MINUTE", "3")
	t.Setenv("QUESTION_FORMAT", "single")
	t.Setenv("QUESTION_TIME", "30s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxCallsPerWindow)
	assert.Equal(t, FormatSingle, cfg.Format)
	assert.Equal(t, 30*time.Second, cfg.QuestionTime)
	assert.Equal(t, LogConfig{Level: "debug", Encoding: "console"}, cfg.LogConfig())
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("QUESTION_FORMAT", "essay")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		MaxCallsPerWindow:   20,
		RateWindow:          time.Minute,
		Format:              FormatMultiple,
		MaxDuplicateRetries: 5,
		TemperatureMin:      0.8,
		TemperatureMax:      1.2,
	}
	assert.NoError(t, valid.Validate())

	tests := map[string]func(c *Config){
		"zero calls":     func(c *Config) { c.MaxCallsPerWindow = 0 },
		"zero window":    func(c *Config) { c.RateWindow = 0 },
		"bad format":     func(c *Config) { c.Format = "essay" },
		"zero retries":   func(c *Config) { c.MaxDuplicateRetries = 0 },
		"inverted temps": func(c *Config) { c.TemperatureMin = 1.5 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestReadSecretFrom(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "openai_api_key"), []byte("  sk-secret\n"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty"), []byte("\n"), 0600))

	secret, err := readSecretFrom(dir, "openai_api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk-secret", secret)

	_, err = readSecretFrom(dir, "empty")
	assert.Error(t, err)

	_, err = readSecretFrom(dir, "missing")
	assert.Error(t, err)
}

func TestConfig_GenerateTimeout(t *testing.T) {
	cfg := Config{RequestTimeout: 60 * time.Second, MaxDuplicateRetries: 5}
	assert.Equal(t, 6*time.Minute, cfg.GenerateTimeout())

	cfg.MaxDuplicateRetries = 0
	assert.Equal(t, time.Duration(DefaultMaxDuplicateRetries+1)*60*time.Second, cfg.GenerateTimeout())
}
