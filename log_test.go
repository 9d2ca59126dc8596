package triviaquiz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := NewLogger(LogConfig{Level: "warn", Encoding: "json", OutputPath: path}, false)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))

	logger.Warn("Rate limit reached", zap.Int("max_calls", 20))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"Rate limit reached"`)
	assert.Contains(t, string(data), `"max_calls":20`)
}

func TestNewLogger_Verbose(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "error", OutputPath: filepath.Join(t.TempDir(), "app.log")}, true)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "loud", OutputPath: filepath.Join(t.TempDir(), "app.log")}, false)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}
