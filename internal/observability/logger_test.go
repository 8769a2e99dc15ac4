// internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/gridpilot-cli/internal/config"
)

// initCaptured initializes the logger with an in-memory console writer so
// tests can inspect what was emitted without touching process stdout.
func initCaptured(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitializeConsoleFormat(t *testing.T) {
	buf := initCaptured(t, config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "gridpilot",
	})

	GetLogger().Info("console message", zap.String("component", "router"))

	output := buf.String()
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "console message")
	// The console encoder colorizes levels and dot-suffixes the logger name.
	assert.Contains(t, output, "\x1b[")
	assert.Contains(t, output, "gridpilot.")
}

func TestInitializeJSONFormat(t *testing.T) {
	buf := initCaptured(t, config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "gridpilot",
	})

	GetLogger().Warn("json message", zap.String("key", "value"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "gridpilot", entry["logger"])
	assert.Equal(t, "json message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestInitializeRespectsLevel(t *testing.T) {
	buf := initCaptured(t, config.LoggerConfig{
		Level:  "warn",
		Format: "json",
	})

	GetLogger().Info("filtered out")
	GetLogger().Warn("kept")

	assert.NotContains(t, buf.String(), "filtered out")
	assert.Contains(t, buf.String(), "kept")
}

func TestInitializeWritesLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "gridpilot.log")
	initCaptured(t, config.LoggerConfig{
		Level:   "debug",
		Format:  "console",
		LogFile: logFile,
		MaxSize: 1,
	})

	GetLogger().Error("file-bound message")
	Sync()

	content, err := os.ReadFile(logFile)
	require.NoError(t, err)
	// The file core is always JSON regardless of the console format.
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(content, &entry))
	assert.Equal(t, "file-bound message", entry["msg"])
}

func TestInitializeOnlyOnce(t *testing.T) {
	buf := initCaptured(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"})
	first := GetLogger()

	Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "second"}, zapcore.AddSync(&bytes.Buffer{}))
	second := GetLogger()

	assert.Same(t, first, second)
	second.Info("name check")
	assert.True(t, strings.Contains(buf.String(), "first"))
	assert.False(t, strings.Contains(buf.String(), "second"))
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
	// Without initialization the fallback must still be safe to use.
	logger.Debug("fallback is usable")
}

func TestGetLoggerReturnsGlobal(t *testing.T) {
	initCaptured(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "global"})

	assert.Same(t, globalLogger.Load(), GetLogger())
}

func TestSyncUninitializedIsNoop(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	Sync()
}
