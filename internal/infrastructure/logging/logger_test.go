package logging

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)

	level, err = ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, level)

	_, err = ParseLevel("verbose")
	assert.EqualError(t, err, "unknown logging level: verbose")
}

func TestNewLogger_ProductionFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "logging")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "gateway.log")
	logger, err := NewLogger(&Config{FilePath: path, Level: "info", Env: "production", AppID: "learn-gateway"})
	require.NoError(t, err)

	logger.Debug("dropped")
	logger.Info("lesson completed", zap.Int("lesson.id", 188))
	require.NoError(t, logger.Sync())

	raw, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	out := string(raw)
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"message":"lesson completed"`)
	assert.Contains(t, out, `"service.id":"learn-gateway"`)
	assert.Contains(t, out, `"log.level":"info"`)
	assert.Contains(t, out, `"@timestamp"`)
}

func TestLoggerInContext(t *testing.T) {
	assert.NotNil(t, ExtractLoggerFromContext(context.Background()))

	core, logs := observer.New(zap.InfoLevel)
	ctx := SetLoggerInContext(context.Background(), zap.New(core))
	ExtractLoggerFromContext(ctx).Info("from context")
	assert.Equal(t, 1, logs.FilterMessage("from context").Len())
}
