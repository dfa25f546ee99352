package logging

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"kisanrakshak/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLoggerWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kisan.log")
	logger, err := New(config.LoggingConfig{Level: "debug", File: path, MaxSizeMB: 1, MaxBackups: 1}, false)
	require.NoError(t, err)

	logger.Named("mandi").Info("prices fetched")
	_ = logger.Sync()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var last string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		last = scanner.Text()
	}
	require.NotEmpty(t, last)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(last), &rec))
	assert.Equal(t, "info", rec["level"])
	assert.Equal(t, "mandi", rec["logger"])
	assert.Equal(t, "prices fetched", rec["msg"])
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "loud"}, true)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}
