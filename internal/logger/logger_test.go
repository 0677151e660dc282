package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(path, "info")
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("document indexed", zap.Int("chunks", 3))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"document indexed"`)
	assert.Contains(t, string(data), `"chunks":3`)
	assert.NotContains(t, string(data), "hidden")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "app.log"), "loud")
	assert.Error(t, err)
}
