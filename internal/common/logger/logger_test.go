package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}

func TestNewStructured_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shopctl.log")

	z := NewWithOptions(Options{Level: "info", Format: "json", Output: path})
	log := NewZapAdapter(z)
	log.WithFields(map[string]interface{}{"chatId": "c-1"}).Info("history loaded", map[string]interface{}{"count": 3})
	log.Debug("filtered out", nil)
	require.NoError(t, z.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"history loaded"`)
	assert.Contains(t, string(data), `"chatId":"c-1"`)
	assert.NotContains(t, string(data), "filtered out")
}

func TestNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	assert.NotPanics(t, func() {
		log.WithError(assert.AnError).Error("ignored", map[string]interface{}{"k": "v"})
	})
}
