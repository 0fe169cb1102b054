package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerWritesJSONToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "logs", "notton.log")

	lg, err := NewLogger(Config{Level: "info", File: file, Production: true})
	require.NoError(t, err)

	lg.Debug("hidden")
	lg.Info("drain finished", zap.Int(FieldCount, 3))
	require.NoError(t, lg.Sync())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"drain finished"`)
	assert.Contains(t, out, `"count":3`)
	assert.False(t, strings.Contains(out, "hidden"))
}

func TestNewLoggerRejectsBadLevel(t *testing.T) {
	_, err := NewLogger(Config{Level: "loud"})
	assert.Error(t, err)
}
