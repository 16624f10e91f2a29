package logutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLBeforeSetupIsNop(t *testing.T) {
	ResetForTest()
	l := L()
	require.NotNil(t, l)
	l.Info("discarded")
}

func TestSetupWritesJSONFile(t *testing.T) {
	t.Cleanup(ResetForTest)
	path := filepath.Join(t.TempDir(), "overlay.log")

	logger, err := Setup(Options{Level: "debug", FileLogging: true, File: path})
	require.NoError(t, err)
	assert.Same(t, logger, L())

	Named("engine").Debug("shape applied")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(data))
	assert.Contains(t, line, `"msg":"shape applied"`)
	assert.Contains(t, line, `"logger":"engine"`)
}

func TestLevelFilters(t *testing.T) {
	t.Cleanup(ResetForTest)
	path := filepath.Join(t.TempDir(), "overlay.log")

	logger, err := Setup(Options{Level: "warn", FileLogging: true, File: path})
	require.NoError(t, err)
	logger.Info("quiet")
	logger.Warn("loud")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "loud")
}

func TestBadLevel(t *testing.T) {
	_, err := Setup(Options{Level: "chatty"})
	assert.Error(t, err)
}
