package infrastructure_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Raikerian/encodec-explorer/internal/infrastructure"
)

func TestBuildLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "explorer.log")

	logger, err := infrastructure.BuildLogger("info", path)
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("decoded")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "decoded", entry["msg"])
	assert.NotEmpty(t, entry["session"])
	assert.Contains(t, entry, "version")
}

func TestBuildLoggerLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus"} {
		logger, err := infrastructure.BuildLogger(level, filepath.Join(t.TempDir(), "l.log"))
		require.NoError(t, err, level)
		assert.NotNil(t, logger)
	}
}
