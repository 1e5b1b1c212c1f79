package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cellulite.log")
	logger, cleanup, err := Setup(Config{
		Level:    "debug",
		FilePath: path,
		MaxSizeMB: 1,
		MaxFiles: 2,
	})
	require.NoError(t, err)

	logger.Info("build complete", "items", 3)
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"build complete"`)
	assert.Contains(t, string(data), `"items":3`)
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cellulite.log")
	logger, cleanup, err := Setup(Config{
		Level:    "warn",
		FilePath: path,
		MaxSizeMB: 1,
		MaxFiles: 2,
	})
	require.NoError(t, err)

	logger.Debug("invisible")
	logger.Warn("visible")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "invisible")
	assert.Contains(t, string(data), "visible")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("WARNING"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestRotatingWriterRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cellulite.log")
	w, err := NewRotatingWriter(path, 1, 2)
	require.NoError(t, err)

	// Two writes crossing the 1MB boundary force a rotation.
	chunk := strings.Repeat("x", 600*1024)
	_, err = w.Write([]byte(chunk))
	require.NoError(t, err)
	_, err = w.Write([]byte(chunk))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = os.Stat(path)
	assert.NoError(t, err)
	_, err = os.Stat(path + ".1")
	assert.NoError(t, err, "the previous file was rotated away")
}
