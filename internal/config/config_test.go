package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hbomb79/vtm/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[ingest]
ingest_path = "/tmp/vtm-ingest"
`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, 10, cfg.BufferSize)
	assert.Equal(t, 1, cfg.DebugLevel)
	assert.False(t, cfg.Show)
	assert.Equal(t, 2, cfg.Diagnostic.Workers)
}

func TestLoad_RejectsMissingIngestPath(t *testing.T) {
	path := writeConfig(t, `buffer_size = 10`)

	_, err := config.Load(path)

	assert.Error(t, err)
}

func TestLoad_RejectsOutOfRangeDebugLevel(t *testing.T) {
	path := writeConfig(t, `
debug_level = 9

[ingest]
ingest_path = "/tmp/vtm-ingest"
`)

	_, err := config.Load(path)

	assert.Error(t, err)
}

func TestLoad_ExpandsHomeDirInOutputDir(t *testing.T) {
	path := writeConfig(t, `
[ingest]
ingest_path = "/tmp/vtm-ingest"

[diagnostic]
diagnostic_output_dir = "~/vtm-out"
`)

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.NotContains(t, cfg.Diagnostic.OutputDir, "~")
}
