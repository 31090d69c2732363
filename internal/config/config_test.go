package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
project:
  root: ./webapp
ai:
  provider: gemini
  model: gemini-2.5-flash
engine:
  concurrency: 8
equivalence:
  structural_tolerance: 0.25
backup:
  limit: 20
history:
  path: runs.db
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "./webapp", cfg.Project.Root)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.AI.Model)
	assert.Equal(t, 8, cfg.Engine.Concurrency)
	assert.Equal(t, 0.25, cfg.Equivalence.StructuralTolerance)
	assert.Equal(t, 20, cfg.Backup.Limit)
	assert.Equal(t, "runs.db", cfg.History.Path)
}

func TestLoadConfigMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Project.Root)
	assert.Equal(t, "stackshift.db", cfg.History.Path)
	assert.Empty(t, cfg.AI.Provider)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ai:
  provider: openai
  api_key: from-file
engine:
  concurrency: 2
`), 0o644))

	t.Setenv("STACKSHIFT_API_KEY", "from-env")
	t.Setenv("STACKSHIFT_AI_PROVIDER", "gemini")
	t.Setenv("STACKSHIFT_CONCURRENCY", "7")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, 7, cfg.Engine.Concurrency)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ai: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}
