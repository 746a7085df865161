package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()

	loader, err := Load(root)
	require.NoError(t, err)
	cfg := loader.Current()

	assert.Equal(t, 800, cfg.Game.WindowWidth)
	assert.Equal(t, 600, cfg.Game.WindowHeight)
	assert.Equal(t, 60, cfg.Game.TPS)
	assert.Equal(t, 60*time.Second, cfg.Game.LevelDuration)
	assert.Equal(t, filepath.Join(root, "data"), cfg.Game.DataDir)
	assert.Equal(t, 20, cfg.Analysis.MinParticipants)
	assert.Equal(t, filepath.Join(root, "figures"), cfg.Analysis.OutputDir)
	assert.Equal(t, time.Minute, cfg.Analysis.RefreshInterval)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "5050", cfg.Server.Port)
	assert.Empty(t, cfg.Game.LevelsFile)
}

func TestLoadFromFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))

	content := `
game:
  level_duration: 30s
  data_dir: /tmp/sessions
analysis:
  min_participants: 12
database:
  enabled: true
  driver: sqlite
  path: archive.db
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte(content), 0o600))

	loader, err := Load(root)
	require.NoError(t, err)
	cfg := loader.Current()

	assert.Equal(t, 30*time.Second, cfg.Game.LevelDuration)
	assert.Equal(t, "/tmp/sessions", cfg.Game.DataDir)
	assert.Equal(t, 12, cfg.Analysis.MinParticipants)
	assert.True(t, cfg.Database.Enabled)
	assert.Equal(t, filepath.Join(root, "archive.db"), cfg.Database.Path)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PULSEPATH_SERVER_PORT", "9090")

	loader, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "9090", loader.Current().Server.Port)
}

func TestLoadMalformedFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "config.yaml"), []byte("game: [unterminated"), 0o600))

	_, err := Load(root)
	require.Error(t, err)
}
