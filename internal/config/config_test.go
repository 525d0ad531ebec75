package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"opsboard/server/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	assert.Equal(t, "tcp", cfg.Server.Mode)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "default", cfg.Board.ID)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  mode: uds
  socketPath: /tmp/opsboard.socket
database:
  path: /var/lib/opsboard/board.db
board:
  id: team-42
  seedAreas: [Draft, Review, Done]
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "uds", cfg.Server.Mode)
	assert.Equal(t, "/tmp/opsboard.socket", cfg.Server.SocketPath)
	assert.Equal(t, "/var/lib/opsboard/board.db", cfg.Database.Path)
	assert.Equal(t, "team-42", cfg.Board.ID)
	assert.Equal(t, []string{"Draft", "Review", "Done"}, cfg.Board.SeedAreas)
	// untouched fields keep defaults
	assert.Equal(t, "8080", cfg.Server.Port)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("OPSBOARD_CONFIG", "")
	t.Setenv("SERVER_MODE", "uds")
	t.Setenv("PORT", "9090")
	t.Setenv("OPSBOARD_DB", "/tmp/x.db")

	cfg, err := config.FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "uds", cfg.Server.Mode)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
}
