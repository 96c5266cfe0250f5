package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hnrobert/etcapi/internal/database"
)

func TestLoadMissingIsDefault(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "config.yaml"))
	cfg, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestEnsureAndRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	s := NewStore(path)
	require.NoError(t, s.Ensure())
	_, err := os.Stat(path)
	require.NoError(t, err)

	cfg := Default()
	cfg.HostRoot = "/host"
	cfg.Sudo.Enabled = true
	cfg.Databases = []database.Spec{{Format: database.FormatHosts, Backend: database.BackendMakeDB, Backup: true}}
	require.NoError(t, s.Save(cfg))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
listen: 127.0.0.1:9000
command_timeout: 3s
sudo:
  enabled: true
  user: admin
databases:
  - format: hosts
    backup: true
  - name: scratch
    format: services
    backend: memory
    lines: ["ssh 22/tcp"]
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	cfg, err := NewStore(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Listen)
	assert.Equal(t, 3*time.Second, cfg.CommandTimeout)
	assert.Equal(t, DefaultTokenTTL, cfg.TokenTTL)
	assert.Equal(t, "admin", cfg.Sudo.User)
	require.Len(t, cfg.Databases, 2)
	assert.Equal(t, []string{"ssh 22/tcp"}, cfg.Databases[1].Lines)
}

func TestLoadRejectsBadDatabases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("databases:\n  - format: hosts\n  - format: hosts\n"), 0o600))
	_, err := NewStore(path).Load()
	assert.ErrorContains(t, err, "duplicate name")

	require.NoError(t, os.WriteFile(path, []byte("databases:\n  - format: fstab\n"), 0o600))
	_, err = NewStore(path).Load()
	assert.ErrorContains(t, err, "unknown format")

	require.NoError(t, os.WriteFile(path, []byte("listen: [oops\n"), 0o600))
	_, err = NewStore(path).Load()
	assert.ErrorContains(t, err, "parse")
}
