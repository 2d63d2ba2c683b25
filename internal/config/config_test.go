package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cube.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8182", cfg.ListenAddress)
	assert.Equal(t, "cube.db", cfg.Database.Path)
	assert.Equal(t, "linear", cfg.Hunt.Name)
	assert.Empty(t, cfg.Hunt.File)
	assert.Equal(t, 10*time.Second, cfg.Timer.Interval)
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
	assert.Equal(t, 10*time.Second, cfg.GracefulShutdown())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
listen_address: "127.0.0.1:9000"
database:
  path: /var/lib/cube/hunt.db
hunt:
  name: linear
  file: /etc/cube/hunt.cue
timer:
  interval: 1m
logging:
  level: debug
graceful_shutdown_secs: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddress)
	assert.Equal(t, "/var/lib/cube/hunt.db", cfg.Database.Path)
	assert.Equal(t, "/etc/cube/hunt.cue", cfg.Hunt.File)
	assert.Equal(t, time.Minute, cfg.Timer.Interval)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, 3*time.Second, cfg.GracefulShutdown())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "database:\n  path: from-file.db\n")
	t.Setenv("CUBE_DATABASE_PATH", "from-env.db")
	t.Setenv("CUBE_TIMER_INTERVAL", "30s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Timer.Interval)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad level", "logging:\n  level: loud\n"},
		{"zero interval", "timer:\n  interval: 0s\n"},
		{"empty database path", "database:\n  path: \"\"\n"},
		{"negative shutdown", "graceful_shutdown_secs: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid config")
		})
	}
}
