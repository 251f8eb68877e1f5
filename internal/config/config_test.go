package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load("", dir)
	require.NoError(t, err)

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, dir, cfg.Storage.DataDir)
	assert.Equal(t, filepath.Join(dir, "dosekeeper.json"), cfg.Storage.FilePath)
	assert.Equal(t, "127.0.0.1", cfg.Server.Address)
	assert.Equal(t, 8787, cfg.Server.Port)
	assert.True(t, cfg.Alarms.Enabled)
	assert.Equal(t, "medicine-alarm", cfg.Alarms.ChannelID)
	assert.Equal(t, 60, cfg.Refresh.IntervalSeconds)
	assert.Equal(t, 7, cfg.Stats.DefaultDays)
	assert.Equal(t, 5, cfg.Stats.LowStockThreshold)
	assert.NotEmpty(t, cfg.Security.JWTSecret, "a secret is generated when none is configured")
	assert.Equal(t, "127.0.0.1:8787", cfg.Addr())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dosekeeper.yaml")
	content := `
storage:
  backend: sqlite
server:
  port: 9000
stats:
  default_days: 30
notify:
  command: ["notify-send", "-u", "critical"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	t.Setenv("DOSEKEEPER_SERVER_PORT", "9100")

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 9100, cfg.Server.Port, "env overrides the file")
	assert.Equal(t, 30, cfg.Stats.DefaultDays)
	assert.Equal(t, []string{"notify-send", "-u", "critical"}, cfg.Notify.Command)
}

func TestLoad_RejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOSEKEEPER_STORAGE_BACKEND", "floppy")

	_, err := Load("", dir)
	assert.Error(t, err)
}

func TestLoad_RejectsOversizedStatsWindow(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOSEKEEPER_STATS_DEFAULT_DAYS", "100000")

	_, err := Load("", dir)
	assert.Error(t, err)
}

func TestLoad_PostgresNeedsDSN(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOSEKEEPER_STORAGE_BACKEND", "postgres")
	t.Setenv("DOSEKEEPER_STORAGE_POSTGRES_DSN", "")

	_, err := Load("", dir)
	assert.Error(t, err)
}

func TestLoad_DataDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DOSEKEEPER_DATA_DIR", dir)

	cfg, err := Load("", "")
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Storage.DataDir)
	assert.Equal(t, filepath.Join(dir, "dosekeeper.db"), cfg.Storage.SQLitePath)
}
