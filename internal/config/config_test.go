package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_FileWithDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
postgres:
  host: db.internal
scheduler:
  tick: 1m
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, time.Minute, cfg.Scheduler.Tick)

	// Unset sections take defaults.
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5432, cfg.Postgres.Port)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 500, cfg.Scheduler.BatchLimit)
	assert.True(t, cfg.Providers.EPO.Enabled)
	assert.True(t, cfg.Providers.TMview.Enabled)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("IPSENTINEL_POSTGRES_HOST", "pg.override")
	t.Setenv("IPSENTINEL_LOG_LEVEL", "debug")

	path := writeConfig(t, `
postgres:
  host: from-file
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pg.override", cfg.Postgres.Host)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("IPSENTINEL_SERVER_PORT", "7070")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:7070", cfg.Server.Addr())
}

func TestValidate_Rejections(t *testing.T) {
	base := func() *Config {
		cfg := &Config{}
		ApplyDefaults(cfg)
		return cfg
	}

	cfg := base()
	cfg.Scheduler.Tick = -time.Second
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Search.FanoutLimit = 0
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Providers.EPO.Enabled = false
	cfg.Providers.USPTO.Enabled = false
	cfg.Providers.TMview.Enabled = false
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Scheduler.LockEnabled = true
	cfg.Scheduler.LockTTL = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, base().Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
