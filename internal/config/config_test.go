package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 5, cfg.Cache.StepSeconds)
	assert.Equal(t, 10, cfg.Stream.MaxConcurrentPerIP)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "skycalc.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[server]
addr = ":9090"

[log]
level = "debug"

[cache]
step_seconds = 10
horizon_seconds = 1200
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Cache.StepSeconds)
	assert.Equal(t, 1200, cfg.Cache.HorizonSeconds)
	// Untouched sections keep their defaults.
	assert.Equal(t, "skycalc.db", cfg.DB.Path)
}

func TestMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SKYCALC_ADDR", ":7070")
	t.Setenv("SKYCALC_LOG_FORMAT", "text")
	t.Setenv("SKYCALC_CACHE_ENABLED", "false")
	t.Setenv("SKYCALC_WORKERS", "4")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 4, cfg.Engine.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"auth without token", func(c *Config) { c.Auth.Enabled = true }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"step too large", func(c *Config) { c.Cache.StepSeconds = 600 }},
		{"horizon below step", func(c *Config) { c.Cache.HorizonSeconds = 1 }},
		{"zero per-ip streams", func(c *Config) { c.Stream.MaxConcurrentPerIP = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDurations(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "5s", cfg.Cache.Step().String())
	assert.Equal(t, "10m0s", cfg.Cache.Horizon().String())
	assert.Equal(t, "30s", cfg.Stream.Keepalive().String())
}
