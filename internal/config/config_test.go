package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 400.0, cfg.Layout.CenterX)
	assert.Equal(t, 300.0, cfg.Layout.CenterY)
	assert.Equal(t, 8, cfg.Layout.BaseCapacity)
	assert.Equal(t, 4, cfg.Layout.CapacityGrowth)
	assert.Equal(t, 2.5, cfg.Layout.RingSpacing)
	assert.Equal(t, ".stm", cfg.Service.ItemSuffix)
	assert.Equal(t, 4, cfg.Aggregate.Concurrency)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[service]
endpoint = "http://media.internal:9000"
timeout = "5s"
token = "secret"

[layout]
base_capacity = 6
satellite_radius = 40.0

[aggregate]
concurrency = 1

[server]
port = 9090
open_browser = false
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://media.internal:9000", cfg.Service.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Service.Timeout)
	assert.Equal(t, "secret", cfg.Service.Token)
	assert.Equal(t, 6, cfg.Layout.BaseCapacity)
	assert.Equal(t, 40.0, cfg.Layout.SatelliteRadius)
	assert.Equal(t, 75.0, cfg.Layout.CentralRadius, "unset keys keep defaults")
	assert.Equal(t, 1, cfg.Aggregate.Concurrency)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Server.OpenBrowser)
	assert.Equal(t, ".stm", cfg.Service.ItemSuffix)
}

func TestLoad_MissingDefaultFileIsNotAnError(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "topicmap"), 0o755))
	require.NoError(t, os.WriteFile(DefaultPath(), []byte("[server]\nport = 7000\n"), 0o644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "topicmap", "config.toml"), DefaultPath())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "read config")
}

func TestLoad_Malformed(t *testing.T) {
	_, err := Load(writeConfig(t, "[server\nport = "))
	assert.ErrorContains(t, err, "parse config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty endpoint", func(c *Config) { c.Service.Endpoint = "" }, "Endpoint: field is required"},
		{"relative endpoint", func(c *Config) { c.Service.Endpoint = "media" }, "Endpoint: must be an absolute URL"},
		{"zero timeout", func(c *Config) { c.Service.Timeout = 0 }, "Timeout: must be greater than 0"},
		{"zero central radius", func(c *Config) { c.Layout.CentralRadius = 0 }, "CentralRadius: must be greater than 0"},
		{"zero base capacity", func(c *Config) { c.Layout.BaseCapacity = 0 }, "BaseCapacity: must be at least 1"},
		{"negative growth", func(c *Config) { c.Layout.CapacityGrowth = -1 }, "CapacityGrowth: must be at least 0"},
		{"zero concurrency", func(c *Config) { c.Aggregate.Concurrency = 0 }, "Concurrency: must be at least 1"},
		{"huge port", func(c *Config) { c.Server.Port = 70000 }, "Port: must not exceed 65535"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "Level: must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}
