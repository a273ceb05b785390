package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "google", cfg.Translate.DefaultService)
	assert.Equal(t, 95, cfg.Poster.JPEGQuality)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"same languages", func(c *Config) { c.Translate.DefaultTarget = c.Translate.DefaultSource }},
		{"bad backend", func(c *Config) { c.Vision.Backend = "gpt" }},
		{"redis without addr", func(c *Config) { c.Settings.Backend = "redis" }},
		{"jpeg quality", func(c *Config) { c.Poster.JPEGQuality = 0 }},
		{"export quality", func(c *Config) { c.Export.Quality = 2 }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateAutoSource(t *testing.T) {
	cfg := Default()
	cfg.Translate.DefaultSource = "auto"
	cfg.Translate.DefaultTarget = "auto"
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  addr: \":9000\"\ntranslate:\n  default_service: deepl\n  deepl_key: k\n")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "deepl", cfg.Translate.DefaultService)
	assert.Equal(t, "k", cfg.Translate.DeepLKey)
	// untouched keys keep their defaults
	assert.Equal(t, "zh-CN", cfg.Translate.DefaultTarget)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LABELKIT_LOG_LEVEL", "debug")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveToFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Default()
	cfg.Server.Addr = ":7777"
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7777", loaded.Server.Addr)
}
