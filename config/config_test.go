package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("LOOKOUT_HOME", home)
	dir := filepath.Join(home, "config", "lookout")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lookout.yml"), []byte(content), 0600))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("LOOKOUT_HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "127.0.0.1:8689", cfg.Web.Addr)
	assert.Zero(t, cfg.CleanupTimeout)
}

func TestLoadParsesDurationsAndSections(t *testing.T) {
	writeConfig(t, `
cleanup_timeout: 45m
debounce: 200ms
transcript_dir: /data/sessions
log_level: debug
web:
  addr: 0.0.0.0:9000
`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, cfg.CleanupTimeout)
	assert.Equal(t, 200*time.Millisecond, cfg.Debounce)
	assert.Equal(t, "/data/sessions", cfg.TranscriptDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:9000", cfg.Web.Addr)
}

func TestLoadMalformedFileErrors(t *testing.T) {
	writeConfig(t, "cleanup_timeout: [unclosed")

	_, err := Load()
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	writeConfig(t, "cleanup_timeout: 45m")
	t.Setenv("LOOKOUT_CLEANUP_TIMEOUT", "2h")
	t.Setenv("LOOKOUT_WEB_ADDR", "127.0.0.1:7777")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.CleanupTimeout)
	assert.Equal(t, "127.0.0.1:7777", cfg.Web.Addr)
}

func TestUnmarshalExtension(t *testing.T) {
	writeConfig(t, `
debounce: 150ms
summarizer:
  model: small
  interval: 30s
`)

	cfg, err := Load()
	require.NoError(t, err)

	var ext struct {
		Model    string        `mapstructure:"model"`
		Interval time.Duration `mapstructure:"interval"`
	}
	require.NoError(t, cfg.UnmarshalExtension("summarizer", &ext))
	assert.Equal(t, "small", ext.Model)
	assert.Equal(t, 30*time.Second, ext.Interval)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "sessions"), expandHome("~/sessions"))
	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
}
