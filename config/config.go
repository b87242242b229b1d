// Package config loads lookout.yml from the XDG config directory. Unknown
// top-level sections are kept raw so tools layered on lookout can store
// their own settings and decode them with UnmarshalExtension.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/lookout/pkg/paths"
)

// Config holds lookout's settings.
type Config struct {
	// CleanupTimeout removes sessions idle longer than this. Zero disables
	// the timeout rule.
	CleanupTimeout time.Duration `mapstructure:"cleanup_timeout"`

	// Debounce is the write cache's coalescing window.
	Debounce time.Duration `mapstructure:"debounce"`

	// TranscriptDir is the external agent's session transcript directory.
	TranscriptDir string `mapstructure:"transcript_dir"`

	// LogLevel overrides the default logrus level.
	LogLevel string `mapstructure:"log_level"`

	Web WebConfig `mapstructure:"web"`

	// raw keeps the full decoded document for extensions.
	raw map[string]interface{}
}

// WebConfig configures the companion web view.
type WebConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Debounce: 100 * time.Millisecond,
		Web:      WebConfig{Addr: "127.0.0.1:8689"},
	}
}

// Path returns the config file location.
func Path() string {
	return filepath.Join(paths.ConfigDir(), "lookout.yml")
}

// Load reads the config file, falling back to defaults when it is missing.
// A malformed file is an error; silently ignoring it would mask typos.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := decode(raw, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.raw = raw
	cfg.TranscriptDir = expandHome(cfg.TranscriptDir)

	applyEnv(cfg)
	return cfg, nil
}

// UnmarshalExtension decodes an unknown top-level section into out.
func (c *Config) UnmarshalExtension(key string, out interface{}) error {
	if c.raw == nil {
		return nil
	}
	section, ok := c.raw[key]
	if !ok {
		return nil
	}
	return decode(section, out)
}

// decode maps YAML-decoded values onto a struct, parsing duration strings.
func decode(in, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// applyEnv applies environment overrides on top of file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("LOOKOUT_CLEANUP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CleanupTimeout = d
		}
	}
	if v := os.Getenv("LOOKOUT_TRANSCRIPT_DIR"); v != "" {
		cfg.TranscriptDir = expandHome(v)
	}
	if v := os.Getenv("LOOKOUT_WEB_ADDR"); v != "" {
		cfg.Web.Addr = v
	}
	if v := os.Getenv("LOOKOUT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
		}
	}
	return path
}
