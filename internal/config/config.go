// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete polychat configuration.
type Config struct {
	// DefaultModel is the model id selected for new chats.
	DefaultModel string `toml:"default_model"`

	// RequestTimeoutSecs bounds every provider call. 0 disables the bound.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`

	// ScoreScale is the analyzer rating range: "0-100" or "0-10".
	ScoreScale string `toml:"score_scale"`

	// DataDir holds the database, key file, and preferences. Empty means
	// ~/.polychat.
	DataDir string `toml:"data_dir"`

	// Endpoints overrides provider endpoint URLs, keyed by provider id.
	// Used for test doubles and proxies; empty means production URLs.
	Endpoints map[string]string `toml:"endpoints"`

	// UI holds presentation settings.
	UI UIConfig `toml:"ui"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light".
	Theme string `toml:"theme"`

	// MarkdownWidth is the wrap width for rendered assistant markdown.
	MarkdownWidth int `toml:"markdown_width"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DefaultModel:       "gemini-2.5-flash",
		RequestTimeoutSecs: 120,
		ScoreScale:         "0-100",
		UI: UIConfig{
			Theme:         "dark",
			MarkdownWidth: 80,
		},
	}
}

// ConfigDir returns the polychat configuration directory, creating it if
// needed.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".polychat")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// ConfigPath returns the TOML config file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// RequestTimeout returns the configured timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// ResolvedDataDir returns the data directory, defaulting to the config
// directory.
func (c *Config) ResolvedDataDir() (string, error) {
	if c.DataDir != "" {
		if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
			return "", fmt.Errorf("failed to create data directory: %w", err)
		}
		return c.DataDir, nil
	}
	return ConfigDir()
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file, falling back to defaults when absent.
// Environment overrides apply after the file.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadFromPath(cfg, path); err != nil {
				return nil, err
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath decodes a TOML config file over cfg.
func LoadFromPath(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// Save writes the config to the standard path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the config as TOML.
func SaveToPath(cfg *Config, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies POLYCHAT_* environment variables.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("POLYCHAT_DEFAULT_MODEL"); v != "" {
		c.DefaultModel = v
	}
	if v := os.Getenv("POLYCHAT_DATA_DIR"); v != "" {
		c.DataDir = v
	}
}

// setDefaults fills zero values left by a partial config file.
func (c *Config) setDefaults() {
	d := Default()
	if c.DefaultModel == "" {
		c.DefaultModel = d.DefaultModel
	}
	if c.RequestTimeoutSecs == 0 {
		c.RequestTimeoutSecs = d.RequestTimeoutSecs
	}
	if c.ScoreScale == "" {
		c.ScoreScale = d.ScoreScale
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
	if c.UI.MarkdownWidth == 0 {
		c.UI.MarkdownWidth = d.UI.MarkdownWidth
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate reports configuration errors.
func (c *Config) Validate() error {
	if c.ScoreScale != "0-100" && c.ScoreScale != "0-10" {
		return fmt.Errorf("score_scale must be \"0-100\" or \"0-10\", got %q", c.ScoreScale)
	}
	if c.RequestTimeoutSecs < 0 {
		return errors.New("request_timeout_secs cannot be negative")
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		return fmt.Errorf("ui.theme must be \"dark\" or \"light\", got %q", c.UI.Theme)
	}
	return nil
}
