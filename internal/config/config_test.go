// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFromPath_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "default_model = \"groq-llama-70b\"\n\n[ui]\ntheme = \"light\"\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := Default()
	if err := LoadFromPath(cfg, path); err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	cfg.setDefaults()

	if cfg.DefaultModel != "groq-llama-70b" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.UI.Theme != "light" {
		t.Errorf("Theme = %q", cfg.UI.Theme)
	}
	// Untouched fields keep defaults.
	if cfg.RequestTimeoutSecs != 120 {
		t.Errorf("RequestTimeoutSecs = %d, want default 120", cfg.RequestTimeoutSecs)
	}
	if cfg.ScoreScale != "0-100" {
		t.Errorf("ScoreScale = %q, want default", cfg.ScoreScale)
	}
}

func TestSaveToPath_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.DefaultModel = "mistral-large"
	cfg.Endpoints = map[string]string{"groq": "http://localhost:9999"}
	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	loaded := Default()
	if err := LoadFromPath(loaded, path); err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.DefaultModel != "mistral-large" {
		t.Errorf("DefaultModel = %q", loaded.DefaultModel)
	}
	if loaded.Endpoints["groq"] != "http://localhost:9999" {
		t.Errorf("Endpoints = %v", loaded.Endpoints)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default ok", func(c *Config) {}, false},
		{"scale 0-10 ok", func(c *Config) { c.ScoreScale = "0-10" }, false},
		{"bad scale", func(c *Config) { c.ScoreScale = "percent" }, true},
		{"negative timeout", func(c *Config) { c.RequestTimeoutSecs = -5 }, true},
		{"bad theme", func(c *Config) { c.UI.Theme = "solarized" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("POLYCHAT_DEFAULT_MODEL", "deepseek-chat")

	cfg := Default()
	cfg.applyEnvOverrides()
	if cfg.DefaultModel != "deepseek-chat" {
		t.Errorf("DefaultModel = %q, want env override", cfg.DefaultModel)
	}
}

// =============================================================================
// PREFS TESTS
// =============================================================================

func TestPrefs_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")

	p, err := OpenPrefs(path)
	if err != nil {
		t.Fatalf("OpenPrefs: %v", err)
	}
	if err := p.Set("theme", "light"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := p.Set("hide_hint", true); err != nil {
		t.Fatalf("Set: %v", err)
	}

	reopened, err := OpenPrefs(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := reopened.GetString("theme", "dark"); got != "light" {
		t.Errorf("theme = %q", got)
	}
	if !reopened.GetBool("hide_hint", false) {
		t.Error("hide_hint lost in round trip")
	}
	if got := reopened.GetString("missing", "fallback"); got != "fallback" {
		t.Errorf("missing key = %q, want fallback", got)
	}
}

func TestPrefs_CorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	p, err := OpenPrefs(path)
	if err != nil {
		t.Fatalf("OpenPrefs: %v", err)
	}
	if got := p.GetString("anything", "def"); got != "def" {
		t.Errorf("value = %q, want default", got)
	}
}

func TestPrefs_Delete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	p, _ := OpenPrefs(path)
	p.Set("k", "v")
	if err := p.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := p.GetString("k", "gone"); got != "gone" {
		t.Errorf("deleted key = %q", got)
	}
}
