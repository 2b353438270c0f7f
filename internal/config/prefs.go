// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
)

// =============================================================================
// PREFERENCES
// =============================================================================

// Prefs is a string-keyed store of JSON-serializable scalars for UI
// state that doesn't belong in the config file (collapsed panels, last
// selected models, dismissed hints). Writes persist immediately.
//
// Safe for concurrent use.
type Prefs struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
}

// OpenPrefs loads the preference file, starting empty when absent.
func OpenPrefs(path string) (*Prefs, error) {
	p := &Prefs{path: path, values: map[string]json.RawMessage{}}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if err := json.Unmarshal(data, &p.values); err != nil {
		// A corrupt prefs file is not worth failing startup over.
		p.values = map[string]json.RawMessage{}
	}
	return p, nil
}

// GetString returns a string preference, or def when unset.
func (p *Prefs) GetString(key, def string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	raw, ok := p.values[key]
	if !ok {
		return def
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return def
	}
	return s
}

// GetBool returns a boolean preference, or def when unset.
func (p *Prefs) GetBool(key string, def bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	raw, ok := p.values[key]
	if !ok {
		return def
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return def
	}
	return b
}

// Set stores one preference and persists the file.
func (p *Prefs) Set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("unserializable preference %q: %w", key, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = raw
	return p.flushLocked()
}

// Delete removes one preference and persists the file.
func (p *Prefs) Delete(key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.values, key)
	return p.flushLocked()
}

func (p *Prefs) flushLocked() error {
	data, err := json.MarshalIndent(p.values, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}
	return nil
}
