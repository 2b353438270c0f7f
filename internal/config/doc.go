// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for
// polychat.
//
// Configuration is TOML at ~/.polychat/config.toml with built-in
// defaults, POLYCHAT_* environment overrides, and validation. A partial
// file is fine; missing fields keep their defaults.
//
// Prefs is the companion store for small UI state (theme toggles,
// dismissed hints) kept as JSON scalars in the data dir, separate from
// the hand-edited config file.
package config
