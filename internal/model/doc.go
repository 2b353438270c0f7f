// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the core domain types for polychat: chats,
// messages, attachments, API key sets, and analysis results.
//
// # Key Types
//
//   - Chat: one conversation, including compare-mode state
//   - Message: single immutable turn with role, content, and timestamp
//   - AttachedFile: base64-encoded inline attachment
//   - BiasAnalysis: the analyzer's per-model score card
//
// Histories are append-only; the dispatcher treats Chat as a value,
// returning updated copies rather than mutating shared state.
package model
