// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store persists chats and API keys in a local SQLite database.
//
// Chats are stored as JSON payloads with denormalized columns for
// recency-ordered listing. API keys are encrypted at rest with
// AES-256-GCM; the encryption key derives from random material kept in a
// 0600 file beside the database, so neither file alone exposes the keys.
//
// A Watcher built on fsnotify reports debounced external changes to the
// database, letting a second instance sharing the data dir refresh
// without polling.
//
// # Key Types
//
//   - Store: SQLite implementation of ChatStore and KeyStore
//   - ChatStore, KeyStore: the interfaces callers depend on
//   - Watcher: debounced change notification for the database file
//
// # Usage
//
//	s, err := store.Open(filepath.Join(dataDir, "polychat.db"))
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
//
//	chats, err := s.ListChats(ctx, userID)
package store
