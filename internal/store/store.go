// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/polychat/polychat/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrLastChat means a delete was refused because it targeted the
	// user's only remaining chat.
	ErrLastChat = errors.New("cannot delete the last chat")
)

// =============================================================================
// INTERFACES
// =============================================================================

// ChatStore persists conversations.
type ChatStore interface {
	// ListChats returns a user's chats ordered by most recent activity.
	ListChats(ctx context.Context, userID string) ([]model.Chat, error)

	// GetChat returns one chat by id.
	GetChat(ctx context.Context, id string) (model.Chat, error)

	// InsertChat stores a new chat.
	InsertChat(ctx context.Context, chat model.Chat) error

	// UpdateChat replaces a stored chat's state.
	UpdateChat(ctx context.Context, chat model.Chat) error

	// DeleteChat removes a chat. Deleting a user's only chat fails with
	// ErrLastChat.
	DeleteChat(ctx context.Context, id string) error
}

// KeyStore persists per-provider API keys, encrypted at rest.
type KeyStore interface {
	// ListKeys returns every configured key for a user.
	ListKeys(ctx context.Context, userID string) (model.ApiKeySet, error)

	// UpsertKey stores or replaces one provider's key. Last write wins.
	UpsertKey(ctx context.Context, userID, providerID, value string) error

	// DeleteKey removes one provider's key.
	DeleteKey(ctx context.Context, userID, providerID string) error
}

// =============================================================================
// SQLITE STORE
// =============================================================================

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	name       TEXT NOT NULL,
	model      TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chats_user_recency ON chats(user_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS api_keys (
	user_id  TEXT NOT NULL,
	provider TEXT NOT NULL,
	value    TEXT NOT NULL,
	PRIMARY KEY (user_id, provider)
);
`

// Store is the SQLite-backed implementation of ChatStore and KeyStore.
// Chat state is stored as a JSON payload with denormalized columns for
// listing; keys are encrypted with the store's cipher before writing.
type Store struct {
	db     *sql.DB
	path   string
	cipher *cipherBox
}

// Open opens (creating if needed) the database at path. The encryption
// key file lives next to the database.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	box, err := openCipherBox(filepath.Join(filepath.Dir(path), "polychat.key"))
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, path: path, cipher: box}, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// CHATS
// =============================================================================

// ListChats returns a user's chats ordered by most recent activity.
func (s *Store) ListChats(ctx context.Context, userID string) ([]model.Chat, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT payload FROM chats WHERE user_id = ? ORDER BY updated_at DESC", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []model.Chat
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		var chat model.Chat
		if err := json.Unmarshal([]byte(payload), &chat); err != nil {
			return nil, fmt.Errorf("corrupt chat payload: %w", err)
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// GetChat returns one chat by id.
func (s *Store) GetChat(ctx context.Context, id string) (model.Chat, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM chats WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Chat{}, ErrNotFound
	}
	if err != nil {
		return model.Chat{}, fmt.Errorf("failed to get chat: %w", err)
	}

	var chat model.Chat
	if err := json.Unmarshal([]byte(payload), &chat); err != nil {
		return model.Chat{}, fmt.Errorf("corrupt chat payload: %w", err)
	}
	return chat, nil
}

// InsertChat stores a new chat.
func (s *Store) InsertChat(ctx context.Context, chat model.Chat) error {
	payload, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("failed to marshal chat: %w", err)
	}
	now := time.Now().UnixNano()
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO chats (id, user_id, name, model, payload, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		chat.ID, chat.UserID, chat.Name, chat.Model, string(payload), chat.CreatedAt.UnixNano(), now)
	if err != nil {
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

// UpdateChat replaces a stored chat's state and bumps its recency.
func (s *Store) UpdateChat(ctx context.Context, chat model.Chat) error {
	payload, err := json.Marshal(chat)
	if err != nil {
		return fmt.Errorf("failed to marshal chat: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE chats SET name = ?, model = ?, payload = ?, updated_at = ? WHERE id = ?",
		chat.Name, chat.Model, string(payload), time.Now().UnixNano(), chat.ID)
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChat removes a chat, refusing to delete a user's last one.
func (s *Store) DeleteChat(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete: %w", err)
	}
	defer tx.Rollback()

	var userID string
	err = tx.QueryRowContext(ctx, "SELECT user_id FROM chats WHERE id = ?", id).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to resolve chat: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM chats WHERE user_id = ?", userID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count chats: %w", err)
	}
	if count <= 1 {
		return ErrLastChat
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM chats WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	return tx.Commit()
}

// =============================================================================
// API KEYS
// =============================================================================

// ListKeys returns every configured key for a user, decrypted.
func (s *Store) ListKeys(ctx context.Context, userID string) (model.ApiKeySet, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT provider, value FROM api_keys WHERE user_id = ?", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	keys := model.ApiKeySet{}
	for rows.Next() {
		var provider, stored string
		if err := rows.Scan(&provider, &stored); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		value, err := s.cipher.Decrypt(stored)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt key for %s: %w", provider, err)
		}
		keys[provider] = value
	}
	return keys, rows.Err()
}

// UpsertKey stores or replaces one provider's key, encrypted.
func (s *Store) UpsertKey(ctx context.Context, userID, providerID, value string) error {
	stored, err := s.cipher.Encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt key: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO api_keys (user_id, provider, value) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, provider) DO UPDATE SET value = excluded.value`,
		userID, providerID, stored)
	if err != nil {
		return fmt.Errorf("failed to upsert key: %w", err)
	}
	return nil
}

// DeleteKey removes one provider's key.
func (s *Store) DeleteKey(ctx context.Context, userID, providerID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM api_keys WHERE user_id = ? AND provider = ?", userID, providerID)
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}
