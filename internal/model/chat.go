// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages, and
// analysis results.
package model

import (
	"time"
)

// DefaultChatName is the name given to a freshly created chat. The first
// prompt sent in the chat replaces it with an auto-generated title.
const DefaultChatName = "New Chat"

// =============================================================================
// CHAT TYPE
// =============================================================================

// Chat holds one conversation with its history and compare-mode state.
//
// The chat is owned by the caller (the UI/session layer). The dispatcher
// never mutates a Chat in place; it copies, computes a new state, and
// returns it. There is exactly one logical writer per chat.
type Chat struct {
	// Identity
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	Name      string    `json:"name"`

	// Selected single model for normal sends.
	Model string `json:"model"`

	// Normal-mode history, append-only.
	Messages []Message `json:"messages"`

	// Compare mode state. CompareResponses keys are a subset of
	// SelectedModels at time of write; stale keys from previously selected
	// models are tolerated as read-only history.
	CompareMode      bool                 `json:"compare_mode"`
	SelectedModels   []string             `json:"selected_models"`
	CompareResponses map[string][]Message `json:"compare_responses"`

	// FocusedModel overrides Model for single sends while compare data
	// still exists. Empty means no override.
	FocusedModel string `json:"focused_model,omitempty"`
}

// NewChat creates an empty chat for a user with the given default model.
func NewChat(userID, modelID string) Chat {
	return Chat{
		ID:               NewID(),
		UserID:           userID,
		CreatedAt:        time.Now(),
		Name:             DefaultChatName,
		Model:            modelID,
		Messages:         []Message{},
		SelectedModels:   []string{},
		CompareResponses: map[string][]Message{},
	}
}

// ActiveModel returns the model id used for a single send: the focused
// model when set, otherwise the chat's selected model.
func (c Chat) ActiveModel() string {
	if c.FocusedModel != "" {
		return c.FocusedModel
	}
	return c.Model
}

// LastMessage returns the most recent normal-mode message, or a zero
// Message and false when the history is empty.
func (c Chat) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	return c.Messages[len(c.Messages)-1], true
}

// CompareHistory returns the independent history for one compare-mode
// model, defaulting to empty if the model has no prior turns.
func (c Chat) CompareHistory(modelID string) []Message {
	return c.CompareResponses[modelID]
}

// LastCompareReply returns the latest assistant turn from one compare
// column, or false if the model never replied.
func (c Chat) LastCompareReply(modelID string) (Message, bool) {
	history := c.CompareResponses[modelID]
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleAssistant {
			return history[i], true
		}
	}
	return Message{}, false
}

// LastComparePrompt returns the latest user turn across compare columns.
// Columns share the same prompts, so the first column with a user turn wins.
func (c Chat) LastComparePrompt() (Message, bool) {
	for _, history := range c.CompareResponses {
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].Role == RoleUser {
				return history[i], true
			}
		}
	}
	return Message{}, false
}

// Clone returns a deep copy of the chat. Histories are copied so the clone
// can be appended to without touching the original.
func (c Chat) Clone() Chat {
	clone := c
	clone.Messages = append([]Message(nil), c.Messages...)
	clone.SelectedModels = append([]string(nil), c.SelectedModels...)
	clone.CompareResponses = make(map[string][]Message, len(c.CompareResponses))
	for id, history := range c.CompareResponses {
		clone.CompareResponses[id] = append([]Message(nil), history...)
	}
	return clone
}

// AutoName derives a chat title from the first prompt: the first 30
// characters, with an ellipsis when truncated.
func AutoName(prompt string) string {
	runes := []rune(prompt)
	if len(runes) <= 30 {
		return prompt
	}
	return string(runes[:30]) + "..."
}

// =============================================================================
// API KEYS
// =============================================================================

// ApiKeySet maps a provider id to its secret. Not versioned; last write
// wins per provider.
type ApiKeySet map[string]string

// Lookup returns the key for a provider and whether one is configured.
func (s ApiKeySet) Lookup(providerID string) (string, bool) {
	key, ok := s[providerID]
	if !ok || key == "" {
		return "", false
	}
	return key, true
}
