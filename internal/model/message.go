// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages, and
// analysis results.
package model

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Assistant"
	default:
		return string(r)
	}
}

// =============================================================================
// ATTACHED FILE
// =============================================================================

// AttachedFile is a file attached to a message. Data is the base64-encoded
// payload. Providers only accept inline file data on the final turn of a
// request, so files on older messages are kept for display only.
type AttachedFile struct {
	Name string `json:"name"`
	MIME string `json:"type"`
	Data string `json:"data"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation. Messages are
// immutable once created; a history is an append-only ordered sequence.
type Message struct {
	Role      Role          `json:"role"`
	Content   string        `json:"content"`
	File      *AttachedFile `json:"file,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewMessage creates a message with the current timestamp.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return NewMessage(RoleUser, content)
}

// NewUserMessageWithFile creates a user message carrying an attachment.
func NewUserMessageWithFile(content string, file *AttachedFile) Message {
	msg := NewMessage(RoleUser, content)
	msg.File = file
	return msg
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return NewMessage(RoleAssistant, content)
}

// Preview returns a truncated preview of the message content.
// Uses rune-based truncation to handle Unicode correctly.
func (m Message) Preview(maxLen int) string {
	runes := []rune(m.Content)
	if len(runes) <= maxLen {
		return m.Content
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m Message) IsEmpty() bool {
	return len(m.Content) == 0
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// NewID creates a unique identifier for chats and related records.
func NewID() string {
	return uuid.NewString()
}
