// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP
// =============================================================================

// KeyMap defines the keyboard bindings for the chat interface.
type KeyMap struct {
	Submit      key.Binding
	NewChat     key.Binding
	NextChat    key.Binding
	DeleteChat  key.Binding
	CycleModel  key.Binding
	CompareMode key.Binding
	Analyze     key.Binding
	Enhance     key.Binding
	Attach      key.Binding
	FocusColumn key.Binding
	Continue    key.Binding
	PageUp      key.Binding
	PageDown    key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		NextChat: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("C-o", "next chat"),
		),
		DeleteChat: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("C-x", "delete chat"),
		),
		CycleModel: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "next model"),
		),
		CompareMode: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "compare mode"),
		),
		Analyze: key.NewBinding(
			key.WithKeys("ctrl+a"),
			key.WithHelp("C-a", "analyze"),
		),
		Enhance: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "enhance prompt"),
		),
		Attach: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("C-f", "attach file"),
		),
		FocusColumn: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "focus column"),
		),
		Continue: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("C-y", "continue with focused"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "scroll up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "scroll down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
	}
}
