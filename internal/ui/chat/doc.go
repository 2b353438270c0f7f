// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the terminal chat view.
//
// The view is a Bubble Tea model wrapping the dispatcher, analyzer, and
// store. Provider calls run in goroutines started by tea.Cmd functions;
// results and stream snapshots come back into Update as typed messages.
//
// # Key Types
//
//   - Model: the Bubble Tea model; build with New and a Deps value
//   - Deps: the collaborators the view drives
//   - State: Ready, Sending, or Analyzing
//   - KeyMap: key bindings; DefaultKeyMap returns the defaults
//
// # Modes
//
// Normal mode streams a single model's reply into the viewport as it
// arrives. Compare mode fans the prompt out to every selected model and
// renders the replies as side-by-side columns; tab moves the focused
// column, ctrl+a scores the round, and ctrl+y promotes the focused
// column's thread to the main conversation.
package chat
