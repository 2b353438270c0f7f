// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/polychat/polychat/internal/model"
)

// =============================================================================
// TEA MESSAGES
// =============================================================================

// streamSnapshotMsg carries the text-so-far of an in-flight single send.
type streamSnapshotMsg struct {
	chatID string
	text   string
}

// sendDoneMsg carries the final chat state of a single send.
type sendDoneMsg struct {
	chat model.Chat
	err  error
}

// compareDoneMsg carries the merged chat state of a compare fan-out.
type compareDoneMsg struct {
	chat model.Chat
	err  error
}

// analysisDoneMsg carries the analyzer's verdict.
type analysisDoneMsg struct {
	analysis model.BiasAnalysis
	err      error
}

// enhanceDoneMsg carries a rewritten prompt for the input area.
type enhanceDoneMsg struct {
	prompt string
	err    error
}

// chatsLoadedMsg carries the persisted chat list at startup or after a
// store change.
type chatsLoadedMsg struct {
	chats []model.Chat
	keys  model.ApiKeySet
	err   error
}

// storeChangedMsg signals an external database change from the watcher.
type storeChangedMsg struct{}

// errMsg carries a background failure for the status line.
type errMsg struct {
	err error
}
