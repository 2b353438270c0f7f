// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/polychat/polychat/internal/analyze"
	"github.com/polychat/polychat/internal/catalog"
	"github.com/polychat/polychat/internal/dispatch"
	"github.com/polychat/polychat/internal/model"
	"github.com/polychat/polychat/internal/store"
	"github.com/polychat/polychat/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State is the chat view's interaction state.
type State int

const (
	StateReady     State = iota // Ready for input
	StateSending                // Waiting on a provider
	StateAnalyzing              // Waiting on the analyzer
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Deps are the collaborators the chat view drives.
type Deps struct {
	Catalog    *catalog.Catalog
	Dispatcher *dispatch.Dispatcher
	Analyzer   *analyze.Analyzer
	Store      *store.Store
	Watcher    *store.Watcher
	UserID     string
	Theme      *styles.Theme
	Width      int

	// DefaultModel seeds new chats. Empty falls back to the catalog's
	// first model.
	DefaultModel string
}

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State
	theme *styles.Theme
	keys  KeyMap

	width  int
	height int

	viewport viewport.Model
	input    textarea.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	deps    Deps
	chats   []model.Chat
	current int
	apiKeys model.ApiKeySet

	// In-flight send state. events carries snapshots and the final
	// result from the dispatcher goroutine into the update loop.
	events     chan tea.Msg
	streamText string

	// pendingFile rides along with the next submit, then clears.
	pendingFile *model.AttachedFile

	analysis   *model.BiasAnalysis
	statusErr  error
	focusedCol int
}

// New builds the chat view.
func New(deps Deps) Model {
	input := textarea.New()
	input.Placeholder = "Send a message..."
	input.SetHeight(3)
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(deps.Width),
	)

	return Model{
		state:    StateReady,
		theme:    deps.Theme,
		keys:     DefaultKeyMap(),
		viewport: viewport.New(80, 20),
		input:    input,
		spin:     sp,
		renderer: renderer,
		deps:     deps,
		apiKeys:  model.ApiKeySet{},
	}
}

// Init loads persisted state and starts the watcher subscription.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadChats(), m.spin.Tick}
	if m.deps.Watcher != nil {
		cmds = append(cmds, waitStoreChange(m.deps.Watcher.Subscribe()))
	}
	return tea.Batch(cmds...)
}

// currentChat returns the active chat, or a fresh one when none exist.
func (m *Model) currentChat() model.Chat {
	if m.current >= 0 && m.current < len(m.chats) {
		return m.chats[m.current]
	}
	return model.NewChat(m.deps.UserID, m.defaultModelID())
}

func (m *Model) defaultModelID() string {
	if m.deps.DefaultModel != "" {
		if _, ok := m.deps.Catalog.Find(m.deps.DefaultModel); ok {
			return m.deps.DefaultModel
		}
	}
	if models := m.deps.Catalog.Models(""); len(models) > 0 {
		return models[0].ID
	}
	return ""
}

// setCurrentChat replaces the active chat in the list, inserting when the
// list is empty.
func (m *Model) setCurrentChat(chat model.Chat) {
	if m.current >= 0 && m.current < len(m.chats) {
		m.chats[m.current] = chat
		return
	}
	m.chats = append(m.chats, chat)
	m.current = len(m.chats) - 1
}

// background returns the context for store and dispatcher calls issued
// from commands. Request bounds come from the dispatcher config.
func (m *Model) background() context.Context {
	return context.Background()
}
