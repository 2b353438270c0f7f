// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/polychat/polychat/internal/model"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update routes messages to the chat view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg), nil

	case tea.KeyMsg:
		next, cmd := m.handleKey(msg)
		return next, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case chatsLoadedMsg:
		next, cmd := m.handleChatsLoaded(msg)
		return next, cmd

	case streamSnapshotMsg:
		if msg.chatID == m.currentChat().ID {
			m.streamText = msg.text
			m.syncViewport(true)
		}
		return m, m.nextEvent()

	case sendDoneMsg:
		next, cmd := m.handleSendDone(msg)
		return next, cmd

	case compareDoneMsg:
		next, cmd := m.handleCompareDone(msg)
		return next, cmd

	case analysisDoneMsg:
		m.state = StateReady
		if msg.err != nil {
			m.statusErr = msg.err
			return m, nil
		}
		analysis := msg.analysis
		m.analysis = &analysis
		m.syncViewport(true)
		return m, nil

	case enhanceDoneMsg:
		m.state = StateReady
		if msg.err != nil {
			m.statusErr = msg.err
			return m, nil
		}
		m.input.SetValue(msg.prompt)
		return m, nil

	case storeChangedMsg:
		cmds := []tea.Cmd{m.loadChats()}
		if m.deps.Watcher != nil {
			cmds = append(cmds, waitStoreChange(m.deps.Watcher.Subscribe()))
		}
		return m, tea.Batch(cmds...)

	case errMsg:
		m.statusErr = msg.err
		return m, nil
	}

	next, cmd := m.updateChildren(msg)
	return next, cmd
}

func (m Model) handleResize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.input.SetWidth(msg.Width - 4)
	m.viewport.Width = msg.Width - 2
	m.viewport.Height = msg.Height - m.input.Height() - 5
	if m.viewport.Height < 3 {
		m.viewport.Height = 3
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.viewport.Width),
	)
	if err == nil {
		m.renderer = renderer
	}
	m.syncViewport(false)
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keys.NewChat):
		if m.state != StateReady {
			return m, nil
		}
		chat := model.NewChat(m.deps.UserID, m.defaultModelID())
		m.chats = append(m.chats, chat)
		m.current = len(m.chats) - 1
		m.analysis = nil
		m.statusErr = nil
		m.syncViewport(false)
		return m, m.persistChat(chat)

	case key.Matches(msg, m.keys.NextChat):
		if m.state != StateReady || len(m.chats) < 2 {
			return m, nil
		}
		m.current = (m.current + 1) % len(m.chats)
		m.analysis = nil
		m.statusErr = nil
		m.syncViewport(false)
		return m, nil

	case key.Matches(msg, m.keys.DeleteChat):
		if m.state != StateReady || len(m.chats) == 0 {
			return m, nil
		}
		return m, m.deleteChat(m.currentChat().ID)

	case key.Matches(msg, m.keys.CycleModel):
		if m.state != StateReady {
			return m, nil
		}
		return m.cycleModel(), nil

	case key.Matches(msg, m.keys.CompareMode):
		if m.state != StateReady {
			return m, nil
		}
		return m.toggleCompare()

	case key.Matches(msg, m.keys.Analyze):
		if m.state != StateReady {
			return m, nil
		}
		chat := m.currentChat()
		if !chat.CompareMode || len(chat.SelectedModels) == 0 {
			return m, nil
		}
		m.state = StateAnalyzing
		m.statusErr = nil
		return m, m.startAnalyze()

	case key.Matches(msg, m.keys.Enhance):
		if m.state != StateReady {
			return m, nil
		}
		draft := strings.TrimSpace(m.input.Value())
		if draft == "" {
			return m, nil
		}
		m.state = StateSending
		m.statusErr = nil
		return m, m.startEnhance(draft)

	case key.Matches(msg, m.keys.Attach):
		if m.state != StateReady {
			return m, nil
		}
		return m.handleAttach(), nil

	case key.Matches(msg, m.keys.FocusColumn):
		if m.state != StateReady {
			return m, nil
		}
		return m.cycleFocus(), nil

	case key.Matches(msg, m.keys.Continue):
		if m.state != StateReady {
			return m, nil
		}
		return m.continueWithFocused()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	return m.updateChildren(msg)
}

// handleAttach treats the input content as a path and stages the file
// for the next submit.
func (m Model) handleAttach() Model {
	path := strings.TrimSpace(m.input.Value())
	if path == "" {
		return m
	}
	file, err := loadAttachment(path)
	if err != nil {
		m.statusErr = err
		return m
	}
	m.pendingFile = file
	m.statusErr = nil
	m.input.Reset()
	return m
}

func (m Model) handleSubmit() (Model, tea.Cmd) {
	if m.state != StateReady {
		return m, nil
	}
	prompt := strings.TrimSpace(m.input.Value())
	if prompt == "" {
		return m, nil
	}
	file := m.pendingFile
	m.pendingFile = nil
	m.input.Reset()
	m.state = StateSending
	m.statusErr = nil
	m.analysis = nil
	m.streamText = ""

	chat := m.currentChat()
	if chat.CompareMode && len(chat.SelectedModels) > 0 {
		return m, m.startCompare(prompt, file)
	}
	// startSend installs the event channel on m before m is returned.
	cmd := m.startSend(prompt, file)
	return m, cmd
}

func (m Model) handleChatsLoaded(msg chatsLoadedMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		m.statusErr = msg.err
		return m, nil
	}
	m.apiKeys = msg.keys
	if len(msg.chats) == 0 {
		chat := model.NewChat(m.deps.UserID, m.defaultModelID())
		m.chats = []model.Chat{chat}
		m.current = 0
		m.syncViewport(false)
		return m, m.persistChat(chat)
	}
	currentID := m.currentChat().ID
	m.chats = msg.chats
	m.current = 0
	for i, c := range m.chats {
		if c.ID == currentID {
			m.current = i
			break
		}
	}
	m.syncViewport(false)
	return m, nil
}

func (m Model) handleSendDone(msg sendDoneMsg) (Model, tea.Cmd) {
	m.state = StateReady
	m.events = nil
	m.streamText = ""
	if msg.err != nil {
		m.statusErr = msg.err
	}
	m.setCurrentChat(msg.chat)
	m.syncViewport(true)
	return m, m.persistChat(msg.chat)
}

func (m Model) handleCompareDone(msg compareDoneMsg) (Model, tea.Cmd) {
	m.state = StateReady
	if msg.err != nil {
		m.statusErr = msg.err
		return m, nil
	}
	m.setCurrentChat(msg.chat)
	m.syncViewport(true)
	return m, m.persistChat(msg.chat)
}

// cycleModel advances the active model through the catalog. In compare
// mode it instead toggles the highlighted model's membership in the
// selection.
func (m Model) cycleModel() Model {
	chat := m.currentChat()
	models := m.deps.Catalog.Models("")
	if len(models) == 0 {
		return m
	}
	if chat.CompareMode {
		// Grow the selection one model at a time; once every model is in,
		// collapse back to just the active one.
		next := chat.Clone()
		if len(next.SelectedModels) >= len(models) {
			next.SelectedModels = []string{next.ActiveModel()}
		} else {
			for _, mdl := range models {
				if !containsID(next.SelectedModels, mdl.ID) {
					next.SelectedModels = append(next.SelectedModels, mdl.ID)
					break
				}
			}
		}
		m.setCurrentChat(next)
		m.syncViewport(false)
		return m
	}
	idx := 0
	for i, mdl := range models {
		if mdl.ID == chat.ActiveModel() {
			idx = (i + 1) % len(models)
			break
		}
	}
	next := chat.Clone()
	next.Model = models[idx].ID
	next.FocusedModel = ""
	m.setCurrentChat(next)
	return m
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// toggleCompare flips compare mode. Entering seeds the selection with
// the active model so a submit always has at least one target.
func (m Model) toggleCompare() (Model, tea.Cmd) {
	chat := m.currentChat().Clone()
	chat.CompareMode = !chat.CompareMode
	if chat.CompareMode && len(chat.SelectedModels) == 0 {
		chat.SelectedModels = []string{chat.ActiveModel()}
	}
	m.analysis = nil
	m.focusedCol = 0
	m.setCurrentChat(chat)
	m.syncViewport(false)
	return m, m.persistChat(chat)
}

// cycleFocus moves the focused compare column and records the override
// so single sends target the focused model.
func (m Model) cycleFocus() Model {
	chat := m.currentChat()
	if !chat.CompareMode || len(chat.SelectedModels) == 0 {
		return m
	}
	m.focusedCol = (m.focusedCol + 1) % len(chat.SelectedModels)
	next := chat.Clone()
	next.FocusedModel = chat.SelectedModels[m.focusedCol]
	m.setCurrentChat(next)
	m.syncViewport(false)
	return m
}

// continueWithFocused promotes the focused column's thread to the main
// conversation and leaves compare mode.
func (m Model) continueWithFocused() (Model, tea.Cmd) {
	chat := m.currentChat()
	if !chat.CompareMode || len(chat.SelectedModels) == 0 {
		return m, nil
	}
	id := chat.SelectedModels[m.focusedCol%len(chat.SelectedModels)]
	next := m.deps.Dispatcher.ContinueWithModel(chat, id)
	m.analysis = nil
	m.focusedCol = 0
	m.setCurrentChat(next)
	m.syncViewport(false)
	return m, m.persistChat(next)
}

func (m Model) updateChildren(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}
