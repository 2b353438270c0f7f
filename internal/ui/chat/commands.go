// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/polychat/polychat/internal/analyze"
	"github.com/polychat/polychat/internal/model"
	"github.com/polychat/polychat/internal/store"
)

// =============================================================================
// COMMANDS
// =============================================================================

// loadChats reads chats and API keys from the store.
func (m *Model) loadChats() tea.Cmd {
	st := m.deps.Store
	userID := m.deps.UserID
	ctx := m.background()
	return func() tea.Msg {
		chats, err := st.ListChats(ctx, userID)
		if err != nil {
			return chatsLoadedMsg{err: err}
		}
		keys, err := st.ListKeys(ctx, userID)
		if err != nil {
			return chatsLoadedMsg{err: err}
		}
		return chatsLoadedMsg{chats: chats, keys: keys}
	}
}

// startSend dispatches a single-model turn. Snapshots and the final
// result flow back through m.events; nextEvent pulls them one at a time.
func (m *Model) startSend(prompt string, file *model.AttachedFile) tea.Cmd {
	ch := make(chan tea.Msg, 32)
	m.events = ch
	chat := m.currentChat()
	keys := m.apiKeys
	d := m.deps.Dispatcher
	ctx := m.background()
	go func() {
		updated, err := d.SendSingle(ctx, chat, keys, prompt, file, func(text string) {
			select {
			case ch <- streamSnapshotMsg{chatID: chat.ID, text: text}:
			default:
			}
		})
		ch <- sendDoneMsg{chat: updated, err: err}
	}()
	return m.nextEvent()
}

// startCompare fans the turn out to every selected model.
func (m *Model) startCompare(prompt string, file *model.AttachedFile) tea.Cmd {
	chat := m.currentChat()
	keys := m.apiKeys
	d := m.deps.Dispatcher
	ctx := m.background()
	return func() tea.Msg {
		updated, err := d.SendCompare(ctx, chat, keys, prompt, file)
		return compareDoneMsg{chat: updated, err: err}
	}
}

// startAnalyze scores the latest compare round.
func (m *Model) startAnalyze() tea.Cmd {
	chat := m.currentChat()
	keys := m.apiKeys
	a := m.deps.Analyzer
	cat := m.deps.Catalog
	ctx := m.background()
	return func() tea.Msg {
		var responses []analyze.ModelResponse
		for _, id := range chat.SelectedModels {
			reply, ok := chat.LastCompareReply(id)
			if !ok {
				continue
			}
			name := id
			if mdl, found := cat.Find(id); found {
				name = mdl.Name
			}
			responses = append(responses, analyze.ModelResponse{Name: name, Text: reply.Content})
		}
		prompt := ""
		if turn, ok := chat.LastComparePrompt(); ok {
			prompt = turn.Content
		}
		analysis, err := a.Analyze(ctx, keys, responses, prompt)
		return analysisDoneMsg{analysis: analysis, err: err}
	}
}

// startEnhance rewrites the current draft through the enhancer model.
func (m *Model) startEnhance(draft string) tea.Cmd {
	keys := m.apiKeys
	d := m.deps.Dispatcher
	ctx := m.background()
	return func() tea.Msg {
		improved, err := d.EnhancePrompt(ctx, keys, draft)
		return enhanceDoneMsg{prompt: improved, err: err}
	}
}

// persistChat writes the chat back to the store. Insert and update are
// distinguished by whether the store already knows the ID.
func (m *Model) persistChat(chat model.Chat) tea.Cmd {
	st := m.deps.Store
	ctx := m.background()
	return func() tea.Msg {
		err := st.UpdateChat(ctx, chat)
		if err == store.ErrNotFound {
			err = st.InsertChat(ctx, chat)
		}
		if err != nil {
			return errMsg{err: err}
		}
		return nil
	}
}

// deleteChat removes the active chat, honoring the last-chat guard, and
// reloads the list so the view moves to a surviving chat.
func (m *Model) deleteChat(chatID string) tea.Cmd {
	st := m.deps.Store
	userID := m.deps.UserID
	ctx := m.background()
	return func() tea.Msg {
		if err := st.DeleteChat(ctx, chatID); err != nil {
			return errMsg{err: err}
		}
		chats, err := st.ListChats(ctx, userID)
		if err != nil {
			return chatsLoadedMsg{err: err}
		}
		keys, err := st.ListKeys(ctx, userID)
		if err != nil {
			return chatsLoadedMsg{err: err}
		}
		return chatsLoadedMsg{chats: chats, keys: keys}
	}
}

// nextEvent pulls the next snapshot or result from the in-flight send.
func (m *Model) nextEvent() tea.Cmd {
	ch := m.events
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		return <-ch
	}
}

// waitStoreChange blocks on the watcher's debounced change signal.
func waitStoreChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}
