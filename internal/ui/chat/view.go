// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/polychat/polychat/internal/model"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.theme.InputContainer.Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return m.theme.App.Render(b.String())
}

func (m Model) renderHeader() string {
	chat := m.currentChat()
	title := runewidth.Truncate(chat.Name, 40, "...")
	mode := m.modelLabel(chat.ActiveModel())
	if chat.CompareMode {
		mode = fmt.Sprintf("compare (%d models)", len(chat.SelectedModels))
	}
	left := m.theme.HeaderTitle.Render(title)
	right := m.theme.Muted.Render(mode)
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) modelLabel(modelID string) string {
	if mdl, ok := m.deps.Catalog.Find(modelID); ok {
		return mdl.Name
	}
	return modelID
}

// columnHeaderStyle colors a compare column header with the owning
// provider's catalog accent.
func (m Model) columnHeaderStyle(modelID string) lipgloss.Style {
	if mdl, ok := m.deps.Catalog.Find(modelID); ok {
		if p, ok := m.deps.Catalog.Provider(mdl.Provider); ok {
			return m.theme.ProviderAccent(p.Color)
		}
	}
	return m.theme.ColumnHeader
}

func (m Model) renderStatus() string {
	if m.statusErr != nil {
		return m.theme.StatusBar.Render(m.theme.ErrorText.Render(m.statusErr.Error()))
	}
	switch m.state {
	case StateSending:
		return m.theme.StatusBar.Render(m.spin.View() + " waiting for reply")
	case StateAnalyzing:
		return m.theme.StatusBar.Render(m.spin.View() + " analyzing responses")
	}
	pairs := []struct{ k, d string }{
		{"enter", "send"},
		{"^n", "new"},
		{"^o", "next"},
		{"^p", "model"},
		{"^t", "compare"},
		{"^a", "analyze"},
		{"^e", "enhance"},
		{"^f", "attach"},
		{"^c", "quit"},
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, m.theme.ShortcutKey.Render(p.k)+m.theme.ShortcutDesc.Render(" "+p.d))
	}
	line := strings.Join(parts, "  ")
	if m.pendingFile != nil {
		line = m.theme.Muted.Render("attached: "+m.pendingFile.Name) + "  " + line
	}
	return m.theme.StatusBar.Render(line)
}

// syncViewport rebuilds the viewport content from the current chat.
func (m *Model) syncViewport(gotoBottom bool) {
	chat := m.currentChat()
	var content string
	if chat.CompareMode && len(chat.SelectedModels) > 0 {
		content = m.renderCompare(chat)
	} else {
		content = m.renderConversation(chat)
	}
	if m.analysis != nil {
		content += "\n" + m.renderAnalysis(*m.analysis)
	}
	m.viewport.SetContent(content)
	if gotoBottom {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderConversation(chat model.Chat) string {
	var b strings.Builder
	for _, msg := range chat.Messages {
		b.WriteString(m.renderMessage(msg))
		b.WriteString("\n")
	}
	if m.streamText != "" {
		b.WriteString(m.theme.AssistantLabel.Render(m.modelLabel(chat.ActiveModel())))
		b.WriteString("\n")
		b.WriteString(m.renderMarkdown(m.streamText))
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return m.theme.Muted.Render("No messages yet. Type a prompt and press enter.")
	}
	return b.String()
}

func (m *Model) renderMessage(msg model.Message) string {
	var b strings.Builder
	switch msg.Role {
	case model.RoleUser:
		b.WriteString(m.theme.UserLabel.Render("You"))
		b.WriteString("\n")
		b.WriteString(msg.Content)
	default:
		b.WriteString(m.theme.AssistantLabel.Render("Assistant"))
		b.WriteString("\n")
		b.WriteString(m.renderMarkdown(msg.Content))
	}
	if msg.File != nil {
		b.WriteString("\n")
		b.WriteString(m.theme.Muted.Render("attached: " + msg.File.Name))
	}
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderMarkdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// renderCompare lays the selected models out as side-by-side columns.
func (m *Model) renderCompare(chat model.Chat) string {
	n := len(chat.SelectedModels)
	colWidth := (m.viewport.Width / n) - 2
	if colWidth < 16 {
		colWidth = 16
	}
	cols := make([]string, 0, n)
	for i, id := range chat.SelectedModels {
		cols = append(cols, m.renderColumn(chat, id, colWidth, i == m.focusedCol%n))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m *Model) renderColumn(chat model.Chat, modelID string, width int, focused bool) string {
	border := m.theme.ColumnBorder
	if focused {
		border = m.theme.ColumnFocused
	}
	header := m.columnHeaderStyle(modelID).Render(runewidth.Truncate(m.modelLabel(modelID), width, "..."))

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, msg := range chat.CompareHistory(modelID) {
		label := "You"
		style := m.theme.UserLabel
		body := msg.Content
		if msg.Role == model.RoleAssistant {
			label = "Reply"
			style = m.theme.AssistantLabel
			body = m.renderMarkdown(msg.Content)
		}
		b.WriteString(style.Render(label))
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n")
	}
	return border.Width(width).Render(b.String())
}

// renderAnalysis formats the analyzer verdict under the columns.
func (m *Model) renderAnalysis(analysis model.BiasAnalysis) string {
	var b strings.Builder
	b.WriteString(m.theme.HeaderTitle.Render("Analysis"))
	b.WriteString("\n")
	for _, score := range analysis.Models {
		b.WriteString(m.theme.ColumnHeader.Render(score.Name))
		b.WriteString("  ")
		b.WriteString(m.renderScore("bias", score.Bias))
		b.WriteString("  ")
		b.WriteString(m.renderScore("cred", score.Credibility))
		b.WriteString("  ")
		b.WriteString(m.renderScore("compl", score.Completeness))
		b.WriteString("  ")
		b.WriteString(m.renderScore("clarity", score.Clarity))
		b.WriteString("\n")
		if score.Summary != "" {
			b.WriteString(m.theme.Muted.Render(score.Summary))
			b.WriteString("\n")
		}
	}
	if analysis.Recommendation != "" {
		b.WriteString(m.theme.AssistantLabel.Render("Recommendation: "))
		b.WriteString(analysis.Recommendation)
		b.WriteString("\n")
	}
	return b.String()
}

// renderScore colors a score by where it falls on the configured scale.
// Scores above 60% of the scale ceiling read as good.
func (m *Model) renderScore(label string, value float64) string {
	ceiling := 100.0
	if value <= 10 {
		ceiling = 10
	}
	style := m.theme.ScoreBad
	if value >= ceiling*0.6 {
		style = m.theme.ScoreGood
	}
	return m.theme.Muted.Render(label+" ") + style.Render(strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.1f", value), "0"), "."))
}
