// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the polychat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styled components for the application.
type Theme struct {
	IsDark bool

	// Application container
	App lipgloss.Style

	// Header
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style

	// Message rendering
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ErrorText      lipgloss.Style
	Muted          lipgloss.Style

	// Compare columns
	ColumnBorder  lipgloss.Style
	ColumnHeader  lipgloss.Style
	ColumnFocused lipgloss.Style

	// Input area and status
	InputContainer lipgloss.Style
	StatusBar      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style

	// Analysis view
	ScoreGood lipgloss.Style
	ScoreBad  lipgloss.Style
}

// New returns the theme for the given mode.
func New(dark bool) *Theme {
	if dark {
		return darkTheme()
	}
	return lightTheme()
}

func darkTheme() *Theme {
	accent := lipgloss.Color("#8b5cf6")
	return &Theme{
		IsDark: true,

		App: lipgloss.NewStyle().Padding(0, 1),

		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		HeaderTitle: lipgloss.NewStyle().Bold(true).Foreground(accent),

		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10b981")),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(accent),
		ErrorText:      lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		Muted:          lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),

		ColumnBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1),
		ColumnHeader: lipgloss.NewStyle().Bold(true),
		ColumnFocused: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(accent).
			Padding(0, 1),

		InputContainer: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#374151")).
			Padding(0, 1),
		StatusBar:    lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af")),
		ShortcutKey:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e5e7eb")),
		ShortcutDesc: lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),

		ScoreGood: lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981")),
		ScoreBad:  lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
	}
}

func lightTheme() *Theme {
	accent := lipgloss.Color("#6d28d9")
	return &Theme{
		IsDark: false,

		App: lipgloss.NewStyle().Padding(0, 1),

		Header: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1),
		HeaderTitle: lipgloss.NewStyle().Bold(true).Foreground(accent),

		UserLabel:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#047857")),
		AssistantLabel: lipgloss.NewStyle().Bold(true).Foreground(accent),
		ErrorText:      lipgloss.NewStyle().Foreground(lipgloss.Color("#b91c1c")),
		Muted:          lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),

		ColumnBorder: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#d1d5db")).
			Padding(0, 1),
		ColumnHeader: lipgloss.NewStyle().Bold(true),
		ColumnFocused: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(accent).
			Padding(0, 1),

		InputContainer: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#d1d5db")).
			Padding(0, 1),
		StatusBar:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4b5563")),
		ShortcutKey:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#111827")),
		ShortcutDesc: lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),

		ScoreGood: lipgloss.NewStyle().Foreground(lipgloss.Color("#047857")),
		ScoreBad:  lipgloss.NewStyle().Foreground(lipgloss.Color("#b91c1c")),
	}
}

// ProviderAccent returns a style colored with a provider's catalog accent.
func (t *Theme) ProviderAccent(hex string) lipgloss.Style {
	if hex == "" {
		return t.ColumnHeader
	}
	return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(hex))
}
