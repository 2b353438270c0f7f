// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestProviderAccentUsesHex(t *testing.T) {
	theme := New(true)

	style := theme.ProviderAccent("#ec4899")
	if got := style.GetForeground(); got != lipgloss.Color("#ec4899") {
		t.Errorf("foreground = %v, want #ec4899", got)
	}
	if !style.GetBold() {
		t.Error("accent style not bold")
	}
}

func TestProviderAccentEmptyFallsBack(t *testing.T) {
	theme := New(true)

	style := theme.ProviderAccent("")
	if got, want := style.GetForeground(), theme.ColumnHeader.GetForeground(); got != want {
		t.Errorf("fallback foreground = %v, want %v", got, want)
	}
}

func TestNewSelectsThemeVariant(t *testing.T) {
	if !New(true).IsDark {
		t.Error("New(true) is not dark")
	}
	if New(false).IsDark {
		t.Error("New(false) is dark")
	}
}
