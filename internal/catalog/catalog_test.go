// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

import (
	"testing"
)

// =============================================================================
// CATALOG TESTS
// =============================================================================

func TestNew_DropsModelsWithUnknownProvider(t *testing.T) {
	c := New(
		[]Provider{{ID: "google", Name: "Google"}},
		[]Model{
			{ID: "ok", Provider: "google"},
			{ID: "orphan", Provider: "nonexistent"},
		},
	)

	if _, ok := c.Find("ok"); !ok {
		t.Error("model with known provider should survive")
	}
	if _, ok := c.Find("orphan"); ok {
		t.Error("model with unknown provider should be dropped")
	}
	if got := len(c.Models("")); got != 1 {
		t.Errorf("model count = %d, want 1", got)
	}
}

func TestCatalog_ModelsFilteredByProvider(t *testing.T) {
	c := Default()

	google := c.Models("google")
	if len(google) == 0 {
		t.Fatal("no google models")
	}
	for _, m := range google {
		if m.Provider != "google" {
			t.Errorf("model %s has provider %s", m.ID, m.Provider)
		}
	}

	if got := c.Models("unknown"); got != nil {
		t.Errorf("Models(unknown) = %v, want nil", got)
	}
}

func TestCatalog_ProvidersPreserveOrder(t *testing.T) {
	c := Default()
	providers := c.Providers()
	if len(providers) != 6 {
		t.Fatalf("provider count = %d, want 6", len(providers))
	}
	if providers[0].ID != "google" {
		t.Errorf("first provider = %s, want google", providers[0].ID)
	}
}

func TestCatalog_Find(t *testing.T) {
	c := Default()

	m, ok := c.Find("groq-llama-70b")
	if !ok {
		t.Fatal("groq-llama-70b should exist")
	}
	if m.Endpoint != "llama-3.3-70b-versatile" {
		t.Errorf("Endpoint = %q", m.Endpoint)
	}
	if m.Kind != KindOpenAI {
		t.Errorf("Kind = %v, want KindOpenAI", m.Kind)
	}

	if _, ok := c.Find("no-such-model"); ok {
		t.Error("unknown id should not resolve")
	}
}

// =============================================================================
// DEFAULT TABLE INTEGRITY
// =============================================================================

func TestDefault_EveryModelHasValidKind(t *testing.T) {
	for _, m := range Default().Models("") {
		switch m.Kind {
		case KindGemini, KindOpenAI, KindDashScope:
		default:
			t.Errorf("model %s has unhandled kind %v", m.ID, m.Kind)
		}
	}
}

func TestDefault_ServiceModelsExist(t *testing.T) {
	c := Default()

	analyzer, ok := c.Find(AnalyzerModelID)
	if !ok {
		t.Fatalf("analyzer model %s missing from catalog", AnalyzerModelID)
	}
	if analyzer.Provider != "cerebras" {
		t.Errorf("analyzer provider = %s", analyzer.Provider)
	}

	enhancer, ok := c.Find(EnhancerModelID)
	if !ok {
		t.Fatalf("enhancer model %s missing from catalog", EnhancerModelID)
	}
	if enhancer.Kind != KindGemini {
		t.Errorf("enhancer kind = %v", enhancer.Kind)
	}
}

func TestDefault_ModelIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range Default().Models("") {
		if seen[m.ID] {
			t.Errorf("duplicate model id %s", m.ID)
		}
		seen[m.ID] = true
	}
}

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindGemini, "gemini"},
		{KindOpenAI, "openai"},
		{KindDashScope, "dashscope"},
		{Kind(99), "unknown"},
	}

	for _, tc := range tests {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tc.kind, got, tc.want)
		}
	}
}
