// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package analyze

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/polychat/polychat/internal/catalog"
	"github.com/polychat/polychat/internal/model"
	"github.com/polychat/polychat/internal/provider"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// scriptedAdapter returns a fixed reply and records the prompt it saw.
type scriptedAdapter struct {
	reply      string
	err        error
	lastPrompt string
}

func (s *scriptedAdapter) Send(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, file *model.AttachedFile) (string, error) {
	if len(history) > 0 {
		s.lastPrompt = history[len(history)-1].Content
	}
	return s.reply, s.err
}

func (s *scriptedAdapter) SupportsStreaming() bool { return false }

func (s *scriptedAdapter) SendStream(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, file *model.AttachedFile, onSnapshot provider.SnapshotFunc) (string, error) {
	return "", provider.ErrNoStreaming
}

type singleResolver struct {
	adapter *scriptedAdapter
}

func (r singleResolver) ForModel(m catalog.Model) provider.Adapter { return r.adapter }

const goodVerdict = `{"recommendation": "Gemini's answer is the most complete.", "models": [
	{"name": "Gemini", "bias": 85, "credibility": 90, "completeness": 95, "clarity": 88, "summary": "Thorough and neutral."},
	{"name": "Groq Llama", "bias": 70, "credibility": 75, "completeness": 60, "clarity": 80, "summary": "Concise but shallow."}
]}`

func analyzerFor(adapter *scriptedAdapter, scale ScoreScale) *Analyzer {
	return New(catalog.Default(), singleResolver{adapter}, scale)
}

func keys() model.ApiKeySet {
	return model.ApiKeySet{"cerebras": "ck"}
}

func sampleResponses() []ModelResponse {
	return []ModelResponse{
		{Name: "Gemini", Text: "Long detailed answer."},
		{Name: "Groq Llama", Text: "Short answer."},
	}
}

// =============================================================================
// ANALYZE TESTS
// =============================================================================

func TestAnalyze_ParsesVerdict(t *testing.T) {
	adapter := &scriptedAdapter{reply: goodVerdict}
	a := analyzerFor(adapter, Scale100)

	got, err := a.Analyze(context.Background(), keys(), sampleResponses(), "What causes inflation?")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if got.Recommendation == "" {
		t.Error("Recommendation should be set")
	}
	if len(got.Models) != 2 {
		t.Fatalf("score count = %d, want 2", len(got.Models))
	}
	if got.Models[0].Name != "Gemini" || got.Models[0].Completeness != 95 {
		t.Errorf("first score = %+v", got.Models[0])
	}
}

func TestAnalyze_MetaPromptEmbedsEverything(t *testing.T) {
	adapter := &scriptedAdapter{reply: goodVerdict}
	a := analyzerFor(adapter, Scale100)

	_, err := a.Analyze(context.Background(), keys(), sampleResponses(), "What causes inflation?")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	for _, want := range []string{
		"What causes inflation?",
		"Gemini",
		"Long detailed answer.",
		"Groq Llama",
		"Short answer.",
		"0 to 100",
		"raw JSON",
	} {
		if !strings.Contains(adapter.lastPrompt, want) {
			t.Errorf("meta-prompt missing %q", want)
		}
	}
}

func TestAnalyze_ScaleSelectsRange(t *testing.T) {
	adapter := &scriptedAdapter{reply: goodVerdict}
	a := analyzerFor(adapter, Scale10)

	_, err := a.Analyze(context.Background(), keys(), sampleResponses(), "q")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if !strings.Contains(adapter.lastPrompt, "0 to 10") {
		t.Error("meta-prompt should request the 0-10 scale")
	}
}

func TestAnalyze_InsufficientData(t *testing.T) {
	a := analyzerFor(&scriptedAdapter{reply: goodVerdict}, Scale100)

	_, err := a.Analyze(context.Background(), keys(), nil, "q")
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("error = %v, want ErrInsufficientData", err)
	}
}

func TestAnalyze_MissingKey(t *testing.T) {
	a := analyzerFor(&scriptedAdapter{reply: goodVerdict}, Scale100)

	_, err := a.Analyze(context.Background(), model.ApiKeySet{"google": "gk"}, sampleResponses(), "q")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("error = %v, want ErrMissingCredential", err)
	}
}

func TestAnalyze_FencedOutputStillParses(t *testing.T) {
	adapter := &scriptedAdapter{reply: "```json\n" + goodVerdict + "\n```"}
	a := analyzerFor(adapter, Scale100)

	got, err := a.Analyze(context.Background(), keys(), sampleResponses(), "q")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if len(got.Models) != 2 {
		t.Errorf("score count = %d, want 2", len(got.Models))
	}
}

func TestAnalyze_ParseFailure(t *testing.T) {
	adapter := &scriptedAdapter{reply: "I'd be happy to analyze these responses!"}
	a := analyzerFor(adapter, Scale100)

	_, err := a.Analyze(context.Background(), keys(), sampleResponses(), "q")
	if !IsParseFailure(err) {
		t.Fatalf("error = %v, want parse failure", err)
	}

	var pfe *ParseFailureError
	if errors.As(err, &pfe) && pfe.Raw == "" {
		t.Error("parse failure should carry the raw output for diagnosis")
	}
}

func TestAnalyze_AdapterErrorPropagates(t *testing.T) {
	wantErr := errors.New("upstream down")
	a := analyzerFor(&scriptedAdapter{err: wantErr}, Scale100)

	_, err := a.Analyze(context.Background(), keys(), sampleResponses(), "q")
	if !errors.Is(err, wantErr) {
		t.Fatalf("error = %v, want the adapter's", err)
	}
}

// =============================================================================
// CLEANUP TESTS
// =============================================================================

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"whitespace", "  {\"a\":1}\n\n", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fence without newline", "```{\"a\":1}```", `{"a":1}`},
		{"fence with trailing space", "```json\n{\"a\":1}\n```  ", `{"a":1}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripFences(tc.in); got != tc.want {
				t.Errorf("StripFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestStripFences_EquivalentParses(t *testing.T) {
	variants := []string{
		goodVerdict,
		"```json\n" + goodVerdict + "\n```",
		"\n\n" + goodVerdict + "  \n",
	}

	for _, v := range variants {
		cleaned := StripFences(v)
		if !strings.HasPrefix(cleaned, "{") || !strings.HasSuffix(cleaned, "}") {
			t.Errorf("cleaned variant not bare JSON: %q", cleaned)
		}
	}
}
