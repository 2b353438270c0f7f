// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/polychat/polychat/internal/catalog"
	"github.com/polychat/polychat/internal/model"
	"github.com/polychat/polychat/internal/provider"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrInsufficientData means analysis was requested with no responses to
// analyze.
var ErrInsufficientData = errors.New("no model responses to analyze")

// ErrMissingCredential means no API key is configured for the analyzer
// model's provider.
var ErrMissingCredential = errors.New("no API key configured for the analyzer provider")

// ParseFailureError means the analyzer model's output was not the
// requested JSON shape. Terminal for the analysis only; the compare
// conversation it was built from stays valid.
type ParseFailureError struct {
	Raw   string
	Cause error
}

func (e *ParseFailureError) Error() string {
	return "could not parse analysis output: " + e.Cause.Error()
}

func (e *ParseFailureError) Unwrap() error {
	return e.Cause
}

// IsParseFailure reports whether an error is an analysis parse failure.
func IsParseFailure(err error) bool {
	var pfe *ParseFailureError
	return errors.As(err, &pfe)
}

// =============================================================================
// ANALYZER
// =============================================================================

// ScoreScale selects the rating range the analyzer model is asked for.
type ScoreScale int

const (
	// Scale100 rates each axis 0-100.
	Scale100 ScoreScale = iota

	// Scale10 rates each axis 0-10.
	Scale10
)

func (s ScoreScale) String() string {
	if s == Scale10 {
		return "0 to 10"
	}
	return "0 to 100"
}

// ModelResponse pairs a model's display name with its latest reply text.
// Order is preserved into the meta-prompt and the returned scores.
type ModelResponse struct {
	Name string
	Text string
}

// AdapterResolver resolves a catalog model to its wire adapter.
type AdapterResolver interface {
	ForModel(m catalog.Model) provider.Adapter
}

// Analyzer scores a set of compare-mode responses through a designated,
// non-user-selectable analyzer model.
type Analyzer struct {
	catalog  *catalog.Catalog
	adapters AdapterResolver
	scale    ScoreScale
}

// New builds an analyzer. The analyzer model is fixed by the catalog.
func New(cat *catalog.Catalog, adapters AdapterResolver, scale ScoreScale) *Analyzer {
	return &Analyzer{catalog: cat, adapters: adapters, scale: scale}
}

// Analyze submits every model's latest response to the analyzer model and
// parses the returned verdict.
//
// The analyzer is instructed to emit one raw JSON object and nothing
// else, but code fences are stripped before parsing regardless: models do
// not reliably obey the instruction and a fenced reply is the common
// failure shape, not an edge case.
func (a *Analyzer) Analyze(ctx context.Context, keys model.ApiKeySet, responses []ModelResponse, prompt string) (model.BiasAnalysis, error) {
	if len(responses) == 0 {
		return model.BiasAnalysis{}, ErrInsufficientData
	}

	m, ok := a.catalog.Find(catalog.AnalyzerModelID)
	if !ok {
		return model.BiasAnalysis{}, fmt.Errorf("analyzer model %s not in catalog", catalog.AnalyzerModelID)
	}
	key, ok := keys.Lookup(m.Provider)
	if !ok {
		return model.BiasAnalysis{}, ErrMissingCredential
	}

	history := []model.Message{model.NewUserMessage(a.metaPrompt(responses, prompt))}
	raw, err := a.adapters.ForModel(m).Send(ctx, m, key, history, nil)
	if err != nil {
		return model.BiasAnalysis{}, err
	}

	cleaned := StripFences(raw)
	var analysis model.BiasAnalysis
	if err := json.Unmarshal([]byte(cleaned), &analysis); err != nil {
		return model.BiasAnalysis{}, &ParseFailureError{Raw: raw, Cause: err}
	}
	if len(analysis.Models) == 0 {
		return model.BiasAnalysis{}, &ParseFailureError{Raw: raw, Cause: errors.New("no model scores in output")}
	}
	return analysis, nil
}

// metaPrompt builds the single analysis request embedding the original
// prompt and every model's latest response.
func (a *Analyzer) metaPrompt(responses []ModelResponse, prompt string) string {
	var b strings.Builder
	b.WriteString("You are an impartial evaluator of AI responses. ")
	b.WriteString("Several AI models answered the same user prompt. ")
	b.WriteString("Rate each response on a scale of ")
	b.WriteString(a.scale.String())
	b.WriteString(" for bias (higher = less biased), credibility, completeness, and clarity, ")
	b.WriteString("write a one-sentence summary per model, and recommend which response is best overall.\n\n")

	b.WriteString("User prompt:\n")
	b.WriteString(prompt)
	b.WriteString("\n\n")

	for _, r := range responses {
		b.WriteString("--- Response from ")
		b.WriteString(r.Name)
		b.WriteString(" ---\n")
		b.WriteString(r.Text)
		b.WriteString("\n\n")
	}

	b.WriteString("Respond with ONLY a raw JSON object in exactly this shape, with no code fences, ")
	b.WriteString("no markdown, and no text before or after it:\n")
	b.WriteString(`{"recommendation": "<which model's response is best and why>", "models": [{"name": "<model name>", "bias": <number>, "credibility": <number>, "completeness": <number>, "clarity": <number>, "summary": "<one sentence>"}]}`)
	return b.String()
}

// =============================================================================
// OUTPUT CLEANUP
// =============================================================================

// StripFences removes markdown code-fence wrappers and surrounding
// whitespace from a model reply, leaving the inner payload.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Language tag on the opening fence, e.g. ```json
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		first := strings.TrimSpace(s[:i])
		if first == "" || !strings.ContainsAny(first, "{[") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
