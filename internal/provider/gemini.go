// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/polychat/polychat/internal/catalog"
	"github.com/polychat/polychat/internal/model"
)

// defaultGeminiBaseURL is the production Gemini API base.
const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// =============================================================================
// WIRE TYPES
// =============================================================================

// geminiPart is one element of a turn's parts array. Exactly one field is
// set: Text for text parts, InlineData for the final-turn attachment.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// geminiContent is a role-tagged turn. Gemini's role vocabulary differs
// from the internal one: the internal assistant role maps to "model".
type geminiContent struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent  `json:"contents"`
	GenerationConfig *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiGenConfig struct {
	MaxOutputTokens int `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// GEMINI ADAPTER
// =============================================================================

// GeminiAdapter speaks the inline-parts request shape. Authentication is
// via a query parameter, not a bearer header.
type GeminiAdapter struct {
	client  *http.Client
	baseURL string
}

// SupportsStreaming reports streaming availability.
func (a *GeminiAdapter) SupportsStreaming() bool { return true }

func (a *GeminiAdapter) base() string {
	if a.baseURL != "" {
		return a.baseURL
	}
	return defaultGeminiBaseURL
}

// buildContents translates the internal history into role-tagged parts
// arrays. Only the final turn may carry the inline attachment.
func buildContents(history []model.Message, file *model.AttachedFile) []geminiContent {
	contents := make([]geminiContent, 0, len(history))
	for i, msg := range history {
		role := "user"
		if msg.Role == model.RoleAssistant {
			role = "model"
		}
		parts := []geminiPart{{Text: msg.Content}}
		if i == len(history)-1 && file != nil {
			parts = append(parts, geminiPart{
				InlineData: &geminiInlineData{MIMEType: file.MIME, Data: file.Data},
			})
		}
		contents = append(contents, geminiContent{Role: role, Parts: parts})
	}
	return contents
}

// Send performs a non-streaming generateContent call.
func (a *GeminiAdapter) Send(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, file *model.AttachedFile) (string, error) {
	body, err := json.Marshal(geminiRequest{
		Contents:         buildContents(history, file),
		GenerationConfig: &geminiGenConfig{MaxOutputTokens: maxOutputTokens},
	})
	if err != nil {
		return "", transportErr(m.Provider, "failed to marshal request", err)
	}

	url := a.base() + "/models/" + m.Endpoint + ":generateContent?key=" + apiKey

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", transportErr(m.Provider, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", transportErr(m.Provider, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportErr(m.Provider, "failed to read response body", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", rejectedErr(m.Provider, "API returned status "+resp.Status)
		}
		log.Printf("gemini: unparseable response body: %s", raw)
		return "", protocolErr(m.Provider, "unparseable response body")
	}

	// Gemini reports declared errors in-body even on some non-200s.
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", rejectedErr(m.Provider, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", rejectedErr(m.Provider, "API returned status "+resp.Status)
	}

	// A safety block is a legitimate terminal outcome: surface it as a
	// user-visible explanation rather than an error.
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "Response blocked by the provider: " + parsed.PromptFeedback.BlockReason, nil
	}
	if len(parsed.Candidates) > 0 && parsed.Candidates[0].FinishReason == "SAFETY" {
		return "Response blocked by the provider for safety reasons.", nil
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		log.Printf("gemini: no candidates in response: %s", raw)
		return "", protocolErr(m.Provider, "no candidates in response")
	}
	text := parsed.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", protocolErr(m.Provider, "empty reply text")
	}
	return text, nil
}

// SendStream performs a streaming streamGenerateContent call. Gemini
// streams SSE frames whose payloads share the non-streaming shape; each
// frame's first part text is the delta.
func (a *GeminiAdapter) SendStream(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, file *model.AttachedFile, onSnapshot SnapshotFunc) (string, error) {
	body, err := json.Marshal(geminiRequest{Contents: buildContents(history, file)})
	if err != nil {
		return "", transportErr(m.Provider, "failed to marshal request", err)
	}

	url := a.base() + "/models/" + m.Endpoint + ":streamGenerateContent?alt=sse&key=" + apiKey

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", transportErr(m.Provider, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", transportErr(m.Provider, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		var parsed geminiResponse
		if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
			return "", rejectedErr(m.Provider, parsed.Error.Message)
		}
		return "", rejectedErr(m.Provider, "API returned status "+resp.Status)
	}

	return DecodeStream(ctx, resp.Body, geminiDelta, onSnapshot)
}

// geminiDelta extracts the text delta from one streamed Gemini frame.
func geminiDelta(data []byte) string {
	var parsed geminiResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return ""
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return parsed.Candidates[0].Content.Parts[0].Text
}
