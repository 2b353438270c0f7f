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

// =============================================================================
// WIRE TYPES
// =============================================================================

// dashScopeRequest nests the history under input.messages rather than at
// the top level, with the token cap under parameters.
type dashScopeRequest struct {
	Model      string              `json:"model"`
	Input      dashScopeInput      `json:"input"`
	Parameters dashScopeParameters `json:"parameters"`
}

type dashScopeInput struct {
	Messages []chatMessage `json:"messages"`
}

type dashScopeParameters struct {
	MaxTokens int `json:"max_tokens,omitempty"`
}

// dashScopeResponse carries the reply under output.text instead of a
// choices array. Declared errors use code/message fields.
type dashScopeResponse struct {
	Output struct {
		Text string `json:"text"`
	} `json:"output"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// =============================================================================
// DASHSCOPE ADAPTER
// =============================================================================

// DashScopeAdapter speaks Alibaba's structured-input text-generation
// schema. Non-streaming only; attachments are dropped.
type DashScopeAdapter struct {
	client    *http.Client
	endpoints Endpoints
}

// SupportsStreaming reports streaming availability.
func (a *DashScopeAdapter) SupportsStreaming() bool { return false }

// Send performs a text-generation call.
func (a *DashScopeAdapter) Send(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, _ *model.AttachedFile) (string, error) {
	endpoint, ok := a.endpoints[m.Provider]
	if !ok {
		return "", rejectedErr(m.Provider, "no endpoint configured for provider")
	}

	body, err := json.Marshal(dashScopeRequest{
		Model:      m.Endpoint,
		Input:      dashScopeInput{Messages: buildHistory(history)},
		Parameters: dashScopeParameters{MaxTokens: maxOutputTokens},
	})
	if err != nil {
		return "", transportErr(m.Provider, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", transportErr(m.Provider, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", transportErr(m.Provider, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportErr(m.Provider, "failed to read response body", err)
	}

	var parsed dashScopeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", rejectedErr(m.Provider, "API returned status "+resp.Status)
		}
		log.Printf("dashscope: unparseable response body: %s", raw)
		return "", protocolErr(m.Provider, "unparseable response body")
	}

	if resp.StatusCode != http.StatusOK || (parsed.Code != "" && parsed.Message != "") {
		if parsed.Message != "" {
			return "", rejectedErr(m.Provider, parsed.Message)
		}
		return "", rejectedErr(m.Provider, "API returned status "+resp.Status)
	}

	if parsed.Output.Text == "" {
		log.Printf("dashscope: missing output.text in response: %s", raw)
		return "", protocolErr(m.Provider, "missing output.text in response")
	}
	return parsed.Output.Text, nil
}

// SendStream is unavailable: DashScope sends go through Send.
func (a *DashScopeAdapter) SendStream(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, file *model.AttachedFile, onSnapshot SnapshotFunc) (string, error) {
	return "", ErrNoStreaming
}
