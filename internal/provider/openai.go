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

// chatMessage is a {role, content} turn in the chat-completions schema.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}

// apiError is the declared error body shared by the chat-completions
// providers. Some return a bare string under "error", so it unmarshals
// both shapes.
type apiError struct {
	Message string
}

func (e *apiError) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Message = s
		return nil
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	e.Message = obj.Message
	return nil
}

// streamChunk is one SSE frame of a chat-completions stream.
type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

// =============================================================================
// OPENAI-COMPATIBLE ADAPTER
// =============================================================================

// OpenAIAdapter speaks the chat-completions schema shared by several
// providers, differing only in endpoint URL. Auth is a bearer header.
// Attachments are not representable in this shape and are dropped.
type OpenAIAdapter struct {
	client    *http.Client
	endpoints Endpoints
}

// SupportsStreaming reports streaming availability.
func (a *OpenAIAdapter) SupportsStreaming() bool { return true }

// buildHistory flattens the internal history to {role, content} pairs.
func buildHistory(history []model.Message) []chatMessage {
	out := make([]chatMessage, 0, len(history))
	for _, msg := range history {
		role := "user"
		if msg.Role == model.RoleAssistant {
			role = "assistant"
		}
		out = append(out, chatMessage{Role: role, Content: msg.Content})
	}
	return out
}

// Send performs a non-streaming chat-completions call. The attachment,
// if any, is silently dropped: the schema has no inline-file field.
func (a *OpenAIAdapter) Send(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, _ *model.AttachedFile) (string, error) {
	resp, err := a.doRequest(ctx, m, apiKey, history, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportErr(m.Provider, "failed to read response body", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return "", rejectedErr(m.Provider, "API returned status "+resp.Status)
		}
		log.Printf("%s: unparseable response body: %s", m.Provider, raw)
		return "", protocolErr(m.Provider, "unparseable response body")
	}

	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", rejectedErr(m.Provider, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", rejectedErr(m.Provider, "API returned status "+resp.Status)
	}

	if len(parsed.Choices) == 0 {
		log.Printf("%s: no choices in response: %s", m.Provider, raw)
		return "", protocolErr(m.Provider, "no choices in response")
	}
	text := parsed.Choices[0].Message.Content
	if text == "" {
		return "", protocolErr(m.Provider, "empty reply text")
	}
	return text, nil
}

// SendStream performs a streaming chat-completions call, decoding
// "data:"-prefixed SSE frames terminated by the [DONE] marker.
func (a *OpenAIAdapter) SendStream(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, _ *model.AttachedFile, onSnapshot SnapshotFunc) (string, error) {
	resp, err := a.doRequest(ctx, m, apiKey, history, true)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	return DecodeStream(ctx, resp.Body, openAIDelta, onSnapshot)
}

// doRequest issues the POST and handles non-200 statuses; a 200 response
// is returned with its body unread for the caller to consume.
func (a *OpenAIAdapter) doRequest(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, stream bool) (*http.Response, error) {
	endpoint, ok := a.endpoints[m.Provider]
	if !ok {
		return nil, rejectedErr(m.Provider, "no endpoint configured for provider")
	}

	body, err := json.Marshal(chatRequest{
		Model:     m.Endpoint,
		Messages:  buildHistory(history),
		MaxTokens: maxOutputTokens,
		Stream:    stream,
	})
	if err != nil {
		return nil, transportErr(m.Provider, "failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, transportErr(m.Provider, "failed to create request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, transportErr(m.Provider, "request failed", err)
	}

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		var parsed chatResponse
		if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error != nil && parsed.Error.Message != "" {
			return nil, rejectedErr(m.Provider, parsed.Error.Message)
		}
		return nil, rejectedErr(m.Provider, "API returned status "+resp.Status)
	}
	return resp, nil
}

// openAIDelta extracts the text delta from one streamed frame.
func openAIDelta(data []byte) string {
	var chunk streamChunk
	if err := json.Unmarshal(data, &chunk); err != nil {
		return ""
	}
	if len(chunk.Choices) == 0 {
		return ""
	}
	return chunk.Choices[0].Delta.Content
}
