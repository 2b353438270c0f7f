// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/polychat/polychat/internal/catalog"
	"github.com/polychat/polychat/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes adapter errors for handling.
type ErrorKind int

const (
	// ErrKindUnknown is an uncategorized failure.
	ErrKindUnknown ErrorKind = iota

	// ErrKindTransport is a network-level failure: unreachable host,
	// dropped connection, unreadable body.
	ErrKindTransport

	// ErrKindRejected is a declared provider error: bad request, policy
	// block, quota. The provider's own message is carried when present.
	ErrKindRejected

	// ErrKindProtocol is a success status with a body shape the adapter
	// cannot interpret. Not retryable; logged with the raw body.
	ErrKindProtocol
)

// AdapterError represents an error from a wire adapter.
type AdapterError struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Cause    error
}

func (e *AdapterError) Error() string {
	msg := e.Message
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *AdapterError) Unwrap() error {
	return e.Cause
}

// Is reports kind equality so sentinel checks with errors.Is work.
func (e *AdapterError) Is(target error) bool {
	t, ok := target.(*AdapterError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinel errors for kind checks via errors.Is.
var (
	ErrTransport = &AdapterError{Kind: ErrKindTransport}
	ErrRejected  = &AdapterError{Kind: ErrKindRejected}
	ErrProtocol  = &AdapterError{Kind: ErrKindProtocol}
)

// IsTransport reports whether an error is a network-level failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsRejected reports whether an error is a declared provider rejection.
func IsRejected(err error) bool {
	return errors.Is(err, ErrRejected)
}

// IsProtocol reports whether an error is a protocol violation.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}

// transportErr wraps a network-level failure.
func transportErr(providerID, msg string, cause error) *AdapterError {
	return &AdapterError{Kind: ErrKindTransport, Provider: providerID, Message: msg, Cause: cause}
}

// rejectedErr wraps a declared provider error.
func rejectedErr(providerID, msg string) *AdapterError {
	return &AdapterError{Kind: ErrKindRejected, Provider: providerID, Message: msg}
}

// protocolErr wraps an uninterpretable success body.
func protocolErr(providerID, msg string) *AdapterError {
	return &AdapterError{Kind: ErrKindProtocol, Provider: providerID, Message: msg}
}

// =============================================================================
// ADAPTER INTERFACE
// =============================================================================

// SnapshotFunc receives the full accumulated text after each decoded
// streaming delta, never just the delta.
type SnapshotFunc func(textSoFar string)

// Adapter translates an internal conversation history into one provider
// family's wire format and collapses the response back to plain text.
//
// Send either returns non-empty text or a categorized error; it never
// returns an empty string silently. A safety/policy block is a legitimate
// terminal outcome and is surfaced as explanatory text, not an error.
type Adapter interface {
	// Send performs a non-streaming request with the full history. Only
	// the final turn's attachment, if any, is forwarded inline.
	Send(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, file *model.AttachedFile) (string, error)

	// SupportsStreaming reports whether SendStream is available.
	SupportsStreaming() bool

	// SendStream performs a streaming request, invoking onSnapshot with
	// the text-so-far after each decoded delta, and returns the final
	// accumulated text. Adapters without streaming return ErrNoStreaming.
	SendStream(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, file *model.AttachedFile, onSnapshot SnapshotFunc) (string, error)
}

// ErrNoStreaming is returned by SendStream on adapters whose provider has
// no streaming endpoint.
var ErrNoStreaming = errors.New("streaming not supported by this provider")

// =============================================================================
// ADAPTER RESOLUTION
// =============================================================================

// maxOutputTokens is the fixed output-length cap requested per call. No
// dynamic token budgeting.
const maxOutputTokens = 4096

// Endpoints maps provider ids to their chat endpoints. Overridable for
// test doubles; the Gemini base URL lives in the gemini adapter since its
// URL embeds the model name.
type Endpoints map[string]string

// DefaultEndpoints returns the production endpoint table for the
// chat-completions and DashScope providers.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		"cerebras": "https://api.cerebras.ai/v1/chat/completions",
		"groq":     "https://api.groq.com/openai/v1/chat/completions",
		"deepseek": "https://api.deepseek.com/chat/completions",
		"mistral":  "https://api.mistral.ai/v1/chat/completions",
		"alibaba":  "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation",
	}
}

// Set is the resolved adapter table for a process: one adapter per
// provider kind, sharing an HTTP client.
type Set struct {
	gemini    *GeminiAdapter
	openAI    *OpenAIAdapter
	dashScope *DashScopeAdapter
}

// NewSet builds the adapter set. A nil client uses a default with a
// connection-pooling transport; streaming requests are bounded by context
// rather than a client timeout.
func NewSet(endpoints Endpoints, client *http.Client) *Set {
	if endpoints == nil {
		endpoints = DefaultEndpoints()
	}
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &Set{
		gemini:    &GeminiAdapter{client: client},
		openAI:    &OpenAIAdapter{client: client, endpoints: endpoints},
		dashScope: &DashScopeAdapter{client: client, endpoints: endpoints},
	}
}

// ForModel resolves the adapter for a model from its tagged kind. The
// kind is baked into the catalog entry, so an unhandled provider id can
// never fall through silently at call time.
func (s *Set) ForModel(m catalog.Model) Adapter {
	switch m.Kind {
	case catalog.KindGemini:
		return s.gemini
	case catalog.KindDashScope:
		return s.dashScope
	default:
		return s.openAI
	}
}

// WithGeminiBaseURL overrides the Gemini base URL, for test doubles.
func (s *Set) WithGeminiBaseURL(url string) *Set {
	s.gemini.baseURL = url
	return s
}
