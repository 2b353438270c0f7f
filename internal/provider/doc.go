// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package provider implements the wire adapters that translate a neutral
// chat history into each upstream AI service's request shape and back.
//
// Three adapter families cover the whole catalog:
//
//   - GeminiAdapter: Google's generativelanguage API with inline file
//     parts and query-parameter auth
//   - OpenAIAdapter: every OpenAI-compatible endpoint (Cerebras, Groq,
//     DeepSeek, Mistral) with bearer auth and SSE streaming
//   - DashScopeAdapter: Alibaba's structured-input API, non-streaming
//
// # Key Types
//
//   - Adapter: the common send/stream contract
//   - Set: resolves a catalog model to its adapter by kind
//   - AdapterError: classified failures (transport, rejected, protocol)
//   - DecodeStream: shared incremental decoder for SSE and JSON-lines
//
// # Usage
//
// Build a Set once and resolve per model:
//
//	set := provider.NewSet(provider.DefaultEndpoints(), nil)
//	adapter := set.ForModel(m)
//	reply, err := adapter.Send(ctx, m, apiKey, history, nil)
//
// Streaming adapters deliver growing snapshots of the full reply text,
// so a consumer can render each snapshot directly without splicing
// deltas together:
//
//	final, err := adapter.SendStream(ctx, m, apiKey, history, nil,
//	    func(textSoFar string) { render(textSoFar) })
//
// # Error Classification
//
// All failures surface as *AdapterError. errors.Is against ErrTransport,
// ErrRejected, and ErrProtocol distinguishes network faults from
// declared upstream rejections from malformed response shapes.
package provider
