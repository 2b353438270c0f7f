// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch routes chat sends to provider adapters and reconciles
// the replies into conversation state.
//
// The dispatcher is the only component that touches a Chat's histories.
// It owns four operations:
//
//   - SendSingle: one turn to the active model, streaming preferred
//   - SendCompare: concurrent fan-out to every selected model with
//     independent per-column histories and wait-for-all join
//   - ContinueWithModel: promote one compare column to the normal history
//   - EnhancePrompt: rewrite a draft prompt through the enhancer model
//
// State flows one way: the dispatcher receives a Chat by value, clones
// it, computes the new state, and returns it. The caller owns rendering
// and persistence. Failed single sends keep the optimistically appended
// user message; failed compare columns record an in-band "Error: "
// assistant turn and never disturb sibling columns.
package dispatch
