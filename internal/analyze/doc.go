// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package analyze scores a set of compare-mode responses for bias,
// credibility, completeness, and clarity through a designated analyzer
// model, returning a structured verdict with a best-response
// recommendation.
//
// The analysis is a meta-call: the original prompt and every model's
// latest reply are embedded in one request to the analyzer model, which
// is asked for a single raw JSON object. Replies are defensively
// unwrapped from code fences before parsing. A parse failure is terminal
// for the analysis only and never touches the conversation it was built
// from.
package analyze
