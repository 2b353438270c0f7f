// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// BIAS ANALYSIS
// =============================================================================

// ModelScore holds the analyzer's ratings for a single model's response.
// Scores are on the configured scale (0-10 or 0-100); higher is better on
// every axis, including Bias where a high score means low bias.
type ModelScore struct {
	Name         string  `json:"name"`
	Bias         float64 `json:"bias"`
	Credibility  float64 `json:"credibility"`
	Completeness float64 `json:"completeness"`
	Clarity      float64 `json:"clarity"`
	Summary      string  `json:"summary"`
}

// BiasAnalysis is the analyzer's verdict on a set of compare-mode
// responses. Produced transiently; persistence is up to the caller.
type BiasAnalysis struct {
	Recommendation string       `json:"recommendation"`
	Models         []ModelScore `json:"models"`
}
