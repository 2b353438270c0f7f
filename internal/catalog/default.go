// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package catalog

// Model ids of the designated service models. Not user-selectable; the
// analyzer and enhancer always run through these catalog entries.
const (
	// AnalyzerModelID is the model used for compare-mode response analysis.
	AnalyzerModelID = "cerebras-llama"

	// EnhancerModelID is the model used for prompt enhancement.
	EnhancerModelID = "gemini-2.5-flash"
)

// defaultProviders is the production provider table.
var defaultProviders = []Provider{
	{ID: "google", Name: "Google", Color: "#4285f4"},
	{ID: "cerebras", Name: "Cerebras", Color: "#8b5cf6"},
	{ID: "groq", Name: "Groq", Color: "#ec4899"},
	{ID: "deepseek", Name: "DeepSeek", Color: "#10b981"},
	{ID: "mistral", Name: "Mistral", Color: "#ff6b35"},
	{ID: "alibaba", Name: "Alibaba", Color: "#ff9500"},
}

// defaultModels is the production model table. Endpoint is the upstream
// name the provider's API expects.
var defaultModels = []Model{
	// Google
	{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Provider: "google", Endpoint: "gemini-2.5-flash", Kind: KindGemini},
	{ID: "gemini-2.0-flash", Name: "Gemini 2.0 Flash", Provider: "google", Endpoint: "gemini-2.0-flash", Kind: KindGemini},
	{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Provider: "google", Endpoint: "gemini-2.5-pro", Kind: KindGemini},
	{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash Lite", Provider: "google", Endpoint: "gemini-2.5-flash-lite", Kind: KindGemini},
	{ID: "gemma-3-27b", Name: "Gemma 3 27B", Provider: "google", Endpoint: "gemma-3-27b", Kind: KindGemini},

	// Cerebras
	{ID: "cerebras-llama", Name: "Cerebras Llama", Provider: "cerebras", Endpoint: "llama3.3-70b", Kind: KindOpenAI},

	// Groq
	{ID: "groq-llama-70b", Name: "Groq Llama 70b", Provider: "groq", Endpoint: "llama-3.3-70b-versatile", Kind: KindOpenAI},
	{ID: "groq-llama-8b", Name: "Groq Llama 8b", Provider: "groq", Endpoint: "llama3-8b-8192", Kind: KindOpenAI},

	// DeepSeek
	{ID: "deepseek-chat", Name: "DeepSeek V3", Provider: "deepseek", Endpoint: "deepseek-chat", Kind: KindOpenAI},

	// Mistral
	{ID: "mistral-large", Name: "Mistral Large", Provider: "mistral", Endpoint: "mistral-large-latest", Kind: KindOpenAI},
	{ID: "mistral-small", Name: "Mistral Small", Provider: "mistral", Endpoint: "mistral-small-latest", Kind: KindOpenAI},

	// Alibaba
	{ID: "alibaba-qwen-turbo", Name: "Alibaba Qwen Turbo", Provider: "alibaba", Endpoint: "qwen-turbo", Kind: KindDashScope},
	{ID: "alibaba-qwen-plus", Name: "Alibaba Qwen Plus", Provider: "alibaba", Endpoint: "qwen-plus", Kind: KindDashScope},
}

// Default returns a catalog with the production provider and model tables.
func Default() *Catalog {
	return New(defaultProviders, defaultModels)
}
