// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package catalog provides the immutable provider and model registry.
package catalog

// =============================================================================
// PROVIDER KIND
// =============================================================================

// Kind identifies a provider wire-protocol family. Every model carries its
// kind so adapter dispatch is resolved once at lookup time instead of
// re-switching on provider id strings for every call.
type Kind int

const (
	// KindGemini is the inline-parts request shape (role-tagged parts
	// arrays, query-parameter auth).
	KindGemini Kind = iota

	// KindOpenAI is the chat-completions shape shared by several
	// providers (bearer auth, choices array).
	KindOpenAI

	// KindDashScope is the Alibaba shape (history under input.messages,
	// reply under output.text).
	KindDashScope
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindGemini:
		return "gemini"
	case KindOpenAI:
		return "openai"
	case KindDashScope:
		return "dashscope"
	default:
		return "unknown"
	}
}

// =============================================================================
// PROVIDER AND MODEL
// =============================================================================

// Provider is an upstream LLM vendor. Immutable, defined at construction,
// referenced by id everywhere else.
type Provider struct {
	// ID is the provider identifier used in API key sets and models.
	ID string `json:"id"`

	// Name is the human-readable display name.
	Name string `json:"name"`

	// Color is the accent color used by the UI for this provider.
	Color string `json:"color"`
}

// Model is a specific addressable LLM endpoint belonging to a provider.
type Model struct {
	// ID is the model identifier used throughout the application.
	ID string `json:"id"`

	// Name is the human-readable display name.
	Name string `json:"name"`

	// Provider is the owning provider's id.
	Provider string `json:"provider"`

	// Endpoint is the upstream model name the provider's API expects,
	// which may differ from the display name.
	Endpoint string `json:"endpoint"`

	// Kind selects the wire-protocol family for this model.
	Kind Kind `json:"-"`
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is an injected, immutable configuration table of providers and
// models, constructed at startup and passed to the dispatcher and
// adapters. Lookups are pure and have no failure modes beyond "not
// found", which callers treat as a non-fatal precondition violation.
type Catalog struct {
	providers []Provider
	models    []Model
	byID      map[string]Model
}

// New builds a catalog from provider and model tables. Models referencing
// an unknown provider are dropped; the catalog invariant is that every
// model's provider exists.
func New(providers []Provider, models []Model) *Catalog {
	known := make(map[string]bool, len(providers))
	for _, p := range providers {
		known[p.ID] = true
	}

	c := &Catalog{
		providers: append([]Provider(nil), providers...),
		byID:      make(map[string]Model, len(models)),
	}
	for _, m := range models {
		if !known[m.Provider] {
			continue
		}
		c.models = append(c.models, m)
		c.byID[m.ID] = m
	}
	return c
}

// Providers returns the ordered provider table.
func (c *Catalog) Providers() []Provider {
	return append([]Provider(nil), c.providers...)
}

// Provider returns a provider by id.
func (c *Catalog) Provider(id string) (Provider, bool) {
	for _, p := range c.providers {
		if p.ID == id {
			return p, true
		}
	}
	return Provider{}, false
}

// Models returns the ordered model table, optionally filtered by provider
// id. An empty providerID returns every model.
func (c *Catalog) Models(providerID string) []Model {
	if providerID == "" {
		return append([]Model(nil), c.models...)
	}
	var out []Model
	for _, m := range c.models {
		if m.Provider == providerID {
			out = append(out, m)
		}
	}
	return out
}

// Find returns a model by id.
func (c *Catalog) Find(modelID string) (Model, bool) {
	m, ok := c.byID[modelID]
	return m, ok
}
