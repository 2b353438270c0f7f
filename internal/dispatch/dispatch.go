// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/polychat/polychat/internal/catalog"
	"github.com/polychat/polychat/internal/model"
	"github.com/polychat/polychat/internal/provider"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrUnknownModel means a chat references a model id absent from the
// catalog.
var ErrUnknownModel = errors.New("model not found in catalog")

// ErrNoModelsSelected means a compare send was attempted with an empty
// selection.
var ErrNoModelsSelected = errors.New("no models selected for compare")

// ErrEmptyReply means the provider completed without producing any text.
// Distinct from a transport failure; the send itself succeeded.
var ErrEmptyReply = errors.New("provider returned an empty reply")

// MissingCredentialError means no API key is configured for a provider.
// Recoverable and expected: the caller redirects the user to settings
// rather than logging a defect.
type MissingCredentialError struct {
	Provider string
}

func (e *MissingCredentialError) Error() string {
	return "no API key configured for provider " + e.Provider
}

// IsMissingCredential reports whether an error is a missing-key condition.
func IsMissingCredential(err error) bool {
	var mce *MissingCredentialError
	return errors.As(err, &mce)
}

// =============================================================================
// DISPATCHER
// =============================================================================

// AdapterResolver resolves a catalog model to its wire adapter.
// *provider.Set is the production implementation.
type AdapterResolver interface {
	ForModel(m catalog.Model) provider.Adapter
}

// Config holds dispatcher tuning.
type Config struct {
	// RequestTimeout bounds every provider call. Zero disables the bound
	// and a hung provider blocks its column until the parent context ends.
	RequestTimeout time.Duration
}

// DefaultConfig returns the production dispatcher configuration.
func DefaultConfig() Config {
	return Config{RequestTimeout: 120 * time.Second}
}

// Dispatcher routes chat sends to provider adapters and folds the results
// back into conversation state.
//
// The dispatcher never mutates a caller's Chat in place. Every entry point
// clones the chat, computes the new state, and returns it; the caller owns
// persistence and rendering. There is exactly one logical writer per chat,
// so no locking happens here.
type Dispatcher struct {
	catalog  *catalog.Catalog
	adapters AdapterResolver
	cfg      Config
}

// New builds a dispatcher over an injected catalog and adapter set.
func New(cat *catalog.Catalog, adapters AdapterResolver, cfg Config) *Dispatcher {
	return &Dispatcher{catalog: cat, adapters: adapters, cfg: cfg}
}

// requestCtx applies the per-request timeout when configured.
func (d *Dispatcher) requestCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.cfg.RequestTimeout > 0 {
		return context.WithTimeout(ctx, d.cfg.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

// =============================================================================
// SINGLE SEND
// =============================================================================

// SendSingle sends one user turn to the chat's active model and returns
// the updated chat.
//
// The user message is appended optimistically before the network call, so
// the caller can render it immediately. On failure the user message is
// KEPT in the returned chat and the error is returned for the caller to
// surface separately; a resend appends a fresh user turn.
func (d *Dispatcher) SendSingle(ctx context.Context, chat model.Chat, keys model.ApiKeySet, userText string, file *model.AttachedFile, onSnapshot provider.SnapshotFunc) (model.Chat, error) {
	m, ok := d.catalog.Find(chat.ActiveModel())
	if !ok {
		return chat, fmt.Errorf("%w: %s", ErrUnknownModel, chat.ActiveModel())
	}
	key, ok := keys.Lookup(m.Provider)
	if !ok {
		return chat, &MissingCredentialError{Provider: m.Provider}
	}

	updated := chat.Clone()
	updated.Messages = append(updated.Messages, model.NewUserMessageWithFile(userText, file))
	if updated.Name == model.DefaultChatName {
		updated.Name = model.AutoName(userText)
	}

	reqCtx, cancel := d.requestCtx(ctx)
	defer cancel()

	adapter := d.adapters.ForModel(m)
	var text string
	var err error
	if adapter.SupportsStreaming() {
		text, err = adapter.SendStream(reqCtx, m, key, updated.Messages, file, onSnapshot)
		if errors.Is(err, provider.ErrNoStreaming) {
			text, err = adapter.Send(reqCtx, m, key, updated.Messages, file)
		}
	} else {
		text, err = adapter.Send(reqCtx, m, key, updated.Messages, file)
	}
	if err != nil {
		return updated, err
	}
	if text == "" {
		return updated, ErrEmptyReply
	}

	updated.Messages = append(updated.Messages, model.NewAssistantMessage(text))
	return updated, nil
}

// =============================================================================
// COMPARE SEND
// =============================================================================

// SendCompare dispatches one user turn to every selected model
// concurrently, each against its own independent history, and returns the
// chat with all columns merged.
//
// Columns never affect each other: a failed model records an in-band
// assistant turn beginning "Error: " in its own history while siblings
// complete normally. The join waits for every column regardless of
// individual outcome; SendCompare itself only fails on preconditions.
func (d *Dispatcher) SendCompare(ctx context.Context, chat model.Chat, keys model.ApiKeySet, userText string, file *model.AttachedFile) (model.Chat, error) {
	if len(chat.SelectedModels) == 0 {
		return chat, ErrNoModelsSelected
	}

	updated := chat.Clone()
	if updated.Name == model.DefaultChatName {
		updated.Name = model.AutoName(userText)
	}

	columns := make([][]model.Message, len(updated.SelectedModels))

	g, gctx := errgroup.WithContext(ctx)
	for i, modelID := range updated.SelectedModels {
		history := append([]model.Message(nil), updated.CompareHistory(modelID)...)
		history = append(history, model.NewUserMessageWithFile(userText, file))

		g.Go(func() error {
			text, err := d.sendToModel(gctx, modelID, keys, history, file)
			if err != nil {
				text = "Error: " + err.Error()
			}
			columns[i] = append(history, model.NewAssistantMessage(text))
			return nil
		})
	}
	// Goroutines never return errors; Wait is a pure join.
	_ = g.Wait()

	for i, modelID := range updated.SelectedModels {
		updated.CompareResponses[modelID] = columns[i]
	}
	return updated, nil
}

// sendToModel performs one bounded non-streaming send for a compare
// column.
func (d *Dispatcher) sendToModel(ctx context.Context, modelID string, keys model.ApiKeySet, history []model.Message, file *model.AttachedFile) (string, error) {
	m, ok := d.catalog.Find(modelID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, modelID)
	}
	key, ok := keys.Lookup(m.Provider)
	if !ok {
		return "", &MissingCredentialError{Provider: m.Provider}
	}

	reqCtx, cancel := d.requestCtx(ctx)
	defer cancel()

	text, err := d.adapters.ForModel(m).Send(reqCtx, m, key, history, file)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// =============================================================================
// COMPARE EXIT
// =============================================================================

// ContinueWithModel promotes one compare column to the normal history and
// leaves compare mode. The other columns are discarded; the chosen model
// becomes the chat's selected model.
func (d *Dispatcher) ContinueWithModel(chat model.Chat, modelID string) model.Chat {
	updated := chat.Clone()
	updated.Messages = append([]model.Message(nil), updated.CompareHistory(modelID)...)
	updated.Model = modelID
	updated.FocusedModel = ""
	updated.CompareMode = false
	updated.SelectedModels = []string{}
	updated.CompareResponses = map[string][]model.Message{}
	return updated
}

// =============================================================================
// PROMPT ENHANCEMENT
// =============================================================================

// enhanceInstruction frames the rewrite request. The enhancer must return
// only the improved prompt, but models routinely wrap it anyway, so the
// reply is cleaned before use.
const enhanceInstruction = "You are a prompt engineer. Rewrite the following prompt to be clearer, more specific, and more effective, while preserving the user's intent. Return ONLY the improved prompt with no explanation, preamble, or quotes.\n\nPrompt: "

// EnhancePrompt rewrites a draft prompt through the designated enhancer
// model and returns the improved text.
func (d *Dispatcher) EnhancePrompt(ctx context.Context, keys model.ApiKeySet, prompt string) (string, error) {
	m, ok := d.catalog.Find(catalog.EnhancerModelID)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownModel, catalog.EnhancerModelID)
	}
	key, ok := keys.Lookup(m.Provider)
	if !ok {
		return "", &MissingCredentialError{Provider: m.Provider}
	}

	reqCtx, cancel := d.requestCtx(ctx)
	defer cancel()

	history := []model.Message{model.NewUserMessage(enhanceInstruction + prompt)}
	text, err := d.adapters.ForModel(m).Send(reqCtx, m, key, history, nil)
	if err != nil {
		return "", err
	}

	cleaned := cleanEnhanced(text)
	if cleaned == "" {
		return "", ErrEmptyReply
	}
	return cleaned, nil
}

// cleanEnhanced strips the wrappers enhancer models commonly add around
// the rewritten prompt.
func cleanEnhanced(text string) string {
	s := strings.TrimSpace(text)
	for _, prefix := range []string{"Enhanced prompt:", "Improved prompt:", "Prompt:"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(strings.TrimPrefix(s, prefix))
		}
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}
