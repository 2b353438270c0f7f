// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/polychat/polychat/internal/catalog"
	"github.com/polychat/polychat/internal/model"
	"github.com/polychat/polychat/internal/provider"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

// fakeAdapter scripts one model's behavior for dispatcher tests.
type fakeAdapter struct {
	reply     string
	err       error
	streaming bool
	deltas    []string

	sendCalls   int
	streamCalls int
	lastHistory []model.Message
}

func (f *fakeAdapter) Send(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, file *model.AttachedFile) (string, error) {
	f.sendCalls++
	f.lastHistory = history
	return f.reply, f.err
}

func (f *fakeAdapter) SupportsStreaming() bool { return f.streaming }

func (f *fakeAdapter) SendStream(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, file *model.AttachedFile, onSnapshot provider.SnapshotFunc) (string, error) {
	f.streamCalls++
	f.lastHistory = history
	if f.err != nil {
		return "", f.err
	}
	var sofar string
	for _, d := range f.deltas {
		sofar += d
		if onSnapshot != nil {
			onSnapshot(sofar)
		}
	}
	if sofar == "" {
		sofar = f.reply
	}
	return sofar, nil
}

// fakeResolver maps model ids to scripted adapters.
type fakeResolver map[string]*fakeAdapter

func (r fakeResolver) ForModel(m catalog.Model) provider.Adapter {
	return r[m.ID]
}

func testCatalog() *catalog.Catalog {
	return catalog.New(
		[]catalog.Provider{
			{ID: "google", Name: "Google"},
			{ID: "cerebras", Name: "Cerebras"},
			{ID: "groq", Name: "Groq"},
		},
		[]catalog.Model{
			{ID: "gemini-2.5-flash", Name: "Gemini", Provider: "google", Endpoint: "gemini-2.5-flash", Kind: catalog.KindGemini},
			{ID: "cerebras-llama", Name: "Cerebras Llama", Provider: "cerebras", Endpoint: "llama3.3-70b", Kind: catalog.KindOpenAI},
			{ID: "groq-llama-70b", Name: "Groq Llama", Provider: "groq", Endpoint: "llama-3.3-70b-versatile", Kind: catalog.KindOpenAI},
		},
	)
}

func allKeys() model.ApiKeySet {
	return model.ApiKeySet{"google": "gk", "cerebras": "ck", "groq": "qk"}
}

// =============================================================================
// SINGLE SEND TESTS
// =============================================================================

func TestSendSingle_AppendsUserAndAssistant(t *testing.T) {
	adapters := fakeResolver{"gemini-2.5-flash": {reply: "Hi! How can I help?"}}
	d := New(testCatalog(), adapters, Config{})
	chat := model.NewChat("u", "gemini-2.5-flash")

	updated, err := d.SendSingle(context.Background(), chat, allKeys(), "Hello", nil, nil)
	if err != nil {
		t.Fatalf("SendSingle error: %v", err)
	}

	if len(updated.Messages) != 2 {
		t.Fatalf("message count = %d, want 2", len(updated.Messages))
	}
	if updated.Messages[0].Role != model.RoleUser || updated.Messages[0].Content != "Hello" {
		t.Errorf("first turn = %+v", updated.Messages[0])
	}
	if updated.Messages[1].Role != model.RoleAssistant || updated.Messages[1].Content == "" {
		t.Errorf("second turn = %+v", updated.Messages[1])
	}
	if updated.Messages[1].Timestamp.Before(updated.Messages[0].Timestamp) {
		t.Error("assistant timestamp precedes user timestamp")
	}
}

func TestSendSingle_AutoNamesNewChat(t *testing.T) {
	adapters := fakeResolver{"gemini-2.5-flash": {reply: "ok"}}
	d := New(testCatalog(), adapters, Config{})
	chat := model.NewChat("u", "gemini-2.5-flash")

	updated, err := d.SendSingle(context.Background(), chat, allKeys(), "Tell me about the solar system in detail", nil, nil)
	if err != nil {
		t.Fatalf("SendSingle error: %v", err)
	}
	if updated.Name != "Tell me about the solar system..." {
		t.Errorf("Name = %q", updated.Name)
	}

	// A named chat keeps its name.
	updated.Name = "my chat"
	again, err := d.SendSingle(context.Background(), updated, allKeys(), "more", nil, nil)
	if err != nil {
		t.Fatalf("SendSingle error: %v", err)
	}
	if again.Name != "my chat" {
		t.Errorf("Name = %q, want 'my chat'", again.Name)
	}
}

func TestSendSingle_MissingKey(t *testing.T) {
	adapters := fakeResolver{"gemini-2.5-flash": {reply: "ok"}}
	d := New(testCatalog(), adapters, Config{})
	chat := model.NewChat("u", "gemini-2.5-flash")

	updated, err := d.SendSingle(context.Background(), chat, model.ApiKeySet{}, "Hello", nil, nil)
	if !IsMissingCredential(err) {
		t.Fatalf("error = %v, want missing credential", err)
	}
	// Key validation happens before the optimistic append.
	if len(updated.Messages) != 0 {
		t.Errorf("message count = %d, want 0", len(updated.Messages))
	}
}

func TestSendSingle_UnknownModel(t *testing.T) {
	d := New(testCatalog(), fakeResolver{}, Config{})
	chat := model.NewChat("u", "retired-model")

	_, err := d.SendSingle(context.Background(), chat, allKeys(), "Hello", nil, nil)
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("error = %v, want ErrUnknownModel", err)
	}
}

func TestSendSingle_FailureKeepsUserMessage(t *testing.T) {
	adapters := fakeResolver{"gemini-2.5-flash": {err: errors.New("boom")}}
	d := New(testCatalog(), adapters, Config{})
	chat := model.NewChat("u", "gemini-2.5-flash")

	updated, err := d.SendSingle(context.Background(), chat, allKeys(), "Hello", nil, nil)
	if err == nil {
		t.Fatal("expected send failure")
	}
	if len(updated.Messages) != 1 || updated.Messages[0].Role != model.RoleUser {
		t.Errorf("messages = %+v, want the user turn kept", updated.Messages)
	}
}

func TestSendSingle_DoesNotMutateInput(t *testing.T) {
	adapters := fakeResolver{"gemini-2.5-flash": {reply: "ok"}}
	d := New(testCatalog(), adapters, Config{})
	chat := model.NewChat("u", "gemini-2.5-flash")

	_, err := d.SendSingle(context.Background(), chat, allKeys(), "Hello", nil, nil)
	if err != nil {
		t.Fatalf("SendSingle error: %v", err)
	}
	if len(chat.Messages) != 0 {
		t.Errorf("input chat grew to %d messages", len(chat.Messages))
	}
	if chat.Name != model.DefaultChatName {
		t.Errorf("input chat renamed to %q", chat.Name)
	}
}

func TestSendSingle_PrefersStreaming(t *testing.T) {
	fake := &fakeAdapter{streaming: true, deltas: []string{"Hel", "lo"}}
	d := New(testCatalog(), fakeResolver{"gemini-2.5-flash": fake}, Config{})
	chat := model.NewChat("u", "gemini-2.5-flash")

	var snapshots []string
	updated, err := d.SendSingle(context.Background(), chat, allKeys(), "hi", nil,
		func(textSoFar string) { snapshots = append(snapshots, textSoFar) })
	if err != nil {
		t.Fatalf("SendSingle error: %v", err)
	}

	if fake.streamCalls != 1 || fake.sendCalls != 0 {
		t.Errorf("stream calls = %d, send calls = %d", fake.streamCalls, fake.sendCalls)
	}
	if len(snapshots) != 2 || snapshots[1] != "Hello" {
		t.Errorf("snapshots = %v", snapshots)
	}
	if msg, _ := updated.LastMessage(); msg.Content != "Hello" {
		t.Errorf("final reply = %q", msg.Content)
	}
}

func TestSendSingle_UsesFocusedModel(t *testing.T) {
	gemini := &fakeAdapter{reply: "from gemini"}
	groq := &fakeAdapter{reply: "from groq"}
	d := New(testCatalog(), fakeResolver{"gemini-2.5-flash": gemini, "groq-llama-70b": groq}, Config{})

	chat := model.NewChat("u", "gemini-2.5-flash")
	chat.FocusedModel = "groq-llama-70b"

	updated, err := d.SendSingle(context.Background(), chat, allKeys(), "hi", nil, nil)
	if err != nil {
		t.Fatalf("SendSingle error: %v", err)
	}
	if msg, _ := updated.LastMessage(); msg.Content != "from groq" {
		t.Errorf("reply = %q, want the focused model's", msg.Content)
	}
	if gemini.sendCalls+gemini.streamCalls != 0 {
		t.Error("selected model should not be called while focused")
	}
}

func TestSendSingle_EmptyReply(t *testing.T) {
	adapters := fakeResolver{"gemini-2.5-flash": {reply: ""}}
	d := New(testCatalog(), adapters, Config{})
	chat := model.NewChat("u", "gemini-2.5-flash")

	_, err := d.SendSingle(context.Background(), chat, allKeys(), "hi", nil, nil)
	if !errors.Is(err, ErrEmptyReply) {
		t.Fatalf("error = %v, want ErrEmptyReply", err)
	}
}

// =============================================================================
// COMPARE SEND TESTS
// =============================================================================

func compareChat(models ...string) model.Chat {
	chat := model.NewChat("u", "gemini-2.5-flash")
	chat.CompareMode = true
	chat.SelectedModels = models
	return chat
}

func TestSendCompare_PopulatesEveryColumn(t *testing.T) {
	adapters := fakeResolver{
		"gemini-2.5-flash": {reply: "gemini says"},
		"groq-llama-70b":   {reply: "groq says"},
	}
	d := New(testCatalog(), adapters, Config{})
	chat := compareChat("gemini-2.5-flash", "groq-llama-70b")

	updated, err := d.SendCompare(context.Background(), chat, allKeys(), "compare this", nil)
	if err != nil {
		t.Fatalf("SendCompare error: %v", err)
	}

	for id, want := range map[string]string{
		"gemini-2.5-flash": "gemini says",
		"groq-llama-70b":   "groq says",
	} {
		history := updated.CompareHistory(id)
		if len(history) != 2 {
			t.Fatalf("%s history = %d turns, want 2", id, len(history))
		}
		if history[0].Role != model.RoleUser || history[0].Content != "compare this" {
			t.Errorf("%s first turn = %+v", id, history[0])
		}
		if history[1].Role != model.RoleAssistant || history[1].Content != want {
			t.Errorf("%s reply = %+v", id, history[1])
		}
	}
}

func TestSendCompare_FailureIsolatedToItsColumn(t *testing.T) {
	adapters := fakeResolver{
		"gemini-2.5-flash": {reply: "fine"},
		"groq-llama-70b":   {err: errors.New("upstream 500")},
	}
	d := New(testCatalog(), adapters, Config{})
	chat := compareChat("gemini-2.5-flash", "groq-llama-70b")

	updated, err := d.SendCompare(context.Background(), chat, allKeys(), "q", nil)
	if err != nil {
		t.Fatalf("SendCompare error: %v", err)
	}

	if msg, ok := updated.LastCompareReply("gemini-2.5-flash"); !ok || msg.Content != "fine" {
		t.Errorf("healthy column reply = %+v, %v", msg, ok)
	}
	msg, ok := updated.LastCompareReply("groq-llama-70b")
	if !ok {
		t.Fatal("failed column should still record an assistant turn")
	}
	if !strings.HasPrefix(msg.Content, "Error: ") {
		t.Errorf("failed column reply = %q, want 'Error: ' prefix", msg.Content)
	}
}

func TestSendCompare_MissingKeyBecomesErrorTurn(t *testing.T) {
	adapters := fakeResolver{
		"gemini-2.5-flash": {reply: "fine"},
		"groq-llama-70b":   {reply: "never reached"},
	}
	d := New(testCatalog(), adapters, Config{})
	chat := compareChat("gemini-2.5-flash", "groq-llama-70b")
	keys := model.ApiKeySet{"google": "gk"}

	updated, err := d.SendCompare(context.Background(), chat, keys, "q", nil)
	if err != nil {
		t.Fatalf("SendCompare error: %v", err)
	}

	msg, ok := updated.LastCompareReply("groq-llama-70b")
	if !ok || !strings.HasPrefix(msg.Content, "Error: ") {
		t.Errorf("keyless column reply = %+v, %v", msg, ok)
	}
	if msg, _ := updated.LastCompareReply("gemini-2.5-flash"); msg.Content != "fine" {
		t.Errorf("keyed column reply = %q", msg.Content)
	}
}

func TestSendCompare_HistoriesStayIndependent(t *testing.T) {
	adapters := fakeResolver{
		"gemini-2.5-flash": {reply: "r2 gemini"},
		"groq-llama-70b":   {reply: "r2 groq"},
	}
	d := New(testCatalog(), adapters, Config{})
	chat := compareChat("gemini-2.5-flash", "groq-llama-70b")
	chat.CompareResponses["gemini-2.5-flash"] = []model.Message{
		model.NewUserMessage("q1"),
		model.NewAssistantMessage("r1 gemini"),
	}

	updated, err := d.SendCompare(context.Background(), chat, allKeys(), "q2", nil)
	if err != nil {
		t.Fatalf("SendCompare error: %v", err)
	}

	if got := len(updated.CompareHistory("gemini-2.5-flash")); got != 4 {
		t.Errorf("gemini history = %d turns, want 4", got)
	}
	if got := len(updated.CompareHistory("groq-llama-70b")); got != 2 {
		t.Errorf("groq history = %d turns, want 2", got)
	}

	// Each adapter saw only its own history.
	if got := len(adapters["groq-llama-70b"].lastHistory); got != 1 {
		t.Errorf("groq adapter saw %d turns, want 1", got)
	}
	if got := len(adapters["gemini-2.5-flash"].lastHistory); got != 3 {
		t.Errorf("gemini adapter saw %d turns, want 3", got)
	}
}

func TestSendCompare_EmptySelection(t *testing.T) {
	d := New(testCatalog(), fakeResolver{}, Config{})
	chat := model.NewChat("u", "gemini-2.5-flash")

	_, err := d.SendCompare(context.Background(), chat, allKeys(), "q", nil)
	if !errors.Is(err, ErrNoModelsSelected) {
		t.Fatalf("error = %v, want ErrNoModelsSelected", err)
	}
}

// =============================================================================
// COMPARE EXIT TESTS
// =============================================================================

func TestContinueWithModel(t *testing.T) {
	d := New(testCatalog(), fakeResolver{}, Config{})
	chat := compareChat("gemini-2.5-flash", "groq-llama-70b")
	chat.CompareResponses["groq-llama-70b"] = []model.Message{
		model.NewUserMessage("q"),
		model.NewAssistantMessage("groq's take"),
	}
	chat.CompareResponses["gemini-2.5-flash"] = []model.Message{
		model.NewUserMessage("q"),
		model.NewAssistantMessage("gemini's take"),
	}

	updated := d.ContinueWithModel(chat, "groq-llama-70b")

	if updated.CompareMode {
		t.Error("compare mode should be off")
	}
	if updated.Model != "groq-llama-70b" {
		t.Errorf("Model = %q", updated.Model)
	}
	if len(updated.Messages) != 2 || updated.Messages[1].Content != "groq's take" {
		t.Errorf("promoted history = %+v", updated.Messages)
	}
	if len(updated.SelectedModels) != 0 || len(updated.CompareResponses) != 0 {
		t.Error("compare state should be cleared")
	}
	// Original untouched.
	if !chat.CompareMode || len(chat.CompareResponses) != 2 {
		t.Error("input chat mutated")
	}
}

// =============================================================================
// PROMPT ENHANCEMENT TESTS
// =============================================================================

func TestEnhancePrompt(t *testing.T) {
	fake := &fakeAdapter{reply: "\"Explain quantum entanglement to a high-school student.\""}
	d := New(testCatalog(), fakeResolver{"gemini-2.5-flash": fake}, Config{})

	got, err := d.EnhancePrompt(context.Background(), allKeys(), "explain entanglement")
	if err != nil {
		t.Fatalf("EnhancePrompt error: %v", err)
	}
	if got != "Explain quantum entanglement to a high-school student." {
		t.Errorf("enhanced = %q", got)
	}

	// The instruction wraps the draft prompt.
	if len(fake.lastHistory) != 1 || !strings.Contains(fake.lastHistory[0].Content, "explain entanglement") {
		t.Errorf("enhancer history = %+v", fake.lastHistory)
	}
}

func TestEnhancePrompt_MissingKey(t *testing.T) {
	d := New(testCatalog(), fakeResolver{"gemini-2.5-flash": {reply: "x"}}, Config{})

	_, err := d.EnhancePrompt(context.Background(), model.ApiKeySet{"groq": "k"}, "draft")
	if !IsMissingCredential(err) {
		t.Fatalf("error = %v, want missing credential", err)
	}
}

func TestCleanEnhanced(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare text", "Do the thing.", "Do the thing."},
		{"quoted", "\"Do the thing.\"", "Do the thing."},
		{"prefixed", "Enhanced prompt: Do the thing.", "Do the thing."},
		{"prefixed and quoted", "Improved prompt: \"Do the thing.\"", "Do the thing."},
		{"whitespace", "  Do the thing.\n", "Do the thing."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanEnhanced(tc.in); got != tc.want {
				t.Errorf("cleanEnhanced(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

// =============================================================================
// TIMEOUT TESTS
// =============================================================================

// slowAdapter blocks until its context is cancelled.
type slowAdapter struct{}

func (slowAdapter) Send(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, file *model.AttachedFile) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (slowAdapter) SupportsStreaming() bool { return false }

func (slowAdapter) SendStream(ctx context.Context, m catalog.Model, apiKey string, history []model.Message, file *model.AttachedFile, onSnapshot provider.SnapshotFunc) (string, error) {
	return "", provider.ErrNoStreaming
}

type slowResolver struct{}

func (slowResolver) ForModel(m catalog.Model) provider.Adapter { return slowAdapter{} }

func TestSendSingle_RequestTimeout(t *testing.T) {
	d := New(testCatalog(), slowResolver{}, Config{RequestTimeout: 10 * time.Millisecond})
	chat := model.NewChat("u", "gemini-2.5-flash")

	start := time.Now()
	updated, err := d.SendSingle(context.Background(), chat, allKeys(), "hi", nil, nil)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("timeout did not bound the call")
	}
	if len(updated.Messages) != 1 {
		t.Errorf("message count = %d, want the kept user turn", len(updated.Messages))
	}
}
