// Polychat - compare AI models side by side in your terminal.
//
// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/polychat/polychat/internal/analyze"
	"github.com/polychat/polychat/internal/catalog"
	"github.com/polychat/polychat/internal/config"
	"github.com/polychat/polychat/internal/dispatch"
	"github.com/polychat/polychat/internal/model"
	"github.com/polychat/polychat/internal/provider"
	"github.com/polychat/polychat/internal/store"
	"github.com/polychat/polychat/internal/ui/chat"
	"github.com/polychat/polychat/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

const storeDebounce = 250 * time.Millisecond

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v":
			fmt.Printf("polychat %s (%s, %s)\n", Version, GitCommit, BuildDate)
			return
		case "keys":
			if err := runKeys(args[1:]); err != nil {
				fmt.Fprintln(os.Stderr, "polychat:", err)
				os.Exit(1)
			}
			return
		}
	}
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "polychat:", err)
		os.Exit(1)
	}
}

// openStore opens the configured database and resolves the local user id.
func openStore() (*config.Config, *store.Store, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, "", fmt.Errorf("load config: %w", err)
	}
	dataDir, err := cfg.ResolvedDataDir()
	if err != nil {
		return nil, nil, "", fmt.Errorf("resolve data dir: %w", err)
	}
	st, err := store.Open(filepath.Join(dataDir, "polychat.db"))
	if err != nil {
		return nil, nil, "", fmt.Errorf("open store: %w", err)
	}
	prefs, err := config.OpenPrefs(filepath.Join(dataDir, "prefs.json"))
	if err != nil {
		st.Close()
		return nil, nil, "", fmt.Errorf("open prefs: %w", err)
	}
	userID := prefs.GetString("user_id", "")
	if userID == "" {
		userID = model.NewID()
		if err := prefs.Set("user_id", userID); err != nil {
			st.Close()
			return nil, nil, "", fmt.Errorf("save user id: %w", err)
		}
	}
	return cfg, st, userID, nil
}

// runKeys handles `polychat keys ...`: the provider credential surface.
func runKeys(args []string) error {
	_, st, userID, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	out, err := keysCommand(context.Background(), st, catalog.Default(), userID, args)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// keysCommand implements the keys subcommands against an open store.
func keysCommand(ctx context.Context, st *store.Store, cat *catalog.Catalog, userID string, args []string) (string, error) {
	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "set":
		if len(args) != 3 {
			return "", fmt.Errorf("usage: polychat keys set <provider> <secret>")
		}
		providerID, secret := args[1], args[2]
		if _, ok := cat.Provider(providerID); !ok {
			return "", fmt.Errorf("unknown provider %q", providerID)
		}
		if secret == "" {
			return "", fmt.Errorf("empty secret for provider %q", providerID)
		}
		if err := st.UpsertKey(ctx, userID, providerID, secret); err != nil {
			return "", fmt.Errorf("store key: %w", err)
		}
		return fmt.Sprintf("stored key for %s\n", providerID), nil

	case "delete":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: polychat keys delete <provider>")
		}
		providerID := args[1]
		if _, ok := cat.Provider(providerID); !ok {
			return "", fmt.Errorf("unknown provider %q", providerID)
		}
		if err := st.DeleteKey(ctx, userID, providerID); err != nil {
			return "", fmt.Errorf("delete key: %w", err)
		}
		return fmt.Sprintf("deleted key for %s\n", providerID), nil

	case "list":
		keys, err := st.ListKeys(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("list keys: %w", err)
		}
		var b strings.Builder
		for _, p := range cat.Providers() {
			status := "not set"
			if _, ok := keys.Lookup(p.ID); ok {
				status = "set"
			}
			fmt.Fprintf(&b, "%-12s %s\n", p.ID, status)
		}
		return b.String(), nil
	}
	return "", fmt.Errorf("usage: polychat keys [list|set <provider> <secret>|delete <provider>]")
}

func run() error {
	cfg, st, userID, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	// External writers (another polychat instance) are rare; the watcher
	// is best effort and the app works without it.
	watcher, werr := store.NewWatcher(st, storeDebounce)
	if werr == nil {
		defer watcher.Close()
	} else {
		watcher = nil
	}

	cat := catalog.Default()

	endpoints := provider.DefaultEndpoints()
	for id, url := range cfg.Endpoints {
		endpoints[id] = url
	}
	adapters := provider.NewSet(endpoints, nil)

	dispatcher := dispatch.New(cat, adapters, dispatch.Config{
		RequestTimeout: cfg.RequestTimeout(),
	})

	scale := analyze.Scale100
	if cfg.ScoreScale == "0-10" {
		scale = analyze.Scale10
	}
	analyzer := analyze.New(cat, adapters, scale)

	view := chat.New(chat.Deps{
		Catalog:      cat,
		Dispatcher:   dispatcher,
		Analyzer:     analyzer,
		Store:        st,
		Watcher:      watcher,
		UserID:       userID,
		Theme:        styles.New(cfg.UI.Theme != "light"),
		Width:        cfg.UI.MarkdownWidth,
		DefaultModel: cfg.DefaultModel,
	})

	program := tea.NewProgram(view, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
