// Copyright (c) 2025 Polychat Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// =============================================================================
// DATABASE WATCHER
// =============================================================================

// Watcher notifies subscribers when the database file changes outside the
// current process, so another instance writing the same data dir is
// picked up without polling. Events are debounced: SQLite touches the
// WAL several times per transaction.
type Watcher struct {
	watcher  *fsnotify.Watcher
	dbName   string
	debounce time.Duration

	mu   sync.Mutex
	subs []chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// NewWatcher builds a watcher over the store's database file.
func NewWatcher(s *Store, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		watcher:  fw,
		dbName:   filepath.Base(s.Path()),
		debounce: debounce,
		ctx:      ctx,
		cancel:   cancel,
	}

	// Watch the directory, not the file: SQLite WAL checkpoints replace
	// files, which drops a direct file watch.
	if err := fw.Add(filepath.Dir(s.Path())); err != nil {
		fw.Close()
		cancel()
		return nil, err
	}

	go w.run()
	return w, nil
}

// Subscribe returns a channel that receives one element per debounced
// change. The channel is buffered; a slow consumer coalesces changes
// rather than blocking the watcher.
func (w *Watcher) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	w.mu.Lock()
	w.subs = append(w.subs, ch)
	w.mu.Unlock()
	return ch
}

// Close stops watching. Subscriber channels are not closed; they simply
// stop receiving.
func (w *Watcher) Close() error {
	w.cancel()
	return w.watcher.Close()
}

func (w *Watcher) run() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.notify()

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// relevant filters directory events down to writes touching the database
// or its WAL sidecars.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	name := filepath.Base(event.Name)
	return name == w.dbName || name == w.dbName+"-wal" || name == w.dbName+"-shm"
}

func (w *Watcher) notify() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, ch := range w.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
