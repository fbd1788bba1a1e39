// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch reports debounced changes to graph source files.
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Op is the type of a file change.
type Op int

const (
	// OpCreate indicates a file was created.
	OpCreate Op = iota

	// OpWrite indicates a file was modified.
	OpWrite

	// OpRemove indicates a file was deleted.
	OpRemove

	// OpRename indicates a file was renamed.
	OpRename
)

// String returns the string representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpWrite:
		return "write"
	case OpRemove:
		return "remove"
	case OpRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Change is one file system change.
type Change struct {
	Path string
	Op   Op
	Time time.Time
}

// Handler is called with each debounced batch. Paths are unique per batch.
type Handler func(changes []Change)

// Options configures a Watcher.
type Options struct {
	// Debounce is how long to wait for quiet before flushing a batch.
	Debounce time.Duration

	// Extensions limits reported files by extension. Empty reports all.
	Extensions []string

	// IgnorePatterns are base names or globs to skip.
	IgnorePatterns []string

	// BufferSize is the capacity of the pending change channel.
	BufferSize int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		Debounce:       250 * time.Millisecond,
		IgnorePatterns: []string{".git", ".obsidian", ".trash", "node_modules", "*.swp", "*.tmp", "*~"},
		BufferSize:     1024,
	}
}

// Watcher watches a file or a directory tree for changes.
//
// # Description
//
// When the target is a regular file, its parent directory is watched and
// only events for that file are reported, so editors that replace the file
// on save are still seen. When the target is a directory, it is watched
// recursively and new subdirectories are added as they appear.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single goroutine.
type Watcher struct {
	target  string
	file    string
	watcher *fsnotify.Watcher
	handler Handler
	opts    Options
	logger  *slog.Logger

	changes  chan Change
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.Mutex
	watching bool
}

// New creates a watcher for target. Call Start to begin watching.
func New(target string, handler Handler, opts Options, logger *slog.Logger) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("handler must not be nil")
	}
	defaults := DefaultOptions()
	if opts.Debounce <= 0 {
		opts.Debounce = defaults.Debounce
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaults.BufferSize
	}
	if opts.IgnorePatterns == nil {
		opts.IgnorePatterns = defaults.IgnorePatterns
	}
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		target:  abs,
		watcher: fw,
		handler: handler,
		opts:    opts,
		logger:  logger.With(slog.String("watch", abs)),
		changes: make(chan Change, opts.BufferSize),
		done:    make(chan struct{}),
	}
	if !info.IsDir() {
		w.file = abs
	}
	return w, nil
}

// Start begins watching. It returns once the watches are registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	var err error
	if w.file != "" {
		err = w.watcher.Add(filepath.Dir(w.file))
	} else {
		err = w.addRecursive(w.target)
	}
	if err != nil {
		w.Stop()
		return err
	}

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching reports whether Start has been called and Stop has not.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// shouldIgnore matches the base name against the ignore patterns.
func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range w.opts.IgnorePatterns {
		if base == pattern {
			return true
		}
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}

// relevant reports whether an event path should be forwarded.
func (w *Watcher) relevant(path string) bool {
	if w.file != "" {
		return path == w.file
	}
	if w.shouldIgnore(path) {
		return false
	}
	rel, err := filepath.Rel(w.target, path)
	if err == nil {
		for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
			if w.shouldIgnore(part) {
				return false
			}
		}
	}
	if len(w.opts.Extensions) == 0 {
		return true
	}
	if isDir(path) {
		return true
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.opts.Extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) {
				continue
			}

			select {
			case w.changes <- Change{Path: event.Name, Op: convertOp(event.Op), Time: time.Now()}:
			default:
				w.logger.Warn("watch buffer full, dropping change", slog.String("path", event.Name))
			}

			if w.file == "" && event.Has(fsnotify.Create) && isDir(event.Name) {
				if err := w.addRecursive(event.Name); err != nil {
					w.logger.Warn("watch new directory failed",
						slog.String("path", event.Name),
						slog.String("error", err.Error()))
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	default:
		return OpWrite
	}
}

func (w *Watcher) debounceLoop(ctx context.Context) {
	var batch []Change
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) > 0 {
			w.handler(dedupe(batch))
			batch = nil
		}
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case change := <-w.changes:
			batch = append(batch, change)
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.opts.Debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// dedupe keeps the latest change per path, in first-seen order.
func dedupe(changes []Change) []Change {
	seen := make(map[string]int)
	result := make([]Change, 0, len(changes))
	for _, change := range changes {
		if idx, ok := seen[change.Path]; ok {
			result[idx] = change
			continue
		}
		seen[change.Path] = len(result)
		result = append(result, change)
	}
	return result
}
