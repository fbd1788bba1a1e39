// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache keeps built path graphs in memory, keyed by where they came from.
//
// Graphs are frozen once built, so entries are shared between concurrent
// queries without reference counting. Invalidating an entry only stops it
// from being handed out; queries that already hold it finish normally.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/AleutianAI/pathfinder/services/paths/graph"
	"github.com/AleutianAI/pathfinder/services/paths/source"
)

// Default configuration values.
const (
	// DefaultMaxEntries is the default maximum number of cached graphs.
	DefaultMaxEntries = 4

	// DefaultMaxAge is the default TTL for cached entries.
	DefaultMaxAge = 30 * time.Minute

	// DefaultErrorCacheTTL is how long build errors are cached.
	DefaultErrorCacheTTL = 5 * time.Second

	// DefaultBuildTimeout bounds a single graph build.
	DefaultBuildTimeout = 2 * time.Minute
)

// SourceKind names the kind of data a graph was built from.
type SourceKind string

const (
	// SourceCSV is a CSV file of edge records.
	SourceCSV SourceKind = "csv"

	// SourceStore is a badger edge store.
	SourceStore SourceKind = "store"

	// SourceCorpus is a directory of markdown notes.
	SourceCorpus SourceKind = "corpus"
)

// Entry is a built graph and what it was built from.
type Entry struct {
	// GraphID is GenerateGraphID(Key).
	GraphID string

	// Key is the source descriptor, for example "csv:/data/graph.csv".
	Key string

	// Kind is the source kind.
	Kind SourceKind

	// Graph is frozen and safe for concurrent readers.
	Graph *graph.Graph

	// Links is the link index for corpus sources, nil otherwise.
	Links source.LinkIndex

	// BuiltAt is when the graph finished building.
	BuiltAt time.Time

	// BuildDuration is how long the build took.
	BuildDuration time.Duration
}

// Stats contains statistics about the cache.
type Stats struct {
	EntryCount int           `json:"entry_count"`
	Hits       int64         `json:"hits"`
	Misses     int64         `json:"misses"`
	Evictions  int64         `json:"evictions"`
	BuildCount int64         `json:"build_count"`
	ErrorCount int64         `json:"error_count"`
	MaxEntries int           `json:"max_entries"`
	MaxAge     time.Duration `json:"max_age_ns"`
}

// HitRate returns the cache hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Options configures GraphCache behavior.
type Options struct {
	// MaxEntries is the maximum number of cached graphs.
	MaxEntries int

	// MaxAge is the TTL for cached entries.
	MaxAge time.Duration

	// ErrorCacheTTL is how long build errors are cached.
	ErrorCacheTTL time.Duration

	// BuildTimeout bounds a build. Builds are detached from the
	// requesting caller, so this is the only deadline they see.
	BuildTimeout time.Duration
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxEntries:    DefaultMaxEntries,
		MaxAge:        DefaultMaxAge,
		ErrorCacheTTL: DefaultErrorCacheTTL,
		BuildTimeout:  DefaultBuildTimeout,
	}
}

// Option is a functional option for configuring GraphCache.
type Option func(*Options)

// WithMaxEntries sets the maximum number of cached entries.
func WithMaxEntries(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxEntries = n
		}
	}
}

// WithMaxAge sets the TTL for cached entries.
func WithMaxAge(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.MaxAge = d
		}
	}
}

// WithErrorCacheTTL sets how long build errors are cached.
func WithErrorCacheTTL(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.ErrorCacheTTL = d
		}
	}
}

// WithBuildTimeout sets the deadline for a single build.
func WithBuildTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.BuildTimeout = d
		}
	}
}

// GenerateGraphID creates a stable ID for a source descriptor.
func GenerateGraphID(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

// failedBuild represents a cached build error.
type failedBuild struct {
	err      error
	failedAt time.Time
	retryAt  time.Time
}
