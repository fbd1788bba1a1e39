// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package paths

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/AleutianAI/pathfinder/services/paths/cache"
	"github.com/AleutianAI/pathfinder/services/paths/source"
	pbadger "github.com/AleutianAI/pathfinder/services/paths/storage/badger"
)

// GraphSource names where a graph is built from.
type GraphSource struct {
	// Kind selects the loader: csv, store, or corpus.
	Kind cache.SourceKind `json:"kind" yaml:"kind"`

	// Path is the CSV file or corpus root. Ignored for the store.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// CSVSource returns a source reading edge records from a CSV file.
func CSVSource(path string) GraphSource {
	return GraphSource{Kind: cache.SourceCSV, Path: path}
}

// CorpusSource returns a source scanning a markdown corpus.
func CorpusSource(root string) GraphSource {
	return GraphSource{Kind: cache.SourceCorpus, Path: root}
}

// StoreSource returns a source reading the persisted edge store.
func StoreSource() GraphSource {
	return GraphSource{Kind: cache.SourceStore}
}

// Key returns the cache key for the source. File paths are made absolute
// so the same file reached by different relative paths shares one entry.
func (s GraphSource) Key() string {
	p := s.Path
	if p != "" {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
	}
	return string(s.Kind) + ":" + p
}

// String implements fmt.Stringer.
func (s GraphSource) String() string {
	if s.Path == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + " " + s.Path
}

// Validate checks that the source is usable.
func (s GraphSource) Validate() error {
	switch s.Kind {
	case cache.SourceCSV, cache.SourceCorpus:
		if s.Path == "" {
			return fmt.Errorf("%w: %s source needs a path", ErrNoSource, s.Kind)
		}
		return nil
	case cache.SourceStore:
		return nil
	case "":
		return ErrNoSource
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSourceKind, s.Kind)
	}
}

// GraphLoader builds frozen graphs from a GraphSource.
type GraphLoader struct {
	store  *pbadger.EdgeStore
	corpus source.CorpusOptions
}

// NewGraphLoader creates a loader. store may be nil when no store source is used.
func NewGraphLoader(store *pbadger.EdgeStore, corpus source.CorpusOptions) *GraphLoader {
	return &GraphLoader{store: store, corpus: corpus}
}

// Load builds the cache entry for src.
//
// # Outputs
//
//   - *cache.Entry: Entry with a frozen Graph. Links is set for corpus sources.
//   - error: Wraps source.ErrMalformedInput, graph.ErrInvalidWeight or an I/O error.
func (l *GraphLoader) Load(ctx context.Context, src GraphSource) (*cache.Entry, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}

	switch src.Kind {
	case cache.SourceCSV:
		records, err := source.LoadRecordsFile(ctx, src.Path)
		if err != nil {
			return nil, err
		}
		g, err := source.BuildFromRecords(records)
		if err != nil {
			return nil, fmt.Errorf("build graph from %s: %w", src.Path, err)
		}
		return &cache.Entry{Kind: src.Kind, Graph: g}, nil

	case cache.SourceStore:
		if l.store == nil {
			return nil, fmt.Errorf("%w: edge store is not open", ErrNoSource)
		}
		records, err := l.store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("load edge store: %w", err)
		}
		g, err := source.BuildFromRecords(records)
		if err != nil {
			return nil, fmt.Errorf("build graph from store: %w", err)
		}
		return &cache.Entry{Kind: src.Kind, Graph: g}, nil

	default:
		idx, err := source.ScanCorpus(ctx, src.Path, l.corpus)
		if err != nil {
			return nil, err
		}
		return &cache.Entry{Kind: src.Kind, Graph: source.BuildFromLinks(idx), Links: idx}, nil
	}
}

// BuildFunc adapts the loader to the cache for a fixed source.
func (l *GraphLoader) BuildFunc(src GraphSource) cache.BuildFunc {
	return func(ctx context.Context, _ string) (*cache.Entry, error) {
		return l.Load(ctx, src)
	}
}
