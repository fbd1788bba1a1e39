// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package paths answers shortest-path and path-enumeration queries over a
// cached graph and exposes them over HTTP and websocket.
package paths

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/pathfinder/services/paths/cache"
	"github.com/AleutianAI/pathfinder/services/paths/graph"
	"github.com/AleutianAI/pathfinder/services/paths/source"
	pbadger "github.com/AleutianAI/pathfinder/services/paths/storage/badger"
	"github.com/AleutianAI/pathfinder/services/paths/telemetry"
	"github.com/AleutianAI/pathfinder/services/paths/watch"
)

const tracerName = "pathfinder.paths"

// ErrGraphLoad wraps every failure to build the configured graph.
var ErrGraphLoad = errors.New("graph load failed")

// ServiceConfig configures the query service.
type ServiceConfig struct {
	// Source is the graph the service answers queries over.
	Source GraphSource

	// DefaultMaxHops applies when a request leaves MaxHops unset.
	DefaultMaxHops int

	// MaxPaths caps Limit on enumerate and links requests.
	MaxPaths int

	// QueryTimeout bounds a single request. Zero disables the deadline.
	QueryTimeout time.Duration

	// SessionTTL expires idle sessions.
	SessionTTL time.Duration

	// MaxSessions bounds open sessions; the least recently used is dropped.
	MaxSessions int

	// Corpus configures corpus scans.
	Corpus source.CorpusOptions
}

// DefaultServiceConfig returns defaults for src.
func DefaultServiceConfig(src GraphSource) ServiceConfig {
	return ServiceConfig{
		Source:         src,
		DefaultMaxHops: 6,
		MaxPaths:       100,
		QueryTimeout:   30 * time.Second,
		SessionTTL:     15 * time.Minute,
		MaxSessions:    256,
		Corpus:         source.DefaultCorpusOptions(),
	}
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithStore sets the edge store used by store sources.
func WithStore(store *pbadger.EdgeStore) ServiceOption {
	return func(s *Service) {
		s.store = store
	}
}

// WithCache replaces the default graph cache.
func WithCache(c *cache.GraphCache) ServiceOption {
	return func(s *Service) {
		s.cache = c
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service answers path queries over one configured graph source.
//
// # Description
//
// The graph is built on first use and kept in the cache until the source
// changes (see Watch) or the entry ages out. Built graphs are frozen and
// shared by every query and session that obtained them; a rebuild never
// disturbs a query already holding the old graph.
//
// # Thread Safety
//
// Safe for concurrent use.
type Service struct {
	config ServiceConfig
	store  *pbadger.EdgeStore
	cache  *cache.GraphCache
	loader *GraphLoader
	logger *slog.Logger

	sessions *expirable.LRU[string, *session]

	mu      sync.Mutex
	watcher *watch.Watcher
}

// NewService creates a service for config.
//
// # Outputs
//
//   - *Service: Ready to answer queries. The graph is loaded lazily.
//   - error: ErrNoSource or ErrUnknownSourceKind for a bad source.
func NewService(config ServiceConfig, opts ...ServiceOption) (*Service, error) {
	if err := config.Source.Validate(); err != nil {
		return nil, err
	}
	defaults := DefaultServiceConfig(config.Source)
	if config.DefaultMaxHops < 1 {
		config.DefaultMaxHops = defaults.DefaultMaxHops
	}
	if config.MaxPaths < 1 {
		config.MaxPaths = defaults.MaxPaths
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = defaults.SessionTTL
	}
	if config.MaxSessions < 1 {
		config.MaxSessions = defaults.MaxSessions
	}

	s := &Service{config: config}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewGraphCache()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With(slog.String("source", config.Source.String()))
	s.loader = NewGraphLoader(s.store, config.Corpus)
	s.sessions = expirable.NewLRU[string, *session](config.MaxSessions, nil, config.SessionTTL)
	return s, nil
}

// Config returns the effective configuration.
func (s *Service) Config() ServiceConfig {
	return s.config
}

// Graph returns the cached entry for the configured source, building it if needed.
func (s *Service) Graph(ctx context.Context) (*cache.Entry, error) {
	src := s.config.Source
	entry, err := s.cache.GetOrBuild(ctx, src.Key(), s.loader.BuildFunc(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrGraphLoad, src, err)
	}
	return entry, nil
}

// VertexNames returns every vertex name in insertion order.
func (s *Service) VertexNames(ctx context.Context) ([]string, error) {
	entry, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	return entry.Graph.Names(), nil
}

// Invalidate drops the cached graph so the next query rebuilds it.
func (s *Service) Invalidate() {
	s.cache.Invalidate(s.config.Source.Key())
	s.logger.Info("graph invalidated")
}

// Shortest returns the cheapest path from req.From to req.To.
//
// # Outputs
//
//   - *PathQueryResult: PathFound is false when To is unreachable.
//   - error: ErrInvalidVertex, ErrSameEndpoints, or ErrGraphLoad.
func (s *Service) Shortest(ctx context.Context, req ShortestRequest) (*PathQueryResult, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, tracerName, "paths.Shortest")
	defer span.End()
	span.SetAttributes(attribute.String("from", req.From), attribute.String("to", req.To))

	entry, err := s.Graph(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	from, to, err := resolveEndpoints(entry.Graph, req.From, req.To)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	path, found, err := graph.ShortestPath(entry.Graph, from, to)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := NewPathQueryResult(req.From, req.To)
	result.PathFound = found
	if found {
		result.Paths = append(result.Paths, toPathResult(entry.Graph, path))
	}
	result.DurationMs = time.Since(start).Milliseconds()
	span.SetAttributes(attribute.Bool("path_found", found))
	return result, nil
}

// Enumerate returns up to req.Limit simple paths in non-decreasing weight.
//
// # Outputs
//
//   - *PathQueryResult: Exhausted is true when no further path exists.
//     Truncated is true when Limit was reached first.
//   - error: ErrInvalidVertex, ErrSameEndpoints, ErrInvalidLimit,
//     ErrInvalidHopLimit, ErrGraphLoad, or context.DeadlineExceeded.
func (s *Service) Enumerate(ctx context.Context, req EnumerateRequest) (*PathQueryResult, error) {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, tracerName, "paths.Enumerate")
	defer span.End()

	maxHops, limit, err := s.bounds(req.MaxHops, req.Limit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("from", req.From),
		attribute.String("to", req.To),
		attribute.Int("max_hops", maxHops),
		attribute.Int("limit", limit),
	)

	entry, err := s.Graph(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	found, exhausted, err := s.collect(ctx, entry.Graph, req.From, req.To, maxHops, limit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := NewPathQueryResult(req.From, req.To)
	result.MaxHops = maxHops
	for _, p := range found {
		result.Paths = append(result.Paths, toPathResult(entry.Graph, p))
	}
	result.PathFound = len(found) > 0
	result.Exhausted = exhausted
	result.Truncated = !exhausted && len(found) == limit
	result.DurationMs = time.Since(start).Milliseconds()
	span.SetAttributes(attribute.Int("paths", len(found)), attribute.Bool("exhausted", exhausted))
	return result, nil
}

// Links returns the union subgraph of the first req.Limit enumerated paths.
//
// # Description
//
// Nodes appear in first-visit order starting with From and To. For
// edge-record sources a link is bidirectional when the reverse link is also
// part of the subgraph. For corpus sources links follow the direction the
// documents link in, and a link is bidirectional when both documents link
// to each other.
func (s *Service) Links(ctx context.Context, req LinksRequest) (*LinkGraphResult, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "paths.Links")
	defer span.End()

	maxHops, limit, err := s.bounds(req.MaxHops, req.Limit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	entry, err := s.Graph(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	found, _, err := s.collect(ctx, entry.Graph, req.From, req.To, maxHops, limit)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := buildLinkGraph(entry, req.From, req.To, found)
	result.MaxHops = maxHops
	span.SetAttributes(attribute.Int("nodes", len(result.Nodes)), attribute.Int("links", len(result.Links)))
	return result, nil
}

// Stats describes the loaded graph, sessions, and cache.
func (s *Service) Stats(ctx context.Context) (*StatsResult, error) {
	entry, err := s.Graph(ctx)
	if err != nil {
		return nil, err
	}
	result := &StatsResult{
		APIVersion: APIVersion,
		Source:     s.config.Source.String(),
		Kind:       entry.Kind,
		Vertices:   entry.Graph.VertexCount(),
		Edges:      entry.Graph.EdgeCount(),
		BuiltAt:    entry.BuiltAt,
		BuildMs:    entry.BuildDuration.Milliseconds(),
		Sessions:   s.sessions.Len(),
		Cache:      s.cache.Stats(),
	}
	if s.store != nil {
		meta, ok, err := s.store.Meta(ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			result.Import = &meta
		}
	}
	return result, nil
}

// Watch invalidates the cached graph whenever the source changes. Store
// sources have no file to watch and return nil.
func (s *Service) Watch(ctx context.Context, opts watch.Options) error {
	src := s.config.Source
	if src.Kind == cache.SourceStore {
		return nil
	}
	if src.Kind == cache.SourceCorpus && len(opts.Extensions) == 0 {
		opts.Extensions = s.config.Corpus.Extensions
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watcher != nil {
		return nil
	}

	w, err := watch.New(src.Path, func(changes []watch.Change) {
		s.logger.Info("source changed", slog.Int("changes", len(changes)))
		s.Invalidate()
	}, opts, s.logger)
	if err != nil {
		return fmt.Errorf("watch %s: %w", src.Path, err)
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("watch %s: %w", src.Path, err)
	}
	s.watcher = w
	return nil
}

// Close stops the watcher and drops all sessions.
func (s *Service) Close() error {
	s.mu.Lock()
	if s.watcher != nil {
		s.watcher.Stop()
		s.watcher = nil
	}
	s.mu.Unlock()
	s.sessions.Purge()
	return nil
}

// bounds applies defaults to and validates a hop bound and path limit.
func (s *Service) bounds(maxHops, limit int) (int, int, error) {
	if maxHops == 0 {
		maxHops = s.config.DefaultMaxHops
	}
	if maxHops < 1 {
		return 0, 0, fmt.Errorf("%w: got %d", graph.ErrInvalidHopLimit, maxHops)
	}
	if limit == 0 {
		limit = s.config.MaxPaths
	}
	if limit < 1 || limit > s.config.MaxPaths {
		return 0, 0, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidLimit, limit, s.config.MaxPaths)
	}
	return maxHops, limit, nil
}

// collect pulls up to limit paths under the query deadline.
func (s *Service) collect(ctx context.Context, g *graph.Graph, fromName, toName string, maxHops, limit int) ([]graph.Path, bool, error) {
	from, to, err := resolveEndpoints(g, fromName, toName)
	if err != nil {
		return nil, false, err
	}
	en, err := graph.NewPathEnumerator(g, from, to, maxHops)
	if err != nil {
		return nil, false, err
	}

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	found, exhausted, err := pull(ctx, en, limit)
	if err != nil {
		return nil, false, err
	}
	s.logger.Debug("enumerated paths",
		slog.String("from", fromName),
		slog.String("to", toName),
		slog.Int("paths", len(found)),
		slog.Int("searches", en.Stats().Searches),
		slog.Bool("exhausted", exhausted))
	return found, exhausted, nil
}

func (s *Service) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.QueryTimeout)
}

// pull takes up to n paths from en, checking ctx between pulls.
func pull(ctx context.Context, en *graph.PathEnumerator, n int) ([]graph.Path, bool, error) {
	found := make([]graph.Path, 0, n)
	for len(found) < n {
		if err := ctx.Err(); err != nil {
			return nil, false, fmt.Errorf("enumeration stopped after %d paths: %w", len(found), err)
		}
		p, ok := en.Next()
		if !ok {
			return found, true, nil
		}
		found = append(found, p)
	}
	return found, false, nil
}

// resolveEndpoints maps names to ids and rejects identical endpoints.
func resolveEndpoints(g *graph.Graph, fromName, toName string) (graph.VertexID, graph.VertexID, error) {
	from, err := g.Resolve(fromName)
	if err != nil {
		return 0, 0, err
	}
	to, err := g.Resolve(toName)
	if err != nil {
		return 0, 0, err
	}
	if from == to {
		return 0, 0, fmt.Errorf("%w: %q", ErrSameEndpoints, fromName)
	}
	return from, to, nil
}
