// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "pathfinder_graph_cache_lookups_total",
	Help: "Graph cache lookups by result (hit, miss, build_error)",
}, []string{"result"})

// BuildFunc builds the entry for key. The returned entry's Graph must be frozen.
type BuildFunc func(ctx context.Context, key string) (*Entry, error)

// GraphCache caches built graphs with LRU eviction and a TTL.
//
// # Description
//
// Concurrent GetOrBuild calls for the same key share one build through
// singleflight. Build errors are cached for ErrorCacheTTL so a broken
// source is not re-read on every request.
//
// # Thread Safety
//
// Safe for concurrent use.
type GraphCache struct {
	lru     *expirable.LRU[string, *Entry]
	flight  singleflight.Group
	options Options

	mu           sync.Mutex
	failedBuilds map[string]*failedBuild

	hits       atomic.Int64
	misses     atomic.Int64
	evictions  atomic.Int64
	buildCount atomic.Int64
	errorCount atomic.Int64
}

// NewGraphCache creates a new GraphCache with the given options.
func NewGraphCache(opts ...Option) *GraphCache {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	c := &GraphCache{
		failedBuilds: make(map[string]*failedBuild),
		options:      options,
	}
	c.lru = expirable.NewLRU[string, *Entry](options.MaxEntries, func(string, *Entry) {
		c.evictions.Add(1)
	}, options.MaxAge)
	return c
}

// Get returns the cached entry for key, if present and not expired.
func (c *GraphCache) Get(key string) (*Entry, bool) {
	entry, ok := c.lru.Get(GenerateGraphID(key))
	if !ok {
		c.misses.Add(1)
		cacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	c.hits.Add(1)
	cacheLookups.WithLabelValues("hit").Inc()
	return entry, true
}

// GetOrBuild returns the cached entry for key or builds it.
//
// # Outputs
//
//   - *Entry: The entry. Never nil when error is nil.
//   - error: The build error, or *ErrBuildFailed while a previous error
//     is still cached.
func (c *GraphCache) GetOrBuild(ctx context.Context, key string, build BuildFunc) (*Entry, error) {
	if entry, ok := c.Get(key); ok {
		return entry, nil
	}

	graphID := GenerateGraphID(key)
	if fb := c.cachedError(graphID); fb != nil {
		cacheLookups.WithLabelValues("build_error").Inc()
		return nil, &ErrBuildFailed{Err: fb.err, FailedAt: fb.failedAt, RetryAt: fb.retryAt}
	}

	// The build outlives any one caller: waiters share it, and a caller
	// that goes away must not fail the others.
	ch := c.flight.DoChan(graphID, func() (interface{}, error) {
		if entry, ok := c.lru.Peek(graphID); ok {
			return entry, nil
		}

		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.options.BuildTimeout)
		defer cancel()

		start := time.Now()
		entry, err := build(buildCtx, key)
		if err != nil {
			if !isContextErr(err) {
				c.cacheError(graphID, err)
			}
			c.errorCount.Add(1)
			return nil, err
		}

		entry.GraphID = graphID
		entry.Key = key
		entry.BuiltAt = time.Now()
		entry.BuildDuration = time.Since(start)

		c.lru.Add(graphID, entry)
		c.buildCount.Add(1)
		return entry, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Entry), nil
	}
}

// isContextErr reports whether err came from a cancelled or expired context.
// Such failures say nothing about the source and are not cached.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Invalidate drops the entry and any cached error for key.
func (c *GraphCache) Invalidate(key string) {
	graphID := GenerateGraphID(key)
	c.lru.Remove(graphID)
	c.clearCachedError(graphID)
}

// Purge removes every entry and cached error.
func (c *GraphCache) Purge() {
	c.lru.Purge()

	c.mu.Lock()
	c.failedBuilds = make(map[string]*failedBuild)
	c.mu.Unlock()
}

// Stats returns current cache statistics.
func (c *GraphCache) Stats() Stats {
	return Stats{
		EntryCount: c.lru.Len(),
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Evictions:  c.evictions.Load(),
		BuildCount: c.buildCount.Load(),
		ErrorCount: c.errorCount.Load(),
		MaxEntries: c.options.MaxEntries,
		MaxAge:     c.options.MaxAge,
	}
}

// cachedError returns a cached build error if it has not expired.
func (c *GraphCache) cachedError(graphID string) *failedBuild {
	c.mu.Lock()
	defer c.mu.Unlock()

	fb, ok := c.failedBuilds[graphID]
	if !ok {
		return nil
	}
	if time.Now().After(fb.retryAt) {
		delete(c.failedBuilds, graphID)
		return nil
	}
	return fb
}

func (c *GraphCache) cacheError(graphID string, err error) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.failedBuilds[graphID] = &failedBuild{
		err:      err,
		failedAt: now,
		retryAt:  now.Add(c.options.ErrorCacheTTL),
	}
}

func (c *GraphCache) clearCachedError(graphID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.failedBuilds, graphID)
}
