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
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/pathfinder/services/paths/graph"
)

// countingBuild returns a BuildFunc that counts calls and builds a one-edge graph.
func countingBuild(calls *atomic.Int32, delay time.Duration) BuildFunc {
	return func(ctx context.Context, key string) (*Entry, error) {
		calls.Add(1)
		time.Sleep(delay)
		g := graph.NewGraph()
		if _, err := g.AddEdge("A", "B", 1); err != nil {
			return nil, err
		}
		g.Freeze()
		return &Entry{Kind: SourceCSV, Graph: g}, nil
	}
}

func TestGraphCache_BuildOnceThenHit(t *testing.T) {
	c := NewGraphCache()
	var calls atomic.Int32
	build := countingBuild(&calls, 0)

	e1, err := c.GetOrBuild(context.Background(), "csv:a", build)
	require.NoError(t, err)
	e2, err := c.GetOrBuild(context.Background(), "csv:a", build)
	require.NoError(t, err)

	assert.Same(t, e1, e2)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "csv:a", e1.Key)
	assert.Equal(t, GenerateGraphID("csv:a"), e1.GraphID)
	assert.False(t, e1.BuiltAt.IsZero())

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.BuildCount)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, 1, stats.EntryCount)
}

func TestGraphCache_ConcurrentBuildsShareFlight(t *testing.T) {
	c := NewGraphCache()
	var calls atomic.Int32
	build := countingBuild(&calls, 50*time.Millisecond)

	var wg sync.WaitGroup
	entries := make([]*Entry, 8)
	for i := range entries {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := c.GetOrBuild(context.Background(), "csv:shared", build)
			assert.NoError(t, err)
			entries[i] = e
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, e := range entries[1:] {
		assert.Same(t, entries[0], e)
	}
}

func TestGraphCache_ErrorIsCached(t *testing.T) {
	c := NewGraphCache(WithErrorCacheTTL(time.Hour))
	boom := errors.New("boom")
	var calls atomic.Int32
	build := func(ctx context.Context, key string) (*Entry, error) {
		calls.Add(1)
		return nil, boom
	}

	_, err := c.GetOrBuild(context.Background(), "csv:bad", build)
	assert.ErrorIs(t, err, boom)

	_, err = c.GetOrBuild(context.Background(), "csv:bad", build)
	var bf *ErrBuildFailed
	require.ErrorAs(t, err, &bf)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(1), calls.Load())

	// Invalidate clears the cached error.
	c.Invalidate("csv:bad")
	_, err = c.GetOrBuild(context.Background(), "csv:bad", build)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, int64(2), c.Stats().ErrorCount)
}

func TestGraphCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	c := NewGraphCache(WithErrorCacheTTL(time.Hour))
	var calls atomic.Int32
	release := make(chan struct{})
	build := func(ctx context.Context, key string) (*Entry, error) {
		calls.Add(1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
		}
		return countingBuild(&atomic.Int32{}, 0)(ctx, key)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.GetOrBuild(ctx, "csv:slow", build)
	assert.ErrorIs(t, err, context.Canceled)

	close(release)
	e, err := c.GetOrBuild(context.Background(), "csv:slow", build)
	require.NoError(t, err)
	assert.Equal(t, 2, e.Graph.VertexCount())
	assert.Equal(t, int32(1), calls.Load(), "second caller reuses the detached build")
}

func TestGraphCache_ContextErrorNotCached(t *testing.T) {
	c := NewGraphCache(WithErrorCacheTTL(time.Hour))
	var calls atomic.Int32
	build := func(ctx context.Context, key string) (*Entry, error) {
		if calls.Add(1) == 1 {
			return nil, fmt.Errorf("reading source: %w", context.DeadlineExceeded)
		}
		return countingBuild(&atomic.Int32{}, 0)(ctx, key)
	}

	_, err := c.GetOrBuild(context.Background(), "csv:timeout", build)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	e, err := c.GetOrBuild(context.Background(), "csv:timeout", build)
	require.NoError(t, err)
	assert.NotNil(t, e.Graph)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGraphCache_BuildTimeout(t *testing.T) {
	c := NewGraphCache(WithBuildTimeout(20 * time.Millisecond))
	build := func(ctx context.Context, key string) (*Entry, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := c.GetOrBuild(context.Background(), "csv:hang", build)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGraphCache_Invalidate(t *testing.T) {
	c := NewGraphCache()
	var calls atomic.Int32
	build := countingBuild(&calls, 0)

	old, err := c.GetOrBuild(context.Background(), "corpus:/notes", build)
	require.NoError(t, err)

	c.Invalidate("corpus:/notes")
	_, ok := c.Get("corpus:/notes")
	assert.False(t, ok)

	fresh, err := c.GetOrBuild(context.Background(), "corpus:/notes", build)
	require.NoError(t, err)
	assert.NotSame(t, old, fresh)
	assert.Equal(t, int32(2), calls.Load())

	// The old entry stays usable for holders.
	assert.Equal(t, 2, old.Graph.VertexCount())
}

func TestGraphCache_LRUEviction(t *testing.T) {
	c := NewGraphCache(WithMaxEntries(2))
	var calls atomic.Int32
	build := countingBuild(&calls, 0)

	for _, key := range []string{"a", "b", "c"} {
		_, err := c.GetOrBuild(context.Background(), key, build)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.Stats().EntryCount)
	assert.GreaterOrEqual(t, c.Stats().Evictions, int64(1))
	_, ok := c.Get("a")
	assert.False(t, ok, "oldest entry evicted")
}

func TestGraphCache_TTL(t *testing.T) {
	c := NewGraphCache(WithMaxAge(20 * time.Millisecond))
	var calls atomic.Int32

	_, err := c.GetOrBuild(context.Background(), "a", countingBuild(&calls, 0))
	require.NoError(t, err)

	time.Sleep(60 * time.Millisecond)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestGraphCache_Purge(t *testing.T) {
	c := NewGraphCache()
	var calls atomic.Int32
	_, err := c.GetOrBuild(context.Background(), "a", countingBuild(&calls, 0))
	require.NoError(t, err)

	c.Purge()
	assert.Equal(t, 0, c.Stats().EntryCount)
}

func TestStats_HitRate(t *testing.T) {
	assert.Equal(t, float64(0), Stats{}.HitRate())
	assert.Equal(t, float64(75), Stats{Hits: 3, Misses: 1}.HitRate())
}
