// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"container/heap"
	"math"
	"strconv"
	"time"
)

// =============================================================================
// Search Options
// =============================================================================

// SearchOptions holds the exclusions for one ShortestPaths call.
type SearchOptions struct {
	// ForbiddenVertices are treated as absent. The source is still seeded
	// with distance 0 even if it appears here.
	ForbiddenVertices VertexSet

	// ForbiddenEdges are unordered pairs; {u, v} blocks u->v and v->u.
	ForbiddenEdges EdgeSet
}

// SearchOption configures a ShortestPaths call.
type SearchOption func(*SearchOptions)

// WithForbiddenVertices excludes the given vertices for this call only.
func WithForbiddenVertices(s VertexSet) SearchOption {
	return func(o *SearchOptions) {
		o.ForbiddenVertices = s
	}
}

// WithForbiddenEdges excludes the given vertex pairs for this call only.
func WithForbiddenEdges(s EdgeSet) SearchOption {
	return func(o *SearchOptions) {
		o.ForbiddenEdges = s
	}
}

func (o SearchOptions) constrained() bool {
	return len(o.ForbiddenVertices) > 0 || len(o.ForbiddenEdges) > 0
}

// =============================================================================
// Shortest Path Tree
// =============================================================================

// ShortestPathTree is the result of one ShortestPaths call.
//
// Both slices are indexed 0..N. Index 0 is unused (Distance +Inf,
// Predecessor NoVertex).
type ShortestPathTree struct {
	// Source is the vertex the search started from.
	Source VertexID

	// Distance[v] is the shortest weight from Source to v, or +Inf.
	Distance []float64

	// Predecessor[v] is the vertex before v on a shortest path, or NoVertex.
	// Predecessor[Source] is NoVertex.
	Predecessor []VertexID

	// Settled is the number of vertices finalized by the search.
	Settled int
}

// Reachable reports whether v has a finite distance.
func (t *ShortestPathTree) Reachable(v VertexID) bool {
	if v <= NoVertex || int(v) >= len(t.Distance) {
		return false
	}
	return !math.IsInf(t.Distance[v], 1)
}

// PathTo reconstructs the path from Source to target.
//
// # Outputs
//
//   - Path: Vertex sequence and weight. Empty when unreachable.
//   - bool: False when target is unreachable. This is a normal result,
//     not a failure.
func (t *ShortestPathTree) PathTo(target VertexID) (Path, bool) {
	if !t.Reachable(target) {
		return Path{}, false
	}

	var rev []VertexID
	for v := target; v != NoVertex; v = t.Predecessor[v] {
		rev = append(rev, v)
		if v == t.Source {
			break
		}
	}

	vertices := make([]VertexID, len(rev))
	for i, v := range rev {
		vertices[len(rev)-1-i] = v
	}
	return Path{Vertices: vertices, Weight: t.Distance[target]}, true
}

// =============================================================================
// Dijkstra
// =============================================================================

// ShortestPaths runs Dijkstra's algorithm from source.
//
// # Description
//
// Uses a binary heap with lazy deletion: improved distances are pushed as
// new entries, and an entry is discarded when popped if its vertex is
// already settled or its priority no longer matches the best known
// distance. Relaxation skips edges into forbidden vertices and edges whose
// endpoint pair is forbidden in either orientation.
//
// Ties in distance are broken by heap order.
//
// # Inputs
//
//   - g: Graph to search. Not modified.
//   - source: Start vertex. Must be valid.
//   - opts: Optional exclusions for this call.
//
// # Outputs
//
//   - *ShortestPathTree: Distances and predecessors for every vertex.
//   - error: *InvalidVertexError if source is not a vertex of g.
//
// # Thread Safety
//
// Safe for concurrent use on a frozen graph. All scratch state is local.
func ShortestPaths(g *Graph, source VertexID, opts ...SearchOption) (*ShortestPathTree, error) {
	if !g.Valid(source) {
		return nil, &InvalidVertexError{ID: source, VertexCount: g.VertexCount()}
	}

	var o SearchOptions
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	n := g.VertexCount()

	dist := make([]float64, n+1)
	pred := make([]VertexID, n+1)
	settled := make([]bool, n+1)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[source] = 0

	h := &distHeap{{vertex: source, dist: 0}}
	settledCount := 0
	stale := 0

	for h.Len() > 0 {
		top := heap.Pop(h).(distEntry)
		u := top.vertex
		if settled[u] || top.dist != dist[u] {
			stale++
			continue
		}
		settled[u] = true
		settledCount++

		for _, id := range g.adjacency[u] {
			e := g.edges[id]
			v := e.To
			if o.ForbiddenVertices.Contains(v) {
				continue
			}
			if o.ForbiddenEdges.Contains(u, v) {
				continue
			}
			if nd := dist[u] + e.Weight; !settled[v] && nd < dist[v] {
				dist[v] = nd
				pred[v] = u
				heap.Push(h, distEntry{vertex: v, dist: nd})
			}
		}
	}

	shortestPathRuns.WithLabelValues(strconv.FormatBool(o.constrained())).Inc()
	shortestPathDuration.Observe(time.Since(start).Seconds())
	settledVertices.Observe(float64(settledCount))
	if stale > 0 {
		stalePops.Add(float64(stale))
	}

	return &ShortestPathTree{
		Source:      source,
		Distance:    dist,
		Predecessor: pred,
		Settled:     settledCount,
	}, nil
}

// ShortestPath is a convenience wrapper that returns only the path to target.
//
// Returns (Path{}, false, nil) when target is unreachable.
func ShortestPath(g *Graph, source, target VertexID, opts ...SearchOption) (Path, bool, error) {
	if !g.Valid(target) {
		return Path{}, false, &InvalidVertexError{ID: target, VertexCount: g.VertexCount()}
	}
	tree, err := ShortestPaths(g, source, opts...)
	if err != nil {
		return Path{}, false, err
	}
	p, ok := tree.PathTo(target)
	return p, ok, nil
}
