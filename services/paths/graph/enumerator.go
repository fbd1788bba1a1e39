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
	"fmt"
)

// EnumeratorStats summarizes the work an enumerator has done so far.
type EnumeratorStats struct {
	// Yielded is the number of paths returned by Next.
	Yielded int `json:"yielded"`

	// Pending is the number of candidates waiting in the heap.
	Pending int `json:"pending"`

	// Searches is the number of ShortestPaths calls made.
	Searches int `json:"searches"`

	// Exhausted is true once Next has returned false.
	Exhausted bool `json:"exhausted"`
}

// PathEnumerator yields simple source->target paths in non-decreasing weight.
//
// # Description
//
// Each call to Next produces at most one path. The first call seeds the
// candidate heap with the unconstrained shortest path. Every later call
// branches off the most recently yielded path at each of its vertices,
// forbids the root prefix and the continuations already used by yielded
// paths sharing that prefix, and solves a constrained shortest path from
// the branch vertex. New candidates are deduplicated by vertex sequence.
// The cheapest candidate is then yielded.
//
// Paths longer than the hop limit are never inserted.
//
// # Thread Safety
//
// Not safe for concurrent calls to Next. Wrap in a mutex if shared.
type PathEnumerator struct {
	g       *Graph
	source  VertexID
	target  VertexID
	maxHops int

	confirmed  []Path
	candidates candidateHeap
	seen       map[string]struct{}
	seq        uint64

	started   bool
	exhausted bool
	searches  int
}

// NewPathEnumerator creates an enumerator over g.
//
// # Inputs
//
//   - g: Graph to search. Must outlive the enumerator and not be mutated.
//   - source, target: Endpoints. Both must be valid vertices.
//   - maxHops: Maximum number of edges per path. Must be >= 1.
//
// # Outputs
//
//   - *PathEnumerator: Ready for the first Next call.
//   - error: ErrInvalidVertex or ErrInvalidHopLimit.
func NewPathEnumerator(g *Graph, source, target VertexID, maxHops int) (*PathEnumerator, error) {
	if !g.Valid(source) {
		return nil, &InvalidVertexError{ID: source, VertexCount: g.VertexCount()}
	}
	if !g.Valid(target) {
		return nil, &InvalidVertexError{ID: target, VertexCount: g.VertexCount()}
	}
	if maxHops < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidHopLimit, maxHops)
	}
	return &PathEnumerator{
		g:       g,
		source:  source,
		target:  target,
		maxHops: maxHops,
		seen:    make(map[string]struct{}),
	}, nil
}

// Next returns the next cheapest simple path.
//
// # Outputs
//
//   - Path: The path. Zero value when exhausted.
//   - bool: False when no further path exists within the hop limit.
//     Calling Next again after false keeps returning false.
func (e *PathEnumerator) Next() (Path, bool) {
	if e.exhausted {
		enumeratorPulls.WithLabelValues("exhausted").Inc()
		return Path{}, false
	}

	if !e.started {
		e.started = true
		e.seed()
	} else {
		e.deviate(e.confirmed[len(e.confirmed)-1])
	}

	if e.candidates.Len() == 0 {
		e.exhausted = true
		e.candidates = nil
		enumeratorPulls.WithLabelValues("exhausted").Inc()
		return Path{}, false
	}

	c := heap.Pop(&e.candidates).(candidate)
	e.confirmed = append(e.confirmed, c.path)
	enumeratorPulls.WithLabelValues("path").Inc()
	return clonePath(c.path), true
}

// Confirmed returns copies of the paths yielded so far, in yield order.
func (e *PathEnumerator) Confirmed() []Path {
	out := make([]Path, len(e.confirmed))
	for i, p := range e.confirmed {
		out[i] = clonePath(p)
	}
	return out
}

// Stats returns counters for the enumeration so far.
func (e *PathEnumerator) Stats() EnumeratorStats {
	return EnumeratorStats{
		Yielded:   len(e.confirmed),
		Pending:   e.candidates.Len(),
		Searches:  e.searches,
		Exhausted: e.exhausted,
	}
}

// Source returns the start vertex.
func (e *PathEnumerator) Source() VertexID { return e.source }

// Target returns the end vertex.
func (e *PathEnumerator) Target() VertexID { return e.target }

// MaxHops returns the hop limit.
func (e *PathEnumerator) MaxHops() int { return e.maxHops }

// seed pushes the unconstrained shortest path, if it fits the hop limit.
func (e *PathEnumerator) seed() {
	if e.source == e.target {
		return
	}
	tree, err := e.search(e.source, nil, nil)
	if err != nil {
		return
	}
	if p, ok := tree.PathTo(e.target); ok {
		e.offer(p)
	}
}

// deviate generates spur candidates from each vertex of last.
func (e *PathEnumerator) deviate(last Path) {
	for i := 0; i < len(last.Vertices)-1; i++ {
		spurNode := last.Vertices[i]
		root := last.Vertices[:i+1]

		forbiddenVertices := NewVertexSet(root[:i]...)
		forbiddenEdges := NewEdgeSet()
		for _, p := range e.confirmed {
			if len(p.Vertices) > i+1 && p.hasPrefix(root) {
				forbiddenEdges.Add(p.Vertices[i], p.Vertices[i+1])
			}
		}

		tree, err := e.search(spurNode, forbiddenVertices, forbiddenEdges)
		if err != nil {
			continue
		}
		spur, ok := tree.PathTo(e.target)
		if !ok {
			continue
		}

		e.offer(splice(e.g, root, spur))
	}
}

// search runs one constrained Dijkstra and counts it.
func (e *PathEnumerator) search(from VertexID, fv VertexSet, fe EdgeSet) (*ShortestPathTree, error) {
	e.searches++
	return ShortestPaths(e.g, from,
		WithForbiddenVertices(fv),
		WithForbiddenEdges(fe),
	)
}

// offer inserts p into the candidate heap unless it is too long or known.
func (e *PathEnumerator) offer(p Path) {
	if p.Hops() > e.maxHops {
		enumeratorCandidates.WithLabelValues("too_long").Inc()
		return
	}
	key := p.Key()
	if _, dup := e.seen[key]; dup {
		enumeratorCandidates.WithLabelValues("duplicate").Inc()
		return
	}
	e.seen[key] = struct{}{}
	e.seq++
	heap.Push(&e.candidates, candidate{path: p, seq: e.seq})
	enumeratorCandidates.WithLabelValues("inserted").Inc()
}

// splice joins root (ending at the spur vertex) and spur (starting there).
// The weight is recomputed from the root edges so it stays exact.
func splice(g *Graph, root []VertexID, spur Path) Path {
	vertices := make([]VertexID, 0, len(root)+len(spur.Vertices)-1)
	vertices = append(vertices, root...)
	vertices = append(vertices, spur.Vertices[1:]...)
	return Path{
		Vertices: vertices,
		Weight:   rootWeight(g, root) + spur.Weight,
	}
}

// rootWeight sums the cheapest edge between each consecutive pair of root.
func rootWeight(g *Graph, root []VertexID) float64 {
	var total float64
	for i := 0; i+1 < len(root); i++ {
		total += cheapestEdge(g, root[i], root[i+1])
	}
	return total
}

// cheapestEdge returns the minimum weight among parallel edges u->v.
func cheapestEdge(g *Graph, u, v VertexID) float64 {
	best := -1.0
	for _, id := range g.adjacency[u] {
		e := g.edges[id]
		if e.To == v && (best < 0 || e.Weight < best) {
			best = e.Weight
		}
	}
	return best
}

func clonePath(p Path) Path {
	vertices := make([]VertexID, len(p.Vertices))
	copy(vertices, p.Vertices)
	return Path{Vertices: vertices, Weight: p.Weight}
}
