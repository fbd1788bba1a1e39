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
	"strconv"
	"strings"
)

// =============================================================================
// Identifiers
// =============================================================================

// VertexID is a dense vertex identifier in [1, N].
type VertexID int

// NoVertex is the reserved id 0. It is never assigned to a vertex and marks
// "no predecessor" in shortest-path trees.
const NoVertex VertexID = 0

// EdgeID is an edge identifier in [1, M]. Edge ids never change once assigned.
type EdgeID int

// NoEdge is the reserved edge id 0.
const NoEdge EdgeID = 0

// Edge is one directed, weighted edge.
type Edge struct {
	From   VertexID `json:"from"`
	To     VertexID `json:"to"`
	Weight float64  `json:"weight"`
}

// =============================================================================
// Graph State
// =============================================================================

// GraphState describes whether a graph still accepts mutation.
type GraphState int

const (
	// GraphStateBuilding accepts AddVertex and AddEdge.
	GraphStateBuilding GraphState = iota

	// GraphStateReadOnly rejects mutation with ErrGraphFrozen.
	GraphStateReadOnly
)

// String returns the state name.
func (s GraphState) String() string {
	switch s {
	case GraphStateBuilding:
		return "building"
	case GraphStateReadOnly:
		return "readonly"
	default:
		return "unknown"
	}
}

// GraphOptions sizes the internal storage of a new Graph.
type GraphOptions struct {
	// VertexCapacity is a hint for the expected number of vertices.
	VertexCapacity int

	// EdgeCapacity is a hint for the expected number of edges.
	EdgeCapacity int
}

// GraphOption configures a Graph.
type GraphOption func(*GraphOptions)

// WithVertexCapacity pre-sizes vertex storage.
func WithVertexCapacity(n int) GraphOption {
	return func(o *GraphOptions) {
		if n > 0 {
			o.VertexCapacity = n
		}
	}
}

// WithEdgeCapacity pre-sizes edge storage.
func WithEdgeCapacity(n int) GraphOption {
	return func(o *GraphOptions) {
		if n > 0 {
			o.EdgeCapacity = n
		}
	}
}

// =============================================================================
// Paths
// =============================================================================

// Path is a vertex sequence from a source to a target with its total weight.
type Path struct {
	// Vertices lists the path from source to target, inclusive.
	Vertices []VertexID `json:"vertices"`

	// Weight is the sum of the edge weights along the path.
	Weight float64 `json:"weight"`
}

// Hops returns the number of edges in the path.
func (p Path) Hops() int {
	if len(p.Vertices) == 0 {
		return 0
	}
	return len(p.Vertices) - 1
}

// Key returns a string that identifies the exact vertex sequence.
func (p Path) Key() string {
	var b strings.Builder
	for i, v := range p.Vertices {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(int(v)))
	}
	return b.String()
}

// IsSimple reports whether no vertex appears twice.
func (p Path) IsSimple() bool {
	seen := make(map[VertexID]struct{}, len(p.Vertices))
	for _, v := range p.Vertices {
		if _, dup := seen[v]; dup {
			return false
		}
		seen[v] = struct{}{}
	}
	return true
}

// hasPrefix reports whether p starts with prefix.
func (p Path) hasPrefix(prefix []VertexID) bool {
	if len(prefix) > len(p.Vertices) {
		return false
	}
	for i, v := range prefix {
		if p.Vertices[i] != v {
			return false
		}
	}
	return true
}

// =============================================================================
// Forbidden Sets
// =============================================================================

// VertexSet is a set of vertex ids excluded from one query.
type VertexSet map[VertexID]struct{}

// NewVertexSet builds a set from ids.
func NewVertexSet(ids ...VertexID) VertexSet {
	s := make(VertexSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id.
func (s VertexSet) Add(id VertexID) {
	s[id] = struct{}{}
}

// Contains reports whether id is in the set. A nil set contains nothing.
func (s VertexSet) Contains(id VertexID) bool {
	_, ok := s[id]
	return ok
}

// EdgePair is an unordered vertex pair. Use MakeEdgePair to construct one.
type EdgePair struct {
	A VertexID
	B VertexID
}

// MakeEdgePair returns the canonical pair for u and v, regardless of order.
func MakeEdgePair(u, v VertexID) EdgePair {
	if u > v {
		u, v = v, u
	}
	return EdgePair{A: u, B: v}
}

// EdgeSet is a set of unordered vertex pairs excluded from one query.
// A pair blocks travel in both directions.
type EdgeSet map[EdgePair]struct{}

// NewEdgeSet builds an empty set.
func NewEdgeSet() EdgeSet {
	return make(EdgeSet)
}

// Add forbids the pair {u, v}.
func (s EdgeSet) Add(u, v VertexID) {
	s[MakeEdgePair(u, v)] = struct{}{}
}

// Contains reports whether {u, v} is forbidden in either orientation.
func (s EdgeSet) Contains(u, v VertexID) bool {
	_, ok := s[MakeEdgePair(u, v)]
	return ok
}
