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
	"math"
)

// orderedPair keys the edge existence index. Unlike EdgePair it keeps direction.
type orderedPair struct {
	from VertexID
	to   VertexID
}

// Graph is a weighted directed multigraph with dense vertex ids.
//
// # Description
//
// Vertices are named by opaque strings and receive ids 1..N in insertion
// order. Edges are stored append-only in edges[1..M]; each vertex keeps the
// ids of its outgoing edges in insertion order. Parallel edges are kept.
//
// There is no removal. Query-time exclusion is expressed through
// ShortestPaths options instead.
//
// # Thread Safety
//
// Mutation is not synchronized. Build the graph on one goroutine, call
// Freeze, then share it freely for reads.
type Graph struct {
	names     []string
	ids       map[string]VertexID
	edges     []Edge
	adjacency [][]EdgeID
	exists    map[orderedPair]int
	state     GraphState
}

// NewGraph creates an empty graph.
//
// # Inputs
//
//   - opts: Optional capacity hints.
//
// # Outputs
//
//   - *Graph: Empty graph in GraphStateBuilding.
func NewGraph(opts ...GraphOption) *Graph {
	var o GraphOptions
	for _, opt := range opts {
		opt(&o)
	}

	g := &Graph{
		names:     make([]string, 1, o.VertexCapacity+1),
		ids:       make(map[string]VertexID, o.VertexCapacity),
		edges:     make([]Edge, 1, o.EdgeCapacity+1),
		adjacency: make([][]EdgeID, 1, o.VertexCapacity+1),
		exists:    make(map[orderedPair]int, o.EdgeCapacity),
	}
	return g
}

// AddVertex returns the id for name, allocating the next id on first sight.
//
// Calling AddVertex twice with the same name returns the same id and does
// not change VertexCount.
func (g *Graph) AddVertex(name string) (VertexID, error) {
	if id, ok := g.ids[name]; ok {
		return id, nil
	}
	if g.state == GraphStateReadOnly {
		return NoVertex, ErrGraphFrozen
	}
	return g.addVertex(name), nil
}

func (g *Graph) addVertex(name string) VertexID {
	id := VertexID(len(g.names))
	g.names = append(g.names, name)
	g.ids[name] = id
	g.adjacency = append(g.adjacency, nil)
	return id
}

// AddEdge appends a directed edge from -> to with the given weight.
//
// # Description
//
// Both endpoints are created if needed. The weight is checked before
// anything is inserted, so a rejected edge leaves the graph unchanged.
//
// # Inputs
//
//   - from, to: Endpoint names.
//   - weight: Edge weight. Must be finite and >= 0.
//
// # Outputs
//
//   - EdgeID: Id of the new edge.
//   - error: *InvalidWeightError or ErrGraphFrozen.
func (g *Graph) AddEdge(from, to string, weight float64) (EdgeID, error) {
	if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
		return NoEdge, &InvalidWeightError{From: from, To: to, Weight: weight}
	}
	if g.state == GraphStateReadOnly {
		return NoEdge, ErrGraphFrozen
	}

	u, ok := g.ids[from]
	if !ok {
		u = g.addVertex(from)
	}
	v, ok := g.ids[to]
	if !ok {
		v = g.addVertex(to)
	}

	id := EdgeID(len(g.edges))
	g.edges = append(g.edges, Edge{From: u, To: v, Weight: weight})
	g.adjacency[u] = append(g.adjacency[u], id)
	g.exists[orderedPair{from: u, to: v}]++
	return id, nil
}

// ID returns the id of name.
func (g *Graph) ID(name string) (VertexID, bool) {
	id, ok := g.ids[name]
	return id, ok
}

// Resolve returns the id of name or a *VertexNotFoundError.
func (g *Graph) Resolve(name string) (VertexID, error) {
	id, ok := g.ids[name]
	if !ok {
		return NoVertex, &VertexNotFoundError{Name: name}
	}
	return id, nil
}

// Name returns the name of id.
func (g *Graph) Name(id VertexID) (string, bool) {
	if !g.Valid(id) {
		return "", false
	}
	return g.names[id], true
}

// Names returns all vertex names in id order (index 0 is vertex 1).
func (g *Graph) Names() []string {
	out := make([]string, len(g.names)-1)
	copy(out, g.names[1:])
	return out
}

// PathNames maps a path's vertex ids to names.
func (g *Graph) PathNames(p Path) []string {
	out := make([]string, 0, len(p.Vertices))
	for _, v := range p.Vertices {
		name, _ := g.Name(v)
		out = append(out, name)
	}
	return out
}

// Valid reports whether id names a vertex.
func (g *Graph) Valid(id VertexID) bool {
	return id > NoVertex && int(id) < len(g.names)
}

// Edge returns the edge with the given id.
func (g *Graph) Edge(id EdgeID) (Edge, bool) {
	if id <= NoEdge || int(id) >= len(g.edges) {
		return Edge{}, false
	}
	return g.edges[id], true
}

// OutEdges returns every edge leaving u in insertion order.
//
// The returned slice is a copy. Returns nil for an invalid id.
func (g *Graph) OutEdges(u VertexID) []Edge {
	if !g.Valid(u) {
		return nil
	}
	ids := g.adjacency[u]
	out := make([]Edge, len(ids))
	for i, id := range ids {
		out[i] = g.edges[id]
	}
	return out
}

// HasEdge reports whether at least one edge u -> v exists.
func (g *Graph) HasEdge(u, v VertexID) bool {
	return g.exists[orderedPair{from: u, to: v}] > 0
}

// IsBidirectional reports whether edges exist in both directions between u and v.
func (g *Graph) IsBidirectional(u, v VertexID) bool {
	return g.HasEdge(u, v) && g.HasEdge(v, u)
}

// VertexCount returns N.
func (g *Graph) VertexCount() int {
	return len(g.names) - 1
}

// EdgeCount returns M.
func (g *Graph) EdgeCount() int {
	return len(g.edges) - 1
}

// Freeze marks the graph read-only. Further mutation returns ErrGraphFrozen.
func (g *Graph) Freeze() {
	g.state = GraphStateReadOnly
}

// IsFrozen reports whether Freeze has been called.
func (g *Graph) IsFrozen() bool {
	return g.state == GraphStateReadOnly
}

// State returns the current lifecycle state.
func (g *Graph) State() GraphState {
	return g.state
}
