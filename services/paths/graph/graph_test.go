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
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mustEdge adds an edge and fails the test on error.
func mustEdge(t *testing.T, g *Graph, from, to string, w float64) EdgeID {
	t.Helper()
	id, err := g.AddEdge(from, to, w)
	require.NoError(t, err)
	return id
}

// mustID resolves a name and fails the test if it is missing.
func mustID(t *testing.T, g *Graph, name string) VertexID {
	t.Helper()
	id, ok := g.ID(name)
	require.True(t, ok, "vertex %q missing", name)
	return id
}

func TestAddVertex_Idempotent(t *testing.T) {
	g := NewGraph()

	a1, err := g.AddVertex("A")
	require.NoError(t, err)
	a2, err := g.AddVertex("A")
	require.NoError(t, err)

	assert.Equal(t, a1, a2)
	assert.Equal(t, VertexID(1), a1)
	assert.Equal(t, 1, g.VertexCount())

	b, err := g.AddVertex("B")
	require.NoError(t, err)
	assert.Equal(t, VertexID(2), b)
	assert.Equal(t, 2, g.VertexCount())
}

func TestNameIDRoundTrip(t *testing.T) {
	g := NewGraph()
	for _, name := range []string{"notes/a.md", "notes/b.md", "c"} {
		_, err := g.AddVertex(name)
		require.NoError(t, err)
	}

	for i, name := range []string{"notes/a.md", "notes/b.md", "c"} {
		id, ok := g.ID(name)
		require.True(t, ok)
		assert.Equal(t, VertexID(i+1), id)

		got, ok := g.Name(id)
		require.True(t, ok)
		assert.Equal(t, name, got)
	}

	_, ok := g.Name(NoVertex)
	assert.False(t, ok, "sentinel id must not resolve")
	_, ok = g.Name(VertexID(4))
	assert.False(t, ok)

	assert.Equal(t, []string{"notes/a.md", "notes/b.md", "c"}, g.Names())
}

func TestResolve_Unknown(t *testing.T) {
	g := NewGraph()
	_, err := g.Resolve("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidVertex))

	var nf *VertexNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing", nf.Name)
}

func TestAddEdge_InvalidWeight(t *testing.T) {
	tests := []struct {
		name   string
		weight float64
	}{
		{"negative", -3},
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGraph()
			_, err := g.AddEdge("A", "B", tt.weight)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidWeight))

			var iw *InvalidWeightError
			require.True(t, errors.As(err, &iw))
			assert.Equal(t, "A", iw.From)
			assert.Equal(t, "B", iw.To)

			assert.Equal(t, 0, g.EdgeCount(), "no edge may be added")
			assert.Equal(t, 0, g.VertexCount(), "no vertex may be added")
		})
	}
}

func TestAddEdge_ZeroWeightAllowed(t *testing.T) {
	g := NewGraph()
	id, err := g.AddEdge("A", "B", 0)
	require.NoError(t, err)
	assert.Equal(t, EdgeID(1), id)
}

func TestOutEdges_InsertionOrderAndParallel(t *testing.T) {
	g := NewGraph()
	mustEdge(t, g, "A", "B", 3)
	mustEdge(t, g, "A", "C", 1)
	mustEdge(t, g, "A", "B", 2)
	mustEdge(t, g, "B", "A", 1)

	a := mustID(t, g, "A")
	b := mustID(t, g, "B")
	c := mustID(t, g, "C")

	out := g.OutEdges(a)
	require.Len(t, out, 3)
	assert.Equal(t, Edge{From: a, To: b, Weight: 3}, out[0])
	assert.Equal(t, Edge{From: a, To: c, Weight: 1}, out[1])
	assert.Equal(t, Edge{From: a, To: b, Weight: 2}, out[2])

	assert.Equal(t, 4, g.EdgeCount())
	assert.Nil(t, g.OutEdges(NoVertex))

	// The returned slice is a copy.
	out[0].Weight = 99
	e, ok := g.Edge(1)
	require.True(t, ok)
	assert.Equal(t, float64(3), e.Weight)
}

func TestHasEdge_Bidirectional(t *testing.T) {
	g := NewGraph()
	mustEdge(t, g, "A", "B", 1)
	mustEdge(t, g, "B", "A", 1)
	mustEdge(t, g, "B", "C", 1)

	a, b, c := mustID(t, g, "A"), mustID(t, g, "B"), mustID(t, g, "C")

	assert.True(t, g.HasEdge(a, b))
	assert.True(t, g.HasEdge(b, a))
	assert.True(t, g.IsBidirectional(a, b))
	assert.True(t, g.IsBidirectional(b, a))

	assert.True(t, g.HasEdge(b, c))
	assert.False(t, g.HasEdge(c, b))
	assert.False(t, g.IsBidirectional(b, c))
}

func TestFreeze(t *testing.T) {
	g := NewGraph()
	mustEdge(t, g, "A", "B", 1)
	g.Freeze()

	assert.True(t, g.IsFrozen())
	assert.Equal(t, GraphStateReadOnly, g.State())

	_, err := g.AddEdge("A", "C", 1)
	assert.ErrorIs(t, err, ErrGraphFrozen)

	_, err = g.AddVertex("C")
	assert.ErrorIs(t, err, ErrGraphFrozen)

	// Existing names still resolve.
	id, err := g.AddVertex("A")
	require.NoError(t, err)
	assert.Equal(t, VertexID(1), id)
	assert.Equal(t, 2, g.VertexCount())
	assert.Equal(t, 1, g.EdgeCount())
}

func TestPath_KeyAndSimple(t *testing.T) {
	p := Path{Vertices: []VertexID{1, 2, 3}, Weight: 2}
	assert.Equal(t, "1,2,3", p.Key())
	assert.Equal(t, 2, p.Hops())
	assert.True(t, p.IsSimple())

	loop := Path{Vertices: []VertexID{1, 2, 1}}
	assert.False(t, loop.IsSimple())

	assert.Equal(t, 0, Path{}.Hops())
}

func TestEdgeSet_Unordered(t *testing.T) {
	s := NewEdgeSet()
	s.Add(3, 1)
	assert.True(t, s.Contains(1, 3))
	assert.True(t, s.Contains(3, 1))
	assert.False(t, s.Contains(1, 2))

	var nilSet EdgeSet
	assert.False(t, nilSet.Contains(1, 3))
	var nilVertices VertexSet
	assert.False(t, nilVertices.Contains(1))
}
