// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/pathfinder/services/paths/graph"
)

func TestBuildFromLinks_ReciprocalEdges(t *testing.T) {
	idx := LinkIndex{
		"a": {"b": true},
		"b": {},
	}

	g := BuildFromLinks(idx)
	require.True(t, g.IsFrozen())
	assert.Equal(t, 2, g.VertexCount())
	assert.Equal(t, 2, g.EdgeCount())

	a, _ := g.ID("a")
	b, _ := g.ID("b")
	assert.True(t, g.HasEdge(a, b))
	assert.True(t, g.HasEdge(b, a))

	p, ok, err := graph.ShortestPath(g, b, a)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(1), p.Weight)
}

func TestBuildFromLinks_MutualLinkAddedOnce(t *testing.T) {
	idx := LinkIndex{
		"a": {"b": true},
		"b": {"a": true},
	}
	g := BuildFromLinks(idx)
	assert.Equal(t, 2, g.EdgeCount())
}

func TestBuildFromLinks_FalseAndSelfLinksIgnored(t *testing.T) {
	idx := LinkIndex{
		"a": {"b": false, "a": true},
		"c": {},
	}
	g := BuildFromLinks(idx)
	assert.Equal(t, 0, g.EdgeCount())
	assert.Equal(t, []string{"a", "c"}, g.Names())
}

func TestBuildFromLinks_DeterministicIDs(t *testing.T) {
	idx := LinkIndex{
		"z": {"m": true},
		"m": {"a": true},
		"a": {},
	}
	for i := 0; i < 5; i++ {
		g := BuildFromLinks(idx)
		assert.Equal(t, []string{"a", "m", "z"}, g.Names())
	}
}

func TestLinkIndex_Classification(t *testing.T) {
	idx := LinkIndex{}
	idx.Add("a", "b")
	idx.Add("b", "a")
	idx.Add("b", "c")

	assert.True(t, idx.Has("a", "b"))
	assert.False(t, idx.Has("c", "b"))
	assert.False(t, idx.Has("missing", "b"))
	assert.True(t, idx.IsBidirectional("a", "b"))
	assert.False(t, idx.IsBidirectional("b", "c"))
	assert.Equal(t, 3, idx.LinkCount())
}
