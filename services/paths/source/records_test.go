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
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/pathfinder/services/paths/graph"
)

func TestReadRecords_Valid(t *testing.T) {
	input := "A,B,1\n\nB,C,1\nA,C,5\n"

	g, err := ReadRecords(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.NotNil(t, g)

	assert.True(t, g.IsFrozen())
	assert.Equal(t, 3, g.VertexCount())
	assert.Equal(t, 3, g.EdgeCount())
	assert.Equal(t, []string{"A", "B", "C"}, g.Names())

	a, _ := g.ID("A")
	c, _ := g.ID("C")
	p, ok, err := graph.ShortestPath(g, a, c)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "C"}, g.PathNames(p))
}

func TestReadRecords_HashPrefixedVertex(t *testing.T) {
	g, err := ReadRecords(context.Background(), strings.NewReader("A,B,1\n#tag,A,2\n"))
	require.NoError(t, err)

	assert.Equal(t, 3, g.VertexCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Contains(t, g.Names(), "#tag")

	tag, ok := g.ID("#tag")
	require.True(t, ok)
	b, _ := g.ID("B")
	p, found, err := graph.ShortestPath(g, tag, b)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []string{"#tag", "A", "B"}, g.PathNames(p))
}

func TestReadRecords_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{"two fields", "A,B,1\nA,B\n", 2},
		{"four fields", "A,B,1,9\n", 1},
		{"empty source", ",B,1\n", 1},
		{"empty target", "A, ,1\n", 1},
		{"weight not numeric", "A,B,1\nB,C,x\n", 2},
		{"weight is float", "A,B,1.5\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ReadRecords(context.Background(), strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Nil(t, g, "no partial graph")
			assert.True(t, errors.Is(err, ErrMalformedInput))

			var mre *MalformedRecordError
			require.True(t, errors.As(err, &mre))
			assert.Equal(t, tt.wantLine, mre.Line)
			assert.Contains(t, mre.Error(), "wrong record format")
		})
	}
}

func TestReadRecords_NegativeWeight(t *testing.T) {
	g, err := ReadRecords(context.Background(), strings.NewReader("A,B,1\nB,C,-2\n"))
	require.Error(t, err)
	assert.Nil(t, g)
	assert.True(t, errors.Is(err, graph.ErrInvalidWeight))
	assert.Contains(t, err.Error(), "record 2")
}

func TestReadRecords_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadRecords(ctx, strings.NewReader("A,B,1\n"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildFromRecords_ParallelEdges(t *testing.T) {
	g, err := BuildFromRecords([]EdgeRecord{
		{From: "A", To: "B", Weight: 3},
		{From: "A", To: "B", Weight: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, 2, g.VertexCount())
}

func TestLoadRecordsFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "graph.csv")
	require.NoError(t, os.WriteFile(p, []byte("X,Y,2\nY,Z,0\n"), 0o644))

	records, err := LoadRecordsFile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, []EdgeRecord{
		{From: "X", To: "Y", Weight: 2},
		{From: "Y", To: "Z", Weight: 0},
	}, records)

	_, err = LoadRecordsFile(context.Background(), filepath.Join(dir, "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
