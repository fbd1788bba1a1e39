// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package paths

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_PullIncrementally(t *testing.T) {
	svc := newCSVService(t)
	ctx := context.Background()

	opened, err := svc.OpenSession(ctx, SessionRequest{From: "A", To: "D"})
	require.NoError(t, err)
	require.NotEmpty(t, opened.SessionID)
	assert.Empty(t, opened.Paths)
	assert.Equal(t, 1, svc.SessionCount())

	first, err := svc.NextPaths(ctx, opened.SessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B", "C", "D"}}, vertexLists(first.Paths))
	assert.Equal(t, 1, first.Yielded)
	assert.False(t, first.Exhausted)

	rest, err := svc.NextPaths(ctx, opened.SessionID, 10)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"A", "C", "D"},
		{"A", "B", "D"},
		{"A", "C", "B", "D"},
	}, vertexLists(rest.Paths))
	assert.Equal(t, 4, rest.Yielded)
	assert.True(t, rest.Exhausted)

	// Pulling after exhaustion stays exhausted.
	again, err := svc.NextPaths(ctx, opened.SessionID, 1)
	require.NoError(t, err)
	assert.Empty(t, again.Paths)
	assert.True(t, again.Exhausted)
	assert.Equal(t, 4, again.Yielded)

	require.NoError(t, svc.CloseSession(opened.SessionID))
	assert.Equal(t, 0, svc.SessionCount())
}

func TestSessions_Errors(t *testing.T) {
	svc := newCSVService(t)
	ctx := context.Background()

	_, err := svc.NextPaths(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, svc.CloseSession("missing"), ErrSessionNotFound)

	_, err = svc.OpenSession(ctx, SessionRequest{From: "A", To: "A"})
	assert.ErrorIs(t, err, ErrSameEndpoints)

	opened, err := svc.OpenSession(ctx, SessionRequest{From: "A", To: "D"})
	require.NoError(t, err)
	_, err = svc.NextPaths(ctx, opened.SessionID, 0)
	assert.ErrorIs(t, err, ErrInvalidLimit)
}

func TestSessions_CancelledPullResumes(t *testing.T) {
	svc := newCSVService(t)

	opened, err := svc.OpenSession(context.Background(), SessionRequest{From: "A", To: "D"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = svc.NextPaths(ctx, opened.SessionID, 2)
	assert.ErrorIs(t, err, context.Canceled)

	res, err := svc.NextPaths(context.Background(), opened.SessionID, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"A", "B", "C", "D"}, {"A", "C", "D"}}, vertexLists(res.Paths))
}

func TestSessions_Expire(t *testing.T) {
	path := writeFile(t, t.TempDir(), "graph.csv", testCSV)
	cfg := DefaultServiceConfig(CSVSource(path))
	cfg.SessionTTL = 30 * time.Millisecond
	svc, err := NewService(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	opened, err := svc.OpenSession(ctx, SessionRequest{From: "A", To: "D"})
	require.NoError(t, err)

	time.Sleep(100 * time.Millisecond)
	_, err = svc.NextPaths(ctx, opened.SessionID, 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessions_LRUBound(t *testing.T) {
	path := writeFile(t, t.TempDir(), "graph.csv", testCSV)
	cfg := DefaultServiceConfig(CSVSource(path))
	cfg.MaxSessions = 2
	svc, err := NewService(cfg)
	require.NoError(t, err)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		res, err := svc.OpenSession(ctx, SessionRequest{From: "A", To: "D"})
		require.NoError(t, err)
		ids = append(ids, res.SessionID)
	}

	assert.Equal(t, 2, svc.SessionCount())
	_, err = svc.NextPaths(ctx, ids[0], 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.NextPaths(ctx, ids[2], 1)
	assert.NoError(t, err)
}

func TestSessions_SurviveRebuild(t *testing.T) {
	svc := newCSVService(t)
	ctx := context.Background()

	opened, err := svc.OpenSession(ctx, SessionRequest{From: "A", To: "D"})
	require.NoError(t, err)

	svc.Invalidate()
	res, err := svc.NextPaths(ctx, opened.SessionID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, res.Paths[0].Vertices)
}
