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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeCorpus creates files under a temp dir and returns its path.
func writeCorpus(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, body := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
	return root
}

func TestScanCorpus_ResolvesLinks(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"index.md":        "See [a](notes/a.md) and [[b]].\n\n[web](https://example.com) [anchor](#top)\n",
		"notes/a.md":      "Back to [home](../index.md#intro).\n",
		"notes/b.md":      "- [[a|alias]]\n- [missing](nowhere.md)\n",
		"notes/c.md":      "```\n[[a]]\n```\n",
		"notes/image.png": "not markdown",
	})

	idx, err := ScanCorpus(context.Background(), root, CorpusOptions{})
	require.NoError(t, err)

	assert.Len(t, idx, 4)
	assert.Contains(t, idx, "notes/c.md")
	assert.NotContains(t, idx, "notes/image.png")

	assert.True(t, idx.Has("index.md", "notes/a.md"))
	assert.True(t, idx.Has("index.md", "notes/b.md"))
	assert.True(t, idx.Has("notes/a.md", "index.md"))
	assert.True(t, idx.Has("notes/b.md", "notes/a.md"))
	assert.True(t, idx.IsBidirectional("index.md", "notes/a.md"))

	assert.Empty(t, idx["notes/c.md"], "links inside code blocks are ignored")
	assert.Equal(t, 4, idx.LinkCount())
}

func TestScanCorpus_IgnoreRules(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		".gitignore":           "drafts/\n",
		"a.md":                 "[[b]]\n",
		"b.md":                 "",
		"drafts/secret.md":     "[[a]]\n",
		".obsidian/plugins.md": "",
		"archive/old.md":       "",
	})

	idx, err := ScanCorpus(context.Background(), root, CorpusOptions{
		RespectGitignore: true,
		IgnorePatterns:   []string{"archive"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"a.md", "b.md"}, sortedKeys(idx))
	assert.True(t, idx.Has("a.md", "b.md"))
}

func TestScanCorpus_NotADirectory(t *testing.T) {
	root := writeCorpus(t, map[string]string{"a.md": ""})

	_, err := ScanCorpus(context.Background(), filepath.Join(root, "a.md"), CorpusOptions{})
	assert.ErrorIs(t, err, ErrCorpusNotDir)

	_, err = ScanCorpus(context.Background(), filepath.Join(root, "missing"), CorpusOptions{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanCorpus_Cancelled(t *testing.T) {
	root := writeCorpus(t, map[string]string{"a.md": "[[b]]", "b.md": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ScanCorpus(ctx, root, CorpusOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanCorpus_BuildsGraph(t *testing.T) {
	root := writeCorpus(t, map[string]string{
		"a.md": "[[b]]",
		"b.md": "[[c]]",
		"c.md": "",
	})

	idx, err := ScanCorpus(context.Background(), root, CorpusOptions{Workers: 2})
	require.NoError(t, err)

	g := BuildFromLinks(idx)
	assert.Equal(t, 3, g.VertexCount())
	assert.Equal(t, 4, g.EdgeCount())
}

func TestResolver_WikiByName(t *testing.T) {
	r := newResolver([]string{"deep/nested/Topic.md", "Topic.md", "x/y.md"})

	got, ok := r.resolveWiki("x/y.md", "topic")
	require.True(t, ok)
	assert.Equal(t, "Topic.md", got)

	got, ok = r.resolveWiki("x/y.md", "deep/nested/Topic")
	require.True(t, ok)
	assert.Equal(t, "deep/nested/Topic.md", got)

	_, ok = r.resolveWiki("x/y.md", "absent")
	assert.False(t, ok)
}

func TestResolver_Destination(t *testing.T) {
	r := newResolver([]string{"a.md", "dir/b.md", "dir/with space.md"})

	tests := []struct {
		name string
		from string
		dest string
		want string
		ok   bool
	}{
		{"relative", "dir/b.md", "../a.md", "a.md", true},
		{"root absolute", "dir/b.md", "/a.md", "a.md", true},
		{"no extension", "a.md", "dir/b", "dir/b.md", true},
		{"escaped", "a.md", "dir/with%20space.md", "dir/with space.md", true},
		{"query stripped", "a.md", "dir/b.md?x=1", "dir/b.md", true},
		{"external", "a.md", "http://x/a.md", "", false},
		{"mailto", "a.md", "mailto:me@x", "", false},
		{"anchor only", "a.md", "#top", "", false},
		{"outside corpus", "a.md", "../a.md", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.resolveDestination(tt.from, tt.dest)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
