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
	"sort"

	"github.com/AleutianAI/pathfinder/services/paths/graph"
)

// LinkIndex maps a document to the documents it links to.
//
// A false entry records a link that was seen but not resolved and is
// treated as absent.
type LinkIndex map[string]map[string]bool

// Add records a resolved link from -> to.
func (idx LinkIndex) Add(from, to string) {
	targets, ok := idx[from]
	if !ok {
		targets = make(map[string]bool)
		idx[from] = targets
	}
	targets[to] = true
}

// Has reports whether from links to to.
func (idx LinkIndex) Has(from, to string) bool {
	return idx[from][to]
}

// IsBidirectional reports whether a and b link to each other.
func (idx LinkIndex) IsBidirectional(a, b string) bool {
	return idx.Has(a, b) && idx.Has(b, a)
}

// LinkCount returns the number of truthy links.
func (idx LinkIndex) LinkCount() int {
	n := 0
	for _, targets := range idx {
		for _, ok := range targets {
			if ok {
				n++
			}
		}
	}
	return n
}

// BuildFromLinks creates a frozen graph where links are traversable both ways.
//
// # Description
//
// Every linked pair {a, b} contributes a->b and b->a with weight 1, once,
// even if both documents link to each other. Documents with no resolved
// links still become vertices. Keys are visited in sorted order so vertex
// ids are deterministic.
//
// # Outputs
//
//   - *graph.Graph: Frozen graph. Never nil.
func BuildFromLinks(idx LinkIndex) *graph.Graph {
	g := graph.NewGraph(graph.WithVertexCapacity(len(idx)))
	added := make(map[[2]string]struct{})

	for _, from := range sortedKeys(idx) {
		// Unit weights on known-good names cannot fail before Freeze.
		_, _ = g.AddVertex(from)

		for _, to := range sortedTargets(idx[from]) {
			if to == from {
				continue
			}
			pair := [2]string{from, to}
			if to < from {
				pair = [2]string{to, from}
			}
			if _, ok := added[pair]; ok {
				continue
			}
			added[pair] = struct{}{}
			_, _ = g.AddEdge(from, to, 1)
			_, _ = g.AddEdge(to, from, 1)
		}
	}

	g.Freeze()
	return g
}

func sortedKeys(idx LinkIndex) []string {
	keys := make([]string, 0, len(idx))
	for k := range idx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedTargets(targets map[string]bool) []string {
	out := make([]string, 0, len(targets))
	for t, ok := range targets {
		if ok {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}
