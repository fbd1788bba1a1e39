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
	"github.com/AleutianAI/pathfinder/services/paths/cache"
	"github.com/AleutianAI/pathfinder/services/paths/graph"
)

type namePair struct {
	from, to string
}

// buildLinkGraph builds the union subgraph of paths.
func buildLinkGraph(entry *cache.Entry, from, to string, paths []graph.Path) *LinkGraphResult {
	result := NewLinkGraphResult(from, to, 0)
	result.PathCount = len(paths)

	seenNodes := make(map[string]bool)
	addNode := func(name string) {
		if seenNodes[name] {
			return
		}
		seenNodes[name] = true
		group := GroupNode
		switch name {
		case from:
			group = GroupSource
		case to:
			group = GroupTarget
		}
		result.Nodes = append(result.Nodes, LinkNode{ID: name, Group: group})
	}
	addNode(from)
	addNode(to)

	// Traversed pairs in first-seen order.
	var pairs []namePair
	traversed := make(map[namePair]bool)
	for _, p := range paths {
		names := entry.Graph.PathNames(p)
		for i, name := range names {
			addNode(name)
			if i == 0 {
				continue
			}
			pair := namePair{names[i-1], name}
			if !traversed[pair] {
				traversed[pair] = true
				pairs = append(pairs, pair)
			}
		}
	}

	if entry.Links == nil {
		for _, pair := range pairs {
			kind := LinkMonodirectional
			if traversed[namePair{pair.to, pair.from}] {
				kind = LinkBidirectional
			}
			result.Links = append(result.Links, Link{Source: pair.from, Target: pair.to, Type: kind})
		}
		return result
	}

	// Corpus graphs are symmetric; report the direction the documents link in.
	emitted := make(map[namePair]bool)
	for _, pair := range pairs {
		link := pair
		if !entry.Links.Has(pair.from, pair.to) {
			link = namePair{pair.to, pair.from}
			if !entry.Links.Has(link.from, link.to) {
				continue
			}
		}
		if emitted[link] {
			continue
		}
		emitted[link] = true
		kind := LinkMonodirectional
		if entry.Links.IsBidirectional(link.from, link.to) {
			kind = LinkBidirectional
		}
		result.Links = append(result.Links, Link{Source: link.from, Target: link.to, Type: kind})
	}
	return result
}
