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

// =============================================================================
// Distance Heap
// =============================================================================

// distEntry is one tentative distance pushed during Dijkstra. Entries are
// never updated in place; a stale entry is dropped when popped.
type distEntry struct {
	vertex VertexID
	dist   float64
}

// distHeap implements heap.Interface as a min-heap on dist.
type distHeap []distEntry

func (h distHeap) Len() int           { return len(h) }
func (h distHeap) Less(i, j int) bool { return h[i].dist < h[j].dist }
func (h distHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *distHeap) Push(x any) {
	*h = append(*h, x.(distEntry))
}

func (h *distHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// =============================================================================
// Candidate Heap
// =============================================================================

// candidate is a fully materialized path waiting to be yielded.
type candidate struct {
	path Path
	seq  uint64
}

// candidateHeap is a min-heap on path weight. Equal weights pop in
// insertion order.
type candidateHeap []candidate

func (h candidateHeap) Len() int { return len(h) }

func (h candidateHeap) Less(i, j int) bool {
	if h[i].path.Weight != h[j].path.Weight {
		return h[i].path.Weight < h[j].path.Weight
	}
	return h[i].seq < h[j].seq
}

func (h candidateHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *candidateHeap) Push(x any) {
	*h = append(*h, x.(candidate))
}

func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = candidate{}
	*h = old[:n-1]
	return c
}
