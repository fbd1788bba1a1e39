// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph provides the weighted path-search engine used by pathfinder.
//
// It contains three pieces that build on each other:
//
//   - Graph: a weighted directed multigraph with dense vertex ids and
//     bidirectional name resolution.
//   - ShortestPaths: Dijkstra's algorithm with query-scoped forbidden
//     vertices and edges.
//   - PathEnumerator: a resumable generator of simple paths in
//     non-decreasing weight order (deviation search).
//
// # Architecture
//
//	┌──────────────┐     ┌────────────────┐     ┌──────────────────┐
//	│    Graph     │────▶│ ShortestPaths  │────▶│  PathEnumerator  │
//	│ (read-only)  │     │ (per-call tree)│     │ (confirmed +     │
//	│              │     │                │     │  candidate heap) │
//	└──────────────┘     └────────────────┘     └──────────────────┘
//
// Exclusions are parameters of a single ShortestPaths call. The Graph is
// never modified by a query.
//
// # Thread Safety
//
// A frozen Graph may be read by any number of goroutines. ShortestPaths
// allocates its own scratch state per call. A PathEnumerator must be used
// by one goroutine at a time.
package graph
