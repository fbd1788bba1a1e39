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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Engine metrics. Registered with the default registry and served by the
// /metrics endpoint when the server runs.
var (
	shortestPathRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathfinder_shortest_path_runs_total",
		Help: "Dijkstra runs by whether any exclusion was applied",
	}, []string{"constrained"})

	shortestPathDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pathfinder_shortest_path_duration_seconds",
		Help:    "Duration of a single Dijkstra run",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
	})

	settledVertices = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pathfinder_shortest_path_settled_vertices",
		Help:    "Vertices settled per Dijkstra run",
		Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
	})

	stalePops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pathfinder_shortest_path_stale_pops_total",
		Help: "Heap entries discarded as stale by lazy deletion",
	})

	enumeratorPulls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathfinder_enumerator_pulls_total",
		Help: "Enumerator pulls by outcome",
	}, []string{"result"})

	enumeratorCandidates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathfinder_enumerator_candidates_total",
		Help: "Spur candidates by disposition",
	}, []string{"disposition"})
)
