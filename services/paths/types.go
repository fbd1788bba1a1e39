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
	"time"

	"github.com/AleutianAI/pathfinder/services/paths/cache"
	"github.com/AleutianAI/pathfinder/services/paths/graph"
	pbadger "github.com/AleutianAI/pathfinder/services/paths/storage/badger"
)

// APIVersion is the version stamped on every result.
const APIVersion = "1.0"

// ServiceVersion is the pathfinder service version.
const ServiceVersion = "1.0.0"

// Link types in a LinkGraphResult.
const (
	LinkBidirectional   = "bidirectional"
	LinkMonodirectional = "monodirectional"
)

// Node groups in a LinkGraphResult.
const (
	GroupSource = "source"
	GroupTarget = "target"
	GroupNode   = "node"
)

// =============================================================================
// REQUESTS
// =============================================================================

// ShortestRequest asks for the single cheapest path.
type ShortestRequest struct {
	From string `json:"from" form:"from" binding:"required"`
	To   string `json:"to" form:"to" binding:"required"`
}

// EnumerateRequest asks for up to Limit paths in non-decreasing weight.
type EnumerateRequest struct {
	From string `json:"from" form:"from" binding:"required"`
	To   string `json:"to" form:"to" binding:"required"`

	// MaxHops bounds the edges per path. Zero uses the service default.
	MaxHops int `json:"max_hops,omitempty" form:"max_hops" binding:"omitempty,min=1"`

	// Limit bounds the number of paths returned. Zero uses the service maximum.
	Limit int `json:"limit,omitempty" form:"limit" binding:"omitempty,min=1"`
}

// SessionRequest opens an incremental enumeration session.
type SessionRequest struct {
	From    string `json:"from" form:"from" binding:"required"`
	To      string `json:"to" form:"to" binding:"required"`
	MaxHops int    `json:"max_hops,omitempty" form:"max_hops" binding:"omitempty,min=1"`
}

// LinksRequest asks for the link subgraph formed by the first Limit paths.
type LinksRequest EnumerateRequest

// =============================================================================
// RESULTS
// =============================================================================

// PathResult is one path, by vertex name.
type PathResult struct {
	Vertices []string `json:"vertices"`
	Hops     int      `json:"hops"`
	Weight   float64  `json:"weight"`
}

// PathQueryResult is the answer to a shortest or enumerate query.
type PathQueryResult struct {
	APIVersion string `json:"api_version"`
	From       string `json:"from"`
	To         string `json:"to"`
	MaxHops    int    `json:"max_hops,omitempty"`

	// PathFound is false when the target is unreachable within the limits.
	PathFound bool         `json:"path_found"`
	Paths     []PathResult `json:"paths"`

	// Exhausted is true when no further path exists.
	Exhausted bool `json:"exhausted"`

	// Truncated is true when the limit was reached and more paths may exist.
	Truncated bool `json:"truncated"`

	DurationMs int64 `json:"duration_ms"`
}

// NewPathQueryResult creates an empty result for from -> to.
func NewPathQueryResult(from, to string) *PathQueryResult {
	return &PathQueryResult{
		APIVersion: APIVersion,
		From:       from,
		To:         to,
		Paths:      []PathResult{},
	}
}

// LinkNode is a vertex of the link subgraph.
type LinkNode struct {
	ID    string `json:"id"`
	Group string `json:"group"`
}

// Link is a directed edge of the link subgraph.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// LinkGraphResult is the union subgraph of a set of enumerated paths.
type LinkGraphResult struct {
	APIVersion string     `json:"api_version"`
	From       string     `json:"from"`
	To         string     `json:"to"`
	MaxHops    int        `json:"max_hops"`
	PathCount  int        `json:"path_count"`
	Nodes      []LinkNode `json:"nodes"`
	Links      []Link     `json:"links"`
}

// NewLinkGraphResult creates an empty link graph for from -> to.
func NewLinkGraphResult(from, to string, maxHops int) *LinkGraphResult {
	return &LinkGraphResult{
		APIVersion: APIVersion,
		From:       from,
		To:         to,
		MaxHops:    maxHops,
		Nodes:      []LinkNode{},
		Links:      []Link{},
	}
}

// SessionResult is returned by session operations.
type SessionResult struct {
	APIVersion string       `json:"api_version"`
	SessionID  string       `json:"session_id"`
	From       string       `json:"from"`
	To         string       `json:"to"`
	MaxHops    int          `json:"max_hops"`
	Paths      []PathResult `json:"paths"`
	Yielded    int          `json:"yielded"`
	Exhausted  bool         `json:"exhausted"`
}

// NewSessionResult creates a result for session id.
func NewSessionResult(id, from, to string, maxHops int) *SessionResult {
	return &SessionResult{
		APIVersion: APIVersion,
		SessionID:  id,
		From:       from,
		To:         to,
		MaxHops:    maxHops,
		Paths:      []PathResult{},
	}
}

// StatsResult describes the loaded graph and service state.
type StatsResult struct {
	APIVersion string              `json:"api_version"`
	Source     string              `json:"source"`
	Kind       cache.SourceKind    `json:"kind"`
	Vertices   int                 `json:"vertices"`
	Edges      int                 `json:"edges"`
	BuiltAt    time.Time           `json:"built_at"`
	BuildMs    int64               `json:"build_ms"`
	Sessions   int                 `json:"sessions"`
	Cache      cache.Stats         `json:"cache"`
	Import     *pbadger.ImportMeta `json:"import,omitempty"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable code.
	Code string `json:"code,omitempty"`

	// Details provides additional error context (optional).
	Details string `json:"details,omitempty"`
}

// NextRequest asks a session for more paths.
type NextRequest struct {
	N int `form:"n" binding:"omitempty,min=1"`
}

// toPathResult converts an engine path to names.
func toPathResult(g *graph.Graph, p graph.Path) PathResult {
	return PathResult{
		Vertices: g.PathNames(p),
		Hops:     p.Hops(),
		Weight:   p.Weight,
	}
}
