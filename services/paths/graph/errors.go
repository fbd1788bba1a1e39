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
	"errors"
	"fmt"
)

// Sentinel errors for graph construction and queries.
var (
	// ErrInvalidVertex is returned when an id or name does not resolve to a vertex.
	ErrInvalidVertex = errors.New("invalid vertex")

	// ErrInvalidWeight is returned when an edge weight is negative or not finite.
	ErrInvalidWeight = errors.New("invalid edge weight")

	// ErrInvalidHopLimit is returned when a hop bound is less than one.
	ErrInvalidHopLimit = errors.New("hop limit must be at least 1")

	// ErrGraphFrozen is returned when mutating a graph after Freeze.
	ErrGraphFrozen = errors.New("graph is frozen")
)

// VertexNotFoundError reports a vertex name that is not in the graph.
type VertexNotFoundError struct {
	Name string
}

// Error implements the error interface.
func (e *VertexNotFoundError) Error() string {
	return fmt.Sprintf("vertex %q not found", e.Name)
}

// Unwrap returns the sentinel error.
func (e *VertexNotFoundError) Unwrap() error {
	return ErrInvalidVertex
}

// InvalidVertexError reports a vertex id outside [1, N].
type InvalidVertexError struct {
	ID          VertexID
	VertexCount int
}

// Error implements the error interface.
func (e *InvalidVertexError) Error() string {
	return fmt.Sprintf("vertex id %d out of range [1, %d]", e.ID, e.VertexCount)
}

// Unwrap returns the sentinel error.
func (e *InvalidVertexError) Unwrap() error {
	return ErrInvalidVertex
}

// InvalidWeightError reports the edge that was rejected and why.
type InvalidWeightError struct {
	From   string
	To     string
	Weight float64
}

// Error implements the error interface.
func (e *InvalidWeightError) Error() string {
	return fmt.Sprintf("edge %q -> %q: weight %v must be finite and >= 0", e.From, e.To, e.Weight)
}

// Unwrap returns the sentinel error.
func (e *InvalidWeightError) Unwrap() error {
	return ErrInvalidWeight
}
