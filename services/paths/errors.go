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

import "errors"

// Sentinel errors for query operations.
var (
	// ErrSameEndpoints is returned when a query starts and ends at the same vertex.
	ErrSameEndpoints = errors.New("source and target are the same vertex")

	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNoSource is returned when no graph source is configured.
	ErrNoSource = errors.New("no graph source configured")

	// ErrInvalidLimit is returned when a path limit is out of range.
	ErrInvalidLimit = errors.New("invalid path limit")

	// ErrUnknownSourceKind is returned for an unsupported GraphSource kind.
	ErrUnknownSourceKind = errors.New("unknown graph source kind")
)
