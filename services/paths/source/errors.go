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
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for graph sources.
var (
	// ErrMalformedInput is returned when a record does not match "from,to,weight".
	ErrMalformedInput = errors.New("malformed input")

	// ErrCorpusNotDir is returned when a corpus root is not a directory.
	ErrCorpusNotDir = errors.New("corpus root is not a directory")
)

// MalformedRecordError identifies the record that aborted a build.
type MalformedRecordError struct {
	// Line is the 1-based line of the record, or 0 when not read from text.
	Line int

	// Record holds the raw fields.
	Record []string

	// Reason describes what is wrong with the record.
	Reason string
}

// Error implements the error interface.
func (e *MalformedRecordError) Error() string {
	raw := strings.Join(e.Record, ",")
	if e.Line > 0 {
		return fmt.Sprintf("wrong record format at line %d: %q: %s", e.Line, raw, e.Reason)
	}
	return fmt.Sprintf("wrong record format: %q: %s", raw, e.Reason)
}

// Unwrap returns the sentinel error.
func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedInput
}
