// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"fmt"
	"time"
)

// ErrBuildFailed is returned while a recent build error is still cached.
type ErrBuildFailed struct {
	Err      error
	FailedAt time.Time
	RetryAt  time.Time
}

// Error implements the error interface.
func (e *ErrBuildFailed) Error() string {
	return fmt.Sprintf("graph build failed at %s (retry after %s): %v",
		e.FailedAt.Format(time.RFC3339), e.RetryAt.Format(time.RFC3339), e.Err)
}

// Unwrap returns the underlying build error.
func (e *ErrBuildFailed) Unwrap() error {
	return e.Err
}
