// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/AleutianAI/pathfinder/services/paths"
	"github.com/AleutianAI/pathfinder/services/paths/graph"
	"github.com/AleutianAI/pathfinder/services/paths/source"
)

// Exit codes for CLI commands.
const (
	ExitSuccess = 0 // Operation completed successfully
	ExitError   = 1 // Operation failed
	ExitBadArgs = 2 // Invalid arguments or flags
)

// UsageError marks a failure caused by how the command was invoked.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

func usageErrorf(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// CommandResult wraps command output with metadata.
type CommandResult struct {
	APIVersion string      `json:"api_version"`
	Command    string      `json:"command"`
	Timestamp  time.Time   `json:"timestamp"`
	DurationMs int64       `json:"duration_ms"`
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
	Code       string      `json:"code,omitempty"`
}

// OutputJSON writes structured data as indented JSON.
func OutputJSON(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// OutputResult writes a successful command result as JSON.
func OutputResult(w io.Writer, cmd string, start time.Time, data interface{}) error {
	return OutputJSON(w, CommandResult{
		APIVersion: paths.APIVersion,
		Command:    cmd,
		Timestamp:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
		Success:    true,
		Data:       data,
	})
}

// OutputError writes err in the appropriate format.
//
// # Inputs
//
//   - w: stdout in JSON mode, stderr otherwise.
//   - jsonMode: If true, output a CommandResult.
//   - cmd: Command name for metadata. May be empty.
//   - err: The error.
func OutputError(w io.Writer, jsonMode bool, cmd string, err error) {
	if jsonMode {
		result := CommandResult{
			APIVersion: paths.APIVersion,
			Command:    cmd,
			Timestamp:  time.Now(),
			Success:    false,
			Error:      err.Error(),
			Code:       errorCode(err),
		}
		_ = OutputJSON(w, result)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", err)
}

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	var usage *UsageError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage),
		errors.Is(err, paths.ErrSameEndpoints),
		errors.Is(err, paths.ErrInvalidLimit),
		errors.Is(err, graph.ErrInvalidHopLimit):
		return ExitBadArgs
	default:
		return ExitError
	}
}

func errorCode(err error) string {
	var usage *UsageError
	switch {
	case errors.As(err, &usage):
		return "INVALID_ARGUMENTS"
	case errors.Is(err, paths.ErrSameEndpoints):
		return "SAME_ENDPOINTS"
	case errors.Is(err, graph.ErrInvalidVertex):
		return "INVALID_VERTEX"
	case errors.Is(err, paths.ErrInvalidLimit), errors.Is(err, graph.ErrInvalidHopLimit):
		return "INVALID_REQUEST"
	case errors.Is(err, graph.ErrInvalidWeight):
		return "INVALID_WEIGHT"
	case errors.Is(err, source.ErrMalformedInput):
		return "MALFORMED_INPUT"
	case errors.Is(err, paths.ErrGraphLoad):
		return "GRAPH_LOAD_FAILED"
	default:
		return "INTERNAL_ERROR"
	}
}
