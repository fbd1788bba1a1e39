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
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/pathfinder/services/paths/graph"
	"github.com/AleutianAI/pathfinder/services/paths/telemetry"
)

// session is one incremental enumeration. The graph pointer keeps the
// graph the session started on alive across cache rebuilds.
type session struct {
	mu      sync.Mutex
	id      string
	from    string
	to      string
	maxHops int
	g       *graph.Graph
	en      *graph.PathEnumerator

	// pending holds paths pulled by a request that timed out before
	// they could be returned.
	pending   []graph.Path
	delivered int
	exhausted bool
}

// OpenSession starts an enumeration that callers advance with NextPaths.
//
// # Outputs
//
//   - *SessionResult: Carries the new session id. No paths are pulled yet.
//   - error: ErrInvalidVertex, ErrSameEndpoints, ErrInvalidHopLimit, or ErrGraphLoad.
func (s *Service) OpenSession(ctx context.Context, req SessionRequest) (*SessionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "paths.OpenSession")
	defer span.End()

	maxHops := req.MaxHops
	if maxHops == 0 {
		maxHops = s.config.DefaultMaxHops
	}
	entry, err := s.Graph(ctx)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	from, to, err := resolveEndpoints(entry.Graph, req.From, req.To)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	en, err := graph.NewPathEnumerator(entry.Graph, from, to, maxHops)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	sess := &session{
		id:      uuid.NewString(),
		from:    req.From,
		to:      req.To,
		maxHops: maxHops,
		g:       entry.Graph,
		en:      en,
	}
	s.sessions.Add(sess.id, sess)
	span.SetAttributes(attribute.String("session_id", sess.id))
	s.logger.Debug("session opened",
		slog.String("session_id", sess.id),
		slog.String("from", req.From),
		slog.String("to", req.To),
		slog.Int("max_hops", maxHops))

	return NewSessionResult(sess.id, req.From, req.To, maxHops), nil
}

// NextPaths pulls up to n more paths from session id.
//
// # Description
//
// Paths continue where the previous call stopped. Fewer than n paths are
// returned only when the session is exhausted. If the query deadline
// passes mid-pull the paths already pulled are kept for the next call.
// Each call refreshes the session's TTL.
//
// # Outputs
//
//   - *SessionResult: The new paths, the total yielded, and Exhausted.
//   - error: ErrSessionNotFound, ErrInvalidLimit, or context.DeadlineExceeded.
func (s *Service) NextPaths(ctx context.Context, id string, n int) (*SessionResult, error) {
	ctx, span := telemetry.StartSpan(ctx, tracerName, "paths.NextPaths")
	defer span.End()
	span.SetAttributes(attribute.String("session_id", id), attribute.Int("count", n))

	if n < 1 || n > s.config.MaxPaths {
		err := fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidLimit, n, s.config.MaxPaths)
		telemetry.RecordError(span, err)
		return nil, err
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		telemetry.RecordError(span, err)
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	for len(sess.pending) < n && !sess.exhausted {
		if err := ctx.Err(); err != nil {
			telemetry.RecordError(span, err)
			return nil, fmt.Errorf("session %s: %w", id, err)
		}
		p, ok := sess.en.Next()
		if !ok {
			sess.exhausted = true
			break
		}
		sess.pending = append(sess.pending, p)
	}

	take := min(n, len(sess.pending))
	result := NewSessionResult(sess.id, sess.from, sess.to, sess.maxHops)
	for _, p := range sess.pending[:take] {
		result.Paths = append(result.Paths, toPathResult(sess.g, p))
	}
	sess.pending = sess.pending[take:]
	sess.delivered += take
	result.Yielded = sess.delivered
	result.Exhausted = sess.exhausted && len(sess.pending) == 0

	// Add refreshes the TTL.
	s.sessions.Add(id, sess)
	return result, nil
}

// CloseSession drops session id.
func (s *Service) CloseSession(id string) error {
	if !s.sessions.Remove(id) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.logger.Debug("session closed", slog.String("session_id", id))
	return nil
}

// SessionCount returns the number of live sessions.
func (s *Service) SessionCount() int {
	return s.sessions.Len()
}
