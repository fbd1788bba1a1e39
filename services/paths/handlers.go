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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/pathfinder/services/paths/graph"
	"github.com/AleutianAI/pathfinder/services/paths/telemetry"
)

// Handlers contains the HTTP handlers for the paths service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleShortest handles GET /v1/paths/shortest.
//
// Description:
//
//	Returns the cheapest path between two vertices. An unreachable target
//	is a 200 with path_found=false.
//
// Query Parameters:
//
//	from, to - Vertex names (required)
//
// Response:
//
//	200 OK: PathQueryResult
//	400 Bad Request: Missing parameters or identical endpoints
//	404 Not Found: Unknown vertex
func (h *Handlers) HandleShortest(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := telemetry.LoggerWithTrace(c.Request.Context(), slog.With("request_id", requestID, "handler", "HandleShortest"))

	var req ShortestRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Invalid query", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "from and to are required",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	result, err := h.svc.Shortest(c.Request.Context(), req)
	if err != nil {
		writeError(c, logger, err)
		return
	}

	logger.Info("Shortest path query", "from", req.From, "to", req.To, "found", result.PathFound)
	c.JSON(http.StatusOK, result)
}

// HandleEnumerate handles GET /v1/paths/enumerate.
//
// Query Parameters:
//
//	from, to - Vertex names (required)
//	max_hops - Maximum edges per path (optional)
//	limit - Maximum paths returned (optional)
//
// Response:
//
//	200 OK: PathQueryResult
//	504 Gateway Timeout: Enumeration exceeded the query deadline
func (h *Handlers) HandleEnumerate(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := telemetry.LoggerWithTrace(c.Request.Context(), slog.With("request_id", requestID, "handler", "HandleEnumerate"))

	var req EnumerateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Invalid query", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid query parameters",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	result, err := h.svc.Enumerate(c.Request.Context(), req)
	if err != nil {
		writeError(c, logger, err)
		return
	}

	logger.Info("Enumerate query",
		"from", req.From,
		"to", req.To,
		"paths", len(result.Paths),
		"exhausted", result.Exhausted,
	)
	c.JSON(http.StatusOK, result)
}

// HandleLinks handles GET /v1/paths/links.
func (h *Handlers) HandleLinks(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := telemetry.LoggerWithTrace(c.Request.Context(), slog.With("request_id", requestID, "handler", "HandleLinks"))

	var req LinksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		logger.Warn("Invalid query", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid query parameters",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	result, err := h.svc.Links(c.Request.Context(), req)
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleOpenSession handles POST /v1/paths/sessions.
//
// Request Body:
//
//	SessionRequest
//
// Response:
//
//	201 Created: SessionResult
func (h *Handlers) HandleOpenSession(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := telemetry.LoggerWithTrace(c.Request.Context(), slog.With("request_id", requestID, "handler", "HandleOpenSession"))

	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request body",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}

	result, err := h.svc.OpenSession(c.Request.Context(), req)
	if err != nil {
		writeError(c, logger, err)
		return
	}

	logger.Info("Session opened", "session_id", result.SessionID)
	c.JSON(http.StatusCreated, result)
}

// HandleNextPaths handles GET /v1/paths/sessions/:id/next.
//
// Query Parameters:
//
//	n - Number of paths to pull (default 1)
func (h *Handlers) HandleNextPaths(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := telemetry.LoggerWithTrace(c.Request.Context(), slog.With("request_id", requestID, "handler", "HandleNextPaths"))

	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "session id is required",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	var req NextRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "n must be a positive integer",
			Code:    "INVALID_REQUEST",
			Details: err.Error(),
		})
		return
	}
	if req.N == 0 {
		req.N = 1
	}

	result, err := h.svc.NextPaths(c.Request.Context(), id, req.N)
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleCloseSession handles DELETE /v1/paths/sessions/:id.
func (h *Handlers) HandleCloseSession(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := telemetry.LoggerWithTrace(c.Request.Context(), slog.With("request_id", requestID, "handler", "HandleCloseSession"))

	if err := h.svc.CloseSession(c.Param("id")); err != nil {
		writeError(c, logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleStats handles GET /v1/paths/stats.
func (h *Handlers) HandleStats(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := telemetry.LoggerWithTrace(c.Request.Context(), slog.With("request_id", requestID, "handler", "HandleStats"))

	result, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleHealth handles GET /v1/paths/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /v1/paths/ready.
//
// Response:
//
//	200 OK: The graph is loaded
//	503 Service Unavailable: The graph could not be built
func (h *Handlers) HandleReady(c *gin.Context) {
	if _, err := h.svc.Graph(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: "graph not ready",
			Code:  "GRAPH_LOAD_FAILED",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

// errorStatus maps a service error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrGraphLoad):
		return http.StatusInternalServerError, "GRAPH_LOAD_FAILED"
	case errors.Is(err, graph.ErrInvalidVertex):
		return http.StatusNotFound, "INVALID_VERTEX"
	case errors.Is(err, ErrSameEndpoints):
		return http.StatusBadRequest, "SAME_ENDPOINTS"
	case errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND"
	case errors.Is(err, ErrInvalidLimit), errors.Is(err, graph.ErrInvalidHopLimit):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "QUERY_TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeError(c *gin.Context, logger *slog.Logger, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err, "code", code)
	} else {
		logger.Warn("Request rejected", "error", err, "code", code)
	}
	c.JSON(status, ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})
}

// getOrCreateRequestID gets the request ID from header or creates one.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
