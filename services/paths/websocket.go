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
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/pathfinder/services/paths/telemetry"
)

// Websocket actions.
const (
	ActionOpen           = "open"
	ActionNext           = "next"
	ActionSessionCreated = "session_created"
	ActionPath           = "path"
	ActionExhausted      = "exhausted"
	ActionError          = "error"
)

// WSRequest is a client message on the stream endpoint.
type WSRequest struct {
	Action  string `json:"action"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	MaxHops int    `json:"max_hops,omitempty"`
	Count   int    `json:"count,omitempty"`
}

// WSMessage is a server message on the stream endpoint.
type WSMessage struct {
	Action    string      `json:"action"`
	SessionID string      `json:"sessionId,omitempty"`
	From      string      `json:"from,omitempty"`
	To        string      `json:"to,omitempty"`
	MaxHops   int         `json:"max_hops,omitempty"`
	Index     int         `json:"index,omitempty"`
	Path      *PathResult `json:"path,omitempty"`
	Yielded   int         `json:"yielded,omitempty"`
	Error     string      `json:"error,omitempty"`
	Code      string      `json:"code,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 64 * 1024,
}

func sendJSON(ws *websocket.Conn, v interface{}) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write WebSocket JSON", "error", err)
	}
	return err
}

func sendError(ws *websocket.Conn, err error) error {
	_, code := errorStatus(err)
	return sendJSON(ws, WSMessage{Action: ActionError, Error: err.Error(), Code: code})
}

// HandleStream handles GET /v1/paths/stream.
//
// Description:
//
//	Upgrades to a websocket and serves one enumeration session at a time.
//	An "open" message starts a session and replaces any previous one.
//	Each "next" message streams up to count paths as "path" messages,
//	followed by "exhausted" once no further path exists. The session is
//	closed when the connection ends.
func (h *Handlers) HandleStream(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := telemetry.LoggerWithTrace(c.Request.Context(), slog.With("request_id", requestID, "handler", "HandleStream"))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("failed to upgrade the websocket", "error", err)
		return
	}
	defer ws.Close()

	ctx := c.Request.Context()
	var sessionID string
	defer func() {
		if sessionID != "" {
			_ = h.svc.CloseSession(sessionID)
		}
	}()

	for {
		var req WSRequest
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read failed", "error", err)
			}
			return
		}

		switch req.Action {
		case ActionOpen:
			if sessionID != "" {
				_ = h.svc.CloseSession(sessionID)
				sessionID = ""
			}
			res, err := h.svc.OpenSession(ctx, SessionRequest{From: req.From, To: req.To, MaxHops: req.MaxHops})
			if err != nil {
				if sendError(ws, err) != nil {
					return
				}
				continue
			}
			sessionID = res.SessionID
			logger.Info("Stream session opened", "session_id", sessionID)
			if err := sendJSON(ws, WSMessage{
				Action:    ActionSessionCreated,
				SessionID: res.SessionID,
				From:      res.From,
				To:        res.To,
				MaxHops:   res.MaxHops,
			}); err != nil {
				return
			}

		case ActionNext:
			if sessionID == "" {
				if sendError(ws, ErrSessionNotFound) != nil {
					return
				}
				continue
			}
			count := req.Count
			if count == 0 {
				count = 1
			}
			res, err := h.svc.NextPaths(ctx, sessionID, count)
			if err != nil {
				if sendError(ws, err) != nil {
					return
				}
				continue
			}
			first := res.Yielded - len(res.Paths)
			for i := range res.Paths {
				if err := sendJSON(ws, WSMessage{
					Action:    ActionPath,
					SessionID: sessionID,
					Index:     first + i + 1,
					Path:      &res.Paths[i],
				}); err != nil {
					return
				}
			}
			if res.Exhausted {
				if err := sendJSON(ws, WSMessage{
					Action:    ActionExhausted,
					SessionID: sessionID,
					Yielded:   res.Yielded,
				}); err != nil {
					return
				}
			}

		default:
			if err := sendJSON(ws, WSMessage{
				Action: ActionError,
				Error:  "unknown action: " + req.Action,
				Code:   "INVALID_REQUEST",
			}); err != nil {
				return
			}
		}
	}
}
