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
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T) *websocket.Conn {
	t.Helper()
	r := gin.New()
	RegisterRoutes(r.Group("/v1"), NewHandlers(newCSVService(t)))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/paths/stream"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	return ws
}

func readMessage(t *testing.T, ws *websocket.Conn) WSMessage {
	t.Helper()
	var msg WSMessage
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

func TestHandleStream_OpenAndPull(t *testing.T) {
	ws := dialStream(t)

	require.NoError(t, ws.WriteJSON(WSRequest{Action: ActionOpen, From: "A", To: "D"}))
	created := readMessage(t, ws)
	assert.Equal(t, ActionSessionCreated, created.Action)
	require.NotEmpty(t, created.SessionID)

	require.NoError(t, ws.WriteJSON(WSRequest{Action: ActionNext, Count: 2}))
	first := readMessage(t, ws)
	second := readMessage(t, ws)
	assert.Equal(t, ActionPath, first.Action)
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, []string{"A", "B", "C", "D"}, first.Path.Vertices)
	assert.Equal(t, 2, second.Index)

	require.NoError(t, ws.WriteJSON(WSRequest{Action: ActionNext, Count: 10}))
	var actions []string
	for {
		msg := readMessage(t, ws)
		actions = append(actions, msg.Action)
		if msg.Action == ActionExhausted {
			assert.Equal(t, 4, msg.Yielded)
			break
		}
	}
	assert.Equal(t, []string{ActionPath, ActionPath, ActionExhausted}, actions)
}

func TestHandleStream_Errors(t *testing.T) {
	ws := dialStream(t)

	tests := []struct {
		name     string
		req      WSRequest
		wantCode string
	}{
		{"next before open", WSRequest{Action: ActionNext}, "SESSION_NOT_FOUND"},
		{"unknown vertex", WSRequest{Action: ActionOpen, From: "A", To: "Z"}, "INVALID_VERTEX"},
		{"same endpoints", WSRequest{Action: ActionOpen, From: "A", To: "A"}, "SAME_ENDPOINTS"},
		{"unknown action", WSRequest{Action: "rewind"}, "INVALID_REQUEST"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, ws.WriteJSON(tt.req))
			msg := readMessage(t, ws)
			assert.Equal(t, ActionError, msg.Action)
			assert.Equal(t, tt.wantCode, msg.Code)
		})
	}
}
