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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all paths routes under the given router group.
//
// Routes:
//
//	GET    /v1/paths/shortest          - Cheapest path between two vertices
//	GET    /v1/paths/enumerate         - Up to limit simple paths, cheapest first
//	GET    /v1/paths/links             - Union subgraph of enumerated paths
//	POST   /v1/paths/sessions          - Open an enumeration session
//	GET    /v1/paths/sessions/:id/next - Pull more paths from a session
//	DELETE /v1/paths/sessions/:id      - Close a session
//	GET    /v1/paths/stream            - Websocket enumeration
//	GET    /v1/paths/stats             - Graph and cache statistics
//	GET    /v1/paths/health            - Health check
//	GET    /v1/paths/ready             - Readiness check
//
// Example:
//
//	service, _ := paths.NewService(paths.DefaultServiceConfig(paths.CSVSource("graph.csv")))
//	handlers := paths.NewHandlers(service)
//
//	v1 := router.Group("/v1")
//	paths.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	p := rg.Group("/paths")
	{
		// Queries
		p.GET("/shortest", handlers.HandleShortest)
		p.GET("/enumerate", handlers.HandleEnumerate)
		p.GET("/links", handlers.HandleLinks)

		// Sessions
		p.POST("/sessions", handlers.HandleOpenSession)
		p.GET("/sessions/:id/next", handlers.HandleNextPaths)
		p.DELETE("/sessions/:id", handlers.HandleCloseSession)
		p.GET("/stream", handlers.HandleStream)

		// Status
		p.GET("/stats", handlers.HandleStats)
		p.GET("/health", handlers.HandleHealth)
		p.GET("/ready", handlers.HandleReady)
	}
}
