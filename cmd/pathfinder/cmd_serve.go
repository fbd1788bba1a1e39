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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AleutianAI/pathfinder/services/paths"
	"github.com/AleutianAI/pathfinder/services/paths/telemetry"
	"github.com/AleutianAI/pathfinder/services/paths/watch"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *cliOptions) *cobra.Command {
	var (
		port    int
		noWatch bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve path queries over HTTP",
		Long: `Start the HTTP API under /v1/paths, with Prometheus metrics at /metrics.
The graph is rebuilt when its source file or corpus changes unless --no-watch
is given or server.watch is false.`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			serverCfg := opts.cfg.Server
			if port == 0 {
				port = serverCfg.Port
			}
			if port < 1 || port > 65535 {
				return usageErrorf("invalid port %d", port)
			}

			telCfg := telemetry.DefaultConfig()
			telCfg.ServiceVersion = paths.ServiceVersion
			telCfg.TraceExporter = opts.cfg.Telemetry.TraceExporter
			telCfg.MetricExporter = opts.cfg.Telemetry.MetricExporter
			telCfg.OTLPEndpoint = opts.cfg.Telemetry.OTLPEndpoint
			shutdownTelemetry, err := telemetry.Init(ctx, telCfg)
			if err != nil {
				return err
			}
			defer func() {
				sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := shutdownTelemetry(sctx); err != nil {
					slog.Error("failed to shut down telemetry", "error", err)
				}
			}()
			otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
				propagation.TraceContext{},
				propagation.Baggage{},
			))

			svc, release, err := opts.buildService(ctx)
			defer release()
			if err != nil {
				return err
			}
			if serverCfg.Watch && !noWatch {
				watchOpts := watch.DefaultOptions()
				if err := svc.Watch(ctx, watchOpts); err != nil {
					slog.Warn("source watch disabled", "error", err)
				}
			}
			if _, err := svc.Graph(ctx); err != nil {
				slog.Warn("initial graph load failed, readiness will report it", "error", err)
			}

			if !slog.Default().Enabled(ctx, slog.LevelDebug) {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%d", port),
				Handler:           newRouter(svc, serverCfg.RateLimit, serverCfg.Burst),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(ctx, srv, svc.Config().Source.String())
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from config)")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not rebuild the graph when the source changes")
	return cmd
}

// newRouter builds the gin engine for the path API.
func newRouter(svc *paths.Service, ratePerSecond float64, burst int) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("pathfinder"))

	router.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	v1 := router.Group("/v1")
	v1.Use(paths.NewRateLimiter(ratePerSecond, burst).Middleware())
	paths.RegisterRoutes(v1, paths.NewHandlers(svc))
	return router
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, sourceDesc string) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("pathfinder listening", "addr", srv.Addr, "source", sourceDesc)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
