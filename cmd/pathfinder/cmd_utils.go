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
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/pathfinder/cmd/pathfinder/config"
	"github.com/AleutianAI/pathfinder/services/paths"
	"github.com/AleutianAI/pathfinder/services/paths/cache"
	pbadger "github.com/AleutianAI/pathfinder/services/paths/storage/badger"
)

// isInteractive reports whether both stdin and stdout are terminals.
func isInteractive() bool {
	return isTerminal(os.Stdin.Fd()) && isTerminal(os.Stdout.Fd())
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// graphSource picks the source from flags first, then the config file.
func (o *cliOptions) graphSource() paths.GraphSource {
	g := o.cfg.Graph
	switch {
	case o.dataPath != "":
		return paths.CSVSource(o.dataPath)
	case o.corpusRoot != "":
		return paths.CorpusSource(o.corpusRoot)
	case o.storePath != "", g.UseStore:
		return paths.StoreSource()
	case g.DataPath != "":
		return paths.CSVSource(config.ExpandPath(g.DataPath))
	default:
		return paths.CorpusSource(config.ExpandPath(g.CorpusRoot))
	}
}

func (o *cliOptions) resolvedStorePath() string {
	if o.storePath != "" {
		return config.ExpandPath(o.storePath)
	}
	return config.ExpandPath(o.cfg.Graph.StorePath)
}

// openStore opens the badger edge store. The caller closes the DB.
func (o *cliOptions) openStore(ctx context.Context) (*pbadger.EdgeStore, *pbadger.DB, error) {
	path := o.resolvedStorePath()
	if path == "" {
		return nil, nil, fmt.Errorf("%w: no store path", paths.ErrNoSource)
	}
	dbConfig := pbadger.DefaultConfig()
	dbConfig.Path = path
	db, err := pbadger.OpenDB(dbConfig)
	if err != nil {
		return nil, nil, err
	}
	store, err := pbadger.NewEdgeStore(ctx, db, slog.Default())
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return store, db, nil
}

// serviceConfig maps the config file onto a ServiceConfig for src.
func (o *cliOptions) serviceConfig(src paths.GraphSource) paths.ServiceConfig {
	cfg := paths.DefaultServiceConfig(src)
	g := o.cfg.Graph
	cfg.DefaultMaxHops = g.DefaultMaxHops
	cfg.MaxPaths = g.MaxPaths
	cfg.QueryTimeout = g.QueryTimeout
	cfg.SessionTTL = o.cfg.Server.SessionTTL
	cfg.MaxSessions = o.cfg.Server.MaxSessions
	cfg.Corpus.IgnorePatterns = g.IgnorePatterns
	cfg.Corpus.RespectGitignore = g.RespectGitignore
	return cfg
}

// buildService creates the query service for the selected source.
//
// # Outputs
//
//   - *paths.Service: Ready to query. The graph loads on first use.
//   - func(): Releases the service and any open store. Always non-nil.
//   - error: Non-nil if the source is invalid or the store cannot open.
func (o *cliOptions) buildService(ctx context.Context) (*paths.Service, func(), error) {
	src := o.graphSource()
	svcOpts := []paths.ServiceOption{paths.WithLogger(slog.Default())}

	release := func() {}
	if src.Kind == cache.SourceStore {
		store, db, err := o.openStore(ctx)
		if err != nil {
			return nil, release, err
		}
		svcOpts = append(svcOpts, paths.WithStore(store))
		release = func() { _ = db.Close() }
	}

	svc, err := paths.NewService(o.serviceConfig(src), svcOpts...)
	if err != nil {
		release()
		return nil, func() {}, err
	}
	return svc, func() {
		_ = svc.Close()
		release()
	}, nil
}

// endpointArgs accepts zero, one, or two positional endpoints.
func endpointArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 2 {
		return usageErrorf("accepts at most 2 args (FROM TO), received %d", len(args))
	}
	return nil
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErrorf("%s takes no arguments, received %d", cmd.Name(), len(args))
	}
	return nil
}

// endpoints returns FROM and TO from args, prompting for missing ones on a terminal.
func (o *cliOptions) endpoints(ctx context.Context, svc *paths.Service, args []string) (string, string, error) {
	if len(args) == 2 {
		return args[0], args[1], nil
	}
	if o.jsonOutput || o.interactive == nil || !o.interactive() {
		return "", "", usageErrorf("FROM and TO are required")
	}

	names, err := svc.VertexNames(ctx)
	if err != nil {
		return "", "", err
	}
	if len(names) < 2 {
		return "", "", fmt.Errorf("graph has %d vertices, need at least 2", len(names))
	}

	var from string
	if len(args) == 1 {
		from = args[0]
	}
	return promptEndpoints(names, from)
}

// promptEndpoints asks for the missing endpoints with select lists.
func promptEndpoints(names []string, from string) (string, string, error) {
	options := huh.NewOptions(names...)

	var fields []huh.Field
	if from == "" {
		fields = append(fields, huh.NewSelect[string]().
			Title("From").
			Options(options...).
			Height(10).
			Value(&from))
	}

	var to string
	fields = append(fields, huh.NewSelect[string]().
		Title("To").
		Options(options...).
		Height(10).
		Value(&to).
		Validate(func(v string) error {
			if v == from {
				return paths.ErrSameEndpoints
			}
			return nil
		}))

	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", "", usageErrorf("cancelled")
		}
		return "", "", err
	}
	return from, to, nil
}

// formatPath renders a path as "A -> B -> C".
func formatPath(p paths.PathResult) string {
	return strings.Join(p.Vertices, " -> ")
}
