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
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/pathfinder/cmd/pathfinder/internal/pager"
	"github.com/AleutianAI/pathfinder/services/paths"
)

func newShortestCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "shortest [FROM] [TO]",
		Short: "Print the cheapest path between two vertices",
		Args:  endpointArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			ctx := cmd.Context()
			svc, release, err := opts.buildService(ctx)
			defer release()
			if err != nil {
				return err
			}
			from, to, err := opts.endpoints(ctx, svc, args)
			if err != nil {
				return err
			}

			res, err := svc.Shortest(ctx, paths.ShortestRequest{From: from, To: to})
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return OutputResult(cmd.OutOrStdout(), "shortest", start, res)
			}
			printShortest(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func printShortest(w io.Writer, res *paths.PathQueryResult) {
	if !res.PathFound || len(res.Paths) == 0 {
		fmt.Fprintln(w, "No path found.")
		return
	}
	p := res.Paths[0]
	fmt.Fprintf(w, "Path found (%d hops, weight %g):\n", p.Hops, p.Weight)
	fmt.Fprintf(w, "  %s\n", formatPath(p))
}

func newPathsCmd(opts *cliOptions) *cobra.Command {
	var (
		maxHops     int
		limit       int
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "paths [FROM] [TO]",
		Short: "Enumerate simple paths within a hop bound, cheapest first",
		Long: `Enumerate simple paths from FROM to TO with at most --max-hops edges.

On a terminal the paths are shown one at a time in a pager; each new path is
only computed when you ask for it. Use --interactive=false or --json for a
plain listing of the first --limit paths.`,
		Args: endpointArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			ctx := cmd.Context()
			svc, release, err := opts.buildService(ctx)
			defer release()
			if err != nil {
				return err
			}
			from, to, err := opts.endpoints(ctx, svc, args)
			if err != nil {
				return err
			}

			useTUI := interactive
			if !cmd.Flags().Changed("interactive") {
				useTUI = opts.interactive != nil && opts.interactive()
			}
			if useTUI && !opts.jsonOutput {
				return runPager(ctx, svc, from, to, maxHops)
			}

			res, err := svc.Enumerate(ctx, paths.EnumerateRequest{
				From:    from,
				To:      to,
				MaxHops: maxHops,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return OutputResult(cmd.OutOrStdout(), "paths", start, res)
			}
			printPaths(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxHops, "max-hops", 0, "Maximum edges per path (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum paths to list (default from config)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Browse paths in a pager (default on a terminal)")
	return cmd
}

func printPaths(w io.Writer, res *paths.PathQueryResult) {
	if len(res.Paths) == 0 {
		fmt.Fprintln(w, "No path found.")
		return
	}
	for i, p := range res.Paths {
		fmt.Fprintf(w, "Path %d (%d hops, weight %g):\n", i+1, p.Hops, p.Weight)
		fmt.Fprintf(w, "  %s\n", formatPath(p))
	}
	if res.Truncated {
		fmt.Fprintf(w, "\nShowing the first %d paths. More may exist; raise --limit to see them.\n", len(res.Paths))
	}
}

// runPager browses an enumeration session one path at a time.
func runPager(ctx context.Context, svc *paths.Service, from, to string, maxHops int) error {
	session, err := svc.OpenSession(ctx, paths.SessionRequest{From: from, To: to, MaxHops: maxHops})
	if err != nil {
		return err
	}
	defer svc.CloseSession(session.SessionID)

	pull := func(ctx context.Context) (*paths.PathResult, bool, error) {
		next, err := svc.NextPaths(ctx, session.SessionID, 1)
		if err != nil {
			return nil, false, err
		}
		if len(next.Paths) == 0 {
			return nil, false, nil
		}
		return &next.Paths[0], true, nil
	}

	cfg := pager.DefaultConfig()
	cfg.From = from
	cfg.To = to
	cfg.MaxHops = session.MaxHops
	final, err := pager.Run(ctx, pull, cfg)
	if err != nil {
		return err
	}
	return final.Err()
}

func newLinksCmd(opts *cliOptions) *cobra.Command {
	var (
		maxHops int
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "links [FROM] [TO]",
		Short: "Print the subgraph covered by the enumerated paths",
		Long: `Print every vertex and link that appears on the first --limit paths from FROM
to TO. Each link is marked bidirectional when its reverse is also present.`,
		Args: endpointArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			ctx := cmd.Context()
			svc, release, err := opts.buildService(ctx)
			defer release()
			if err != nil {
				return err
			}
			from, to, err := opts.endpoints(ctx, svc, args)
			if err != nil {
				return err
			}

			res, err := svc.Links(ctx, paths.LinksRequest{
				From:    from,
				To:      to,
				MaxHops: maxHops,
				Limit:   limit,
			})
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return OutputResult(cmd.OutOrStdout(), "links", start, res)
			}
			printLinks(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVar(&maxHops, "max-hops", 0, "Maximum edges per path (default from config)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum paths to include (default from config)")
	return cmd
}

func printLinks(w io.Writer, res *paths.LinkGraphResult) {
	if res.PathCount == 0 {
		fmt.Fprintln(w, "No path found.")
		return
	}
	fmt.Fprintf(w, "%s -> %s: %d paths, %d nodes, %d links (max %d hops)\n\n",
		res.From, res.To, res.PathCount, len(res.Nodes), len(res.Links), res.MaxHops)

	fmt.Fprintln(w, "Nodes:")
	for _, n := range res.Nodes {
		fmt.Fprintf(w, "  %-24s %s\n", n.ID, n.Group)
	}
	fmt.Fprintln(w, "\nLinks:")
	for _, l := range res.Links {
		arrow := "->"
		if l.Type == paths.LinkBidirectional {
			arrow = "<->"
		}
		fmt.Fprintf(w, "  %s %s %s\n", l.Source, arrow, l.Target)
	}
}

func newStatsCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Load the graph and print its size and source",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			ctx := cmd.Context()
			svc, release, err := opts.buildService(ctx)
			defer release()
			if err != nil {
				return err
			}
			res, err := svc.Stats(ctx)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return OutputResult(cmd.OutOrStdout(), "stats", start, res)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Source:   %s\n", res.Source)
			fmt.Fprintf(w, "Vertices: %d\n", res.Vertices)
			fmt.Fprintf(w, "Edges:    %d\n", res.Edges)
			fmt.Fprintf(w, "Built:    %s (%d ms)\n", res.BuiltAt.Format(time.RFC3339), res.BuildMs)
			if res.Import != nil {
				fmt.Fprintf(w, "Imported: %d records from %s at %s\n",
					res.Import.Records, res.Import.Source, res.Import.ImportedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}
