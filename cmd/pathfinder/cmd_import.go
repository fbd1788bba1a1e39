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
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/pathfinder/services/paths/source"
)

// ImportResult is the JSON output of the import command.
type ImportResult struct {
	Store      string    `json:"store"`
	Source     string    `json:"source"`
	Records    int       `json:"records"`
	ImportedAt time.Time `json:"imported_at"`
}

func newImportCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import CSV",
		Short: "Replace the edge store contents with a CSV edge list",
		Long: `Read a from,to,weight CSV edge list, validate every record, and replace the
contents of the badger edge store with it. Nothing is written when any record
is malformed. Query the store afterwards with --store or graph.use_store.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usageErrorf("import requires exactly one CSV path, received %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			ctx := cmd.Context()

			csvPath, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			records, err := source.LoadRecordsFile(ctx, csvPath)
			if err != nil {
				return err
			}
			if _, err := source.BuildFromRecords(records); err != nil {
				return err
			}

			store, db, err := opts.openStore(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			meta, err := store.Replace(ctx, csvPath, records)
			if err != nil {
				return fmt.Errorf("import into %s: %w", db.Path(), err)
			}
			slog.Info("edge store replaced",
				"store", db.Path(),
				"source", meta.Source,
				"records", meta.Records)

			result := ImportResult{
				Store:      db.Path(),
				Source:     meta.Source,
				Records:    meta.Records,
				ImportedAt: meta.ImportedAt,
			}
			if opts.jsonOutput {
				return OutputResult(cmd.OutOrStdout(), "import", start, result)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d edges from %s into %s\n",
				result.Records, result.Source, result.Store)
			return nil
		},
	}
}
