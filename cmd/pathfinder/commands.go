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
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/pathfinder/cmd/pathfinder/config"
	"github.com/AleutianAI/pathfinder/pkg/logging"
)

// cliOptions holds global flag values and state shared by subcommands.
type cliOptions struct {
	configPath string
	dataPath   string
	corpusRoot string
	storePath  string
	jsonOutput bool
	logLevel   string

	cfg    config.PathfinderConfig
	logger *logging.Logger

	// interactive reports whether prompts and the pager may be used.
	interactive func() bool
}

func newRootCmd(opts *cliOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pathfinder",
		Short: "Find and enumerate paths between linked notes or graph vertices",
		Long: `pathfinder answers two questions about a weighted directed graph built from
a CSV edge list, a persisted edge store, or a folder of linked markdown notes:
the single shortest path between two vertices, and every simple path within a
hop bound, cheapest first.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default ~/.pathfinder/pathfinder.yaml)")
	flags.StringVar(&opts.dataPath, "data", "", "CSV edge list (from,to,weight) to read the graph from")
	flags.StringVar(&opts.corpusRoot, "corpus", "", "Directory of markdown notes to build the graph from")
	flags.StringVar(&opts.storePath, "store", "", "Badger edge store directory")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, or error")

	rootCmd.AddCommand(
		newShortestCmd(opts),
		newPathsCmd(opts),
		newLinksCmd(opts),
		newStatsCmd(opts),
		newImportCmd(opts),
		newServeCmd(opts),
	)
	return rootCmd
}

// setup loads the config and installs the logger.
func (o *cliOptions) setup(cmd *cobra.Command) error {
	var err error
	if o.configPath != "" {
		o.cfg, err = config.LoadFrom(o.configPath)
	} else {
		err = config.Load("")
		o.cfg = config.Global
	}
	if err != nil {
		return err
	}

	levelName := o.cfg.Logging.Level
	if o.logLevel != "" {
		levelName = o.logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return &UsageError{Err: err}
	}

	o.logger = logging.New(logging.Config{
		Level:   level,
		LogDir:  o.cfg.Logging.Dir,
		Service: "pathfinder",
		JSON:    o.cfg.Logging.JSON,
		Output:  cmd.ErrOrStderr(),
	})
	o.logger.Install()
	o.logger.Debug("configuration loaded",
		"command", cmd.Name(),
		"source", o.graphSource().String())
	return nil
}

// execute runs the CLI and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	opts := &cliOptions{interactive: isInteractive}
	rootCmd := newRootCmd(opts)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if opts.logger != nil {
		defer opts.logger.Close()
	}
	if err == nil {
		return ExitSuccess
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		err = &UsageError{Err: err}
	}

	name := ""
	if cmd != nil && cmd != rootCmd {
		name = cmd.Name()
	}
	if opts.jsonOutput {
		OutputError(stdout, true, name, err)
	} else {
		OutputError(stderr, false, name, err)
		var usage *UsageError
		if errors.As(err, &usage) && cmd != nil {
			fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", cmd.CommandPath())
		}
	}
	return ExitCode(err)
}
