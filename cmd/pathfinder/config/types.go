// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config holds the pathfinder configuration file.
package config

import (
	"time"
)

// CurrentConfigVersion is the schema version written to new config files.
const CurrentConfigVersion = "1"

// PathfinderConfig is the contents of ~/.pathfinder/pathfinder.yaml.
type PathfinderConfig struct {
	Meta      MetaConfig      `yaml:"meta"`
	Graph     GraphConfig     `yaml:"graph"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type MetaConfig struct {
	Version string `yaml:"version"`
}

// GraphConfig selects the graph source and query bounds.
//
// When DataPath is set the graph is read from that CSV file. Otherwise
// it is built from the markdown corpus under CorpusRoot. UseStore reads
// the edge store at StorePath instead of either.
type GraphConfig struct {
	DataPath         string        `yaml:"data_path"`
	CorpusRoot       string        `yaml:"corpus_root"`
	StorePath        string        `yaml:"store_path"`
	UseStore         bool          `yaml:"use_store"`
	DefaultMaxHops   int           `yaml:"default_max_hops" validate:"gte=1,lte=64"`
	MaxPaths         int           `yaml:"max_paths" validate:"gte=1,lte=10000"`
	QueryTimeout     time.Duration `yaml:"query_timeout" validate:"gte=0"`
	IgnorePatterns   []string      `yaml:"ignore_patterns,omitempty"`
	RespectGitignore bool          `yaml:"respect_gitignore"`
}

type ServerConfig struct {
	Port        int           `yaml:"port" validate:"gte=1,lte=65535"`
	RateLimit   float64       `yaml:"rate_limit" validate:"gte=0"`
	Burst       int           `yaml:"burst" validate:"gte=1"`
	SessionTTL  time.Duration `yaml:"session_ttl" validate:"gt=0"`
	MaxSessions int           `yaml:"max_sessions" validate:"gte=1"`
	Watch       bool          `yaml:"watch"`
}

type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

type TelemetryConfig struct {
	TraceExporter  string `yaml:"trace_exporter" validate:"oneof=none stdout otlp"`
	MetricExporter string `yaml:"metric_exporter" validate:"oneof=none stdout prometheus"`
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() PathfinderConfig {
	return PathfinderConfig{
		Meta: MetaConfig{Version: CurrentConfigVersion},
		Graph: GraphConfig{
			CorpusRoot:       ".",
			StorePath:        "~/.pathfinder/store",
			DefaultMaxHops:   6,
			MaxPaths:         100,
			QueryTimeout:     30 * time.Second,
			RespectGitignore: true,
		},
		Server: ServerConfig{
			Port:        8085,
			RateLimit:   10,
			Burst:       20,
			SessionTTL:  15 * time.Minute,
			MaxSessions: 256,
			Watch:       true,
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "~/.pathfinder/logs",
		},
		Telemetry: TelemetryConfig{
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			OTLPEndpoint:   "localhost:4317",
		},
	}
}
