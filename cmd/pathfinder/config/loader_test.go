// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCreateDefault(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "pathfinder-config-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	configPath := filepath.Join(tmpDir, "nested", "pathfinder.yaml")
	if err := createDefault(configPath); err != nil {
		t.Fatalf("createDefault failed: %v", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config: %v", err)
	}
	content := string(data)
	for _, want := range []string{"default_max_hops: 6", "query_timeout: 30s", "level: info"} {
		if !strings.Contains(content, want) {
			t.Errorf("default config missing %q:\n%s", want, content)
		}
	}
}

func TestLoadFrom_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathfinder.yaml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to be created: %v", err)
	}
	if cfg.Graph.DefaultMaxHops != 6 {
		t.Errorf("DefaultMaxHops = %d, want 6", cfg.Graph.DefaultMaxHops)
	}
	if cfg.Server.SessionTTL != 15*time.Minute {
		t.Errorf("SessionTTL = %v, want 15m", cfg.Server.SessionTTL)
	}
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pathfinder.yaml")
	yamlDoc := "graph:\n  data_path: /data/edges.csv\n  default_max_hops: 3\n  max_paths: 100\n  query_timeout: 5s\n"
	if err := os.WriteFile(path, []byte(yamlDoc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Graph.DataPath != "/data/edges.csv" {
		t.Errorf("DataPath = %q", cfg.Graph.DataPath)
	}
	if cfg.Graph.DefaultMaxHops != 3 {
		t.Errorf("DefaultMaxHops = %d, want 3", cfg.Graph.DefaultMaxHops)
	}
	if cfg.Graph.QueryTimeout != 5*time.Second {
		t.Errorf("QueryTimeout = %v, want 5s", cfg.Graph.QueryTimeout)
	}
	if cfg.Server.Port != 8085 {
		t.Errorf("Port = %d, want default 8085", cfg.Server.Port)
	}
}

func TestLoadFrom_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"zero hops", "graph:\n  default_max_hops: 0\n"},
		{"bad level", "logging:\n  level: loud\n"},
		{"bad exporter", "telemetry:\n  trace_exporter: zipkin\n"},
		{"port out of range", "server:\n  port: 70000\n"},
		{"malformed yaml", "graph: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "pathfinder.yaml")
			if err := os.WriteFile(path, []byte(tt.doc), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFrom(path); err == nil {
				t.Errorf("expected an error for %s", tt.name)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDataPath, "/tmp/graph.csv")
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvPort, "9000")

	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Graph.DataPath != "/tmp/graph.csv" {
		t.Errorf("DataPath = %q", cfg.Graph.DataPath)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Server.Port)
	}

	t.Setenv(EnvPort, "not-a-port")
	if err := cfg.ApplyEnv(); err == nil {
		t.Error("expected an error for a non-numeric port")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandPath("~/.pathfinder/store"); got != filepath.Join(home, ".pathfinder/store") {
		t.Errorf("ExpandPath = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath changed an absolute path: %q", got)
	}
}
