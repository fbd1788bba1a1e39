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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	// Global is a singleton instance
	Global PathfinderConfig
	once   sync.Once

	validate = validator.New()
)

// Environment variables that override file values.
const (
	EnvDataPath   = "PATHFINDER_DATA_PATH"
	EnvCorpusRoot = "PATHFINDER_CORPUS_ROOT"
	EnvStorePath  = "PATHFINDER_STORE_PATH"
	EnvLogLevel   = "PATHFINDER_LOG_LEVEL"
	EnvPort       = "PATHFINDER_PORT"
)

// DefaultPath returns ~/.pathfinder/pathfinder.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	return filepath.Join(home, ".pathfinder", "pathfinder.yaml"), nil
}

// Load ensures the config is loaded into the Global variable.
// path overrides the default location when non-empty.
func Load(path string) error {
	var err error
	once.Do(func() {
		if path == "" {
			path, err = DefaultPath()
			if err != nil {
				return
			}
		}
		var cfg PathfinderConfig
		cfg, err = LoadFrom(path)
		if err == nil {
			Global = cfg
		}
	})
	return err
}

// LoadFrom reads, overrides from the environment, and validates the
// config at path. A missing file is created with defaults first.
func LoadFrom(path string) (PathfinderConfig, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "First run detected, creating the config at %s\n", path)
		if err := createDefault(path); err != nil {
			return PathfinderConfig{}, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return PathfinderConfig{}, fmt.Errorf("failed to read the config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return PathfinderConfig{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return PathfinderConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return PathfinderConfig{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from PATHFINDER_* environment variables.
func (c *PathfinderConfig) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvDataPath); ok {
		c.Graph.DataPath = v
	}
	if v, ok := os.LookupEnv(EnvCorpusRoot); ok {
		c.Graph.CorpusRoot = v
	}
	if v, ok := os.LookupEnv(EnvStorePath); ok {
		c.Graph.StorePath = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok {
		c.Logging.Level = strings.ToLower(v)
	}
	if v, ok := os.LookupEnv(EnvPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks field constraints.
func (c PathfinderConfig) Validate() error {
	return validate.Struct(c)
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
