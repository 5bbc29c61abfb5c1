// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for multiverse.
type Config struct {
	// Homeserver is the base URL of the Matrix homeserver, e.g.
	// "https://matrix.example.org". Required unless passed via flag.
	Homeserver string `yaml:"homeserver"`

	// UserID is the Matrix user ID to log in as. Optional; the login
	// prompt asks when unset.
	UserID string `yaml:"user_id"`

	// Paths configures file locations.
	Paths PathsConfig `yaml:"paths"`

	// Sync configures the long-polling sync loop.
	Sync SyncConfig `yaml:"sync"`
}

// PathsConfig configures file locations.
type PathsConfig struct {
	// Root is the base directory for multiverse data.
	// Default: ~/.cache/multiverse
	Root string `yaml:"root"`

	// SessionFile stores the access token and device ID between runs.
	// Default: ${MULTIVERSE_ROOT}/session.json
	SessionFile string `yaml:"session_file"`

	// EventCache is the SQLite database holding cached room timelines.
	// Default: ${MULTIVERSE_ROOT}/events.db
	EventCache string `yaml:"event_cache"`

	// LogFile receives structured JSON logs. Default:
	// ${MULTIVERSE_ROOT}/multiverse.log
	LogFile string `yaml:"log_file"`
}

// SyncConfig configures the long-polling sync loop.
type SyncConfig struct {
	// PollTimeoutMS is the server-side long-poll timeout in
	// milliseconds. Default: 30000.
	PollTimeoutMS int `yaml:"poll_timeout_ms"`

	// TimelineLimit is the per-room event limit requested from /sync
	// and /messages. Default: 20.
	TimelineLimit int `yaml:"timeline_limit"`
}

// Default returns the default configuration. These defaults are a base
// merged under the config file when one is given; unlike most Bureau
// services, multiverse runs fine without a config file at all.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Paths: PathsUnder(filepath.Join(homeDir, ".cache", "multiverse")),
		Sync: SyncConfig{
			PollTimeoutMS: 30000,
			TimelineLimit: 20,
		},
	}
}

// PathsUnder returns the standard file layout rooted at the given
// directory. The --state-dir flag uses this to relocate all state in
// one move.
func PathsUnder(root string) PathsConfig {
	return PathsConfig{
		Root:        root,
		SessionFile: filepath.Join(root, "session.json"),
		EventCache:  filepath.Join(root, "events.db"),
		LogFile:     filepath.Join(root, "multiverse.log"),
	}
}

// Load loads configuration from the MULTIVERSE_CONFIG environment
// variable. Fails if the variable is not set — use [Default] combined
// with flags when no config file is in play.
func Load() (*Config, error) {
	configPath := os.Getenv("MULTIVERSE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("MULTIVERSE_CONFIG environment variable not set; " +
			"set it to the path of your multiverse.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables
// do not override config values. The only expansion performed is
// ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"MULTIVERSE_ROOT": c.Paths.Root,
		"HOME":            os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["MULTIVERSE_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.SessionFile = expandVars(c.Paths.SessionFile, vars)
	c.Paths.EventCache = expandVars(c.Paths.EventCache, vars)
	c.Paths.LogFile = expandVars(c.Paths.LogFile, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Homeserver == "" {
		errs = append(errs, fmt.Errorf("homeserver is required"))
	} else if parsed, err := url.Parse(c.Homeserver); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		errs = append(errs, fmt.Errorf("homeserver must be an absolute URL, got %q", c.Homeserver))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}
	if c.Sync.PollTimeoutMS < 0 {
		errs = append(errs, fmt.Errorf("sync.poll_timeout_ms must not be negative"))
	}
	if c.Sync.TimelineLimit <= 0 {
		errs = append(errs, fmt.Errorf("sync.timeline_limit must be positive"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		filepath.Dir(c.Paths.SessionFile),
		filepath.Dir(c.Paths.EventCache),
		filepath.Dir(c.Paths.LogFile),
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
