// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultHasUsablePaths(t *testing.T) {
	cfg := Default()

	if cfg.Paths.Root == "" {
		t.Error("default root must not be empty")
	}
	if cfg.Paths.SessionFile == "" || cfg.Paths.EventCache == "" || cfg.Paths.LogFile == "" {
		t.Error("default file paths must not be empty")
	}
	if cfg.Sync.PollTimeoutMS != 30000 {
		t.Errorf("default poll timeout = %d, want 30000", cfg.Sync.PollTimeoutMS)
	}
	if cfg.Sync.TimelineLimit != 20 {
		t.Errorf("default timeline limit = %d, want 20", cfg.Sync.TimelineLimit)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multiverse.yaml")
	content := `
homeserver: https://matrix.example.org
user_id: "@alice:example.org"
paths:
  root: /tmp/multiverse-test
sync:
  poll_timeout_ms: 5000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Homeserver != "https://matrix.example.org" {
		t.Errorf("homeserver = %q", cfg.Homeserver)
	}
	if cfg.UserID != "@alice:example.org" {
		t.Errorf("user_id = %q", cfg.UserID)
	}
	if cfg.Paths.Root != "/tmp/multiverse-test" {
		t.Errorf("root = %q", cfg.Paths.Root)
	}
	if cfg.Sync.PollTimeoutMS != 5000 {
		t.Errorf("poll_timeout_ms = %d", cfg.Sync.PollTimeoutMS)
	}
	// Unset fields keep their defaults.
	if cfg.Sync.TimelineLimit != 20 {
		t.Errorf("timeline_limit = %d, want default 20", cfg.Sync.TimelineLimit)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/multiverse.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadWithoutEnvVar(t *testing.T) {
	t.Setenv("MULTIVERSE_CONFIG", "")
	if _, err := Load(); err == nil {
		t.Error("expected error when MULTIVERSE_CONFIG is unset")
	}
}

func TestVariableExpansion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multiverse.yaml")
	content := `
homeserver: https://matrix.example.org
paths:
  root: /data/multiverse
  event_cache: ${MULTIVERSE_ROOT}/cache/events.db
  log_file: ${UNSET_TEST_VAR:-/tmp/fallback.log}
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Paths.EventCache != "/data/multiverse/cache/events.db" {
		t.Errorf("event_cache = %q", cfg.Paths.EventCache)
	}
	if cfg.Paths.LogFile != "/tmp/fallback.log" {
		t.Errorf("log_file = %q", cfg.Paths.LogFile)
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Homeserver = "https://matrix.example.org"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg.Homeserver = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "homeserver") {
		t.Errorf("expected homeserver error, got %v", err)
	}

	cfg.Homeserver = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for relative homeserver URL")
	}

	cfg.Homeserver = "https://matrix.example.org"
	cfg.Sync.TimelineLimit = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero timeline limit")
	}
}

func TestEnsurePaths(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nested", "multiverse")
	cfg := Default()
	cfg.Paths.Root = root
	cfg.Paths.SessionFile = filepath.Join(root, "session.json")
	cfg.Paths.EventCache = filepath.Join(root, "events.db")
	cfg.Paths.LogFile = filepath.Join(root, "multiverse.log")

	if err := cfg.EnsurePaths(); err != nil {
		t.Fatalf("EnsurePaths: %v", err)
	}
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		t.Errorf("root was not created: %v", err)
	}
}
