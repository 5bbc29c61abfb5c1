// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// storedSession is the persisted login state. The access token is
// written to disk so restarts skip the password prompt; the file is
// created 0600 and lives under the state directory.
type storedSession struct {
	UserID      string `json:"user_id"`
	DeviceID    string `json:"device_id"`
	AccessToken string `json:"access_token"`
}

func loadStoredSession(path string) (*storedSession, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var session storedSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if session.UserID == "" || session.AccessToken == "" {
		return nil, fmt.Errorf("%s: incomplete session", path)
	}
	return &session, nil
}

func saveStoredSession(path string, session *storedSession) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
