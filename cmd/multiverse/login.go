// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/bureau-foundation/multiverse/lib/config"
	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/lib/secret"
	"github.com/bureau-foundation/multiverse/messaging"
)

// establishSession restores the saved session when one exists and its
// token still validates, and falls back to a login otherwise: from the
// password file when one was given, interactive prompting if not. This
// runs before the TUI starts, so prompting on stdin/stdout is fine
// here.
func establishSession(ctx context.Context, client *messaging.Client, cfg *config.Config, passwordFile string) (*messaging.DirectSession, error) {
	if session, err := restoreSession(ctx, client, cfg.Paths.SessionFile); err == nil {
		return session, nil
	}

	var session *messaging.DirectSession
	var err error
	if passwordFile != "" {
		session, err = fileLogin(ctx, client, cfg.UserID, passwordFile)
	} else {
		session, err = interactiveLogin(ctx, client, cfg.UserID)
	}
	if err != nil {
		return nil, err
	}

	stored := &storedSession{
		UserID:      session.UserID().String(),
		DeviceID:    session.DeviceID(),
		AccessToken: session.AccessToken(),
	}
	if err := saveStoredSession(cfg.Paths.SessionFile, stored); err != nil {
		session.Close()
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return session, nil
}

func restoreSession(ctx context.Context, client *messaging.Client, path string) (*messaging.DirectSession, error) {
	stored, err := loadStoredSession(path)
	if err != nil {
		return nil, err
	}
	userID, err := ref.ParseUserID(stored.UserID)
	if err != nil {
		return nil, err
	}
	session, err := client.SessionFromToken(userID, stored.DeviceID, stored.AccessToken)
	if err != nil {
		return nil, err
	}
	if _, err := session.WhoAmI(ctx); err != nil {
		session.Close()
		return nil, fmt.Errorf("stored token rejected: %w", err)
	}
	return session, nil
}

// fileLogin authenticates with a password read from a file (or stdin
// when the path is "-"), for scripted runs where no terminal prompt is
// possible. The user ID must come from the config or the --user flag.
func fileLogin(ctx context.Context, client *messaging.Client, userID, path string) (*messaging.DirectSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("--password-file needs a user: set --user or the config user_id")
	}
	password, err := secret.ReadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("reading password file: %w", err)
	}
	defer password.Close()

	session, err := client.Login(ctx, userID, password)
	if err != nil {
		return nil, fmt.Errorf("logging in as %s: %w", userID, err)
	}
	return session, nil
}

// interactiveLogin prompts for a username and password until the
// homeserver accepts them. The password never touches a plain string
// that outlives the attempt.
func interactiveLogin(ctx context.Context, client *messaging.Client, defaultUser string) (*messaging.DirectSession, error) {
	fmt.Println("Logging in with username and password…")
	stdin := bufio.NewReader(os.Stdin)

	for {
		prompt := "\nUsername: "
		if defaultUser != "" {
			prompt = fmt.Sprintf("\nUsername [%s]: ", defaultUser)
		}
		fmt.Print(prompt)
		line, err := stdin.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("reading username: %w", err)
		}
		username := strings.TrimSpace(line)
		if username == "" {
			username = defaultUser
		}
		if username == "" {
			continue
		}

		fmt.Print("Password: ")
		passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return nil, fmt.Errorf("reading password: %w", err)
		}

		password, err := secret.NewFromBytes(passwordBytes)
		secret.Zero(passwordBytes)
		if err != nil {
			return nil, err
		}

		session, err := client.Login(ctx, username, password)
		password.Close()
		if err != nil {
			fmt.Printf("Error logging in: %v\nPlease try again\n", err)
			continue
		}

		fmt.Printf("Logged in as %s\n", session.UserID())
		return session, nil
	}
}
