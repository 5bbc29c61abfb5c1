// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// multiverse is an interactive terminal client for Matrix rooms with a
// persistent event cache and a chunk-level cache inspector. It logs in
// (or restores a saved session), opens the SQLite event cache, and
// runs the modal TUI; the sync loop is started from the Space command
// palette.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/multiverse/eventcache"
	"github.com/bureau-foundation/multiverse/lib/config"
	"github.com/bureau-foundation/multiverse/lib/version"
	"github.com/bureau-foundation/multiverse/messaging"
	"github.com/bureau-foundation/multiverse/syncer"
	"github.com/bureau-foundation/multiverse/ui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		homeserver   string
		userFlag     string
		stateDir     string
		configPath   string
		logOutput    string
		passwordFile string
	)

	flagSet := pflag.NewFlagSet("multiverse", pflag.ContinueOnError)
	flagSet.StringVar(&homeserver, "homeserver", "", "Matrix homeserver base URL")
	flagSet.StringVar(&userFlag, "user", "", "Matrix user ID to log in as")
	flagSet.StringVar(&stateDir, "state-dir", "", "directory for session, event cache, and logs")
	flagSet.StringVar(&configPath, "config", "", "path to multiverse.yaml (default: $MULTIVERSE_CONFIG)")
	flagSet.StringVar(&logOutput, "log-output", "", "write JSON log records to this file (default: the state dir log file)")
	flagSet.StringVar(&passwordFile, "password-file", "", "log in with the password from this file (\"-\" for stdin) instead of prompting")
	flagSet.BoolP("help", "h", false, "show help")

	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Println("multiverse", version.Info())
		return nil
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if homeserver != "" {
		cfg.Homeserver = homeserver
	}
	if userFlag != "" {
		cfg.UserID = userFlag
	}
	if stateDir != "" {
		cfg.Paths = config.PathsUnder(stateDir)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.EnsurePaths(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The terminal belongs to the TUI renderer once the program
	// starts, so log records go to the in-app ring (Logger mode) and
	// a JSON file, never to stderr.
	logs := ui.NewLogRing()
	logPath := logOutput
	if logPath == "" {
		logPath = cfg.Paths.LogFile
	}
	fileHandler, closeLog, err := openFileLogHandler(logPath)
	if err != nil {
		return fmt.Errorf("cannot open log file %s: %w", logPath, err)
	}
	defer closeLog()
	logger := slog.New(fanoutHandler{
		ui.NewRingHandler(logs, slog.LevelDebug),
		fileHandler,
	})

	client, err := messaging.NewClient(messaging.ClientConfig{
		HomeserverURL: cfg.Homeserver,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	session, err := establishSession(ctx, client, cfg, passwordFile)
	if err != nil {
		return err
	}
	defer session.Close()

	cache, err := eventcache.OpenStore(eventcache.StoreConfig{
		Path:   cfg.Paths.EventCache,
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer cache.Close()

	service, err := syncer.New(syncer.Config{
		Session:       session,
		Cache:         cache,
		Logger:        logger,
		PollTimeoutMS: cfg.Sync.PollTimeoutMS,
		TimelineLimit: cfg.Sync.TimelineLimit,
	})
	if err != nil {
		return err
	}
	defer service.Stop()

	model := ui.NewModel(ctx, ui.Config{
		Service: service,
		Logs:    logs,
		Logger:  logger,
	})
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// loadConfig resolves the config file: the --config flag first, then
// the MULTIVERSE_CONFIG environment variable, then defaults (multiverse
// runs fine with no config file at all).
func loadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	if os.Getenv("MULTIVERSE_CONFIG") != "" {
		return config.Load()
	}
	return config.Default(), nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `multiverse — interactive terminal client for Matrix rooms.

On first run, prompts for a username and password and saves the session
under the state directory. The event cache persists room history across
runs; the Room mode's linked-chunk view inspects it.

Usage:
  multiverse [flags]

Examples:
  # Connect to a homeserver
  multiverse --homeserver https://matrix.example.org

  # Use a config file
  multiverse --config ~/.config/multiverse.yaml

  # Keep all state in a scratch directory
  multiverse --homeserver https://matrix.example.org --state-dir /tmp/mv

Flags:
`)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
