// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import "github.com/charmbracelet/lipgloss"

// Theme defines the color palette for the dashboard. All colors use
// ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	// Text colors.
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	// Selected row in the room list.
	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Timeline chrome.
	SenderForeground   lipgloss.Color
	TimeForeground     lipgloss.Color
	ReactionBackground lipgloss.Color
	PlaceholderText    lipgloss.Color // redacted / non-message items
	ErrorText          lipgloss.Color
	AccentText         lipgloss.Color // event IDs, origins in detail views

	// UI chrome.
	BorderColor      lipgloss.Color
	HeaderForeground lipgloss.Color
	HelpText         lipgloss.Color

	// Sync service states in the status bar.
	StateIdle       lipgloss.Color
	StateRunning    lipgloss.Color
	StateOffline    lipgloss.Color
	StateError      lipgloss.Color
	StateTerminated lipgloss.Color

	// Insert mode indicator.
	InsertIndicator lipgloss.Color

	// Log levels in the logger view.
	LogError lipgloss.Color
	LogWarn  lipgloss.Color
	LogInfo  lipgloss.Color
	LogDebug lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	SenderForeground:   lipgloss.Color("220"), // yellow
	TimeForeground:     lipgloss.Color("240"),
	ReactionBackground: lipgloss.Color("60"), // slate
	PlaceholderText:    lipgloss.Color("247"),
	ErrorText:          lipgloss.Color("196"),
	AccentText:         lipgloss.Color("114"), // green

	BorderColor:      lipgloss.Color("240"),
	HeaderForeground: lipgloss.Color("255"),
	HelpText:         lipgloss.Color("241"),

	StateIdle:       lipgloss.Color("245"),
	StateRunning:    lipgloss.Color("114"), // green
	StateOffline:    lipgloss.Color("75"),  // blue
	StateError:      lipgloss.Color("196"), // red
	StateTerminated: lipgloss.Color("220"), // yellow

	InsertIndicator: lipgloss.Color("114"),

	LogError: lipgloss.Color("196"),
	LogWarn:  lipgloss.Color("220"),
	LogInfo:  lipgloss.Color("141"), // magenta
	LogDebug: lipgloss.Color("75"),  // blue
}

// StateColor returns the status bar color for a sync service state
// name (the State.String() values).
func (theme Theme) StateColor(state string) lipgloss.Color {
	switch state {
	case "running":
		return theme.StateRunning
	case "offline":
		return theme.StateOffline
	case "error":
		return theme.StateError
	case "terminated":
		return theme.StateTerminated
	default:
		return theme.StateIdle
	}
}
