// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"log/slog"
)

// loggerModel is the sub-model behind the in-application log viewer.
// It reads from the shared LogRing on every render; the parent model
// arms a one-second tick while this mode is active so new records
// show up without user input.
type loggerModel struct {
	ring  *LogRing
	theme Theme

	scroll heightScroll

	// panelOpen shows the target selector next to the log pane.
	panelOpen bool

	// minLevel hides records below it.
	minLevel slog.Level

	targetCursor  int
	hiddenTargets map[string]bool
}

func newLoggerModel(ring *LogRing, theme Theme) *loggerModel {
	// The scroll starts at zero, the newest records; scrolling up
	// moves toward older ones.
	return &loggerModel{
		ring:          ring,
		theme:         theme,
		minLevel:      slog.LevelDebug,
		hiddenTargets: make(map[string]bool),
	}
}

func (logger *loggerModel) update(action loggerAction) {
	switch action {
	case loggerOpenPanel:
		logger.panelOpen = !logger.panelOpen
	case loggerScrollUp:
		logger.scroll.Up()
	case loggerScrollDown:
		logger.scroll.Down()
	case loggerToggleFilters:
		targets := logger.ring.Targets()
		if logger.panelOpen && logger.targetCursor < len(targets) {
			target := targets[logger.targetCursor]
			logger.hiddenTargets[target] = !logger.hiddenTargets[target]
		}
	case loggerFocusFilter:
		if targets := logger.ring.Targets(); len(targets) > 0 {
			logger.targetCursor = (logger.targetCursor + 1) % len(targets)
		}
	case loggerLevelUp:
		if logger.minLevel < slog.LevelError {
			logger.minLevel += 4
		}
	case loggerLevelDown:
		if logger.minLevel > slog.LevelDebug {
			logger.minLevel -= 4
		}
	}
}

// visibleRecords applies the level and target filters, oldest-first.
func (logger *loggerModel) visibleRecords() []LogRecord {
	var visible []LogRecord
	for _, record := range logger.ring.Snapshot() {
		if record.Level < logger.minLevel {
			continue
		}
		if logger.hiddenTargets[record.Target] {
			continue
		}
		visible = append(visible, record)
	}
	return visible
}
