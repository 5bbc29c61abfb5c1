// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLogRingWrapsAtCapacity(t *testing.T) {
	ring := NewLogRing()
	for i := 0; i < logRingCapacity+10; i++ {
		ring.append(LogRecord{Message: fmt.Sprintf("m%d", i)})
	}

	records := ring.Snapshot()
	if len(records) != logRingCapacity {
		t.Fatalf("snapshot holds %d records, want %d", len(records), logRingCapacity)
	}
	if records[0].Message != "m10" {
		t.Errorf("oldest surviving record is %q, want m10", records[0].Message)
	}
	if last := records[len(records)-1].Message; last != fmt.Sprintf("m%d", logRingCapacity+9) {
		t.Errorf("newest record is %q", last)
	}
}

func TestLogRingTargetsFirstSeenOrder(t *testing.T) {
	ring := NewLogRing()
	for _, target := range []string{"syncer", "ui", "syncer", "eventcache"} {
		ring.append(LogRecord{Target: target})
	}
	targets := ring.Targets()
	want := []string{"syncer", "ui", "eventcache"}
	if len(targets) != len(want) {
		t.Fatalf("targets = %v, want %v", targets, want)
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Fatalf("targets = %v, want %v", targets, want)
		}
	}
}

func TestRingHandlerCapturesRecords(t *testing.T) {
	ring := NewLogRing()
	logger := slog.New(NewRingHandler(ring, slog.LevelInfo))

	logger.Debug("filtered out")
	logger.Info("sync failed", "component", "syncer", "attempt", 3)

	records := ring.Snapshot()
	if len(records) != 1 {
		t.Fatalf("captured %d records, want 1", len(records))
	}
	record := records[0]
	if record.Message != "sync failed" {
		t.Errorf("message = %q", record.Message)
	}
	if record.Target != "syncer" {
		t.Errorf("target = %q, want syncer (from component attr)", record.Target)
	}
	if record.Attrs != "attempt=3" {
		t.Errorf("attrs = %q, want attempt=3", record.Attrs)
	}
}

func TestRingHandlerWithAttrsAndGroup(t *testing.T) {
	ring := NewLogRing()
	handler := NewRingHandler(ring, slog.LevelDebug).
		WithAttrs([]slog.Attr{slog.String("room", "!a:x")}).
		WithGroup("sync")
	logger := slog.New(handler)

	logger.Info("batch applied", "events", 4)

	records := ring.Snapshot()
	if len(records) != 1 {
		t.Fatalf("captured %d records, want 1", len(records))
	}
	attrs := records[0].Attrs
	if attrs != "room=!a:x sync.events=4" {
		t.Errorf("attrs = %q", attrs)
	}
}

func TestLoggerModelFilters(t *testing.T) {
	ring := NewLogRing()
	ring.append(LogRecord{Time: time.Now(), Level: slog.LevelDebug, Target: "ui", Message: "d"})
	ring.append(LogRecord{Time: time.Now(), Level: slog.LevelWarn, Target: "syncer", Message: "w"})
	ring.append(LogRecord{Time: time.Now(), Level: slog.LevelError, Target: "ui", Message: "e"})

	model := newLoggerModel(ring, DefaultTheme)
	if got := len(model.visibleRecords()); got != 3 {
		t.Fatalf("default filter shows %d records, want 3", got)
	}

	model.update(loggerLevelUp) // debug -> info
	model.update(loggerLevelUp) // info -> warn
	if got := len(model.visibleRecords()); got != 2 {
		t.Fatalf("warn filter shows %d records, want 2", got)
	}

	model.hiddenTargets["ui"] = true
	if got := len(model.visibleRecords()); got != 1 {
		t.Fatalf("target filter shows %d records, want 1", got)
	}
	if model.visibleRecords()[0].Message != "w" {
		t.Errorf("surviving record = %q, want w", model.visibleRecords()[0].Message)
	}
}

func TestLoggerViewOpensAtNewestRecord(t *testing.T) {
	model := newTestModel(t)
	logger := slog.New(NewRingHandler(model.logs, slog.LevelDebug))
	for i := 1; i <= 30; i++ {
		logger.Info(fmt.Sprintf("record %02d", i))
	}
	model.setMode(ModeLogger)

	if model.loggerView.scroll.offset != 0 {
		t.Fatalf("scroll offset = %d on opening the logger, want 0 (the newest records)", model.loggerView.scroll.offset)
	}
	view := model.renderLoggerView(80, 10)
	if !strings.Contains(view, "record 30") {
		t.Error("newest record is not visible on opening the logger")
	}
	if strings.Contains(view, "record 01") {
		t.Error("oldest record visible in a window anchored at the newest end")
	}

	// Scrolling up far enough clamps at the oldest records.
	for i := 0; i < 30; i++ {
		model.loggerView.update(loggerScrollUp)
	}
	view = model.renderLoggerView(80, 10)
	if !strings.Contains(view, "record 01") {
		t.Error("oldest record not reached after scrolling up")
	}
	if strings.Contains(view, "record 30") {
		t.Error("newest record still visible at the top of the history")
	}
}

func TestRingHandlerEnabledThreshold(t *testing.T) {
	handler := NewRingHandler(NewLogRing(), slog.LevelWarn)
	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info must be disabled at warn threshold")
	}
	if !handler.Enabled(context.Background(), slog.LevelError) {
		t.Error("error must be enabled at warn threshold")
	}
}
