// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

const logRingCapacity = 1024

// LogRecord is one captured log line. Target groups records for the
// logger view's per-component filtering; it comes from a "component"
// attribute when present.
type LogRecord struct {
	Time    time.Time
	Level   slog.Level
	Target  string
	Message string
	Attrs   string
}

// LogRing is a fixed-capacity ring of recent log records shared
// between the slog handler (written from any goroutine) and the logger
// view (read from the update loop).
type LogRing struct {
	mu      sync.Mutex
	records []LogRecord
	next    int
	full    bool
}

func NewLogRing() *LogRing {
	return &LogRing{records: make([]LogRecord, logRingCapacity)}
}

func (ring *LogRing) append(record LogRecord) {
	ring.mu.Lock()
	defer ring.mu.Unlock()
	ring.records[ring.next] = record
	ring.next++
	if ring.next == len(ring.records) {
		ring.next = 0
		ring.full = true
	}
}

// Snapshot returns the buffered records oldest-first.
func (ring *LogRing) Snapshot() []LogRecord {
	ring.mu.Lock()
	defer ring.mu.Unlock()
	if !ring.full {
		return append([]LogRecord(nil), ring.records[:ring.next]...)
	}
	out := make([]LogRecord, 0, len(ring.records))
	out = append(out, ring.records[ring.next:]...)
	out = append(out, ring.records[:ring.next]...)
	return out
}

// Targets returns the distinct record targets in first-seen order.
func (ring *LogRing) Targets() []string {
	seen := make(map[string]bool)
	var targets []string
	for _, record := range ring.Snapshot() {
		if !seen[record.Target] {
			seen[record.Target] = true
			targets = append(targets, record.Target)
		}
	}
	return targets
}

// RingHandler is a slog.Handler that captures records into a LogRing.
// The terminal is owned by the renderer while the program runs, so
// logs land here (and optionally in a file) instead of stderr.
type RingHandler struct {
	ring   *LogRing
	level  slog.Level
	attrs  []slog.Attr
	groups []string
}

func NewRingHandler(ring *LogRing, level slog.Level) *RingHandler {
	return &RingHandler{ring: ring, level: level}
}

func (handler *RingHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= handler.level
}

func (handler *RingHandler) Handle(_ context.Context, record slog.Record) error {
	target := "multiverse"
	var parts []string
	appendAttr := func(attr slog.Attr) {
		if attr.Key == "component" {
			target = attr.Value.String()
			return
		}
		key := attr.Key
		if len(handler.groups) > 0 {
			key = strings.Join(handler.groups, ".") + "." + key
		}
		parts = append(parts, fmt.Sprintf("%s=%v", key, attr.Value.Any()))
	}
	for _, attr := range handler.attrs {
		appendAttr(attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		appendAttr(attr)
		return true
	})

	handler.ring.append(LogRecord{
		Time:    record.Time,
		Level:   record.Level,
		Target:  target,
		Message: record.Message,
		Attrs:   strings.Join(parts, " "),
	})
	return nil
}

func (handler *RingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *handler
	clone.attrs = append(append([]slog.Attr(nil), handler.attrs...), attrs...)
	return &clone
}

func (handler *RingHandler) WithGroup(name string) slog.Handler {
	clone := *handler
	clone.groups = append(append([]string(nil), handler.groups...), name)
	return &clone
}
