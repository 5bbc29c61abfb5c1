// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventcache

import (
	"fmt"

	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/messaging"
)

// ChunkKind distinguishes the two chunk variants in a room's chain.
// The values are stored in the database — changing them invalidates
// existing caches.
type ChunkKind uint8

const (
	// KindItems is a chunk holding a batch of timeline events in
	// arrival order.
	KindItems ChunkKind = 0

	// KindGap is a placeholder chunk holding a pagination token for
	// history that has not been fetched yet.
	KindGap ChunkKind = 1
)

// String returns the human-readable name of a chunk kind.
func (kind ChunkKind) String() string {
	switch kind {
	case KindItems:
		return "items"
	case KindGap:
		return "gap"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(kind))
	}
}

// Chunk is one link in a room's history chain. PrevChunkID is zero for
// the head of the chain (chunk IDs start at 1). Events is populated for
// items chunks; GapToken for gap chunks.
type Chunk struct {
	RoomID      ref.RoomID
	ChunkID     int64
	Kind        ChunkKind
	PrevChunkID int64
	GapToken    string
	Events      []messaging.Event
}

// Contains reports whether an items chunk holds the given event.
func (chunk *Chunk) Contains(eventID ref.EventID) bool {
	if chunk.Kind != KindItems || eventID.IsZero() {
		return false
	}
	for i := range chunk.Events {
		if chunk.Events[i].EventID == eventID {
			return true
		}
	}
	return false
}
