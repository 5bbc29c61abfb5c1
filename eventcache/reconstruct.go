// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventcache

import (
	"context"
	"log/slog"

	"github.com/bureau-foundation/multiverse/lib/ref"
)

// Loader is the read contract Reconstruct walks. *Store satisfies it;
// tests substitute fakes.
type Loader interface {
	// LoadLastChunk returns the tail chunk of a room's chain, or nil
	// when the room has no cached history.
	LoadLastChunk(ctx context.Context, roomID ref.RoomID) (*Chunk, error)

	// LoadPreviousChunk returns the chunk linked before the given
	// one, or nil when the given chunk is the head of the chain.
	LoadPreviousChunk(ctx context.Context, roomID ref.RoomID, chunkID int64) (*Chunk, error)
}

var _ Loader = (*Store)(nil)

// Reconstruct walks a room's chunk chain from the tail back towards the
// head and returns the chunks traversed, tail first. The walk stops
// immediately after the chunk containing the anchor event; if the
// anchor is absent the whole chain is returned. An empty anchor returns
// nil without touching the loader.
//
// A load failure mid-walk is not an error: the chain beyond the failure
// is treated as absent and whatever was collected is returned. The
// timeline debug view re-runs this on every structural change, so a
// transient failure self-heals on the next pass.
func Reconstruct(ctx context.Context, loader Loader, logger *slog.Logger, roomID ref.RoomID, anchor ref.EventID) []Chunk {
	if anchor.IsZero() {
		return nil
	}

	var chunks []Chunk

	chunk, err := loader.LoadLastChunk(ctx, roomID)
	if err != nil {
		logger.Debug("chunk walk stopped at tail", "room", roomID, "error", err)
		return nil
	}

	for chunk != nil {
		chunks = append(chunks, *chunk)
		if chunk.Contains(anchor) {
			break
		}

		previous, err := loader.LoadPreviousChunk(ctx, roomID, chunk.ChunkID)
		if err != nil {
			logger.Debug("chunk walk stopped mid-chain",
				"room", roomID,
				"chunk", chunk.ChunkID,
				"error", err,
			)
			break
		}
		chunk = previous
	}

	return chunks
}
