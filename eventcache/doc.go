// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package eventcache persists room timeline history as an append-only
// chain of chunks in SQLite.
//
// Each room's history is a singly linked chain of chunks, newest (tail)
// to oldest (head). An items chunk holds a batch of timeline events in
// arrival order; a gap chunk holds a pagination token marking history
// that has not been fetched yet. Live sync batches append new tail
// chunks; a limited sync appends a gap; pagination backfill fills a gap
// in place, optionally leaving a new gap before it when more history
// remains.
//
// Event payloads are stored as deterministic CBOR, zstd-compressed when
// large enough to benefit, with a keyed BLAKE3 checksum computed over
// the uncompressed bytes. A checksum mismatch on read makes the
// containing chunk load as missing: readers lose history older than the
// corruption but never crash on it.
//
// [Reconstruct] walks a room's chain from the tail back to an anchor
// event, producing the chunk-level view the timeline debug display
// renders.
package eventcache
