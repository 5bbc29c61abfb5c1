// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package syncer runs the Matrix /sync long-poll loop and translates
// its responses into ordered diff streams the UI applies verbatim.
//
// A Service owns one Session and one event cache. Its sync loop writes
// every received timeline batch into the cache, folds events into
// per-room timeline items (reactions, redactions, read receipts, and
// local-echo confirmations update existing items in place), and pushes
// seqdiff batches to subscribers. Two stream shapes exist: the room
// list (one stream, recency-ordered summaries, optionally filtered per
// subscription) and timelines (one stream per subscribed room, reset
// from the cache snapshot, then live).
//
// Outbound operations (send, react, mark read, paginate, clear) are
// synchronous calls on the Service; their failures are logged and not
// retried, and their timeline effects arrive as diffs like everything
// else.
package syncer
