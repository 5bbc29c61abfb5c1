// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the Matrix client-server API for multiverse's
// sync and messaging needs.
//
// The package provides two core types. [Client] is an unauthenticated
// Matrix client that handles password login, returning authenticated
// sessions. Client holds the homeserver URL and HTTP transport, shared
// across all sessions derived from it.
//
// [DirectSession] wraps a Client with an access token for authenticated
// operations: incremental sync with long-polling, paginated room
// message fetching, sending message and reaction events, redactions,
// and read receipts. [Session] is the interface the sync service
// consumes, so tests can substitute a fake homeserver session.
//
// Sessions are lightweight (a pointer to the parent Client plus an
// access token in mmap-backed secret.Buffer memory). The access token
// is locked against swap and excluded from core dumps; callers must
// call Close to release the protected memory.
//
// All API errors are returned as [*MatrixError] with the standard
// Matrix error code (M_FORBIDDEN, M_UNKNOWN_TOKEN, etc.) and HTTP
// status code. [IsMatrixError] tests for a specific error code.
// Request URLs are built by string concatenation rather than url.URL
// to avoid double-encoding of path segments that contain URL-encoded
// characters.
package messaging
