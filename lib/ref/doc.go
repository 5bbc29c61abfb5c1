// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable Matrix identifier
// references: room IDs, room aliases, event IDs, and user IDs.
//
// Identifiers arrive from the homeserver as raw strings in JSON
// responses and are parsed into these types at the boundary. All
// constructors validate the structural format (sigil prefix, server
// name where the identifier carries one) and return errors for
// invalid input. Once constructed, a ref is immutable.
//
// JSON marshaling uses the canonical Matrix string form via
// encoding.TextMarshaler.
package ref
