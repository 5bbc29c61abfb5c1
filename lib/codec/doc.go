// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides multiverse's standard CBOR encoding
// configuration.
//
// Two serialization formats are in play with a clear boundary:
//
//   - JSON for the external interface: the Matrix Client-Server API.
//   - CBOR for internal storage: event payloads persisted in the
//     SQLite event cache.
//
// This package provides the shared CBOR encoding and decoding modes so
// that every package encodes identically without duplicating
// configuration. The encoder uses Core Deterministic Encoding (RFC
// 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical data always produces identical
// bytes, which makes the content checksums stored alongside cached
// payloads meaningful.
package codec
