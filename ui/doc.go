// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ui implements the interactive terminal dashboard: a
// bubbletea program multiplexing sync-service diff streams, log
// records, and terminal input into a single-threaded update loop.
//
// The program has one top-level Model with exactly one active mode
// (room list, room, insert, space palette, logger, or none). Modes own
// their sub-models; activating a mode drops the previous sub-model and
// cancels any background subscription it held. Input keys translate to
// typed messages through mode-scoped key tables, and messages dispatch
// through a trampoline so a chain of follow-ups (select a room, open
// it, reset the mode) costs a single redraw.
//
// Diff batches from the sync service arrive through a bounded event
// queue. Batch-carrying events block the producer rather than drop,
// because a lost diff would desynchronize the rendered state from the
// service permanently. Redraw and status signals are droppable.
package ui
