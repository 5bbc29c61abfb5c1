// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"

	"github.com/bureau-foundation/multiverse/lib/ref"
)

// Session is the interface for the Matrix operations the sync service
// performs. *DirectSession is the production implementation; tests
// substitute an in-memory fake homeserver session.
//
// Operator-only methods (AccessToken, DeviceID) are not part of this
// interface. Code that needs them should type-assert to *DirectSession.
type Session interface {
	// UserID returns the fully-qualified Matrix user ID
	// (e.g., "@alice:example.org").
	UserID() ref.UserID

	// Close releases any resources held by the session. Idempotent.
	Close() error

	// WhoAmI validates the session and returns the user ID.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// Sync performs an incremental sync with the homeserver.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)

	// RoomMessages fetches paginated messages from a room.
	RoomMessages(ctx context.Context, roomID ref.RoomID, options RoomMessagesOptions) (*RoomMessagesResponse, error)

	// JoinedRooms returns the IDs of all joined rooms.
	JoinedRooms(ctx context.Context) ([]ref.RoomID, error)

	// RoomState fetches the full current state of a room.
	RoomState(ctx context.Context, roomID ref.RoomID) ([]Event, error)

	// CloseIdleConnections drops pooled HTTP connections. Called after
	// network errors so the next request dials fresh.
	CloseIdleConnections()

	// SendMessage sends a message to a room. Returns the event ID.
	SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error)

	// SendEvent sends an event of any type to a room. Returns the event ID.
	SendEvent(ctx context.Context, roomID ref.RoomID, eventType string, content any) (ref.EventID, error)

	// SendReaction annotates the target event with key. Returns the
	// reaction event's ID.
	SendReaction(ctx context.Context, roomID ref.RoomID, target ref.EventID, key string) (ref.EventID, error)

	// RedactEvent removes an event's content server-side.
	RedactEvent(ctx context.Context, roomID ref.RoomID, target ref.EventID, reason string) (ref.EventID, error)

	// SendReceipt sends a read receipt for an event.
	SendReceipt(ctx context.Context, roomID ref.RoomID, receiptType string, eventID ref.EventID) error
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)
