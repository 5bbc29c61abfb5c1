// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/bureau-foundation/multiverse/lib/ref"
)

// AuthResponse is returned by Login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Type                     string `json:"type"`
	User                     string `json:"user"`
	Password                 string `json:"password"`
	DeviceID                 string `json:"device_id,omitempty"`
	InitialDeviceDisplayName string `json:"initial_device_display_name,omitempty"`
}

// MessageContent is the content body of a Matrix message event (m.room.message).
type MessageContent struct {
	MsgType   string     `json:"msgtype"`
	Body      string     `json:"body"`
	RelatesTo *RelatesTo `json:"m.relates_to,omitempty"`
}

// ReactionContent is the content body of an m.reaction event. The
// relation is always an m.annotation pointing at the reacted-to event
// with the reaction key (usually an emoji).
type ReactionContent struct {
	RelatesTo RelatesTo `json:"m.relates_to"`
}

// RelatesTo expresses relationships between events. For reactions,
// RelType is "m.annotation", EventID is the annotated event, and Key
// carries the reaction emoji.
type RelatesTo struct {
	RelType string      `json:"rel_type"`
	EventID ref.EventID `json:"event_id"`
	Key     string      `json:"key,omitempty"`
}

// NewTextMessage creates a plain text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.text",
		Body:    body,
	}
}

// NewReaction creates the content of an m.reaction event annotating
// target with key.
func NewReaction(target ref.EventID, key string) ReactionContent {
	return ReactionContent{
		RelatesTo: RelatesTo{
			RelType: "m.annotation",
			EventID: target,
			Key:     key,
		},
	}
}

// Event represents a Matrix event from the server.
type Event struct {
	EventID        ref.EventID    `json:"event_id"`
	Type           string         `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	RoomID         ref.RoomID     `json:"room_id,omitempty"`
	StateKey       *string        `json:"state_key,omitempty"`
	Redacts        ref.EventID    `json:"redacts,omitempty"`
	Unsigned       *EventUnsigned `json:"unsigned,omitempty"`
}

// EventUnsigned holds optional unsigned data attached to events.
type EventUnsigned struct {
	Age           int64  `json:"age,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// MessageBody extracts the body and msgtype from an m.room.message
// event's content. ok is false when the content has no string body
// (e.g., a fully redacted message).
func (e Event) MessageBody() (body, msgType string, ok bool) {
	body, ok = e.Content["body"].(string)
	if !ok {
		return "", "", false
	}
	msgType, _ = e.Content["msgtype"].(string)
	return body, msgType, true
}

// Annotation extracts the m.annotation relation from an m.reaction
// event's content. ok is false when the content carries no valid
// annotation.
func (e Event) Annotation() (target ref.EventID, key string, ok bool) {
	relates, ok := e.Content["m.relates_to"].(map[string]any)
	if !ok {
		return ref.EventID{}, "", false
	}
	if relType, _ := relates["rel_type"].(string); relType != "m.annotation" {
		return ref.EventID{}, "", false
	}
	rawEventID, _ := relates["event_id"].(string)
	target, err := ref.ParseEventID(rawEventID)
	if err != nil {
		return ref.EventID{}, "", false
	}
	key, ok = relates["key"].(string)
	return target, key, ok
}

// ReadReceipts extracts per-event read receipts from an m.receipt
// ephemeral event. The result maps the raw event ID to the users whose
// m.read receipt now points at it.
func (e Event) ReadReceipts() map[string][]ref.UserID {
	receipts := make(map[string][]ref.UserID)
	for rawEventID, perType := range e.Content {
		typeMap, ok := perType.(map[string]any)
		if !ok {
			continue
		}
		readMap, ok := typeMap["m.read"].(map[string]any)
		if !ok {
			continue
		}
		for rawUserID := range readMap {
			userID, err := ref.ParseUserID(rawUserID)
			if err != nil {
				continue
			}
			receipts[rawEventID] = append(receipts[rawEventID], userID)
		}
	}
	return receipts
}

// RoomMessagesOptions controls pagination for room message fetching.
type RoomMessagesOptions struct {
	From      string // pagination token; empty means "from now"
	Direction string // "b" (backward/older) or "f" (forward/newer)
	Limit     int    // max events to return; 0 uses server default
}

// RoomMessagesResponse is returned by RoomMessages.
type RoomMessagesResponse struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Chunk []Event `json:"chunk"`
}

// SyncOptions controls the behavior of the /sync endpoint.
type SyncOptions struct {
	Since      string // next_batch token from previous sync; empty for initial sync
	Timeout    int    // long-poll timeout in milliseconds; 0 for immediate return
	SetTimeout bool   // if true, send the timeout parameter (needed to distinguish "not set" from "0")
	Filter     string // filter ID or inline JSON filter
}

// SyncResponse is the top-level response from /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection contains per-room sync data grouped by membership state.
// Map keys are room IDs; encoding/json uses ref.RoomID's TextUnmarshaler
// for automatic validation at deserialization.
type RoomsSection struct {
	Join  map[ref.RoomID]JoinedRoom `json:"join,omitempty"`
	Leave map[ref.RoomID]LeftRoom   `json:"leave,omitempty"`
}

// JoinedRoom contains sync data for a room the user has joined.
type JoinedRoom struct {
	Timeline  TimelineSection  `json:"timeline"`
	State     StateSection     `json:"state"`
	Ephemeral EphemeralSection `json:"ephemeral"`
}

// LeftRoom contains sync data for a room the user has left.
type LeftRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// TimelineSection contains timeline events from a sync response.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// StateSection contains state events from a sync response.
type StateSection struct {
	Events []Event `json:"events"`
}

// EphemeralSection contains ephemeral events (receipts, typing) from a
// sync response.
type EphemeralSection struct {
	Events []Event `json:"events"`
}

// SendEventResponse is returned by SendMessage, SendEvent, SendReaction,
// and RedactEvent.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// ServerVersionsResponse is returned by Client.ServerVersions.
type ServerVersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}
