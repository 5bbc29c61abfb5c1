// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/lib/secret"
)

// DirectSession is an authenticated Matrix session.
// It wraps a Client with an access token for making authenticated API calls.
//
// The access token is stored in a secret.Buffer (mmap-backed, locked against
// swap, excluded from core dumps). The caller must call Close when the
// DirectSession is no longer needed.
type DirectSession struct {
	client      *Client
	accessToken *secret.Buffer
	userID      ref.UserID
	deviceID    string

	// transactionCounter generates unique transaction IDs for idempotent sends.
	transactionCounter atomic.Int64
}

// UserID returns the fully-qualified Matrix user ID (e.g., "@alice:example.org").
func (s *DirectSession) UserID() ref.UserID {
	return s.userID
}

// AccessToken returns the access token as a heap string. This creates a brief
// copy from the mmap-backed buffer — use only at API boundaries that require
// a string (e.g., writing the session file). Prefer passing the DirectSession
// itself when possible.
func (s *DirectSession) AccessToken() string {
	return s.accessToken.String()
}

// DeviceID returns the device ID for this session.
func (s *DirectSession) DeviceID() string {
	return s.deviceID
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool. Call this after a sync error to force
// the next request to establish a fresh TCP connection.
func (s *DirectSession) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

// Close releases the access token memory (zeros, unlocks, unmaps).
// Idempotent — safe to call multiple times.
func (s *DirectSession) Close() error {
	if s.accessToken != nil {
		return s.accessToken.Close()
	}
	return nil
}

// WhoAmI validates the access token and returns the user ID.
// Useful for checking whether a stored token is still valid.
func (s *DirectSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", s.accessToken, nil)
	if err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: whoami failed: %w", err)
	}

	var response WhoAmIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: failed to parse whoami response: %w", err)
	}
	return response.UserID, nil
}

// Sync performs an incremental sync with the homeserver.
// For initial sync, leave options.Since empty.
// For long-polling, set options.Timeout to the desired wait in milliseconds.
func (s *DirectSession) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	if options.SetTimeout {
		query.Set("timeout", strconv.Itoa(options.Timeout))
	}
	if options.Filter != "" {
		query.Set("filter", options.Filter)
	}

	path := "/_matrix/client/v3/sync"
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: sync failed: %w", err)
	}

	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse sync response: %w", err)
	}
	return &response, nil
}

// RoomMessages fetches messages from a room with pagination.
func (s *DirectSession) RoomMessages(ctx context.Context, roomID ref.RoomID, options RoomMessagesOptions) (*RoomMessagesResponse, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/messages", url.PathEscape(roomID.String()))

	query := url.Values{}
	if options.From != "" {
		query.Set("from", options.From)
	}
	direction := options.Direction
	if direction == "" {
		direction = "b" // backward (newest first) by default
	}
	query.Set("dir", direction)
	if options.Limit > 0 {
		query.Set("limit", strconv.Itoa(options.Limit))
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: room messages for %q failed: %w", roomID, err)
	}

	var response RoomMessagesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse messages response: %w", err)
	}
	return &response, nil
}

// SendMessage sends a message to a room. Returns the event ID of the
// sent message.
func (s *DirectSession) SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error) {
	return s.SendEvent(ctx, roomID, "m.room.message", content)
}

// SendReaction sends an m.reaction event annotating the target event
// with the given key (usually a single emoji). Returns the event ID of
// the reaction event — needed later to redact it when toggling off.
func (s *DirectSession) SendReaction(ctx context.Context, roomID ref.RoomID, target ref.EventID, key string) (ref.EventID, error) {
	return s.SendEvent(ctx, roomID, "m.reaction", NewReaction(target, key))
}

// SendEvent sends an event of any type to a room.
// Uses Matrix's idempotent PUT with a transaction ID.
// Returns the event ID.
func (s *DirectSession) SendEvent(ctx context.Context, roomID ref.RoomID, eventType string, content any) (ref.EventID, error) {
	transactionID := s.nextTransactionID()
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/send/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(eventType),
		url.PathEscape(transactionID),
	)

	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content)
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: send event to %q failed: %w", roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: failed to parse send response: %w", err)
	}
	return response.EventID, nil
}

// RedactEvent redacts an event (removes its content server-side).
// Used to withdraw a previously sent reaction. Returns the event ID of
// the redaction event.
func (s *DirectSession) RedactEvent(ctx context.Context, roomID ref.RoomID, target ref.EventID, reason string) (ref.EventID, error) {
	transactionID := s.nextTransactionID()
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/redact/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(target.String()),
		url.PathEscape(transactionID),
	)

	requestBody := map[string]any{}
	if reason != "" {
		requestBody["reason"] = reason
	}

	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, requestBody)
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: redact %q in %q failed: %w", target, roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: failed to parse redact response: %w", err)
	}
	return response.EventID, nil
}

// SendReceipt sends a read receipt for an event. receiptType is
// usually "m.read"; the receipt marks everything up to and including
// the event as read.
func (s *DirectSession) SendReceipt(ctx context.Context, roomID ref.RoomID, receiptType string, eventID ref.EventID) error {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/receipt/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(receiptType),
		url.PathEscape(eventID.String()),
	)

	_, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{})
	if err != nil {
		return fmt.Errorf("messaging: send %s receipt in %q failed: %w", receiptType, roomID, err)
	}
	return nil
}

// nextTransactionID generates a unique transaction ID for idempotent event sending.
// Format: "multiverse-<timestamp_ms>-<counter>" to ensure uniqueness across restarts.
func (s *DirectSession) nextTransactionID() string {
	counter := s.transactionCounter.Add(1)
	return fmt.Sprintf("multiverse-%d-%d", time.Now().UnixMilli(), counter)
}
