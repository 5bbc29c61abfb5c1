// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/bureau-foundation/multiverse/lib/ref"
)

// JoinedRoomsResponse is the response from the joined_rooms endpoint.
type JoinedRoomsResponse struct {
	JoinedRooms []ref.RoomID `json:"joined_rooms"`
}

// RoomStateResponse holds the full current state of a room as a flat
// event list.
type RoomStateResponse struct {
	Events []Event
}

// JoinedRooms returns the IDs of all rooms the user has joined.
func (s *DirectSession) JoinedRooms(ctx context.Context) ([]ref.RoomID, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/joined_rooms", s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: joined rooms failed: %w", err)
	}

	var response JoinedRoomsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse joined rooms response: %w", err)
	}
	return response.JoinedRooms, nil
}

// RoomState fetches the full current state of a room. The response is
// a flat array of state events.
func (s *DirectSession) RoomState(ctx context.Context, roomID ref.RoomID) ([]Event, error) {
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/state", url.PathEscape(roomID.String()))

	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("messaging: room state for %q failed: %w", roomID, err)
	}

	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse room state response: %w", err)
	}
	return events, nil
}

// ComputeDisplayName derives a human-readable room name from state
// events, following the client-server API precedence: an m.room.name, then the canonical
// alias, then the display names (or user IDs) of up to three members
// other than self. Returns "Empty room" when nothing applies.
func ComputeDisplayName(state []Event, self ref.UserID) string {
	var name, alias string
	var members []string

	for i := range state {
		event := &state[i]
		switch event.Type {
		case "m.room.name":
			if value, ok := event.Content["name"].(string); ok {
				name = value
			}
		case "m.room.canonical_alias":
			if value, ok := event.Content["alias"].(string); ok {
				alias = value
			}
		case "m.room.member":
			if event.StateKey == nil || *event.StateKey == self.String() {
				continue
			}
			if membership, ok := event.Content["membership"].(string); !ok || membership != "join" {
				continue
			}
			if displayName, ok := event.Content["displayname"].(string); ok && displayName != "" {
				members = append(members, displayName)
			} else {
				members = append(members, *event.StateKey)
			}
		}
	}

	if name != "" {
		return name
	}
	if alias != "" {
		return alias
	}
	if len(members) == 0 {
		return "Empty room"
	}

	sort.Strings(members)
	switch len(members) {
	case 1:
		return members[0]
	case 2:
		return members[0] + " and " + members[1]
	default:
		return fmt.Sprintf("%s, %s and %d others", members[0], members[1], len(members)-2)
	}
}
