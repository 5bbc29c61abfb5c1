// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"net/http"
	"testing"

	"github.com/bureau-foundation/multiverse/lib/ref"
)

func TestJoinedRooms(t *testing.T) {
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/v3/joined_rooms" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		writeJSON(t, writer, map[string]any{
			"joined_rooms": []string{"!one:test.local", "!two:test.local"},
		})
	})

	rooms, err := session.JoinedRooms(context.Background())
	if err != nil {
		t.Fatalf("JoinedRooms: %v", err)
	}
	if len(rooms) != 2 || rooms[0].String() != "!one:test.local" {
		t.Errorf("rooms = %v", rooms)
	}
}

func TestRoomState(t *testing.T) {
	roomID := ref.MustParseRoomID("!room:test.local")
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		wantPath := "/_matrix/client/v3/rooms/" + roomID.String() + "/state"
		if request.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", request.URL.Path, wantPath)
		}
		writeJSON(t, writer, []map[string]any{
			{
				"type":      "m.room.name",
				"state_key": "",
				"content":   map[string]any{"name": "Ops"},
			},
		})
	})

	state, err := session.RoomState(context.Background(), roomID)
	if err != nil {
		t.Fatalf("RoomState: %v", err)
	}
	if len(state) != 1 || state[0].Type != "m.room.name" {
		t.Errorf("state = %+v", state)
	}
}

func TestComputeDisplayName(t *testing.T) {
	self := ref.MustParseUserID("@alice:test.local")
	stateKey := func(value string) *string { return &value }

	nameEvent := Event{
		Type:    "m.room.name",
		Content: map[string]any{"name": "Ops"},
	}
	aliasEvent := Event{
		Type:    "m.room.canonical_alias",
		Content: map[string]any{"alias": "#ops:test.local"},
	}
	member := func(userID, displayName string) Event {
		content := map[string]any{"membership": "join"}
		if displayName != "" {
			content["displayname"] = displayName
		}
		return Event{Type: "m.room.member", StateKey: stateKey(userID), Content: content}
	}

	tests := []struct {
		name  string
		state []Event
		want  string
	}{
		{
			name:  "name wins over alias",
			state: []Event{aliasEvent, nameEvent},
			want:  "Ops",
		},
		{
			name:  "alias when no name",
			state: []Event{aliasEvent, member("@bob:test.local", "Bob")},
			want:  "#ops:test.local",
		},
		{
			name:  "single member display name",
			state: []Event{member("@bob:test.local", "Bob")},
			want:  "Bob",
		},
		{
			name:  "member without display name falls back to user ID",
			state: []Event{member("@bob:test.local", "")},
			want:  "@bob:test.local",
		},
		{
			name: "two members",
			state: []Event{
				member("@bob:test.local", "Bob"),
				member("@carol:test.local", "Carol"),
			},
			want: "Bob and Carol",
		},
		{
			name: "many members",
			state: []Event{
				member("@bob:test.local", "Bob"),
				member("@carol:test.local", "Carol"),
				member("@dan:test.local", "Dan"),
				member("@erin:test.local", "Erin"),
			},
			want: "Bob, Carol and 2 others",
		},
		{
			name:  "self is excluded",
			state: []Event{member("@alice:test.local", "Alice")},
			want:  "Empty room",
		},
		{
			name:  "nothing applies",
			state: nil,
			want:  "Empty room",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ComputeDisplayName(test.state, self); got != test.want {
				t.Errorf("ComputeDisplayName = %q, want %q", got, test.want)
			}
		})
	}
}
