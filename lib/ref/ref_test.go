// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"encoding/json"
	"testing"
)

func TestParseRoomID(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"!abc123:example.org", false},
		{"!a:b", false},
		{"", true},
		{"abc:example.org", true},
		{"!:example.org", true},
		{"!abc123", true},
		{"!abc123:", true},
	}

	for _, test := range tests {
		roomID, err := ParseRoomID(test.raw)
		if test.wantErr {
			if err == nil {
				t.Errorf("ParseRoomID(%q): expected error, got %q", test.raw, roomID)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseRoomID(%q): %v", test.raw, err)
			continue
		}
		if roomID.String() != test.raw {
			t.Errorf("ParseRoomID(%q).String() = %q", test.raw, roomID.String())
		}
	}
}

func TestParseEventID(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"$abc123xyz", false},
		{"$legacy:example.org", false},
		{"", true},
		{"$", true},
		{"abc123", true},
	}

	for _, test := range tests {
		_, err := ParseEventID(test.raw)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseEventID(%q): err=%v, wantErr=%v", test.raw, err, test.wantErr)
		}
	}
}

func TestParseUserID(t *testing.T) {
	tests := []struct {
		raw     string
		wantErr bool
	}{
		{"@alice:example.org", false},
		{"@a:b", false},
		{"", true},
		{"alice:example.org", true},
		{"@:example.org", true},
		{"@alice", true},
		{"@alice:", true},
	}

	for _, test := range tests {
		_, err := ParseUserID(test.raw)
		if (err != nil) != test.wantErr {
			t.Errorf("ParseUserID(%q): err=%v, wantErr=%v", test.raw, err, test.wantErr)
		}
	}
}

func TestParseRoomAlias(t *testing.T) {
	if _, err := ParseRoomAlias("#general:example.org"); err != nil {
		t.Errorf("ParseRoomAlias: %v", err)
	}
	for _, raw := range []string{"", "#general", "general:example.org", "#:example.org"} {
		if _, err := ParseRoomAlias(raw); err == nil {
			t.Errorf("ParseRoomAlias(%q): expected error", raw)
		}
	}
}

func TestUserIDParts(t *testing.T) {
	userID := MustParseUserID("@alice:example.org")
	if got := userID.Localpart(); got != "alice" {
		t.Errorf("Localpart = %q, want %q", got, "alice")
	}
	if got := userID.Server(); got != "example.org" {
		t.Errorf("Server = %q, want %q", got, "example.org")
	}
}

func TestRoomIDJSONRoundTrip(t *testing.T) {
	original := MustParseRoomID("!room:example.org")

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded RoomID
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("round trip: got %q, want %q", decoded, original)
	}
}

func TestUnmarshalRejectsInvalid(t *testing.T) {
	var roomID RoomID
	if err := json.Unmarshal([]byte(`"not-a-room"`), &roomID); err == nil {
		t.Error("expected error for invalid room ID")
	}
	var eventID EventID
	if err := json.Unmarshal([]byte(`"not-an-event"`), &eventID); err == nil {
		t.Error("expected error for invalid event ID")
	}
}

func TestIsZero(t *testing.T) {
	if !(RoomID{}).IsZero() || !(EventID{}).IsZero() || !(UserID{}).IsZero() || !(RoomAlias{}).IsZero() {
		t.Error("zero values must report IsZero")
	}
	if MustParseRoomID("!r:s").IsZero() {
		t.Error("parsed room ID must not report IsZero")
	}
}
