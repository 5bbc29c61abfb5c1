// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bureau-foundation/multiverse/lib/ref"
)

// testSession creates a DirectSession backed by a test server.
func testSession(t *testing.T, handler http.HandlerFunc) *DirectSession {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{HomeserverURL: server.URL})
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	session, err := client.SessionFromToken(ref.MustParseUserID("@alice:test.local"), "DEVICE1", "syt_token")
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func writeJSON(t *testing.T, writer http.ResponseWriter, value any) {
	t.Helper()
	writer.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(writer).Encode(value); err != nil {
		t.Fatalf("encoding response: %v", err)
	}
}

func TestWhoAmI(t *testing.T) {
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/v3/account/whoami" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		if got := request.Header.Get("Authorization"); got != "Bearer syt_token" {
			t.Errorf("authorization header = %q", got)
		}
		writeJSON(t, writer, WhoAmIResponse{
			UserID:   ref.MustParseUserID("@alice:test.local"),
			DeviceID: "DEVICE1",
		})
	})

	userID, err := session.WhoAmI(context.Background())
	if err != nil {
		t.Fatalf("WhoAmI failed: %v", err)
	}
	if userID.String() != "@alice:test.local" {
		t.Errorf("user ID = %q", userID)
	}
}

func TestSyncQueryParameters(t *testing.T) {
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.URL.Path != "/_matrix/client/v3/sync" {
			t.Errorf("unexpected path: %s", request.URL.Path)
		}
		query := request.URL.Query()
		if got := query.Get("since"); got != "batch-42" {
			t.Errorf("since = %q", got)
		}
		if got := query.Get("timeout"); got != "30000" {
			t.Errorf("timeout = %q", got)
		}
		if got := query.Get("filter"); !strings.Contains(got, "lazy_load_members") {
			t.Errorf("filter = %q", got)
		}
		writeJSON(t, writer, SyncResponse{NextBatch: "batch-43"})
	})

	response, err := session.Sync(context.Background(), SyncOptions{
		Since:      "batch-42",
		Timeout:    30000,
		SetTimeout: true,
		Filter:     BuildSyncFilter(20),
	})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if response.NextBatch != "batch-43" {
		t.Errorf("next batch = %q", response.NextBatch)
	}
}

func TestSyncInitialOmitsSince(t *testing.T) {
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		query := request.URL.Query()
		if query.Has("since") {
			t.Error("initial sync must not set since")
		}
		if query.Has("timeout") {
			t.Error("timeout must be omitted when SetTimeout is false")
		}
		writeJSON(t, writer, SyncResponse{NextBatch: "batch-1"})
	})

	if _, err := session.Sync(context.Background(), SyncOptions{}); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
}

func TestRoomMessagesDefaultsBackward(t *testing.T) {
	roomID := ref.MustParseRoomID("!room:test.local")
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		wantPath := "/_matrix/client/v3/rooms/" + roomID.String() + "/messages"
		if request.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", request.URL.Path, wantPath)
		}
		query := request.URL.Query()
		if got := query.Get("dir"); got != "b" {
			t.Errorf("dir = %q, want b", got)
		}
		if got := query.Get("from"); got != "token-a" {
			t.Errorf("from = %q", got)
		}
		if got := query.Get("limit"); got != "50" {
			t.Errorf("limit = %q", got)
		}
		writeJSON(t, writer, RoomMessagesResponse{
			Start: "token-a",
			End:   "token-b",
			Chunk: []Event{{EventID: ref.MustParseEventID("$one:test.local"), Type: "m.room.message"}},
		})
	})

	response, err := session.RoomMessages(context.Background(), roomID, RoomMessagesOptions{
		From:  "token-a",
		Limit: 50,
	})
	if err != nil {
		t.Fatalf("RoomMessages failed: %v", err)
	}
	if len(response.Chunk) != 1 || response.End != "token-b" {
		t.Errorf("unexpected response: %+v", response)
	}
}

func TestSendMessage(t *testing.T) {
	roomID := ref.MustParseRoomID("!room:test.local")
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", request.Method)
		}
		prefix := "/_matrix/client/v3/rooms/" + roomID.String() + "/send/m.room.message/"
		if !strings.HasPrefix(request.URL.Path, prefix) {
			t.Errorf("path = %q, want prefix %q", request.URL.Path, prefix)
		}
		var content MessageContent
		if err := json.NewDecoder(request.Body).Decode(&content); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if content.MsgType != "m.text" || content.Body != "hello" {
			t.Errorf("unexpected content: %+v", content)
		}
		writeJSON(t, writer, SendEventResponse{EventID: ref.MustParseEventID("$sent:test.local")})
	})

	eventID, err := session.SendMessage(context.Background(), roomID, NewTextMessage("hello"))
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if eventID.String() != "$sent:test.local" {
		t.Errorf("event ID = %q", eventID)
	}
}

func TestSendReaction(t *testing.T) {
	roomID := ref.MustParseRoomID("!room:test.local")
	target := ref.MustParseEventID("$target:test.local")
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		prefix := "/_matrix/client/v3/rooms/" + roomID.String() + "/send/m.reaction/"
		if !strings.HasPrefix(request.URL.Path, prefix) {
			t.Errorf("path = %q, want prefix %q", request.URL.Path, prefix)
		}
		var content ReactionContent
		if err := json.NewDecoder(request.Body).Decode(&content); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if content.RelatesTo.RelType != "m.annotation" {
			t.Errorf("rel_type = %q", content.RelatesTo.RelType)
		}
		if content.RelatesTo.EventID != target || content.RelatesTo.Key != "👍" {
			t.Errorf("unexpected relation: %+v", content.RelatesTo)
		}
		writeJSON(t, writer, SendEventResponse{EventID: ref.MustParseEventID("$reaction:test.local")})
	})

	if _, err := session.SendReaction(context.Background(), roomID, target, "👍"); err != nil {
		t.Fatalf("SendReaction failed: %v", err)
	}
}

func TestRedactEvent(t *testing.T) {
	roomID := ref.MustParseRoomID("!room:test.local")
	target := ref.MustParseEventID("$bad:test.local")
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", request.Method)
		}
		prefix := "/_matrix/client/v3/rooms/" + roomID.String() + "/redact/" + target.String() + "/"
		if !strings.HasPrefix(request.URL.Path, prefix) {
			t.Errorf("path = %q, want prefix %q", request.URL.Path, prefix)
		}
		var body map[string]string
		if err := json.NewDecoder(request.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if body["reason"] != "spam" {
			t.Errorf("reason = %q", body["reason"])
		}
		writeJSON(t, writer, SendEventResponse{EventID: ref.MustParseEventID("$redaction:test.local")})
	})

	if _, err := session.RedactEvent(context.Background(), roomID, target, "spam"); err != nil {
		t.Fatalf("RedactEvent failed: %v", err)
	}
}

func TestSendReceipt(t *testing.T) {
	roomID := ref.MustParseRoomID("!room:test.local")
	eventID := ref.MustParseEventID("$read:test.local")
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		if request.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", request.Method)
		}
		wantPath := "/_matrix/client/v3/rooms/" + roomID.String() + "/receipt/m.read/" + eventID.String()
		if request.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", request.URL.Path, wantPath)
		}
		writeJSON(t, writer, struct{}{})
	})

	if err := session.SendReceipt(context.Background(), roomID, "m.read", eventID); err != nil {
		t.Fatalf("SendReceipt failed: %v", err)
	}
}

func TestTransactionIDsUnique(t *testing.T) {
	roomID := ref.MustParseRoomID("!room:test.local")
	seen := make(map[string]bool)
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		segments := strings.Split(request.URL.Path, "/")
		txn := segments[len(segments)-1]
		if seen[txn] {
			t.Errorf("duplicate transaction ID %q", txn)
		}
		seen[txn] = true
		writeJSON(t, writer, SendEventResponse{EventID: ref.MustParseEventID("$sent:test.local")})
	})

	for range 10 {
		if _, err := session.SendMessage(context.Background(), roomID, NewTextMessage("hi")); err != nil {
			t.Fatalf("SendMessage failed: %v", err)
		}
	}
	if len(seen) != 10 {
		t.Errorf("saw %d distinct transaction IDs, want 10", len(seen))
	}
}

func TestUnknownTokenStopsAsAuthError(t *testing.T) {
	session := testSession(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(writer).Encode(map[string]string{
			"errcode": "M_UNKNOWN_TOKEN",
			"error":   "Access token has expired",
		})
	})

	_, err := session.Sync(context.Background(), SyncOptions{})
	if !IsAuthError(err) {
		t.Errorf("expected auth error, got %v", err)
	}
	if !IsMatrixError(err, ErrCodeUnknownToken) {
		t.Errorf("expected M_UNKNOWN_TOKEN, got %v", err)
	}
}

func TestEventMessageBody(t *testing.T) {
	event := Event{
		Type: "m.room.message",
		Content: map[string]any{
			"msgtype": "m.text",
			"body":    "hello world",
		},
	}
	body, msgType, ok := event.MessageBody()
	if !ok || body != "hello world" || msgType != "m.text" {
		t.Errorf("MessageBody = %q, %q, %v", body, msgType, ok)
	}

	if _, _, ok := (Event{Type: "m.room.member"}).MessageBody(); ok {
		t.Error("non-message event must not yield a body")
	}
}

func TestEventAnnotation(t *testing.T) {
	event := Event{
		Type: "m.reaction",
		Content: map[string]any{
			"m.relates_to": map[string]any{
				"rel_type": "m.annotation",
				"event_id": "$target:test.local",
				"key":      "👍",
			},
		},
	}
	target, key, ok := event.Annotation()
	if !ok || target.String() != "$target:test.local" || key != "👍" {
		t.Errorf("Annotation = %q, %q, %v", target, key, ok)
	}
}
