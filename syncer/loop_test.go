// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/messaging"
	"github.com/bureau-foundation/multiverse/seqdiff"
)

func receiveState(t *testing.T, states <-chan State) State {
	t.Helper()
	select {
	case state := <-states:
		return state
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a state transition")
		return StateIdle
	}
}

func TestLoopRecoversFromTransientFailure(t *testing.T) {
	service, session := newTestService(t)
	states := service.SubscribeState()

	session.steps <- syncStep{err: errors.New("connection reset")}
	session.steps <- syncStep{response: &messaging.SyncResponse{NextBatch: "b1"}}

	service.Start(context.Background())
	defer service.Stop()

	if state := receiveState(t, states); state != StateOffline {
		t.Fatalf("state after failure = %v, want offline", state)
	}
	if state := receiveState(t, states); state != StateRunning {
		t.Fatalf("state after recovery = %v, want running", state)
	}

	session.mu.Lock()
	idleCloses := session.idleCloses
	session.mu.Unlock()
	if idleCloses != 1 {
		t.Errorf("idle connection closes = %d, want 1", idleCloses)
	}
}

func TestLoopStopsOnAuthError(t *testing.T) {
	service, session := newTestService(t)
	states := service.SubscribeState()

	session.steps <- syncStep{err: &messaging.MatrixError{
		Code:       messaging.ErrCodeUnknownToken,
		Message:    "Access token unknown",
		StatusCode: 401,
	}}

	service.Start(context.Background())

	if state := receiveState(t, states); state != StateError {
		t.Fatalf("state = %v, want error", state)
	}
}

func TestLoopGivesUpAfterRepeatedFailures(t *testing.T) {
	service, session := newTestService(t)
	states := service.SubscribeState()

	for range maxSyncRetries + 1 {
		session.steps <- syncStep{err: errors.New("connection reset")}
	}

	service.Start(context.Background())

	if state := receiveState(t, states); state != StateOffline {
		t.Fatalf("first transition = %v, want offline", state)
	}
	if state := receiveState(t, states); state != StateError {
		t.Fatalf("final transition = %v, want error", state)
	}
}

func TestLoopStopTerminates(t *testing.T) {
	service, session := newTestService(t)
	states := service.SubscribeState()

	session.steps <- syncStep{response: &messaging.SyncResponse{NextBatch: "b1"}}

	service.Start(context.Background())
	if state := receiveState(t, states); state != StateRunning {
		t.Fatalf("state = %v, want running", state)
	}

	service.Stop()
	if state := service.State(); state != StateTerminated {
		t.Errorf("state after Stop = %v, want terminated", state)
	}
}

func TestLoopCarriesNextBatch(t *testing.T) {
	service, session := newTestService(t)
	states := service.SubscribeState()

	session.steps <- syncStep{response: &messaging.SyncResponse{NextBatch: "b1"}}

	service.Start(context.Background())
	defer service.Stop()
	receiveState(t, states) // running

	// The token is stored after the state flips to running; poll
	// briefly rather than racing the loop.
	deadline := time.Now().Add(2 * time.Second)
	for {
		service.mu.Lock()
		since := service.nextBatch
		service.mu.Unlock()
		if since == "b1" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("next batch = %q, want %q", since, "b1")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestPaginateBackwards(t *testing.T) {
	service, session := newTestService(t)
	ctx := context.Background()

	subscription := service.SubscribeTimeline(ctx, roomOne)
	defer subscription.Close()
	receiveBatch(t, subscription.Batches())

	// A first sync with a prev_batch token leaves a gap behind the
	// live events.
	service.applySync(ctx, joinResponse(roomOne, messaging.JoinedRoom{
		Timeline: messaging.TimelineSection{
			Events:    []messaging.Event{messageEvent(10, otherUser, "live")},
			PrevBatch: "prev-token",
			Limited:   true,
		},
	}))
	receiveBatch(t, subscription.Batches()) // Append

	// History arrives newest first.
	session.mu.Lock()
	session.messagesResponse = &messaging.RoomMessagesResponse{
		Start: "prev-token",
		End:   "more-token",
		Chunk: []messaging.Event{
			messageEvent(2, otherUser, "older"),
			messageEvent(1, otherUser, "oldest"),
		},
	}
	session.mu.Unlock()

	if err := service.PaginateBackwards(ctx, roomOne); err != nil {
		t.Fatalf("PaginateBackwards: %v", err)
	}

	batch := receiveBatch(t, subscription.Batches())
	if len(batch) != 2 || batch[0].Op != seqdiff.OpPushFront || batch[1].Op != seqdiff.OpPushFront {
		t.Fatalf("batch = %+v, want two PushFronts", batch)
	}

	snapshot := service.TimelineSnapshot(ctx, roomOne)
	if len(snapshot) != 3 {
		t.Fatalf("snapshot has %d items, want 3", len(snapshot))
	}
	var bodies []string
	for _, item := range snapshot {
		body, _, _ := item.Event.MessageBody()
		bodies = append(bodies, body)
	}
	want := []string{"oldest", "older", "live"}
	for i := range want {
		if bodies[i] != want[i] {
			t.Fatalf("timeline order = %v, want %v", bodies, want)
		}
	}

	// A second page with no events exhausts the history; further
	// calls are no-ops that never hit the network.
	session.mu.Lock()
	session.messagesResponse = &messaging.RoomMessagesResponse{Start: "more-token"}
	session.mu.Unlock()

	if err := service.PaginateBackwards(ctx, roomOne); err != nil {
		t.Fatalf("PaginateBackwards (empty): %v", err)
	}
	if err := service.PaginateBackwards(ctx, roomOne); err != nil {
		t.Fatalf("PaginateBackwards (exhausted): %v", err)
	}

	session.mu.Lock()
	calls := session.messagesCalls
	session.mu.Unlock()
	if calls != 2 {
		t.Errorf("RoomMessages calls = %d, want 2", calls)
	}
}

func TestPaginateFoldsBackfilledReactions(t *testing.T) {
	service, session := newTestService(t)
	ctx := context.Background()

	subscription := service.SubscribeTimeline(ctx, roomOne)
	defer subscription.Close()
	receiveBatch(t, subscription.Batches())

	service.applySync(ctx, joinResponse(roomOne, messaging.JoinedRoom{
		Timeline: messaging.TimelineSection{
			Events:    []messaging.Event{messageEvent(10, otherUser, "live")},
			PrevBatch: "prev-token",
			Limited:   true,
		},
	}))
	receiveBatch(t, subscription.Batches())

	target := messageEvent(1, otherUser, "reacted to")
	reaction := messaging.Event{
		EventID: ref.MustParseEventID("$old-react:test.local"),
		Type:    "m.reaction",
		Sender:  selfUser,
		Content: map[string]any{
			"m.relates_to": map[string]any{
				"rel_type": "m.annotation",
				"event_id": target.EventID.String(),
				"key":      "🎉",
			},
		},
	}
	session.mu.Lock()
	session.messagesResponse = &messaging.RoomMessagesResponse{
		Chunk: []messaging.Event{reaction, target},
	}
	session.mu.Unlock()

	if err := service.PaginateBackwards(ctx, roomOne); err != nil {
		t.Fatalf("PaginateBackwards: %v", err)
	}

	batch := receiveBatch(t, subscription.Batches())
	// One PushFront for the message, then a Set folding the reaction
	// into it.
	if len(batch) != 2 || batch[0].Op != seqdiff.OpPushFront || batch[1].Op != seqdiff.OpSet {
		t.Fatalf("batch = %+v, want PushFront then Set", batch)
	}
	counts := batch[1].Value.ReactionCounts()
	if len(counts) != 1 || counts[0].Key != "🎉" {
		t.Errorf("reaction counts = %+v", counts)
	}
}
