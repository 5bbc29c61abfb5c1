// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"strings"
	"testing"

	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/messaging"
	"github.com/bureau-foundation/multiverse/seqdiff"
)

func summary(roomID ref.RoomID, name, lastMessage string) RoomSummary {
	return RoomSummary{RoomID: roomID, Name: name, LastMessage: lastMessage}
}

func TestDiffRoomLists(t *testing.T) {
	roomThree := ref.MustParseRoomID("!three:test.local")
	a := summary(roomOne, "alpha", "a1")
	b := summary(roomTwo, "beta", "b1")
	c := summary(roomThree, "gamma", "c1")
	aUpdated := summary(roomOne, "alpha", "a2")

	tests := []struct {
		name    string
		old     []RoomSummary
		new     []RoomSummary
		wantOps []seqdiff.Op
	}{
		{
			name:    "no change",
			old:     []RoomSummary{a, b},
			new:     []RoomSummary{a, b},
			wantOps: nil,
		},
		{
			name:    "summary changed in place",
			old:     []RoomSummary{a, b},
			new:     []RoomSummary{aUpdated, b},
			wantOps: []seqdiff.Op{seqdiff.OpSet},
		},
		{
			name:    "new room at the front",
			old:     []RoomSummary{a, b},
			new:     []RoomSummary{c, a, b},
			wantOps: []seqdiff.Op{seqdiff.OpInsert},
		},
		{
			name:    "first room from empty",
			old:     nil,
			new:     []RoomSummary{a},
			wantOps: []seqdiff.Op{seqdiff.OpInsert},
		},
		{
			name:    "move to front",
			old:     []RoomSummary{a, b, c},
			new:     []RoomSummary{c, a, b},
			wantOps: []seqdiff.Op{seqdiff.OpRemove, seqdiff.OpInsert},
		},
		{
			name:    "move to front with activity update",
			old:     []RoomSummary{a, b},
			new:     []RoomSummary{b, aUpdated},
			wantOps: []seqdiff.Op{seqdiff.OpRemove, seqdiff.OpInsert, seqdiff.OpSet},
		},
		{
			name:    "room removed falls back to reset",
			old:     []RoomSummary{a, b, c},
			new:     []RoomSummary{a, c},
			wantOps: []seqdiff.Op{seqdiff.OpReset},
		},
		{
			name:    "reorder beyond move-to-front falls back to reset",
			old:     []RoomSummary{a, b, c},
			new:     []RoomSummary{b, c, a},
			wantOps: []seqdiff.Op{seqdiff.OpReset},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			diffs := diffRoomLists(test.old, test.new)
			if len(diffs) != len(test.wantOps) {
				t.Fatalf("got %d diffs %+v, want ops %v", len(diffs), diffs, test.wantOps)
			}
			for i, diff := range diffs {
				if diff.Op != test.wantOps[i] {
					t.Errorf("diff %d op = %v, want %v", i, diff.Op, test.wantOps[i])
				}
			}

			// The diffs must replay old into new exactly.
			result, err := seqdiff.ApplyAll(test.old, diffs)
			if err != nil {
				t.Fatalf("ApplyAll: %v", err)
			}
			if len(result) != len(test.new) {
				t.Fatalf("replay produced %d rooms, want %d", len(result), len(test.new))
			}
			for i := range result {
				if result[i] != test.new[i] {
					t.Errorf("replay[%d] = %+v, want %+v", i, result[i], test.new[i])
				}
			}
		})
	}
}

func TestRoomListInsertAndMove(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	subscription := service.SubscribeRoomList()
	defer subscription.Close()

	initial := receiveBatch(t, subscription.Batches())
	if len(initial) != 1 || initial[0].Op != seqdiff.OpReset || len(initial[0].Values) != 0 {
		t.Fatalf("first batch = %+v, want an empty Reset", initial)
	}

	service.applySync(ctx, timelineResponse(roomOne, messageEvent(1, otherUser, "in one")))
	batch := receiveBatch(t, subscription.Batches())
	if len(batch) != 1 || batch[0].Op != seqdiff.OpInsert || batch[0].Index != 0 {
		t.Fatalf("batch = %+v, want Insert at 0", batch)
	}
	if batch[0].Value.LastMessage != "in one" {
		t.Errorf("inserted summary = %+v", batch[0].Value)
	}

	service.applySync(ctx, timelineResponse(roomTwo, messageEvent(2, otherUser, "in two")))
	batch = receiveBatch(t, subscription.Batches())
	if len(batch) != 1 || batch[0].Op != seqdiff.OpInsert || batch[0].Index != 0 {
		t.Fatalf("batch = %+v, want Insert at 0", batch)
	}

	// New activity in the older room moves it back to the front.
	service.applySync(ctx, timelineResponse(roomOne, messageEvent(3, otherUser, "one again")))
	batch = receiveBatch(t, subscription.Batches())
	if len(batch) < 2 || batch[0].Op != seqdiff.OpRemove || batch[0].Index != 1 ||
		batch[1].Op != seqdiff.OpInsert || batch[1].Index != 0 {
		t.Fatalf("batch = %+v, want Remove(1) then Insert(0)", batch)
	}
	if batch[1].Value.RoomID != roomOne || batch[1].Value.LastMessage != "one again" {
		t.Errorf("moved summary = %+v", batch[1].Value)
	}
}

func TestRoomListSetFilter(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	service.applySync(ctx, timelineResponse(roomOne, messageEvent(1, otherUser, "one")))
	service.applySync(ctx, timelineResponse(roomTwo, messageEvent(2, otherUser, "two")))

	subscription := service.SubscribeRoomList()
	defer subscription.Close()

	initial := receiveBatch(t, subscription.Batches())
	if len(initial) != 1 || initial[0].Op != seqdiff.OpReset || len(initial[0].Values) != 2 {
		t.Fatalf("first batch = %+v, want a 2-room Reset", initial)
	}

	subscription.SetFilter(func(room RoomSummary) bool {
		return strings.Contains(room.RoomID.String(), "one")
	})
	filtered := receiveBatch(t, subscription.Batches())
	if len(filtered) != 1 || filtered[0].Op != seqdiff.OpReset {
		t.Fatalf("filtered batch = %+v, want a Reset", filtered)
	}
	if len(filtered[0].Values) != 1 || filtered[0].Values[0].RoomID != roomOne {
		t.Errorf("filtered rooms = %+v", filtered[0].Values)
	}

	subscription.SetFilter(nil)
	unfiltered := receiveBatch(t, subscription.Batches())
	if len(unfiltered) != 1 || unfiltered[0].Op != seqdiff.OpReset || len(unfiltered[0].Values) != 2 {
		t.Fatalf("unfiltered batch = %+v, want a 2-room Reset", unfiltered)
	}
}

func TestRoomListRoomNameFromState(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	subscription := service.SubscribeRoomList()
	defer subscription.Close()
	receiveBatch(t, subscription.Batches())

	stateKey := ""
	service.applySync(ctx, joinResponse(roomOne, messaging.JoinedRoom{
		State: messaging.StateSection{Events: []messaging.Event{{
			EventID:  ref.MustParseEventID("$name-1:test.local"),
			Type:     "m.room.name",
			Sender:   otherUser,
			StateKey: &stateKey,
			Content:  map[string]any{"name": "Project Chat"},
		}}},
		Timeline: messaging.TimelineSection{Events: []messaging.Event{
			messageEvent(1, otherUser, "hello"),
		}},
	}))

	batch := receiveBatch(t, subscription.Batches())
	if len(batch) != 1 || batch[0].Op != seqdiff.OpInsert {
		t.Fatalf("batch = %+v, want Insert", batch)
	}
	if batch[0].Value.Name != "Project Chat" {
		t.Errorf("room name = %q, want %q", batch[0].Value.Name, "Project Chat")
	}
}
