// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"

	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/seqdiff"
)

// TimelineSubscription is one consumer of a single room's timeline
// stream. The first batch is a Reset carrying the folded snapshot
// (cached history plus anything live since); afterwards the stream
// carries incremental diffs from sync activity and outbound calls.
type TimelineSubscription struct {
	service *Service
	roomID  ref.RoomID
	stream  *stream[TimelineItem]
}

// SubscribeTimeline registers a timeline consumer for one room,
// loading the cache snapshot if the room has not been seen yet. Close
// the subscription when done.
func (s *Service) SubscribeTimeline(ctx context.Context, roomID ref.RoomID) *TimelineSubscription {
	subscription := &TimelineSubscription{
		service: s,
		roomID:  roomID,
		stream:  newStream[TimelineItem](),
	}

	s.mu.Lock()
	room := s.ensureRoomLocked(ctx, roomID)
	snapshot := make([]TimelineItem, len(room.items))
	copy(snapshot, room.items)
	s.timelineSubs[subscription] = struct{}{}
	s.mu.Unlock()

	subscription.stream.push([]seqdiff.Diff[TimelineItem]{seqdiff.Reset(snapshot...)})
	return subscription
}

// RoomID returns the room this subscription watches.
func (sub *TimelineSubscription) RoomID() ref.RoomID {
	return sub.roomID
}

// Batches returns the channel of diff batches. Closed after Close.
func (sub *TimelineSubscription) Batches() <-chan []seqdiff.Diff[TimelineItem] {
	return sub.stream.out
}

// Close unregisters the subscription and closes its channel.
func (sub *TimelineSubscription) Close() {
	sub.service.mu.Lock()
	delete(sub.service.timelineSubs, sub)
	sub.service.mu.Unlock()
	sub.stream.close()
}

// pushTimelineLocked fans a diff batch out to every subscription
// watching the room. Caller holds s.mu.
func (s *Service) pushTimelineLocked(roomID ref.RoomID, diffs []seqdiff.Diff[TimelineItem]) {
	for subscription := range s.timelineSubs {
		if subscription.roomID == roomID {
			subscription.stream.push(diffs)
		}
	}
}

// TimelineSnapshot returns a copy of a room's current folded timeline
// without subscribing. The room list preview pane uses this.
func (s *Service) TimelineSnapshot(ctx context.Context, roomID ref.RoomID) []TimelineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	room := s.ensureRoomLocked(ctx, roomID)
	snapshot := make([]TimelineItem, len(room.items))
	copy(snapshot, room.items)
	return snapshot
}
