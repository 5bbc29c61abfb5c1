// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/seqdiff"
)

// RoomListSubscription is one consumer of the recency-ordered room
// list. Each subscription holds its own filter predicate and filtered
// snapshot, so two subscribers (say, the room list overlay and a
// background badge) can watch different slices of the same list.
type RoomListSubscription struct {
	service *Service
	stream  *stream[RoomSummary]

	// filter and filtered are guarded by service.mu: the service
	// reads them while diffing, SetFilter writes them.
	filter   func(RoomSummary) bool
	filtered []RoomSummary
}

// SubscribeRoomList registers a room list consumer. The first batch is
// always a Reset carrying the current snapshot; afterwards the stream
// carries incremental diffs. Close the subscription when done.
func (s *Service) SubscribeRoomList() *RoomListSubscription {
	subscription := &RoomListSubscription{
		service: s,
		stream:  newStream[RoomSummary](),
	}

	s.mu.Lock()
	subscription.filtered = s.snapshotLocked()
	s.listSubs[subscription] = struct{}{}
	s.mu.Unlock()

	subscription.stream.push([]seqdiff.Diff[RoomSummary]{seqdiff.Reset(subscription.filtered...)})
	return subscription
}

// Batches returns the channel of diff batches. Closed after Close.
func (sub *RoomListSubscription) Batches() <-chan []seqdiff.Diff[RoomSummary] {
	return sub.stream.out
}

// SetFilter installs a predicate (nil means "all rooms"), recomputes
// the filtered snapshot, and emits it as a Reset. The subscriber's
// view is rebuilt rather than patched because a filter change can
// reorder arbitrarily many rows at once.
func (sub *RoomListSubscription) SetFilter(predicate func(RoomSummary) bool) {
	sub.service.mu.Lock()
	sub.filter = predicate
	sub.filtered = applyFilter(sub.service.snapshotLocked(), predicate)
	snapshot := sub.filtered
	sub.service.mu.Unlock()

	sub.stream.push([]seqdiff.Diff[RoomSummary]{seqdiff.Reset(snapshot...)})
}

// Close unregisters the subscription and closes its channel.
func (sub *RoomListSubscription) Close() {
	sub.service.mu.Lock()
	delete(sub.service.listSubs, sub)
	sub.service.mu.Unlock()
	sub.stream.close()
}

// publishRoomListLocked rediffs every subscription's filtered view
// against the current snapshot. Caller holds s.mu.
func (s *Service) publishRoomListLocked() {
	snapshot := s.snapshotLocked()
	for subscription := range s.listSubs {
		filtered := applyFilter(snapshot, subscription.filter)
		diffs := diffRoomLists(subscription.filtered, filtered)
		subscription.filtered = filtered
		subscription.stream.push(diffs)
	}
}

func applyFilter(summaries []RoomSummary, predicate func(RoomSummary) bool) []RoomSummary {
	if predicate == nil {
		return summaries
	}
	filtered := make([]RoomSummary, 0, len(summaries))
	for _, summary := range summaries {
		if predicate(summary) {
			filtered = append(filtered, summary)
		}
	}
	return filtered
}

// diffRoomLists computes the diff batch that transforms old into new.
// It recognizes the three shapes sync activity actually produces —
// in-place summary updates, one new room arriving at the front, and
// one room moving to the front — and falls back to a Reset for
// anything more tangled.
func diffRoomLists(old, new []RoomSummary) []seqdiff.Diff[RoomSummary] {
	if sameRoomOrder(old, new) {
		var diffs []seqdiff.Diff[RoomSummary]
		for index := range new {
			if old[index] != new[index] {
				diffs = append(diffs, seqdiff.Set(index, new[index]))
			}
		}
		return diffs
	}

	// One new room at the front, the rest unchanged in order.
	if len(new) == len(old)+1 && sameRoomIDs(old, new[1:]) {
		diffs := []seqdiff.Diff[RoomSummary]{seqdiff.Insert(0, new[0])}
		for index, summary := range new[1:] {
			if old[index] != summary {
				diffs = append(diffs, seqdiff.Set(index+1, summary))
			}
		}
		return diffs
	}

	// One existing room moved to the front.
	if len(new) == len(old) && len(new) > 0 {
		if from := roomIndex(old, new[0].RoomID); from > 0 {
			remainder := make([]RoomSummary, 0, len(old)-1)
			remainder = append(remainder, old[:from]...)
			remainder = append(remainder, old[from+1:]...)
			if sameRoomIDs(remainder, new[1:]) {
				diffs := []seqdiff.Diff[RoomSummary]{
					seqdiff.Remove[RoomSummary](from),
					seqdiff.Insert(0, new[0]),
				}
				for index, summary := range new[1:] {
					if remainder[index] != summary {
						diffs = append(diffs, seqdiff.Set(index+1, summary))
					}
				}
				return diffs
			}
		}
	}

	return []seqdiff.Diff[RoomSummary]{seqdiff.Reset(new...)}
}

func sameRoomOrder(old, new []RoomSummary) bool {
	if len(old) != len(new) {
		return false
	}
	for index := range old {
		if old[index].RoomID != new[index].RoomID {
			return false
		}
	}
	return true
}

func sameRoomIDs(a, b []RoomSummary) bool {
	return sameRoomOrder(a, b)
}

func roomIndex(summaries []RoomSummary, roomID ref.RoomID) int {
	for index, summary := range summaries {
		if summary.RoomID == roomID {
			return index
		}
	}
	return -1
}
