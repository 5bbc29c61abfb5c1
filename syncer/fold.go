// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"

	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/messaging"
	"github.com/bureau-foundation/multiverse/seqdiff"
)

// applySync folds one /sync response into the in-memory room models,
// persists timeline batches to the event cache, and pushes the
// resulting diff batches to subscribers. Rooms with timeline activity
// move to the front of the recency order.
func (s *Service) applySync(ctx context.Context, response *messaging.SyncResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for roomID, joined := range response.Rooms.Join {
		room := s.ensureRoomLocked(ctx, roomID)

		timeline := joined.Timeline

		// A limited response skipped events between the cached
		// history and this batch; on a brand-new room the whole
		// history before this batch is equally unfetched. Either
		// way the prev_batch token marks a gap to paginate from.
		needGap := timeline.PrevBatch != "" && (timeline.Limited || !room.cached)
		if needGap {
			gapID, err := s.cache.AppendGap(ctx, roomID, timeline.PrevBatch)
			if err != nil {
				s.logger.Warn("recording history gap failed", "room", roomID, "error", err)
			} else {
				room.cached = true
				room.gapChunk = gapID
				room.gapToken = timeline.PrevBatch
			}
		}

		if len(timeline.Events) > 0 {
			if _, err := s.cache.AppendEvents(ctx, roomID, timeline.Events); err != nil {
				s.logger.Warn("caching timeline batch failed", "room", roomID, "error", err)
			} else {
				room.cached = true
			}
		}

		var diffs []seqdiff.Diff[TimelineItem]
		for i := range timeline.Events {
			diffs = append(diffs, room.fold(&timeline.Events[i])...)
		}
		s.updateSummaryLocked(room, joined.State.Events, timeline.Events)

		for i := range joined.Ephemeral.Events {
			diffs = append(diffs, room.foldReceipts(&joined.Ephemeral.Events[i])...)
		}

		if len(diffs) > 0 {
			s.pushTimelineLocked(roomID, diffs)
		}
		if len(timeline.Events) > 0 {
			s.moveToFrontLocked(roomID)
		}
	}

	for roomID := range response.Rooms.Leave {
		if _, known := s.rooms[roomID]; !known {
			continue
		}
		delete(s.rooms, roomID)
		s.removeFromOrderLocked(roomID)
	}

	s.publishRoomListLocked()
}

// ensureRoomLocked returns the room model, creating it from the cache
// snapshot on first sight. Caller holds s.mu.
func (s *Service) ensureRoomLocked(ctx context.Context, roomID ref.RoomID) *roomState {
	if room, known := s.rooms[roomID]; known {
		return room
	}

	room := &roomState{
		summary: RoomSummary{RoomID: roomID, Name: roomID.String()},
	}

	events, err := s.cache.LoadAllEvents(ctx, roomID)
	if err != nil {
		s.logger.Warn("loading cached history failed", "room", roomID, "error", err)
	}
	for i := range events {
		room.fold(&events[i])
	}
	room.cached = len(events) > 0
	if tail, err := s.cache.LoadLastChunk(ctx, roomID); err == nil && tail != nil {
		room.cached = true
	}
	refreshSummaryPreview(room)

	s.rooms[roomID] = room
	s.order = append(s.order, roomID)
	return room
}

// fold applies one timeline event to the room model and returns the
// diffs it produced. Reactions, redactions, and echoes of our own
// sends update existing items in place (Set); everything else appends.
func (room *roomState) fold(event *messaging.Event) []seqdiff.Diff[TimelineItem] {
	// Redaction: blank the target item, or peel off a reaction if
	// the redacted event was an annotation.
	if !event.Redacts.IsZero() {
		if index := room.indexOf(event.Redacts); index >= 0 {
			item := room.items[index]
			item.Redacted = true
			room.items[index] = item
			return []seqdiff.Diff[TimelineItem]{seqdiff.Set(index, item)}
		}
		for index := range room.items {
			item := room.items[index]
			for position, reaction := range item.Reactions {
				if reaction.EventID == event.Redacts {
					item.Reactions = append(item.Reactions[:position:position], item.Reactions[position+1:]...)
					room.items[index] = item
					return []seqdiff.Diff[TimelineItem]{seqdiff.Set(index, item)}
				}
			}
		}
		return nil
	}

	// Reaction: fold the annotation into its target. Annotations for
	// events outside the window are dropped.
	if event.Type == "m.reaction" {
		target, key, ok := event.Annotation()
		if !ok {
			return nil
		}
		index := room.indexOf(target)
		if index < 0 {
			return nil
		}
		item := room.items[index]
		for _, existing := range item.Reactions {
			if existing.EventID == event.EventID {
				return nil
			}
		}
		item.Reactions = append(item.Reactions[:len(item.Reactions):len(item.Reactions)],
			Reaction{Key: key, Sender: event.Sender, EventID: event.EventID})
		room.items[index] = item
		return []seqdiff.Diff[TimelineItem]{seqdiff.Set(index, item)}
	}

	// Server echo of an event already present (or of a local echo):
	// replace in place.
	if index := room.indexOf(event.EventID); index >= 0 {
		item := TimelineItem{Event: *event,
			Reactions: room.items[index].Reactions,
			ReadBy:    room.items[index].ReadBy,
		}
		room.items[index] = item
		return []seqdiff.Diff[TimelineItem]{seqdiff.Set(index, item)}
	}
	if index := room.matchLocalEcho(event); index >= 0 {
		item := TimelineItem{Event: *event}
		room.items[index] = item
		return []seqdiff.Diff[TimelineItem]{seqdiff.Set(index, item)}
	}

	item := TimelineItem{Event: *event}
	room.items = append(room.items, item)
	return []seqdiff.Diff[TimelineItem]{seqdiff.Append(item)}
}

// foldReceipts applies an ephemeral m.receipt event, pointing users'
// read markers at the items they name.
func (room *roomState) foldReceipts(event *messaging.Event) []seqdiff.Diff[TimelineItem] {
	if event.Type != "m.receipt" {
		return nil
	}

	var diffs []seqdiff.Diff[TimelineItem]
	for target, users := range event.ReadReceipts() {
		targetID, err := ref.ParseEventID(target)
		if err != nil {
			continue
		}
		index := room.indexOf(targetID)
		if index < 0 {
			continue
		}
		item := room.items[index]
		changed := false
		for _, user := range users {
			if !containsUser(item.ReadBy, user) {
				item.ReadBy = append(item.ReadBy[:len(item.ReadBy):len(item.ReadBy)], user)
				changed = true
			}
		}
		if changed {
			room.items[index] = item
			diffs = append(diffs, seqdiff.Set(index, item))
		}
	}
	return diffs
}

// indexOf returns the position of the item with the given event ID, or
// -1. Searched newest-first: folds almost always target recent items.
func (room *roomState) indexOf(eventID ref.EventID) int {
	if eventID.IsZero() {
		return -1
	}
	for index := len(room.items) - 1; index >= 0; index-- {
		if room.items[index].Event.EventID == eventID {
			return index
		}
	}
	return -1
}

// matchLocalEcho finds an unconfirmed local echo matching an incoming
// event from the same sender with the same body. Covers the race where
// the /sync echo arrives before the send call returns its event ID.
func (room *roomState) matchLocalEcho(event *messaging.Event) int {
	body, _, ok := event.MessageBody()
	if !ok {
		return -1
	}
	for index := len(room.items) - 1; index >= 0; index-- {
		item := &room.items[index]
		if !item.LocalEcho || item.Event.Sender != event.Sender {
			continue
		}
		if echoBody, _, ok := item.Event.MessageBody(); ok && echoBody == body {
			return index
		}
	}
	return -1
}

// updateSummaryLocked refreshes a room's summary from this batch's
// state and timeline events. Caller holds s.mu.
func (s *Service) updateSummaryLocked(room *roomState, state, timeline []messaging.Event) {
	for _, events := range [][]messaging.Event{state, timeline} {
		for i := range events {
			event := &events[i]
			switch event.Type {
			case "m.room.name", "m.room.canonical_alias":
				room.named = false // recompute below
			}
		}
	}

	if !room.named {
		combined := make([]messaging.Event, 0, len(state)+len(timeline))
		combined = append(combined, state...)
		combined = append(combined, timeline...)
		name := messaging.ComputeDisplayName(combined, s.session.UserID())
		if name != "Empty room" {
			room.summary.Name = name
			room.named = true
		}
	}

	refreshSummaryPreview(room)
}

// refreshSummaryPreview recomputes the preview line and activity
// timestamp from the folded items.
func refreshSummaryPreview(room *roomState) {
	for index := len(room.items) - 1; index >= 0; index-- {
		item := &room.items[index]
		if room.summary.LastActivity < item.Event.OriginServerTS {
			room.summary.LastActivity = item.Event.OriginServerTS
		}
		if item.Redacted {
			continue
		}
		if body, _, ok := item.Event.MessageBody(); ok {
			room.summary.LastMessage = body
			return
		}
	}
}

func containsUser(users []ref.UserID, user ref.UserID) bool {
	for _, existing := range users {
		if existing == user {
			return true
		}
	}
	return false
}

// moveToFrontLocked moves a room to the front of the recency order.
func (s *Service) moveToFrontLocked(roomID ref.RoomID) {
	s.removeFromOrderLocked(roomID)
	s.order = append([]ref.RoomID{roomID}, s.order...)
}

func (s *Service) removeFromOrderLocked(roomID ref.RoomID) {
	for index, existing := range s.order {
		if existing == roomID {
			s.order = append(s.order[:index], s.order[index+1:]...)
			return
		}
	}
}

// snapshotLocked returns the current recency-ordered summaries.
func (s *Service) snapshotLocked() []RoomSummary {
	summaries := make([]RoomSummary, 0, len(s.order))
	for _, roomID := range s.order {
		if room, known := s.rooms[roomID]; known {
			summaries = append(summaries, room.summary)
		}
	}
	return summaries
}
