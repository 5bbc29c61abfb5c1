// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"fmt"
	"time"

	"github.com/bureau-foundation/multiverse/eventcache"
	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/messaging"
	"github.com/bureau-foundation/multiverse/seqdiff"
)

// PaginateLimit is the number of events fetched per backwards
// pagination call.
const PaginateLimit = 20

// ChunkLoader exposes the event cache's read contract for the chunk
// debug view.
func (s *Service) ChunkLoader() eventcache.Loader {
	return s.cache
}

// SendMessage sends a text message. A local echo item is pushed
// immediately; the send confirmation (and later the /sync echo)
// replace it in place. The error is also logged, so dispatch callers
// may ignore it.
func (s *Service) SendMessage(ctx context.Context, roomID ref.RoomID, body string) error {
	echo := TimelineItem{
		LocalEcho: true,
		Event: messaging.Event{
			Type:           "m.room.message",
			Sender:         s.session.UserID(),
			OriginServerTS: time.Now().UnixMilli(),
			Content: map[string]any{
				"msgtype": "m.text",
				"body":    body,
			},
		},
	}

	s.mu.Lock()
	room := s.ensureRoomLocked(ctx, roomID)
	index := len(room.items)
	room.items = append(room.items, echo)
	s.pushTimelineLocked(roomID, []seqdiff.Diff[TimelineItem]{seqdiff.PushBack(echo)})
	s.mu.Unlock()

	eventID, err := s.session.SendMessage(ctx, roomID, messaging.NewTextMessage(body))
	if err != nil {
		s.logger.Warn("sending message failed", "room", roomID, "error", err)
		return fmt.Errorf("syncer: send message: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	room, known := s.rooms[roomID]
	if !known {
		return nil
	}
	// The /sync echo may have landed first and already confirmed the
	// item; only fill in the event ID if the echo is still pending.
	if index < len(room.items) && room.items[index].LocalEcho && room.items[index].Event.EventID.IsZero() {
		item := room.items[index]
		item.Event.EventID = eventID
		room.items[index] = item
		s.pushTimelineLocked(roomID, []seqdiff.Diff[TimelineItem]{seqdiff.Set(index, item)})
	}
	return nil
}

// MarkRead sends a read receipt for the newest confirmed timeline item
// and folds our own marker in locally.
func (s *Service) MarkRead(ctx context.Context, roomID ref.RoomID) error {
	s.mu.Lock()
	room := s.ensureRoomLocked(ctx, roomID)
	target := ref.EventID{}
	for index := len(room.items) - 1; index >= 0; index-- {
		if !room.items[index].Event.EventID.IsZero() {
			target = room.items[index].Event.EventID
			break
		}
	}
	s.mu.Unlock()

	if target.IsZero() {
		return nil
	}

	if err := s.session.SendReceipt(ctx, roomID, "m.read", target); err != nil {
		s.logger.Warn("sending read receipt failed", "room", roomID, "error", err)
		return fmt.Errorf("syncer: mark read: %w", err)
	}

	self := s.session.UserID()
	s.mu.Lock()
	defer s.mu.Unlock()
	room, known := s.rooms[roomID]
	if !known {
		return nil
	}
	index := room.indexOf(target)
	if index < 0 {
		return nil
	}
	item := room.items[index]
	if containsUser(item.ReadBy, self) {
		return nil
	}
	item.ReadBy = append(item.ReadBy[:len(item.ReadBy):len(item.ReadBy)], self)
	room.items[index] = item
	s.pushTimelineLocked(roomID, []seqdiff.Diff[TimelineItem]{seqdiff.Set(index, item)})
	return nil
}

// ToggleReaction reacts to the newest message item with the given key,
// or redacts our existing reaction if one is already there.
func (s *Service) ToggleReaction(ctx context.Context, roomID ref.RoomID, key string) error {
	self := s.session.UserID()

	s.mu.Lock()
	room := s.ensureRoomLocked(ctx, roomID)
	target := ref.EventID{}
	var existing Reaction
	var toggleOff bool
	for index := len(room.items) - 1; index >= 0; index-- {
		item := &room.items[index]
		if item.Redacted || item.Event.EventID.IsZero() {
			continue
		}
		if _, _, ok := item.Event.MessageBody(); !ok {
			continue
		}
		target = item.Event.EventID
		existing, toggleOff = item.reactionBy(key, self)
		break
	}
	s.mu.Unlock()

	if target.IsZero() {
		return nil
	}

	if toggleOff {
		if _, err := s.session.RedactEvent(ctx, roomID, existing.EventID, ""); err != nil {
			s.logger.Warn("removing reaction failed", "room", roomID, "error", err)
			return fmt.Errorf("syncer: toggle reaction: %w", err)
		}
		s.foldOwnRedaction(roomID, existing.EventID)
		return nil
	}

	reactionID, err := s.session.SendReaction(ctx, roomID, target, key)
	if err != nil {
		s.logger.Warn("sending reaction failed", "room", roomID, "error", err)
		return fmt.Errorf("syncer: toggle reaction: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	room, known := s.rooms[roomID]
	if !known {
		return nil
	}
	index := room.indexOf(target)
	if index < 0 {
		return nil
	}
	item := room.items[index]
	if _, already := item.reactionBy(key, self); already {
		return nil
	}
	item.Reactions = append(item.Reactions[:len(item.Reactions):len(item.Reactions)],
		Reaction{Key: key, Sender: self, EventID: reactionID})
	room.items[index] = item
	s.pushTimelineLocked(roomID, []seqdiff.Diff[TimelineItem]{seqdiff.Set(index, item)})
	return nil
}

// foldOwnRedaction removes a reaction we just redacted, without
// waiting for the /sync echo.
func (s *Service) foldOwnRedaction(roomID ref.RoomID, reactionID ref.EventID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, known := s.rooms[roomID]
	if !known {
		return
	}
	redaction := messaging.Event{Redacts: reactionID}
	s.pushTimelineLocked(roomID, room.fold(&redaction))
}

// PaginateBackwards fetches up to PaginateLimit older events from the
// room's most recent unfilled gap, persists them into it, and pushes
// the backfill as PushFront diffs. A room with no known gap has
// nothing to fetch.
func (s *Service) PaginateBackwards(ctx context.Context, roomID ref.RoomID) error {
	s.mu.Lock()
	room := s.ensureRoomLocked(ctx, roomID)
	gapChunk, gapToken := room.gapChunk, room.gapToken
	s.mu.Unlock()

	if gapChunk == 0 {
		return nil
	}

	response, err := s.session.RoomMessages(ctx, roomID, messaging.RoomMessagesOptions{
		From:  gapToken,
		Limit: PaginateLimit,
	})
	if err != nil {
		s.logger.Warn("pagination failed", "room", roomID, "error", err)
		return fmt.Errorf("syncer: paginate backwards: %w", err)
	}

	// The response arrives newest first; the cache stores chunks in
	// chronological order. An empty chunk or a missing end token
	// means history is exhausted.
	remainingToken := response.End
	if len(response.Chunk) == 0 {
		remainingToken = ""
	}
	chronological := make([]messaging.Event, len(response.Chunk))
	for index := range response.Chunk {
		chronological[len(response.Chunk)-1-index] = response.Chunk[index]
	}

	continuation, err := s.cache.FillGap(ctx, roomID, gapChunk, chronological, remainingToken)
	if err != nil {
		s.logger.Warn("persisting backfill failed", "room", roomID, "error", err)
		return fmt.Errorf("syncer: paginate backwards: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	room, known := s.rooms[roomID]
	if !known {
		return nil
	}
	room.gapChunk = continuation
	if continuation == 0 {
		room.gapToken = ""
	} else {
		room.gapToken = remainingToken
	}

	// First pass: prepend the displayable events in arrival order
	// (newest first), which lands them at the front in chronological
	// order. Second pass: fold annotations and redactions, which now
	// find their targets.
	var diffs []seqdiff.Diff[TimelineItem]
	for index := range response.Chunk {
		event := &response.Chunk[index]
		if event.Type == "m.reaction" || !event.Redacts.IsZero() {
			continue
		}
		if room.indexOf(event.EventID) >= 0 {
			continue
		}
		item := TimelineItem{Event: *event}
		room.items = append([]TimelineItem{item}, room.items...)
		diffs = append(diffs, seqdiff.PushFront(item))
	}
	for index := range response.Chunk {
		event := &response.Chunk[index]
		if event.Type == "m.reaction" || !event.Redacts.IsZero() {
			diffs = append(diffs, room.fold(event)...)
		}
	}
	s.pushTimelineLocked(roomID, diffs)
	return nil
}

// ClearRoom wipes one room's cached history and resets its timeline.
func (s *Service) ClearRoom(ctx context.Context, roomID ref.RoomID) error {
	if err := s.cache.ClearRoom(ctx, roomID); err != nil {
		s.logger.Warn("clearing room cache failed", "room", roomID, "error", err)
		return fmt.Errorf("syncer: clear room: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearRoomLocked(roomID)
	s.publishRoomListLocked()
	return nil
}

// ClearAll wipes the whole event cache and resets every timeline.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.cache.ClearAll(ctx); err != nil {
		s.logger.Warn("clearing event cache failed", "error", err)
		return fmt.Errorf("syncer: clear all: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for roomID := range s.rooms {
		s.clearRoomLocked(roomID)
	}
	s.publishRoomListLocked()
	return nil
}

// clearRoomLocked resets a room's in-memory model after its cache was
// wiped. Caller holds s.mu.
func (s *Service) clearRoomLocked(roomID ref.RoomID) {
	room, known := s.rooms[roomID]
	if !known {
		return
	}
	room.items = nil
	room.cached = false
	room.gapChunk = 0
	room.gapToken = ""
	room.summary.LastMessage = ""
	s.pushTimelineLocked(roomID, []seqdiff.Diff[TimelineItem]{seqdiff.Clear[TimelineItem]()})
}
