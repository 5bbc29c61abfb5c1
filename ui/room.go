// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"context"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charmbracelet/bubbles/textarea"

	"github.com/bureau-foundation/multiverse/eventcache"
	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/seqdiff"
	"github.com/bureau-foundation/multiverse/syncer"
)

// toggleReactionKey is the annotation key sent by the reaction
// shortcut. Toggling any other key is out of scope for the keyboard
// surface.
const toggleReactionKey = "👍"

// roomModel is the sub-model for the currently open room. Unlike the
// room list and logger sub-models it survives mode changes: opening a
// room keeps its subscription alive until another room is opened or
// the program exits, so switching between the timeline and other
// views does not refetch anything.
type roomModel struct {
	service *syncer.Service
	queue   *EventQueue
	logger  *slog.Logger
	theme   Theme

	ctx    context.Context
	cancel context.CancelFunc

	roomID ref.RoomID
	title  string

	subscription *syncer.TimelineSubscription

	// items mirrors the service's folded timeline for this room,
	// maintained by applying diff batches in order.
	items []syncer.TimelineItem

	// scroll offsets the timeline item view; chunkScroll offsets the
	// line-oriented chunk inspector. They are independent so leaving
	// the inspector restores the previous timeline position.
	scroll      itemScroll
	chunkScroll heightScroll

	details detailsView

	// chunks is the reconstructed storage chain, populated only while
	// the chunk inspector is showing.
	chunks []eventcache.Chunk

	composer textarea.Model
}

func newRoomModel(ctx context.Context, service *syncer.Service, queue *EventQueue, logger *slog.Logger, theme Theme, summary syncer.RoomSummary) *roomModel {
	composer := textarea.New()
	composer.Placeholder = "message"
	composer.ShowLineNumbers = false
	composer.SetHeight(3)
	composer.CharLimit = 0

	roomCtx, cancel := context.WithCancel(ctx)
	room := &roomModel{
		service:  service,
		queue:    queue,
		logger:   logger,
		theme:    theme,
		ctx:      roomCtx,
		cancel:   cancel,
		roomID:   summary.RoomID,
		title:    summary.Name,
		composer: composer,
	}

	room.subscription = service.SubscribeTimeline(roomCtx, summary.RoomID)
	go func() {
		for {
			select {
			case batch, ok := <-room.subscription.Batches():
				if !ok {
					return
				}
				message := timelineDiffMsg{roomID: summary.RoomID, batch: batch}
				if err := queue.Deliver(roomCtx, message); err != nil {
					return
				}
			case <-roomCtx.Done():
				return
			}
		}
	}()

	return room
}

// Close tears down the subscription and the forwarder goroutine.
func (room *roomModel) Close() {
	room.cancel()
	room.subscription.Close()
}

func (room *roomModel) applyDiffs(batch []seqdiff.Diff[syncer.TimelineItem]) {
	items, err := seqdiff.ApplyAll(room.items, batch)
	if err != nil {
		room.logger.Error("timeline diff batch does not apply",
			"room_id", room.roomID, "error", err)
		return
	}
	room.items = items

	if room.details != detailsLinkedChunk {
		return
	}
	for _, diff := range batch {
		if seqdiff.Structural(diff) {
			room.reloadChunks()
			break
		}
	}
}

// showDetails switches the timeline rendering variant. Entering or
// leaving the chunk inspector resets both scroll positions to zero,
// the newest end: the two views measure in different units, so a
// carried-over offset would land somewhere arbitrary.
func (room *roomModel) showDetails(details detailsView) {
	crossing := (room.details == detailsLinkedChunk) != (details == detailsLinkedChunk)
	room.details = details
	if crossing {
		room.scroll = itemScroll{}
		room.chunkScroll = heightScroll{}
	}
	if details == detailsLinkedChunk {
		room.reloadChunks()
	} else {
		room.chunks = nil
	}
}

// reloadChunks rebuilds the inspector's chain view from storage. The
// anchor is the oldest confirmed item on screen so the walk stops once
// it reaches history the timeline already covers.
func (room *roomModel) reloadChunks() {
	var anchor ref.EventID
	for i := range room.items {
		if !room.items[i].Event.EventID.IsZero() {
			anchor = room.items[i].Event.EventID
			break
		}
	}
	room.chunks = eventcache.Reconstruct(room.ctx, room.service.ChunkLoader(), room.logger, room.roomID, anchor)
}

func (room *roomModel) scrollTimeline(direction scrollDirection) {
	if room.details == detailsLinkedChunk {
		switch direction {
		case scrollUp:
			room.chunkScroll.Up()
		case scrollDown:
			room.chunkScroll.Down()
		case scrollStart:
			room.chunkScroll.Start()
		case scrollEnd:
			room.chunkScroll.End()
		}
		return
	}
	switch direction {
	case scrollUp:
		room.scroll.Up(len(room.items))
	case scrollDown:
		room.scroll.Down(len(room.items))
	case scrollStart:
		room.scroll.Start(len(room.items))
	case scrollEnd:
		room.scroll.End()
	}
}

// handleComposerKey feeds insert-mode keystrokes into the textarea.
// Enter submits; everything else edits.
func (room *roomModel) handleComposerKey(keyMsg tea.KeyMsg) Message {
	if keyMsg.Type == tea.KeyEnter {
		return sendComposedMsg{}
	}
	room.composer, _ = room.composer.Update(tea.Msg(keyMsg))
	return nil
}

// sendComposed hands the composer body to the sync service and clears
// the input. The call completes before the dispatch chain continues,
// so a mark-read issued right after the send observes the sent event.
// The local echo arrives back as a timeline diff.
func (room *roomModel) sendComposed() {
	body := strings.TrimSpace(room.composer.Value())
	if body == "" {
		return
	}
	room.composer.Reset()
	room.scroll.End()

	if err := room.service.SendMessage(room.ctx, room.roomID, body); err != nil {
		room.logger.Warn("send failed", "room_id", room.roomID, "error", err)
	}
}

func (room *roomModel) paginateBackwards() {
	if err := room.service.PaginateBackwards(room.ctx, room.roomID); err != nil {
		room.logger.Warn("back-pagination failed", "room_id", room.roomID, "error", err)
	}
}

func (room *roomModel) toggleReaction() {
	if err := room.service.ToggleReaction(room.ctx, room.roomID, toggleReactionKey); err != nil {
		room.logger.Warn("reaction toggle failed", "room_id", room.roomID, "error", err)
	}
}

func (room *roomModel) markRead() {
	if err := room.service.MarkRead(room.ctx, room.roomID); err != nil {
		room.logger.Warn("read receipt failed", "room_id", room.roomID, "error", err)
	}
}

func (room *roomModel) emptyCache() {
	if err := room.service.ClearRoom(room.ctx, room.roomID); err != nil {
		room.logger.Warn("cache clear failed", "room_id", room.roomID, "error", err)
	}
}
