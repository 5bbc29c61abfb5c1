// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/charmbracelet/bubbles/textinput"

	"github.com/bureau-foundation/multiverse/seqdiff"
	"github.com/bureau-foundation/multiverse/syncer"
)

// roomListModel is the sub-model backing the room selection overlay.
// It owns a room list subscription for its lifetime: constructed on
// entering the mode, closed on leaving it. Diff batches arrive through
// the event queue so the update loop stays single-threaded.
type roomListModel struct {
	service *syncer.Service
	logger  *slog.Logger
	theme   Theme

	subscription *syncer.RoomListSubscription
	cancel       context.CancelFunc

	// rooms mirrors the subscription's filtered view, maintained by
	// applying diff batches in order.
	rooms  []syncer.RoomSummary
	cursor int

	filter textinput.Model
}

func newRoomListModel(ctx context.Context, service *syncer.Service, queue *EventQueue, logger *slog.Logger, theme Theme) *roomListModel {
	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter rooms"
	filter.Focus()

	list := &roomListModel{
		service: service,
		logger:  logger,
		theme:   theme,
		filter:  filter,
	}

	list.subscription = service.SubscribeRoomList()

	forwardCtx, cancel := context.WithCancel(ctx)
	list.cancel = cancel
	go func() {
		for {
			select {
			case batch, ok := <-list.subscription.Batches():
				if !ok {
					return
				}
				if err := queue.Deliver(forwardCtx, roomListDiffMsg{batch: batch}); err != nil {
					return
				}
			case <-forwardCtx.Done():
				return
			}
		}
	}()

	return list
}

// Close tears down the subscription and the forwarder goroutine. Safe
// to call once; the model is unusable afterwards.
func (list *roomListModel) Close() {
	list.cancel()
	list.subscription.Close()
}

func (list *roomListModel) applyDiffs(batch []seqdiff.Diff[syncer.RoomSummary]) {
	rooms, err := seqdiff.ApplyAll(list.rooms, batch)
	if err != nil {
		list.logger.Error("room list diff batch does not apply", "error", err)
		return
	}
	list.rooms = rooms
	if list.cursor >= len(list.rooms) {
		list.cursor = len(list.rooms) - 1
	}
	if list.cursor < 0 {
		list.cursor = 0
	}
}

// update handles the mode-scoped list messages. Unhandled keys fall
// through to the filter input, which reinstalls the subscription's
// predicate on every change.
func (list *roomListModel) update(message Message) Message {
	switch message := message.(type) {
	case listMoveMsg:
		list.cursor += message.delta
		if list.cursor < 0 {
			list.cursor = 0
		}
		if last := len(list.rooms) - 1; list.cursor > last && last >= 0 {
			list.cursor = last
		}
	case listSelectMsg:
		if list.cursor < len(list.rooms) {
			return openRoomMsg{summary: list.rooms[list.cursor]}
		}
	case listFilterKeyMsg:
		before := list.filter.Value()
		list.filter, _ = list.filter.Update(tea.Msg(message.key))
		if list.filter.Value() != before {
			list.installFilter()
		}
	}
	return nil
}

func (list *roomListModel) installFilter() {
	text := list.filter.Value()
	if text == "" {
		list.subscription.SetFilter(nil)
		return
	}
	pattern := []rune(text)
	list.subscription.SetFilter(func(room syncer.RoomSummary) bool {
		return FuzzyMatch(room.Name, pattern, nil).Matched
	})
}

// selected returns the room under the cursor, for the preview pane.
func (list *roomListModel) selected() (syncer.RoomSummary, bool) {
	if list.cursor < len(list.rooms) {
		return list.rooms[list.cursor], true
	}
	return syncer.RoomSummary{}, false
}
