// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import "github.com/bureau-foundation/multiverse/syncer"

// dispatch applies one message to the model and returns the chained
// follow-up, or nil when the chain ends. Messages that don't match
// the current mode (a stale diff for a closed sub-model, a room
// command with no room open) are silently ignored.
func (model *Model) dispatch(message Message) Message {
	switch message := message.(type) {
	case quitMsg:
		model.quitting = true

	case setModeMsg:
		model.setMode(message.mode)

	case openRoomMsg:
		model.openRoom(message.summary)
		return setModeMsg{mode: ModeNone}

	case listFilterKeyMsg, listMoveMsg, listSelectMsg:
		if model.mode == ModeRoomList && model.roomList != nil {
			return model.roomList.update(message)
		}

	case roomListDiffMsg:
		// Diff batches apply even while another message is on screen
		// only if the sub-model still exists; a batch for a dropped
		// subscription is stale and skipped.
		if model.roomList != nil {
			model.roomList.applyDiffs(message.batch)
		}

	case spaceCommandMsg:
		if model.mode == ModeSpace {
			return model.handleSpaceCommand(message.command)
		}

	case timelineDiffMsg:
		if model.room != nil && model.room.roomID == message.roomID {
			model.room.applyDiffs(message.batch)
		}

	case composerKeyMsg:
		if model.mode == ModeInsert && model.room != nil {
			return model.room.handleComposerKey(message.key)
		}

	case sendComposedMsg:
		if model.room != nil {
			model.room.sendComposed()
		}
		return setModeMsg{mode: ModeNone}

	case timelineScrollMsg:
		if model.room != nil {
			model.room.scrollTimeline(message.direction)
		}
		if model.mode == ModeRoom {
			return setModeMsg{mode: ModeNone}
		}

	case showDetailsMsg:
		if model.room != nil {
			model.room.showDetails(message.details)
		}
		return setModeMsg{mode: ModeNone}

	case paginateBackwardsMsg:
		if model.room != nil {
			model.room.paginateBackwards()
		}
		return setModeMsg{mode: ModeNone}

	case toggleReactionMsg:
		if model.room != nil {
			model.room.toggleReaction()
		}
		return setModeMsg{mode: ModeNone}

	case markReadMsg:
		if model.room != nil {
			model.room.markRead()
		}
		return setModeMsg{mode: ModeNone}

	case emptyRoomCacheMsg:
		if model.room != nil {
			model.room.emptyCache()
		}
		return setModeMsg{mode: ModeNone}

	case loggerMsg:
		if model.mode == ModeLogger && model.loggerView != nil {
			model.loggerView.update(message.action)
		}

	case syncStateMsg, redrawMsg:
		// Repaint only.
	}

	return nil
}

// handleSpaceCommand executes a command palette entry. Commands that
// act and return (start/stop sync, empty caches) chain back to mode
// None; navigation commands chain to the target mode.
func (model *Model) handleSpaceCommand(command spaceCommand) Message {
	switch command {
	case spaceOpenRoomList:
		return setModeMsg{mode: ModeRoomList}

	case spaceStartSync:
		model.service.Start(model.ctx)
		return setModeMsg{mode: ModeNone}

	case spaceStopSync:
		model.service.Stop()
		return setModeMsg{mode: ModeNone}

	case spaceEmptyCache:
		if err := model.service.ClearAll(model.ctx); err != nil {
			model.logger.Warn("emptying event caches failed", "error", err)
		}
		return setModeMsg{mode: ModeNone}

	case spaceOpenLogger:
		return setModeMsg{mode: ModeLogger}
	}
	return nil
}

// openRoom replaces the opened conversation.
func (model *Model) openRoom(summary syncer.RoomSummary) {
	if model.room != nil {
		model.room.Close()
	}
	model.room = newRoomModel(model.ctx, model.service, model.queue, model.logger, model.theme, summary)
}
