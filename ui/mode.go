// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

// Mode identifies the active input mode. Exactly one is active at a
// time; activating a mode drops the previous mode's sub-model and
// cancels any background subscription it owned.
type Mode int

const (
	// ModeNone is the idle home state.
	ModeNone Mode = iota
	// ModeInsert routes keystrokes to the message composer.
	ModeInsert
	// ModeSpace shows the command palette.
	ModeSpace
	// ModeRoomList shows the room browser overlay.
	ModeRoomList
	// ModeRoom shows the opened room's key help overlay.
	ModeRoom
	// ModeLogger shows the diagnostics viewer.
	ModeLogger
)

func (mode Mode) String() string {
	switch mode {
	case ModeNone:
		return "none"
	case ModeInsert:
		return "insert"
	case ModeSpace:
		return "space"
	case ModeRoomList:
		return "room list"
	case ModeRoom:
		return "room"
	case ModeLogger:
		return "logger"
	default:
		return "unknown"
	}
}

// setMode replaces the active mode. The outgoing mode's sub-model is
// dropped first so its subscription forwarder stops before the new
// mode starts producing.
func (model *Model) setMode(mode Mode) {
	if model.roomList != nil {
		model.roomList.Close()
		model.roomList = nil
	}
	model.loggerView = nil

	model.mode = mode

	switch mode {
	case ModeRoomList:
		model.roomList = newRoomListModel(model.ctx, model.service, model.queue, model.logger, model.theme)
	case ModeLogger:
		model.loggerView = newLoggerModel(model.logs, model.theme)
	case ModeInsert:
		if model.room != nil {
			model.room.composer.Focus()
		}
	}
}
