// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/seqdiff"
	"github.com/bureau-foundation/multiverse/syncer"
)

// Message is the closed vocabulary the dispatcher operates on. Key
// presses translate to messages through the mode-scoped key table;
// background producers deliver messages through the event queue.
// Unmatched (mode, message) pairs are silently ignored.
type Message interface {
	isMessage()
}

// Control messages.

// quitMsg ends the program.
type quitMsg struct{}

// setModeMsg activates a mode, dropping the previous sub-model.
type setModeMsg struct {
	mode Mode
}

// openRoomMsg replaces the opened conversation.
type openRoomMsg struct {
	summary syncer.RoomSummary
}

// Room-list mode messages.

type listFilterKeyMsg struct {
	key tea.KeyMsg
}

type listMoveMsg struct {
	delta int
}

type listSelectMsg struct{}

// roomListDiffMsg carries a diff batch from the room-list
// subscription. Delivered blocking: never dropped.
type roomListDiffMsg struct {
	batch []seqdiff.Diff[syncer.RoomSummary]
}

// Space mode messages.

type spaceCommand int

const (
	spaceOpenRoomList spaceCommand = iota
	spaceStartSync
	spaceStopSync
	spaceEmptyCache
	spaceOpenLogger
)

type spaceCommandMsg struct {
	command spaceCommand
}

// Room messages (the opened conversation).

type scrollDirection int

const (
	scrollUp scrollDirection = iota
	scrollDown
	scrollStart
	scrollEnd
)

type timelineScrollMsg struct {
	direction scrollDirection
}

// detailsView selects what the timeline renders per item.
type detailsView int

const (
	detailsNone detailsView = iota
	detailsEventID
	detailsOrigin
	detailsLinkedChunk
)

type showDetailsMsg struct {
	details detailsView
}

type paginateBackwardsMsg struct{}

type toggleReactionMsg struct{}

type markReadMsg struct{}

type emptyRoomCacheMsg struct{}

// composerKeyMsg routes an Insert-mode keystroke to the composer.
type composerKeyMsg struct {
	key tea.KeyMsg
}

// sendComposedMsg sends the composer content.
type sendComposedMsg struct{}

// timelineDiffMsg carries a diff batch for an opened room's timeline.
// Delivered blocking: never dropped.
type timelineDiffMsg struct {
	roomID ref.RoomID
	batch  []seqdiff.Diff[syncer.TimelineItem]
}

// Logger mode messages.

type loggerAction int

const (
	loggerOpenPanel loggerAction = iota
	loggerScrollUp
	loggerScrollDown
	loggerToggleFilters
	loggerFocusFilter
	loggerLevelUp
	loggerLevelDown
)

type loggerMsg struct {
	action loggerAction
}

// Droppable signals.

// syncStateMsg reports a sync service state change. Idempotent: the
// status bar re-reads the service state on render.
type syncStateMsg struct {
	state syncer.State
}

// redrawMsg requests a repaint with no state change (logger ticker,
// terminal resize follow-ups).
type redrawMsg struct{}

func (quitMsg) isMessage()              {}
func (setModeMsg) isMessage()           {}
func (openRoomMsg) isMessage()          {}
func (listFilterKeyMsg) isMessage()     {}
func (listMoveMsg) isMessage()          {}
func (listSelectMsg) isMessage()        {}
func (roomListDiffMsg) isMessage()      {}
func (spaceCommandMsg) isMessage()      {}
func (timelineScrollMsg) isMessage()    {}
func (showDetailsMsg) isMessage()       {}
func (paginateBackwardsMsg) isMessage() {}
func (toggleReactionMsg) isMessage()    {}
func (markReadMsg) isMessage()          {}
func (emptyRoomCacheMsg) isMessage()    {}
func (composerKeyMsg) isMessage()       {}
func (sendComposedMsg) isMessage()      {}
func (timelineDiffMsg) isMessage()      {}
func (loggerMsg) isMessage()            {}
func (syncStateMsg) isMessage()         {}
func (redrawMsg) isMessage()            {}
