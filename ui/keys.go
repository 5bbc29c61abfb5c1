// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the key bindings. Most bindings are mode-scoped: the
// translation in keyToMessage consults the active mode first, so the
// same key can mean different things in different modes (s stops the
// sync service in Space mode and scrolls to the start in a room).
type KeyMap struct {
	// Global.
	Cancel key.Binding // Esc: back to mode None from anywhere.

	// Mode None.
	Quit         key.Binding
	EnterSpace   key.Binding
	EnterRoom    key.Binding
	EnterInsert  key.Binding
	EnterLogger  key.Binding
	TimelineUp   key.Binding
	TimelineDown key.Binding

	// Space mode.
	SpaceRoomList   key.Binding
	SpaceStartSync  key.Binding
	SpaceStopSync   key.Binding
	SpaceEmptyCache key.Binding
	SpaceLogger     key.Binding

	// Room-list mode.
	ListUp     key.Binding
	ListDown   key.Binding
	ListSelect key.Binding

	// Room mode.
	RoomPaginate    key.Binding
	RoomReact       key.Binding
	RoomScrollStart key.Binding
	RoomScrollEnd   key.Binding
	RoomViewNone    key.Binding
	RoomViewEventID key.Binding
	RoomViewOrigin  key.Binding
	RoomViewChunks  key.Binding
	RoomMarkRead    key.Binding
	RoomEmptyCache  key.Binding

	// Logger mode.
	LoggerPanel     key.Binding
	LoggerUp        key.Binding
	LoggerDown      key.Binding
	LoggerLevelUp   key.Binding
	LoggerLevelDown key.Binding
	LoggerFocus     key.Binding
	LoggerFilters   key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "deactivate mode")),

	Quit:         key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	EnterSpace:   key.NewBinding(key.WithKeys(" "), key.WithHelp("Space", "space mode")),
	EnterRoom:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "room mode")),
	EnterInsert:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "insert mode")),
	EnterLogger:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "logger mode")),
	TimelineUp:   key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "scroll up")),
	TimelineDown: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "scroll down")),

	SpaceRoomList:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "open room list")),
	SpaceStartSync:  key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "start the sync service")),
	SpaceStopSync:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stop the sync service")),
	SpaceEmptyCache: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "empty all room event caches")),
	SpaceLogger:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "open logger")),

	ListUp:     key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "move up")),
	ListDown:   key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "move down")),
	ListSelect: key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "open room")),

	RoomPaginate:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "paginate backwards")),
	RoomReact:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "toggle reaction to last message")),
	RoomScrollStart: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "goto start of timeline")),
	RoomScrollEnd:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "goto end of timeline")),
	RoomViewNone:    key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "view timeline")),
	RoomViewEventID: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "view event ID")),
	RoomViewOrigin:  key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "view event origin")),
	RoomViewChunks:  key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "view linked chunk")),
	RoomMarkRead:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mark as read")),
	RoomEmptyCache:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "empty room event cache")),

	LoggerPanel:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "command panel")),
	LoggerUp:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "scroll up")),
	LoggerDown:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "scroll down")),
	LoggerLevelUp:   key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "increase log level")),
	LoggerLevelDown: key.NewBinding(key.WithKeys("left"), key.WithHelp("←", "decrease log level")),
	LoggerFocus:     key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "focus filter")),
	LoggerFilters:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "toggle filters")),
}

// keyToMessage translates a key press to a message according to the
// active mode. Returns nil for keys with no meaning in the mode.
// Insert mode and the room-list filter swallow every key that is not
// explicitly bound, so typed text never triggers commands.
func (model *Model) keyToMessage(keyMsg tea.KeyMsg) Message {
	keys := model.keys

	if key.Matches(keyMsg, keys.Cancel) {
		return setModeMsg{mode: ModeNone}
	}

	switch model.mode {
	case ModeNone:
		switch {
		case key.Matches(keyMsg, keys.Quit):
			return quitMsg{}
		case key.Matches(keyMsg, keys.EnterSpace):
			return setModeMsg{mode: ModeSpace}
		case key.Matches(keyMsg, keys.EnterRoom):
			return setModeMsg{mode: ModeRoom}
		case key.Matches(keyMsg, keys.EnterInsert):
			return setModeMsg{mode: ModeInsert}
		case key.Matches(keyMsg, keys.EnterLogger):
			return setModeMsg{mode: ModeLogger}
		case key.Matches(keyMsg, keys.TimelineUp):
			return timelineScrollMsg{direction: scrollUp}
		case key.Matches(keyMsg, keys.TimelineDown):
			return timelineScrollMsg{direction: scrollDown}
		}

	case ModeInsert:
		return composerKeyMsg{key: keyMsg}

	case ModeSpace:
		switch {
		case key.Matches(keyMsg, keys.SpaceRoomList):
			return spaceCommandMsg{command: spaceOpenRoomList}
		case key.Matches(keyMsg, keys.SpaceStartSync):
			return spaceCommandMsg{command: spaceStartSync}
		case key.Matches(keyMsg, keys.SpaceStopSync):
			return spaceCommandMsg{command: spaceStopSync}
		case key.Matches(keyMsg, keys.SpaceEmptyCache):
			return spaceCommandMsg{command: spaceEmptyCache}
		case key.Matches(keyMsg, keys.SpaceLogger):
			return spaceCommandMsg{command: spaceOpenLogger}
		}

	case ModeRoomList:
		switch {
		case key.Matches(keyMsg, keys.ListUp):
			return listMoveMsg{delta: -1}
		case key.Matches(keyMsg, keys.ListDown):
			return listMoveMsg{delta: 1}
		case key.Matches(keyMsg, keys.ListSelect):
			return listSelectMsg{}
		default:
			return listFilterKeyMsg{key: keyMsg}
		}

	case ModeRoom:
		switch {
		case key.Matches(keyMsg, keys.RoomPaginate):
			return paginateBackwardsMsg{}
		case key.Matches(keyMsg, keys.RoomReact):
			return toggleReactionMsg{}
		case key.Matches(keyMsg, keys.RoomScrollStart):
			return timelineScrollMsg{direction: scrollStart}
		case key.Matches(keyMsg, keys.RoomScrollEnd):
			return timelineScrollMsg{direction: scrollEnd}
		case key.Matches(keyMsg, keys.RoomViewNone):
			return showDetailsMsg{details: detailsNone}
		case key.Matches(keyMsg, keys.RoomViewEventID):
			return showDetailsMsg{details: detailsEventID}
		case key.Matches(keyMsg, keys.RoomViewOrigin):
			return showDetailsMsg{details: detailsOrigin}
		case key.Matches(keyMsg, keys.RoomViewChunks):
			return showDetailsMsg{details: detailsLinkedChunk}
		case key.Matches(keyMsg, keys.RoomMarkRead):
			return markReadMsg{}
		case key.Matches(keyMsg, keys.RoomEmptyCache):
			return emptyRoomCacheMsg{}
		}

	case ModeLogger:
		switch {
		case key.Matches(keyMsg, keys.LoggerPanel):
			return loggerMsg{action: loggerOpenPanel}
		case key.Matches(keyMsg, keys.LoggerUp):
			return loggerMsg{action: loggerScrollUp}
		case key.Matches(keyMsg, keys.LoggerDown):
			return loggerMsg{action: loggerScrollDown}
		case key.Matches(keyMsg, keys.LoggerLevelUp):
			return loggerMsg{action: loggerLevelUp}
		case key.Matches(keyMsg, keys.LoggerLevelDown):
			return loggerMsg{action: loggerLevelDown}
		case key.Matches(keyMsg, keys.LoggerFocus):
			return loggerMsg{action: loggerFocusFilter}
		case key.Matches(keyMsg, keys.LoggerFilters):
			return loggerMsg{action: loggerToggleFilters}
		}
	}

	return nil
}
