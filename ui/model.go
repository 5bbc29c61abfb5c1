// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bureau-foundation/multiverse/syncer"
)

// loggerTickMsg drives the 1s logger-mode redraw cycle.
type loggerTickMsg struct{}

// loggerTickInterval is how often the logger view repaints while open,
// so records logged by background goroutines become visible without
// user input.
const loggerTickInterval = time.Second

// maxChainDepth bounds the dispatch trampoline. Real chains are three
// messages deep at most (select a room, open it, reset the mode); the
// bound turns a dispatch cycle bug into a dropped message instead of a
// hang.
const maxChainDepth = 8

// Config assembles a Model.
type Config struct {
	// Service is the running sync service.
	Service *syncer.Service

	// Logs is the ring buffer backing the Logger mode. Wire the same
	// ring into the process slog handler so remote-call failures show
	// up in the viewer.
	Logs *LogRing

	// Logger receives the UI's own diagnostics.
	Logger *slog.Logger
}

// Model is the top-level bubbletea model.
type Model struct {
	service *syncer.Service
	queue   *EventQueue
	logs    *LogRing
	logger  *slog.Logger
	theme   Theme
	keys    KeyMap

	// ctx bounds every background forwarder the model spawns.
	ctx context.Context

	width  int
	height int

	mode       Mode
	roomList   *roomListModel
	loggerView *loggerModel

	// room is the opened conversation. It outlives mode changes: the
	// timeline stays on screen while the user is in None, Insert,
	// Space, or Room mode.
	room *roomModel

	loggerTickArmed bool
	quitting        bool
}

// NewModel creates the model and starts the sync-state watcher. The
// context bounds all background goroutines the UI spawns; cancel it
// after the program exits.
func NewModel(ctx context.Context, config Config) *Model {
	model := &Model{
		service: config.Service,
		queue:   NewEventQueue(),
		logs:    config.Logs,
		logger:  config.Logger,
		theme:   DefaultTheme,
		keys:    DefaultKeyMap,
		ctx:     ctx,
	}

	// Status-bar updates are droppable signals: the render reads the
	// service state directly, the message only forces a repaint.
	states := config.Service.SubscribeState()
	go func() {
		for {
			select {
			case state := <-states:
				model.queue.Signal(syncStateMsg{state: state})
			case <-ctx.Done():
				return
			}
		}
	}()

	return model
}

// Init implements tea.Model.
func (model *Model) Init() tea.Cmd {
	return model.queue.Wait()
}

// Update implements tea.Model. Every message runs through the
// dispatch trampoline, so a chain of follow-ups costs one redraw.
func (model *Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	var commands []tea.Cmd

	switch message := message.(type) {
	case tea.WindowSizeMsg:
		model.width = message.Width
		model.height = message.Height

	case tea.KeyMsg:
		model.runChain(model.keyToMessage(message))

	case queueMsg:
		model.runChain(message.message)
		commands = append(commands, model.queue.Wait())

	case loggerTickMsg:
		if model.mode == ModeLogger {
			commands = append(commands, loggerTick())
		} else {
			model.loggerTickArmed = false
		}
	}

	if model.mode == ModeLogger && !model.loggerTickArmed {
		model.loggerTickArmed = true
		commands = append(commands, loggerTick())
	}

	if model.quitting {
		return model, tea.Quit
	}
	return model, tea.Batch(commands...)
}

func loggerTick() tea.Cmd {
	return tea.Tick(loggerTickInterval, func(time.Time) tea.Msg {
		return loggerTickMsg{}
	})
}

// runChain dispatches a message and every follow-up it produces.
func (model *Model) runChain(message Message) {
	chainMessages(model.logger, model.dispatch, message)
}

// chainMessages drives a dispatch step until the chain ends. A chain
// still running at the depth bound indicates a dispatch cycle; the
// remainder is logged and dropped.
func chainMessages(logger *slog.Logger, step func(Message) Message, message Message) {
	for depth := 0; message != nil; depth++ {
		if depth == maxChainDepth {
			logger.Warn("message chain exceeded depth bound, dropping",
				"message", fmt.Sprintf("%T", message))
			return
		}
		message = step(message)
	}
}
