// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// queueCapacity bounds the event queue. Producers delivering diff
// batches block when the consumer falls behind; droppable signals are
// discarded instead.
const queueCapacity = 128

// queueMsg wraps a queued Message for delivery through the bubbletea
// runtime.
type queueMsg struct {
	message Message
}

// EventQueue is the single multiple-producer/single-consumer channel
// between background producers (diff forwarders, the state watcher,
// the logger ticker) and the update loop.
type EventQueue struct {
	events chan Message
}

// NewEventQueue creates the bounded queue.
func NewEventQueue() *EventQueue {
	return &EventQueue{events: make(chan Message, queueCapacity)}
}

// Deliver enqueues a message, blocking until there is room or the
// context is cancelled. Use for diff batches: a dropped batch would
// leave the rendered state permanently behind the service.
func (queue *EventQueue) Deliver(ctx context.Context, message Message) error {
	select {
	case queue.events <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Signal enqueues a message if there is room and drops it otherwise.
// Use for idempotent redraw and status notifications.
func (queue *EventQueue) Signal(message Message) {
	select {
	case queue.events <- message:
	default:
	}
}

// Wait returns a tea.Cmd that blocks until the next queued message.
// The update loop re-arms it after consuming each queueMsg, keeping
// exactly one reader on the queue.
func (queue *EventQueue) Wait() tea.Cmd {
	return func() tea.Msg {
		message, ok := <-queue.events
		if !ok {
			return nil
		}
		return queueMsg{message: message}
	}
}
