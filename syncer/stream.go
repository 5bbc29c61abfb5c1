// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"sync"

	"github.com/bureau-foundation/multiverse/seqdiff"
)

// stream decouples diff producers from a possibly slow consumer. The
// service pushes batches under its own lock (push never blocks); a
// forwarder goroutine delivers them to the output channel in order.
// Diff batches are never dropped — a stalled consumer grows the queue
// rather than losing ops, because clients replay diffs against local
// state and a missing batch would desynchronize them permanently.
type stream[T any] struct {
	mu     sync.Mutex
	queue  [][]seqdiff.Diff[T]
	closed bool

	wake chan struct{}
	done chan struct{}
	out  chan []seqdiff.Diff[T]
}

func newStream[T any]() *stream[T] {
	s := &stream[T]{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan []seqdiff.Diff[T]),
	}
	go s.forward()
	return s
}

// push queues a batch for delivery. Empty batches and pushes after
// close are ignored.
func (s *stream[T]) push(batch []seqdiff.Diff[T]) {
	if len(batch) == 0 {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, batch)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// close stops delivery and closes the output channel once the
// forwarder drains. Idempotent.
func (s *stream[T]) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
}

func (s *stream[T]) forward() {
	defer close(s.out)
	for {
		s.mu.Lock()
		var batch []seqdiff.Diff[T]
		if len(s.queue) > 0 {
			batch = s.queue[0]
			s.queue = s.queue[1:]
		}
		s.mu.Unlock()

		if batch == nil {
			select {
			case <-s.wake:
				continue
			case <-s.done:
				return
			}
		}

		select {
		case s.out <- batch:
		case <-s.done:
			return
		}
	}
}
