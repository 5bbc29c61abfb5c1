// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/multiverse/eventcache"
	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/messaging"
)

// State is the lifecycle state of the sync service.
type State int

const (
	// StateIdle: created, Start not yet called.
	StateIdle State = iota

	// StateRunning: the sync loop is polling and healthy.
	StateRunning

	// StateOffline: the loop is still running but the last poll
	// failed; it is retrying with a short server timeout.
	StateOffline

	// StateError: the loop gave up (authentication failure or too
	// many consecutive poll failures).
	StateError

	// StateTerminated: stopped by request.
	StateTerminated
)

// String returns the lowercase state name shown in the status bar.
func (state State) String() string {
	switch state {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateOffline:
		return "offline"
	case StateError:
		return "error"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("unknown(%d)", int(state))
	}
}

// maxSyncRetries is the number of consecutive /sync failures tolerated
// before the loop gives up and enters StateError. Each retry uses a
// short server-side timeout, so the HTTP round-trip itself provides
// backoff.
const maxSyncRetries = 5

// defaultPollTimeout is the server-side long-poll hold in milliseconds
// for healthy /sync calls.
const defaultPollTimeout = 30000

// retryTimeout is the server-side timeout in milliseconds used after a
// /sync error.
const retryTimeout = 1000

// Config holds the parameters for creating a sync service.
type Config struct {
	// Session is the authenticated Matrix session. Required.
	Session messaging.Session

	// Cache receives every timeline batch the loop sees. Required.
	Cache *eventcache.Store

	// Logger receives operational messages. Required; in the TUI it
	// feeds the in-memory ring the logger mode renders.
	Logger *slog.Logger

	// PollTimeoutMS is the server-side long-poll hold. Defaults to
	// 30000.
	PollTimeoutMS int

	// TimelineLimit caps timeline events per room per /sync response.
	// Zero leaves the server default.
	TimelineLimit int
}

// Service runs the sync loop and owns all per-room state derived from
// it. All exported methods are safe for concurrent use.
type Service struct {
	session messaging.Session
	cache   *eventcache.Store
	logger  *slog.Logger

	pollTimeout int
	filter      string

	mu           sync.Mutex
	state        State
	stateWatch   []chan State
	rooms        map[ref.RoomID]*roomState
	order        []ref.RoomID // recency, most recent first
	listSubs     map[*RoomListSubscription]struct{}
	timelineSubs map[*TimelineSubscription]struct{}
	nextBatch    string

	cancel context.CancelFunc
	done   chan struct{}
}

// roomState is the in-memory model of one room: its list summary, the
// folded timeline, and the oldest unfilled gap for pagination.
type roomState struct {
	summary RoomSummary
	items   []TimelineItem

	// named reports whether summary.Name came from room state rather
	// than the room ID placeholder.
	named bool

	// cached reports whether the event cache holds any chunks for
	// this room.
	cached bool

	// gapChunk and gapToken identify the most recent unfilled gap.
	// Zero chunk means no known gap: pagination has nothing to fetch.
	gapChunk int64
	gapToken string
}

// New creates a sync service in StateIdle.
func New(cfg Config) (*Service, error) {
	if cfg.Session == nil {
		return nil, fmt.Errorf("syncer: Session is required")
	}
	if cfg.Cache == nil {
		return nil, fmt.Errorf("syncer: Cache is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("syncer: Logger is required")
	}

	pollTimeout := cfg.PollTimeoutMS
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}

	return &Service{
		session:      cfg.Session,
		cache:        cfg.Cache,
		logger:       cfg.Logger,
		pollTimeout:  pollTimeout,
		filter:       messaging.BuildSyncFilter(cfg.TimelineLimit),
		state:        StateIdle,
		rooms:        make(map[ref.RoomID]*roomState),
		listSubs:     make(map[*RoomListSubscription]struct{}),
		timelineSubs: make(map[*TimelineSubscription]struct{}),
	}, nil
}

// Start launches the sync loop. Calling Start while the loop is
// running is a no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(loopCtx, s.done)
}

// Stop cancels the sync loop and blocks until it exits. Calling Stop
// when the loop is not running is a no-op.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	s.setState(StateTerminated)
}

// Self returns the user ID the session is authenticated as.
func (s *Service) Self() ref.UserID {
	return s.session.UserID()
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SubscribeState returns a channel receiving state changes. Sends are
// non-blocking: a slow consumer misses intermediate states and should
// re-read State. The channel is never closed.
func (s *Service) SubscribeState() <-chan State {
	channel := make(chan State, 8)
	s.mu.Lock()
	s.stateWatch = append(s.stateWatch, channel)
	s.mu.Unlock()
	return channel
}

func (s *Service) setState(state State) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	watchers := make([]chan State, len(s.stateWatch))
	copy(watchers, s.stateWatch)
	s.mu.Unlock()

	for _, watcher := range watchers {
		select {
		case watcher <- state:
		default:
		}
	}
}

// run is the sync loop. On transient errors it retries with a short
// server timeout, dropping pooled connections first; authentication
// failures and retry exhaustion end the loop in StateError.
func (s *Service) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	var retries int
	for {
		if ctx.Err() != nil {
			return
		}

		timeout := s.pollTimeout
		if retries > 0 {
			timeout = retryTimeout
		}

		s.mu.Lock()
		since := s.nextBatch
		s.mu.Unlock()

		response, err := s.session.Sync(ctx, messaging.SyncOptions{
			Since:      since,
			SetTimeout: true,
			Timeout:    timeout,
			Filter:     s.filter,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if messaging.IsAuthError(err) {
				s.logger.Error("sync loop stopping, session rejected", "error", err)
				s.setState(StateError)
				return
			}

			retries++
			// A poisoned pooled connection keeps failing; dial
			// fresh on the next attempt.
			s.session.CloseIdleConnections()
			if retries > maxSyncRetries {
				s.logger.Error("sync loop giving up",
					"consecutive_failures", retries,
					"error", err,
				)
				s.setState(StateError)
				return
			}
			s.setState(StateOffline)
			s.logger.Debug("sync failed, retrying",
				"attempt", retries,
				"max_attempts", maxSyncRetries,
				"error", err,
			)
			continue
		}

		retries = 0
		s.setState(StateRunning)
		s.applySync(ctx, response)

		s.mu.Lock()
		s.nextBatch = response.NextBatch
		s.mu.Unlock()
	}
}
