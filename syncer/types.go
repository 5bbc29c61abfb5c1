// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/messaging"
)

// RoomSummary is one row of the room list: identity plus the fields
// the list and its preview pane render. Summaries are value types;
// comparing two with == detects in-place updates.
type RoomSummary struct {
	RoomID ref.RoomID

	// Name is the computed display name: m.room.name, else the
	// canonical alias, else a member-based fallback.
	Name string

	// LastMessage is the body of the most recent message-like event,
	// used as the list preview line.
	LastMessage string

	// LastActivity is the origin server timestamp (milliseconds) of
	// the most recent timeline event. The room list orders by it.
	LastActivity int64
}

// Reaction is one m.reaction annotation folded into a timeline item.
// EventID identifies the reaction event itself so the sender can
// redact it to toggle the reaction off.
type Reaction struct {
	Key     string
	Sender  ref.UserID
	EventID ref.EventID
}

// TimelineItem is one entry of a room timeline as the UI renders it:
// the underlying event plus everything later events folded into it.
type TimelineItem struct {
	Event messaging.Event

	// LocalEcho marks an item created by an outbound send before the
	// server confirmed it. Rendered dimmed; replaced in place (Set)
	// once the event comes back through /sync.
	LocalEcho bool

	// Redacted marks an item whose event was redacted. The body is
	// no longer rendered.
	Redacted bool

	Reactions []Reaction

	// ReadBy lists users whose read receipt points at this item.
	ReadBy []ref.UserID
}

// ReactionCounts aggregates reactions by key, preserving first-seen
// key order.
func (item *TimelineItem) ReactionCounts() []ReactionCount {
	var counts []ReactionCount
	index := make(map[string]int)
	for _, reaction := range item.Reactions {
		position, seen := index[reaction.Key]
		if !seen {
			position = len(counts)
			index[reaction.Key] = position
			counts = append(counts, ReactionCount{Key: reaction.Key})
		}
		counts[position].Count++
	}
	return counts
}

// ReactionCount is one aggregated reaction key with its count.
type ReactionCount struct {
	Key   string
	Count int
}

// reactionBy returns the reaction with the given key sent by the given
// user, if any.
func (item *TimelineItem) reactionBy(key string, sender ref.UserID) (Reaction, bool) {
	for _, reaction := range item.Reactions {
		if reaction.Key == key && reaction.Sender == sender {
			return reaction, true
		}
	}
	return Reaction{}, false
}
