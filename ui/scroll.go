// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import "math"

// minimumVisibleItems is how many items stay on screen when scrolled
// all the way back: scrolling never pushes the list fully out of view.
const minimumVisibleItems = 3

// scrollToContentEnd is the provisional offset meaning "as far back as
// the content allows". Height-indexed views can't know their content
// height until render time, so Start stores this sentinel and the
// renderer clamps it to the real maximum and writes the corrected
// value back.
const scrollToContentEnd = math.MaxInt

// itemScroll is an item-indexed scroll position counted from the
// newest end of a list. Offset 0 shows the newest items; larger
// offsets move toward history.
type itemScroll struct {
	offset int
}

// Up scrolls one item toward history, clamped so at least
// minimumVisibleItems stay visible.
func (s *itemScroll) Up(itemCount int) {
	s.offset++
	s.clamp(itemCount)
}

// Down scrolls one item toward the newest end, floored at 0.
func (s *itemScroll) Down(itemCount int) {
	s.offset--
	s.clamp(itemCount)
}

// Start jumps to the oldest reachable position.
func (s *itemScroll) Start(itemCount int) {
	s.offset = itemCount - minimumVisibleItems
	s.clamp(itemCount)
}

// End jumps back to the newest items.
func (s *itemScroll) End() {
	s.offset = 0
}

// Offset returns the clamped offset for the given list length. The
// stored value is kept clamped by the mutators, but the list may have
// shrunk since.
func (s *itemScroll) Offset(itemCount int) int {
	s.clamp(itemCount)
	return s.offset
}

func (s *itemScroll) clamp(itemCount int) {
	maximum := itemCount - minimumVisibleItems
	if maximum < 0 {
		maximum = 0
	}
	if s.offset > maximum {
		s.offset = maximum
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// heightScroll is a height-indexed scroll position in terminal rows,
// counted from the bottom of the content. The stored offset is
// provisional: the renderer calls Clamp with the height it actually
// produced, and the corrected value persists so later Up/Down deltas
// compose with what is on screen.
type heightScroll struct {
	offset int
}

// Up scrolls one row toward history. The result may exceed the content
// height; the next render clamps it.
func (s *heightScroll) Up() {
	if s.offset < scrollToContentEnd {
		s.offset++
	}
}

// Down scrolls one row toward the bottom, floored at 0.
func (s *heightScroll) Down() {
	if s.offset == scrollToContentEnd {
		// Leaving the sentinel: the next render re-clamps.
		return
	}
	if s.offset > 0 {
		s.offset--
	}
}

// Start jumps to the top of the content, wherever that turns out to
// be at render time.
func (s *heightScroll) Start() {
	s.offset = scrollToContentEnd
}

// End jumps back to the bottom.
func (s *heightScroll) End() {
	s.offset = 0
}

// Clamp corrects the provisional offset against the rendered content
// and viewport heights and returns the usable value. Called by the
// renderer once per frame.
func (s *heightScroll) Clamp(contentHeight, viewportHeight int) int {
	maximum := contentHeight - viewportHeight
	if maximum < 0 {
		maximum = 0
	}
	if s.offset > maximum {
		s.offset = maximum
	}
	if s.offset < 0 {
		s.offset = 0
	}
	return s.offset
}
