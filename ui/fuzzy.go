// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

// FuzzyResult is the outcome of matching a pattern against a text.
type FuzzyResult struct {
	// Matched is true when every pattern rune was found in order.
	Matched bool

	// Score is fzf's match quality; higher is better.
	Score int

	// Positions are the matched rune indices in the text, for
	// highlight rendering. Nil when not requested or not matched.
	Positions []int
}

// FuzzyMatch runs fzf's V2 matcher (the same algorithm as the fzf
// binary) case-insensitively with unicode normalization. A nil slab is
// allowed; passing one avoids per-call allocation on hot paths. An
// empty pattern matches everything with score 0.
func FuzzyMatch(text string, pattern []rune, slab *util.Slab) FuzzyResult {
	if len(pattern) == 0 {
		return FuzzyResult{Matched: true}
	}

	chars := util.ToChars([]byte(text))
	result, positions := algo.FuzzyMatchV2(false, true, true, &chars, pattern, true, slab)
	if result.Start < 0 {
		return FuzzyResult{}
	}

	matched := FuzzyResult{Matched: true, Score: result.Score}
	if positions != nil {
		matched.Positions = *positions
	}
	return matched
}
