// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package seqdiff

import (
	"errors"
	"slices"
	"testing"
)

func TestApplySingleOps(t *testing.T) {
	tests := []struct {
		name  string
		start []string
		diff  Diff[string]
		want  []string
	}{
		{"append to empty", nil, Append("a", "b"), []string{"a", "b"}},
		{"append to existing", []string{"a"}, Append("b", "c"), []string{"a", "b", "c"}},
		{"append nothing", []string{"a"}, Append[string](), []string{"a"}},
		{"clear", []string{"a", "b"}, Clear[string](), []string{}},
		{"clear empty", nil, Clear[string](), nil},
		{"push front", []string{"b", "c"}, PushFront("a"), []string{"a", "b", "c"}},
		{"push front empty", nil, PushFront("a"), []string{"a"}},
		{"push back", []string{"a"}, PushBack("b"), []string{"a", "b"}},
		{"pop front", []string{"a", "b", "c"}, PopFront[string](), []string{"b", "c"}},
		{"pop back", []string{"a", "b"}, PopBack[string](), []string{"a"}},
		{"insert middle", []string{"a", "c"}, Insert(1, "b"), []string{"a", "b", "c"}},
		{"insert at start", []string{"b"}, Insert(0, "a"), []string{"a", "b"}},
		{"insert at end", []string{"a"}, Insert(1, "b"), []string{"a", "b"}},
		{"insert into empty", nil, Insert(0, "a"), []string{"a"}},
		{"set", []string{"a", "b"}, Set(1, "B"), []string{"a", "B"}},
		{"remove middle", []string{"a", "b", "c"}, Remove[string](1), []string{"a", "c"}},
		{"remove last", []string{"a", "b"}, Remove[string](1), []string{"a"}},
		{"truncate shorter", []string{"a", "b", "c"}, Truncate[string](1), []string{"a"}},
		{"truncate to zero", []string{"a"}, Truncate[string](0), []string{}},
		{"truncate same length", []string{"a", "b"}, Truncate[string](2), []string{"a", "b"}},
		{"truncate beyond length", []string{"a"}, Truncate[string](5), []string{"a"}},
		{"reset", []string{"a", "b"}, Reset("x"), []string{"x"}},
		{"reset to empty", []string{"a"}, Reset[string](), []string{}},
		{"reset from empty", nil, Reset("x", "y"), []string{"x", "y"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := Apply(slices.Clone(test.start), test.diff)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if !slices.Equal(got, test.want) {
				t.Errorf("got %v, want %v", got, test.want)
			}
		})
	}
}

func TestApplyIndexErrors(t *testing.T) {
	tests := []struct {
		name  string
		start []string
		diff  Diff[string]
	}{
		{"pop front empty", nil, PopFront[string]()},
		{"pop back empty", nil, PopBack[string]()},
		{"insert past end", []string{"a"}, Insert(2, "b")},
		{"insert negative", []string{"a"}, Insert(-1, "b")},
		{"set past end", []string{"a"}, Set(1, "b")},
		{"set on empty", nil, Set(0, "b")},
		{"remove past end", []string{"a"}, Remove[string](1)},
		{"remove negative", []string{"a"}, Remove[string](-1)},
		{"truncate negative", []string{"a"}, Truncate[string](-1)},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Apply(slices.Clone(test.start), test.diff)
			var indexErr *IndexError
			if !errors.As(err, &indexErr) {
				t.Fatalf("expected *IndexError, got %v", err)
			}
		})
	}
}

func TestApplyAllReplaysInOrder(t *testing.T) {
	diffs := []Diff[int]{
		Reset(1, 2, 3),
		PushFront(0),
		Append(4, 5),
		Set(2, 20),
		Remove[int](4),
		Insert(1, 10),
		Truncate[int](4),
	}

	got, err := ApplyAll(nil, diffs)
	if err != nil {
		t.Fatalf("ApplyAll: %v", err)
	}
	want := []int{0, 10, 1, 20}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestApplyAllStopsAtFirstError(t *testing.T) {
	diffs := []Diff[int]{
		Reset(1, 2),
		Set(5, 9),     // out of range
		PushBack(100), // must not be applied
	}

	got, err := ApplyAll(nil, diffs)
	if err == nil {
		t.Fatal("expected error from out-of-range set")
	}
	if slices.Contains(got, 100) {
		t.Errorf("diff after the failing one was applied: %v", got)
	}
}

func TestApplyAllMirrorsProducer(t *testing.T) {
	// A consumer replaying the producer's batches must end up with the
	// producer's exact sequence, including through a mid-stream reset.
	batches := [][]Diff[string]{
		{Reset("a", "b", "c")},
		{PushBack("d"), Set(0, "A")},
		{Reset[string](), Append("x")},
		{PushFront("w"), Insert(2, "y")},
	}

	var consumer []string
	for _, batch := range batches {
		var err error
		consumer, err = ApplyAll(consumer, batch)
		if err != nil {
			t.Fatalf("ApplyAll: %v", err)
		}
	}

	want := []string{"w", "x", "y"}
	if !slices.Equal(consumer, want) {
		t.Errorf("got %v, want %v", consumer, want)
	}
}

func TestStructural(t *testing.T) {
	if Structural(Set(0, "v")) {
		t.Error("set must not be structural")
	}
	for _, diff := range []Diff[string]{
		Append("a"), Clear[string](), PushFront("a"), PushBack("a"),
		PopFront[string](), PopBack[string](), Insert(0, "a"),
		Remove[string](0), Truncate[string](0), Reset[string](),
	} {
		if !Structural(diff) {
			t.Errorf("%s must be structural", diff.Op)
		}
	}
}
