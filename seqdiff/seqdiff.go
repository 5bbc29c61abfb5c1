// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package seqdiff describes incremental edits to an ordered sequence.
//
// A producer that owns a sequence (the sync service's room list, a room
// timeline) emits batches of Diff values instead of full snapshots.
// Consumers hold their own copy of the sequence and replay each batch
// in order with ApplyAll. As long as every batch is applied exactly
// once and in emission order, the consumer's copy stays identical to
// the producer's.
package seqdiff

import "fmt"

// Op identifies the kind of edit a Diff describes.
type Op int

const (
	// OpAppend appends Values to the end of the sequence.
	OpAppend Op = iota
	// OpClear removes every element.
	OpClear
	// OpPushFront prepends Value.
	OpPushFront
	// OpPushBack appends Value.
	OpPushBack
	// OpPopFront removes the first element.
	OpPopFront
	// OpPopBack removes the last element.
	OpPopBack
	// OpInsert inserts Value at Index, shifting later elements right.
	// Index may equal the current length.
	OpInsert
	// OpSet replaces the element at Index with Value.
	OpSet
	// OpRemove deletes the element at Index, shifting later elements
	// left.
	OpRemove
	// OpTruncate drops elements until at most Length remain.
	OpTruncate
	// OpReset discards the sequence and replaces it with Values.
	OpReset
)

var opNames = map[Op]string{
	OpAppend:    "append",
	OpClear:     "clear",
	OpPushFront: "push-front",
	OpPushBack:  "push-back",
	OpPopFront:  "pop-front",
	OpPopBack:   "pop-back",
	OpInsert:    "insert",
	OpSet:       "set",
	OpRemove:    "remove",
	OpTruncate:  "truncate",
	OpReset:     "reset",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", int(op))
}

// Diff is a single edit. Which fields are meaningful depends on Op:
// Index for Insert/Set/Remove, Length for Truncate, Value for the
// single-element ops, Values for Append and Reset.
type Diff[T any] struct {
	Op     Op
	Index  int
	Length int
	Value  T
	Values []T
}

// Append returns a diff appending values to the end of the sequence.
func Append[T any](values ...T) Diff[T] {
	return Diff[T]{Op: OpAppend, Values: values}
}

// Clear returns a diff removing every element.
func Clear[T any]() Diff[T] {
	return Diff[T]{Op: OpClear}
}

// PushFront returns a diff prepending value.
func PushFront[T any](value T) Diff[T] {
	return Diff[T]{Op: OpPushFront, Value: value}
}

// PushBack returns a diff appending value.
func PushBack[T any](value T) Diff[T] {
	return Diff[T]{Op: OpPushBack, Value: value}
}

// PopFront returns a diff removing the first element.
func PopFront[T any]() Diff[T] {
	return Diff[T]{Op: OpPopFront}
}

// PopBack returns a diff removing the last element.
func PopBack[T any]() Diff[T] {
	return Diff[T]{Op: OpPopBack}
}

// Insert returns a diff inserting value at index.
func Insert[T any](index int, value T) Diff[T] {
	return Diff[T]{Op: OpInsert, Index: index, Value: value}
}

// Set returns a diff replacing the element at index with value.
func Set[T any](index int, value T) Diff[T] {
	return Diff[T]{Op: OpSet, Index: index, Value: value}
}

// Remove returns a diff deleting the element at index.
func Remove[T any](index int) Diff[T] {
	return Diff[T]{Op: OpRemove, Index: index}
}

// Truncate returns a diff dropping elements until at most length
// remain. Truncating to the current length or beyond is a no-op.
func Truncate[T any](length int) Diff[T] {
	return Diff[T]{Op: OpTruncate, Length: length}
}

// Reset returns a diff replacing the whole sequence with values.
func Reset[T any](values ...T) Diff[T] {
	return Diff[T]{Op: OpReset, Values: values}
}

// IndexError reports a diff whose index or length does not fit the
// sequence it was applied to. A consumer that sees one has lost sync
// with its producer; the only recovery is a fresh Reset.
type IndexError struct {
	Op     Op
	Index  int // offending index (Insert/Set/Remove) or length (Truncate)
	Length int // sequence length at the time of application
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("seqdiff: %s index %d out of range for length %d", e.Op, e.Index, e.Length)
}

// Apply replays a single diff against items and returns the edited
// sequence. The input slice may be reused or returned directly; callers
// must treat it as consumed. Out-of-range indices return *IndexError
// and leave the result unspecified.
func Apply[T any](items []T, diff Diff[T]) ([]T, error) {
	switch diff.Op {
	case OpAppend:
		return append(items, diff.Values...), nil

	case OpClear:
		return items[:0], nil

	case OpPushFront:
		items = append(items, diff.Value)
		copy(items[1:], items)
		items[0] = diff.Value
		return items, nil

	case OpPushBack:
		return append(items, diff.Value), nil

	case OpPopFront:
		if len(items) == 0 {
			return items, &IndexError{Op: diff.Op, Index: 0, Length: 0}
		}
		copy(items, items[1:])
		return items[:len(items)-1], nil

	case OpPopBack:
		if len(items) == 0 {
			return items, &IndexError{Op: diff.Op, Index: 0, Length: 0}
		}
		return items[:len(items)-1], nil

	case OpInsert:
		if diff.Index < 0 || diff.Index > len(items) {
			return items, &IndexError{Op: diff.Op, Index: diff.Index, Length: len(items)}
		}
		items = append(items, diff.Value)
		copy(items[diff.Index+1:], items[diff.Index:])
		items[diff.Index] = diff.Value
		return items, nil

	case OpSet:
		if diff.Index < 0 || diff.Index >= len(items) {
			return items, &IndexError{Op: diff.Op, Index: diff.Index, Length: len(items)}
		}
		items[diff.Index] = diff.Value
		return items, nil

	case OpRemove:
		if diff.Index < 0 || diff.Index >= len(items) {
			return items, &IndexError{Op: diff.Op, Index: diff.Index, Length: len(items)}
		}
		copy(items[diff.Index:], items[diff.Index+1:])
		return items[:len(items)-1], nil

	case OpTruncate:
		if diff.Length < 0 {
			return items, &IndexError{Op: diff.Op, Index: diff.Length, Length: len(items)}
		}
		if diff.Length >= len(items) {
			return items, nil
		}
		return items[:diff.Length], nil

	case OpReset:
		return append(items[:0], diff.Values...), nil

	default:
		return items, fmt.Errorf("seqdiff: unknown op %d", int(diff.Op))
	}
}

// ApplyAll replays a batch of diffs in order. On error the partially
// edited sequence up to the failing diff is returned along with the
// error; remaining diffs are not applied.
func ApplyAll[T any](items []T, diffs []Diff[T]) ([]T, error) {
	for _, diff := range diffs {
		var err error
		items, err = Apply(items, diff)
		if err != nil {
			return items, err
		}
	}
	return items, nil
}

// Structural reports whether the diff can change element positions or
// sequence length. Set edits an element in place and is the only
// non-structural op; a batch of pure Set diffs cannot move anything.
func Structural[T any](diff Diff[T]) bool {
	return diff.Op != OpSet
}
