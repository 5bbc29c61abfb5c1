// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// RoomAlias is a validated Matrix room alias (e.g., "#general:example.org").
//
// Room aliases are human-readable names that resolve to opaque RoomIDs.
// They always start with '#' and contain a ':' separating the localpart
// from the server name. Aliases arrive from Matrix API responses (room
// state, canonical alias events) and are parsed at the boundary.
//
// RoomAlias is an immutable value type. The zero value is not valid;
// use IsZero to check.
type RoomAlias struct {
	alias string
}

// ParseRoomAlias validates and wraps a raw Matrix room alias string.
// Returns an error if the string is empty, doesn't start with '#',
// or is missing the ':server' suffix.
func ParseRoomAlias(raw string) (RoomAlias, error) {
	_, _, err := parseRoomAlias(raw)
	if err != nil {
		return RoomAlias{}, err
	}
	return RoomAlias{alias: raw}, nil
}

// MustParseRoomAlias is like ParseRoomAlias but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParseRoomAlias(raw string) RoomAlias {
	a, err := ParseRoomAlias(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRoomAlias(%q): %v", raw, err))
	}
	return a
}

// String returns the full room alias string (e.g., "#general:example.org").
func (a RoomAlias) String() string { return a.alias }

// IsZero reports whether the RoomAlias is the zero value (uninitialized).
func (a RoomAlias) IsZero() bool { return a.alias == "" }
