// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package eventcache

import (
	"context"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/bureau-foundation/multiverse/lib/ref"
	"github.com/bureau-foundation/multiverse/lib/sqlitepool"
	"github.com/bureau-foundation/multiverse/messaging"
)

// Store manages the SQLite-backed event cache. Each room's history is
// an append-only chain of chunks: the rooms table tracks the tail, each
// chunk links to the chunk before it, and chunk IDs increase
// monotonically per room (allocation order, not chain order — a gap
// fill inserts a later-numbered chunk earlier in the chain).
//
// Write methods run in a single IMMEDIATE transaction each. Read
// methods take one borrowed connection for the duration of the call.
type Store struct {
	pool   *sqlitepool.Pool
	logger *slog.Logger
}

// StoreConfig holds the parameters for opening an event cache.
type StoreConfig struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist.
	Path string

	// PoolSize is the number of connections in the pool. Defaults to
	// 2 if zero or negative; the cache has one writer (the sync loop)
	// and few concurrent readers.
	PoolSize int

	// Logger receives operational messages. Required.
	Logger *slog.Logger
}

const cacheSchema = `
	CREATE TABLE IF NOT EXISTS rooms (
		room_id       TEXT PRIMARY KEY,
		tail_chunk_id INTEGER,
		next_chunk_id INTEGER NOT NULL DEFAULT 1
	);

	CREATE TABLE IF NOT EXISTS chunks (
		room_id    TEXT NOT NULL,
		chunk_id   INTEGER NOT NULL,
		kind       INTEGER NOT NULL,
		prev_chunk INTEGER,
		gap_token  TEXT,
		PRIMARY KEY (room_id, chunk_id)
	);

	CREATE TABLE IF NOT EXISTS chunk_events (
		room_id     TEXT NOT NULL,
		chunk_id    INTEGER NOT NULL,
		position    INTEGER NOT NULL,
		event_id    TEXT NOT NULL,
		payload     BLOB NOT NULL,
		compression INTEGER NOT NULL,
		checksum    BLOB NOT NULL,
		PRIMARY KEY (room_id, chunk_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_chunk_events_event
		ON chunk_events(room_id, event_id);
`

// OpenStore opens the event cache, creating the database file and
// schema if they do not exist.
func OpenStore(cfg StoreConfig) (*Store, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("eventcache: Logger is required")
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 2
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("eventcache: %w", err)
	}

	store := &Store{pool: pool, logger: cfg.Logger}

	conn, err := pool.Take(context.Background())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("eventcache: %w", err)
	}
	err = sqlitex.ExecuteScript(conn, cacheSchema, nil)
	pool.Put(conn)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("eventcache: creating schema: %w", err)
	}

	return store, nil
}

// Close closes the underlying connection pool. Blocks until all
// borrowed connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

// AppendEvents appends a new items chunk at the tail of a room's chain
// and returns its chunk ID. Empty batches append nothing and return 0.
func (s *Store) AppendEvents(ctx context.Context, roomID ref.RoomID, events []messaging.Event) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("eventcache: append events: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, fmt.Errorf("eventcache: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	chunkID, prevChunkID, err := s.allocateChunk(conn, roomID)
	if err != nil {
		return 0, err
	}

	if err := s.insertChunk(conn, roomID, chunkID, KindItems, prevChunkID, ""); err != nil {
		return 0, err
	}
	if err := s.insertChunkEvents(conn, roomID, chunkID, events); err != nil {
		return 0, err
	}
	if err := s.setTail(conn, roomID, chunkID); err != nil {
		return 0, err
	}

	return chunkID, nil
}

// AppendGap appends a new gap chunk at the tail of a room's chain and
// returns its chunk ID. Written when a limited sync response signals
// missed history; the token is the prev_batch pagination token that
// eventually fills the gap.
func (s *Store) AppendGap(ctx context.Context, roomID ref.RoomID, gapToken string) (int64, error) {
	if gapToken == "" {
		return 0, fmt.Errorf("eventcache: append gap: empty token")
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("eventcache: append gap: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, fmt.Errorf("eventcache: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	chunkID, prevChunkID, err := s.allocateChunk(conn, roomID)
	if err != nil {
		return 0, err
	}

	if err := s.insertChunk(conn, roomID, chunkID, KindGap, prevChunkID, gapToken); err != nil {
		return 0, err
	}
	if err := s.setTail(conn, roomID, chunkID); err != nil {
		return 0, err
	}

	return chunkID, nil
}

// FillGap converts a gap chunk into an items chunk holding the
// backfilled events, in place in the chain. If remainingToken is
// non-empty, more history exists beyond the backfill: a fresh gap chunk
// is spliced in before the filled chunk to hold the continuation token,
// and its chunk ID is returned (zero when history is exhausted).
func (s *Store) FillGap(ctx context.Context, roomID ref.RoomID, gapChunkID int64, events []messaging.Event, remainingToken string) (int64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, fmt.Errorf("eventcache: fill gap: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return 0, fmt.Errorf("eventcache: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	var kind int64
	var prevChunkID int64
	found := false
	err = sqlitex.Execute(conn,
		"SELECT kind, COALESCE(prev_chunk, 0) FROM chunks WHERE room_id = ? AND chunk_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{roomID.String(), gapChunkID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				kind = stmt.ColumnInt64(0)
				prevChunkID = stmt.ColumnInt64(1)
				found = true
				return nil
			},
		})
	if err != nil {
		return 0, fmt.Errorf("eventcache: fill gap: %w", err)
	}
	if !found {
		return 0, fmt.Errorf("eventcache: fill gap: chunk %d not found in %s", gapChunkID, roomID)
	}
	if ChunkKind(kind) != KindGap {
		return 0, fmt.Errorf("eventcache: fill gap: chunk %d is not a gap", gapChunkID)
	}

	newPrev := prevChunkID
	var continuationID int64
	if remainingToken != "" {
		gapID, _, err := s.allocateChunk(conn, roomID)
		if err != nil {
			return 0, err
		}
		if err := s.insertChunk(conn, roomID, gapID, KindGap, prevChunkID, remainingToken); err != nil {
			return 0, err
		}
		newPrev = gapID
		continuationID = gapID
	}

	err = sqlitex.Execute(conn,
		"UPDATE chunks SET kind = ?, gap_token = NULL, prev_chunk = ? WHERE room_id = ? AND chunk_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{int(KindItems), nullableChunkID(newPrev), roomID.String(), gapChunkID},
		})
	if err != nil {
		return 0, fmt.Errorf("eventcache: fill gap: %w", err)
	}

	if err := s.insertChunkEvents(conn, roomID, gapChunkID, events); err != nil {
		return 0, err
	}
	return continuationID, nil
}

// ClearRoom removes all cached history for one room.
func (s *Store) ClearRoom(ctx context.Context, roomID ref.RoomID) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("eventcache: clear room: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("eventcache: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	for _, query := range []string{
		"DELETE FROM chunk_events WHERE room_id = ?",
		"DELETE FROM chunks WHERE room_id = ?",
		"DELETE FROM rooms WHERE room_id = ?",
	} {
		err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
			Args: []any{roomID.String()},
		})
		if err != nil {
			return fmt.Errorf("eventcache: clear room: %w", err)
		}
	}

	s.logger.Info("event cache cleared", "room", roomID)
	return nil
}

// ClearAll removes all cached history for every room.
func (s *Store) ClearAll(ctx context.Context) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("eventcache: clear all: %w", err)
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("eventcache: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	for _, query := range []string{
		"DELETE FROM chunk_events",
		"DELETE FROM chunks",
		"DELETE FROM rooms",
	} {
		if err := sqlitex.Execute(conn, query, nil); err != nil {
			return fmt.Errorf("eventcache: clear all: %w", err)
		}
	}

	s.logger.Info("event cache cleared", "room", "all")
	return nil
}

// LoadLastChunk returns the tail chunk of a room's chain, or nil when
// the room has no cached history.
func (s *Store) LoadLastChunk(ctx context.Context, roomID ref.RoomID) (*Chunk, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("eventcache: load last chunk: %w", err)
	}
	defer s.pool.Put(conn)

	var tailChunkID int64
	err = sqlitex.Execute(conn,
		"SELECT COALESCE(tail_chunk_id, 0) FROM rooms WHERE room_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{roomID.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				tailChunkID = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("eventcache: load last chunk: %w", err)
	}
	if tailChunkID == 0 {
		return nil, nil
	}

	return s.loadChunk(conn, roomID, tailChunkID)
}

// LoadPreviousChunk returns the chunk linked before the given one, or
// nil when the given chunk is the head of the chain.
func (s *Store) LoadPreviousChunk(ctx context.Context, roomID ref.RoomID, chunkID int64) (*Chunk, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("eventcache: load previous chunk: %w", err)
	}
	defer s.pool.Put(conn)

	var prevChunkID int64
	found := false
	err = sqlitex.Execute(conn,
		"SELECT COALESCE(prev_chunk, 0) FROM chunks WHERE room_id = ? AND chunk_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{roomID.String(), chunkID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				prevChunkID = stmt.ColumnInt64(0)
				found = true
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("eventcache: load previous chunk: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("eventcache: load previous chunk: chunk %d not found in %s", chunkID, roomID)
	}
	if prevChunkID == 0 {
		return nil, nil
	}

	return s.loadChunk(conn, roomID, prevChunkID)
}

// LoadAllEvents returns every cached event for a room in chronological
// order, walking the chain head to tail and skipping gap chunks. A
// corrupt chunk truncates the walk at its position: events older than
// the corruption are dropped with a warning.
func (s *Store) LoadAllEvents(ctx context.Context, roomID ref.RoomID) ([]messaging.Event, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("eventcache: load all events: %w", err)
	}
	defer s.pool.Put(conn)

	var tailChunkID int64
	err = sqlitex.Execute(conn,
		"SELECT COALESCE(tail_chunk_id, 0) FROM rooms WHERE room_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{roomID.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				tailChunkID = stmt.ColumnInt64(0)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("eventcache: load all events: %w", err)
	}
	if tailChunkID == 0 {
		return nil, nil
	}

	// Walk tail to head collecting chunks, then emit events oldest
	// first. Chunk IDs are allocation-ordered, not chain-ordered, so
	// the prev links are the only safe traversal.
	var collected []*Chunk
	chunkID := tailChunkID
	for chunkID != 0 {
		chunk, err := s.loadChunk(conn, roomID, chunkID)
		if err != nil {
			s.logger.Warn("event cache chunk unreadable, older history dropped",
				"room", roomID,
				"chunk", chunkID,
				"error", err,
			)
			break
		}
		collected = append(collected, chunk)
		chunkID = chunk.PrevChunkID
	}

	var events []messaging.Event
	for i := len(collected) - 1; i >= 0; i-- {
		if collected[i].Kind != KindItems {
			continue
		}
		events = append(events, collected[i].Events...)
	}
	return events, nil
}

// allocateChunk reserves the next chunk ID for a room and returns it
// along with the current tail (0 when the chain is empty). Creates the
// room row on first use. Must run inside a transaction.
func (s *Store) allocateChunk(conn *sqlite.Conn, roomID ref.RoomID) (chunkID, tailChunkID int64, err error) {
	err = sqlitex.Execute(conn,
		"INSERT INTO rooms (room_id) VALUES (?) ON CONFLICT (room_id) DO NOTHING",
		&sqlitex.ExecOptions{Args: []any{roomID.String()}})
	if err != nil {
		return 0, 0, fmt.Errorf("eventcache: allocate chunk: %w", err)
	}

	err = sqlitex.Execute(conn,
		"SELECT next_chunk_id, COALESCE(tail_chunk_id, 0) FROM rooms WHERE room_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{roomID.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				chunkID = stmt.ColumnInt64(0)
				tailChunkID = stmt.ColumnInt64(1)
				return nil
			},
		})
	if err != nil {
		return 0, 0, fmt.Errorf("eventcache: allocate chunk: %w", err)
	}

	err = sqlitex.Execute(conn,
		"UPDATE rooms SET next_chunk_id = next_chunk_id + 1 WHERE room_id = ?",
		&sqlitex.ExecOptions{Args: []any{roomID.String()}})
	if err != nil {
		return 0, 0, fmt.Errorf("eventcache: allocate chunk: %w", err)
	}

	return chunkID, tailChunkID, nil
}

func (s *Store) insertChunk(conn *sqlite.Conn, roomID ref.RoomID, chunkID int64, kind ChunkKind, prevChunkID int64, gapToken string) error {
	var token any
	if gapToken != "" {
		token = gapToken
	}

	err := sqlitex.Execute(conn,
		"INSERT INTO chunks (room_id, chunk_id, kind, prev_chunk, gap_token) VALUES (?, ?, ?, ?, ?)",
		&sqlitex.ExecOptions{
			Args: []any{roomID.String(), chunkID, int(kind), nullableChunkID(prevChunkID), token},
		})
	if err != nil {
		return fmt.Errorf("eventcache: insert chunk: %w", err)
	}
	return nil
}

func (s *Store) insertChunkEvents(conn *sqlite.Conn, roomID ref.RoomID, chunkID int64, events []messaging.Event) error {
	for position := range events {
		payload, compression, checksum, err := encodePayload(&events[position])
		if err != nil {
			return err
		}
		err = sqlitex.Execute(conn,
			"INSERT INTO chunk_events (room_id, chunk_id, position, event_id, payload, compression, checksum) VALUES (?, ?, ?, ?, ?, ?, ?)",
			&sqlitex.ExecOptions{
				Args: []any{
					roomID.String(),
					chunkID,
					position,
					events[position].EventID.String(),
					payload,
					compression,
					checksum[:],
				},
			})
		if err != nil {
			return fmt.Errorf("eventcache: insert chunk event: %w", err)
		}
	}
	return nil
}

func (s *Store) setTail(conn *sqlite.Conn, roomID ref.RoomID, chunkID int64) error {
	err := sqlitex.Execute(conn,
		"UPDATE rooms SET tail_chunk_id = ? WHERE room_id = ?",
		&sqlitex.ExecOptions{Args: []any{chunkID, roomID.String()}})
	if err != nil {
		return fmt.Errorf("eventcache: set tail: %w", err)
	}
	return nil
}

// loadChunk reads one chunk and its events. An undecodable payload
// fails the whole chunk so readers treat it as missing.
func (s *Store) loadChunk(conn *sqlite.Conn, roomID ref.RoomID, chunkID int64) (*Chunk, error) {
	chunk := &Chunk{RoomID: roomID, ChunkID: chunkID}
	found := false

	err := sqlitex.Execute(conn,
		"SELECT kind, COALESCE(prev_chunk, 0), COALESCE(gap_token, '') FROM chunks WHERE room_id = ? AND chunk_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{roomID.String(), chunkID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				chunk.Kind = ChunkKind(stmt.ColumnInt64(0))
				chunk.PrevChunkID = stmt.ColumnInt64(1)
				chunk.GapToken = stmt.ColumnText(2)
				found = true
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("eventcache: load chunk: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("eventcache: load chunk: chunk %d not found in %s", chunkID, roomID)
	}

	if chunk.Kind != KindItems {
		return chunk, nil
	}

	var decodeErr error
	err = sqlitex.Execute(conn,
		"SELECT payload, compression, checksum FROM chunk_events WHERE room_id = ? AND chunk_id = ? ORDER BY position",
		&sqlitex.ExecOptions{
			Args: []any{roomID.String(), chunkID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				payload := make([]byte, stmt.ColumnLen(0))
				stmt.ColumnBytes(0, payload)
				compression := stmt.ColumnInt(1)
				checksum := make([]byte, stmt.ColumnLen(2))
				stmt.ColumnBytes(2, checksum)

				event, err := decodePayload(payload, compression, checksum)
				if err != nil {
					decodeErr = err
					return nil
				}
				chunk.Events = append(chunk.Events, event)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("eventcache: load chunk: %w", err)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("eventcache: load chunk %d in %s: %w", chunkID, roomID, decodeErr)
	}

	return chunk, nil
}

// nullableChunkID maps the zero "no previous chunk" sentinel to SQL
// NULL.
func nullableChunkID(chunkID int64) any {
	if chunkID == 0 {
		return nil
	}
	return chunkID
}
