// Copyright 2026 The openrw Authors
// SPDX-License-Identifier: MIT

// Package savegame stores script machine snapshots in a SQLite database.
package savegame

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rwengine/openrw/internal/script"
	"zombiezen.com/go/log"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitemigration"
	"zombiezen.com/go/sqlite/sqlitex"
)

// ErrNotFound is returned when a save slot does not exist.
var ErrNotFound = errors.New("save slot not found")

// Slot is the metadata of a saved snapshot.
type Slot struct {
	ID   uuid.UUID
	Name string
	// Digest is the SHA-256 hash of the bytecode file
	// the snapshot was taken from.
	Digest  [32]byte
	Created time.Time
	// Threads is the number of live threads in the snapshot.
	Threads int
	// Size is the size of the encoded snapshot in bytes.
	Size int64
}

// Options is the set of optional parameters to [Open].
type Options struct {
	// Keep is the number of slots kept per bytecode file.
	// When a save exceeds it, the oldest slots for the same file are deleted.
	// Zero or negative means no limit.
	Keep int
	// Now returns the current time.
	// If nil, [time.Now] is used.
	Now func() time.Time
}

// Store is a database of save slots.
// It is safe to use from multiple goroutines.
type Store struct {
	db   *sqlitemigration.Pool
	keep int
	now  func() time.Time
}

// Open returns a new [Store] backed by the database at path,
// creating and migrating it as needed.
// Callers are responsible for calling [Store.Close] on the returned store.
func Open(path string, opts *Options) *Store {
	if opts == nil {
		opts = new(Options)
	}
	s := &Store{
		keep: opts.Keep,
		now:  opts.Now,
		db: sqlitemigration.NewPool(path, loadSchema(), sqlitemigration.Options{
			Flags:       sqlite.OpenCreate | sqlite.OpenReadWrite,
			PrepareConn: prepareConn,
			OnStartMigrate: func() {
				ctx := context.Background()
				log.Debugf(ctx, "Migrating save database...")
			},
			OnReady: func() {
				ctx := context.Background()
				log.Debugf(ctx, "Save database ready")
			},
			OnError: func(err error) {
				ctx := context.Background()
				log.Errorf(ctx, "Save database migration: %v", err)
			},
		}),
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Close releases any resources associated with the store.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a snapshot in a new slot and returns the slot's ID.
func (s *Store) Save(ctx context.Context, name string, snap *script.Snapshot) (_ uuid.UUID, err error) {
	data, err := snap.MarshalBinary()
	if err != nil {
		return uuid.Nil, fmt.Errorf("save %q: %v", name, err)
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, fmt.Errorf("save %q: %v", name, err)
	}

	conn, err := s.db.Get(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save %q: %v", name, err)
	}
	defer s.db.Put(conn)

	if err := s.insert(conn, id, name, snap, data); err != nil {
		return uuid.Nil, fmt.Errorf("save %q: %v", name, err)
	}
	log.Infof(ctx, "Saved %q as %v (%d threads, %d bytes)", name, id, len(snap.Threads), len(data))
	return id, nil
}

func (s *Store) insert(conn *sqlite.Conn, id uuid.UUID, name string, snap *script.Snapshot, data []byte) (err error) {
	defer sqlitex.Save(conn)(&err)

	err = sqlitex.ExecuteTransientFS(conn, sqlFiles(), "insert_slot.sql", &sqlitex.ExecOptions{
		Named: map[string]any{
			":id":         id[:],
			":name":       name,
			":digest":     snap.Digest[:],
			":created_at": s.now().UnixMilli(),
			":threads":    len(snap.Threads),
			":data":       data,
		},
	})
	if err != nil {
		return err
	}
	if s.keep <= 0 {
		return nil
	}
	err = sqlitex.ExecuteTransientFS(conn, sqlFiles(), "prune_slots.sql", &sqlitex.ExecOptions{
		Named: map[string]any{
			":digest": snap.Digest[:],
			":keep":   s.keep,
		},
	})
	if err != nil {
		return fmt.Errorf("prune old slots: %v", err)
	}
	return nil
}

// Load returns the snapshot stored in the slot with the given ID.
func (s *Store) Load(ctx context.Context, id uuid.UUID) (*script.Snapshot, error) {
	data, err := s.data(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load %v: %w", id, err)
	}
	snap := new(script.Snapshot)
	if err := snap.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("load %v: %v", id, err)
	}
	return snap, nil
}

// Export writes the encoded snapshot stored in the slot to w.
func (s *Store) Export(ctx context.Context, w io.Writer, id uuid.UUID) error {
	data, err := s.data(ctx, id)
	if err != nil {
		return fmt.Errorf("export %v: %w", id, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("export %v: %v", id, err)
	}
	return nil
}

func (s *Store) data(ctx context.Context, id uuid.UUID) ([]byte, error) {
	conn, err := s.db.Get(ctx)
	if err != nil {
		return nil, err
	}
	defer s.db.Put(conn)

	var data []byte
	found := false
	err = sqlitex.ExecuteTransientFS(conn, sqlFiles(), "slot_data.sql", &sqlitex.ExecOptions{
		Named: map[string]any{":id": id[:]},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			found = true
			data = make([]byte, stmt.GetLen("data"))
			stmt.GetBytes("data", data)
			return nil
		},
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return data, nil
}

// List returns the metadata of the stored slots, oldest first.
// If digest is not nil, only slots for that bytecode file are returned.
func (s *Store) List(ctx context.Context, digest *[32]byte) ([]*Slot, error) {
	conn, err := s.db.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("list save slots: %v", err)
	}
	defer s.db.Put(conn)

	var digestArg any
	if digest != nil {
		digestArg = digest[:]
	}
	var slots []*Slot
	err = sqlitex.ExecuteTransientFS(conn, sqlFiles(), "list_slots.sql", &sqlitex.ExecOptions{
		Named: map[string]any{":digest": digestArg},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			slot := &Slot{
				Name:    stmt.GetText("name"),
				Created: time.UnixMilli(stmt.GetInt64("created_at")),
				Threads: int(stmt.GetInt64("threads")),
				Size:    stmt.GetInt64("size"),
			}
			var rawID [16]byte
			if n := stmt.GetBytes("id", rawID[:]); n != len(rawID) {
				log.Warnf(ctx, "Save database contains slot with invalid ID (%d bytes)", n)
				return nil
			}
			slot.ID = uuid.UUID(rawID)
			stmt.GetBytes("digest", slot.Digest[:])
			slots = append(slots, slot)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("list save slots: %v", err)
	}
	return slots, nil
}

// Rename changes the name of a slot.
func (s *Store) Rename(ctx context.Context, id uuid.UUID, name string) error {
	return s.modify(ctx, "rename_slot.sql", map[string]any{
		":id":   id[:],
		":name": name,
	}, func(err error) error {
		return fmt.Errorf("rename %v: %w", id, err)
	})
}

// Delete removes a slot.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.modify(ctx, "delete_slot.sql", map[string]any{":id": id[:]}, func(err error) error {
		return fmt.Errorf("delete %v: %w", id, err)
	})
	if err != nil {
		return err
	}
	log.Infof(ctx, "Deleted save slot %v", id)
	return nil
}

// modify runs a statement that changes exactly one slot.
func (s *Store) modify(ctx context.Context, file string, args map[string]any, wrap func(error) error) error {
	conn, err := s.db.Get(ctx)
	if err != nil {
		return wrap(err)
	}
	defer s.db.Put(conn)

	err = sqlitex.ExecuteTransientFS(conn, sqlFiles(), file, &sqlitex.ExecOptions{
		Named: args,
	})
	if err != nil {
		return wrap(err)
	}
	if conn.Changes() == 0 {
		return wrap(ErrNotFound)
	}
	return nil
}

func prepareConn(conn *sqlite.Conn) error {
	if err := sqlitex.ExecuteTransient(conn, "PRAGMA journal_mode = wal;", nil); err != nil {
		return err
	}
	return nil
}

//go:embed sql/*.sql
//go:embed sql/schema/*.sql
var rawSQLFiles embed.FS

func sqlFiles() fs.FS {
	sub, err := fs.Sub(rawSQLFiles, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

var schemaState struct {
	init   sync.Once
	schema sqlitemigration.Schema
	err    error
}

func loadSchema() sqlitemigration.Schema {
	schemaState.init.Do(func() {
		for i := 1; ; i++ {
			migration, err := fs.ReadFile(sqlFiles(), fmt.Sprintf("schema/%02d.sql", i))
			if errors.Is(err, fs.ErrNotExist) {
				break
			}
			if err != nil {
				schemaState.err = err
				return
			}
			schemaState.schema.Migrations = append(schemaState.schema.Migrations, string(migration))
		}
	})

	if schemaState.err != nil {
		panic(schemaState.err)
	}
	return schemaState.schema
}
