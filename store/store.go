/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 *
 * Package store persists competitions, participants, ranking snapshots and
 * sync history in a SQLite database.
 */
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

var ErrNotFound = errors.New("not found")

// timestamps are stored as fixed width UTC text so they order lexically
const timeFormat = "2006-01-02T15:04:05.000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS competitions (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    start_date TEXT
);

CREATE TABLE IF NOT EXISTS participants (
    event_id TEXT NOT NULL,
    first_name TEXT,
    last_name TEXT,
    preferred_first_name TEXT,
    preferred_last_name TEXT,
    country TEXT,
    division TEXT,
    club TEXT,
    custom_club TEXT,
    license_id TEXT,
    seed TEXT
);
CREATE INDEX IF NOT EXISTS participants_event ON participants(event_id);

CREATE TABLE IF NOT EXISTS rankings (
    division TEXT NOT NULL,
    athlete TEXT NOT NULL,
    country TEXT,
    rank INTEGER NOT NULL,
    previous_rank INTEGER,
    points REAL,
    as_of TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS rankings_division ON rankings(division, as_of);

CREATE TABLE IF NOT EXISTS sync_runs (
    id TEXT PRIMARY KEY,
    started_at TEXT NOT NULL,
    finished_at TEXT,
    count INTEGER,
    error TEXT
);
`

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %v: %w", path, err)
	}
	// sqlite permits a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating %v: %w", path, err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timeFormat), Valid: true}
}

func parseTime(ns sql.NullString) (time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeFormat, ns.String)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
