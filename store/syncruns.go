/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SyncRun records one attempt to refresh competitions from upstream.
type SyncRun struct {
	ID         uuid.UUID `json:"id"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Count      int       `json:"count"`
	Error      string    `json:"error,omitempty"`
}

func (s *Store) RecordSyncRun(ctx context.Context, run SyncRun) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO sync_runs
		(id, started_at, finished_at, count, error) VALUES (?, ?, ?, ?, ?)`,
		run.ID.String(), formatTime(run.StartedAt), formatTime(run.FinishedAt),
		run.Count, sql.NullString{String: run.Error, Valid: run.Error != ""})
	if err != nil {
		return fmt.Errorf("recording sync run %v: %w", run.ID, err)
	}
	return nil
}

// LastSyncRun returns the most recently started run or ErrNotFound.
func (s *Store) LastSyncRun(ctx context.Context) (SyncRun, error) {
	var run SyncRun
	var id string
	var started, finished, errText sql.NullString
	var count sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT id, started_at, finished_at, count,
		error FROM sync_runs ORDER BY started_at DESC LIMIT 1`).
		Scan(&id, &started, &finished, &count, &errText)
	if err == sql.ErrNoRows {
		return run, ErrNotFound
	}
	if err != nil {
		return run, fmt.Errorf("loading last sync run: %w", err)
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return run, fmt.Errorf("sync run id %q: %w", id, err)
	}
	if run.StartedAt, err = parseTime(started); err != nil {
		return run, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return run, err
	}
	run.Count = int(count.Int64)
	run.Error = errText.String
	return run, nil
}
