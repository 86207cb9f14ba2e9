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

	"github.com/mikeb26/tkdrank/rankchange"
	"github.com/mikeb26/tkdrank/wtrank"
)

// SaveRankings records a ranking snapshot of division taken at asOf,
// replacing any snapshot with the same timestamp. Every entry must hold a
// rank; the snapshot is rejected otherwise. Entries whose previous
// rank is Unknown take it from the athlete's latest earlier snapshot in
// the division; an athlete absent from that snapshot is recorded as
// unranked.
func (s *Store) SaveRankings(ctx context.Context, division string,
	asOf time.Time, entries []wtrank.Entry) error {

	ts := formatTime(asOf)
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM rankings WHERE division = ? AND as_of = ?`, division, ts)
		if err != nil {
			return fmt.Errorf("clearing snapshot of %v: %w", division, err)
		}

		var priorAsOf sql.NullString
		err = tx.QueryRowContext(ctx, `SELECT MAX(as_of) FROM rankings
			WHERE division = ? AND as_of < ?`, division, ts).Scan(&priorAsOf)
		if err != nil {
			return fmt.Errorf("finding prior snapshot of %v: %w", division, err)
		}

		for _, e := range entries {
			if !e.Rank.IsRanked() {
				return fmt.Errorf("ranking of %v in %v has no rank", e.Name, division)
			}
			prev := e.Previous
			if prev.IsUnknown() && priorAsOf.Valid {
				prev, err = priorRank(ctx, tx, division, e, priorAsOf.String)
				if err != nil {
					return err
				}
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO rankings
				(division, athlete, country, rank, previous_rank, points, as_of)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				division, e.Name, e.Country, e.Rank, prev, e.Points, ts)
			if err != nil {
				return fmt.Errorf("inserting ranking of %v: %w", e.Name, err)
			}
		}
		return nil
	})
}

func priorRank(ctx context.Context, tx *sql.Tx, division string, e wtrank.Entry,
	asOf string) (rankchange.Rank, error) {

	var r rankchange.Rank
	err := tx.QueryRowContext(ctx, `SELECT rank FROM rankings
		WHERE division = ? AND athlete = ? AND country = ? AND as_of = ?`,
		division, e.Name, e.Country, asOf).Scan(&r)
	if err == sql.ErrNoRows {
		return rankchange.Unranked, nil
	}
	if err != nil {
		return r, fmt.Errorf("looking up prior rank of %v: %w", e.Name, err)
	}
	return r, nil
}

// ListRankings returns the latest snapshot of division ordered by rank along
// with its timestamp, or ErrNotFound when none has been saved.
func (s *Store) ListRankings(ctx context.Context,
	division string) ([]wtrank.Entry, time.Time, error) {

	var latest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(as_of) FROM rankings WHERE division = ?`, division).Scan(&latest)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("finding latest snapshot of %v: %w",
			division, err)
	}
	if !latest.Valid {
		return nil, time.Time{}, ErrNotFound
	}
	asOf, err := parseTime(latest)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("snapshot time of %v: %w", division, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT athlete, country, rank,
		previous_rank, points FROM rankings
		WHERE division = ? AND as_of = ? ORDER BY rank, athlete`,
		division, latest.String)
	if err != nil {
		return nil, asOf, fmt.Errorf("listing rankings of %v: %w", division, err)
	}
	defer rows.Close()

	var out []wtrank.Entry
	for rows.Next() {
		var e wtrank.Entry
		var country sql.NullString
		var points sql.NullFloat64
		if err := rows.Scan(&e.Name, &country, &e.Rank, &e.Previous,
			&points); err != nil {
			return nil, asOf, fmt.Errorf("scanning ranking: %w", err)
		}
		e.Country = country.String
		e.Points = points.Float64
		out = append(out, e)
	}
	return out, asOf, rows.Err()
}

// ListDivisions returns the divisions that have at least one snapshot.
func (s *Store) ListDivisions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT division FROM rankings ORDER BY division`)
	if err != nil {
		return nil, fmt.Errorf("listing divisions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scanning division: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
