/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mikeb26/tkdrank/simplycompete"
)

// UpsertCompetitions inserts or replaces each competition by id.
func (s *Store) UpsertCompetitions(ctx context.Context,
	comps []simplycompete.Competition) error {

	return s.withTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT OR REPLACE INTO competitions (id, name, start_date) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing competition upsert: %w", err)
		}
		defer stmt.Close()

		for _, c := range comps {
			_, err := stmt.ExecContext(ctx, c.ID, c.Name, formatTime(c.StartDate))
			if err != nil {
				return fmt.Errorf("upserting competition %v: %w", c.ID, err)
			}
		}
		return nil
	})
}

// ListCompetitions returns every stored competition ordered by start date.
func (s *Store) ListCompetitions(ctx context.Context) ([]simplycompete.Competition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, start_date FROM competitions ORDER BY start_date, id`)
	if err != nil {
		return nil, fmt.Errorf("listing competitions: %w", err)
	}
	defer rows.Close()

	comps := make([]simplycompete.Competition, 0)
	for rows.Next() {
		var c simplycompete.Competition
		var start sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &start); err != nil {
			return nil, fmt.Errorf("scanning competition: %w", err)
		}
		if c.StartDate, err = parseTime(start); err != nil {
			return nil, fmt.Errorf("competition %v start date: %w", c.ID, err)
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

// GetCompetition returns the competition with id or ErrNotFound.
func (s *Store) GetCompetition(ctx context.Context,
	id string) (simplycompete.Competition, error) {

	var c simplycompete.Competition
	var start sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, start_date FROM competitions WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &start)
	if err == sql.ErrNoRows {
		return c, ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("loading competition %v: %w", id, err)
	}
	c.StartDate, err = parseTime(start)
	return c, err
}

// SaveParticipants replaces the stored participant list of eventID.
func (s *Store) SaveParticipants(ctx context.Context, eventID string,
	participants []simplycompete.Participant) error {

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE event_id = ?`,
			eventID)
		if err != nil {
			return fmt.Errorf("clearing participants of %v: %w", eventID, err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO participants
			(event_id, first_name, last_name, preferred_first_name,
			 preferred_last_name, country, division, club, custom_club,
			 license_id, seed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing participant insert: %w", err)
		}
		defer stmt.Close()

		for _, p := range participants {
			_, err := stmt.ExecContext(ctx, eventID, p.FirstName, p.LastName,
				p.PreferredFirstName, p.PreferredLastName, p.Country,
				p.DivisionName, p.ClubName, p.CustomClubName,
				string(p.LicenseID), string(p.SeedNumber))
			if err != nil {
				return fmt.Errorf("inserting participant of %v: %w", eventID, err)
			}
		}
		return nil
	})
}

// ListParticipants returns the stored participants of eventID in insertion
// order.
func (s *Store) ListParticipants(ctx context.Context,
	eventID string) ([]simplycompete.Participant, error) {

	rows, err := s.db.QueryContext(ctx, `SELECT first_name, last_name,
		preferred_first_name, preferred_last_name, country, division, club,
		custom_club, license_id, seed
		FROM participants WHERE event_id = ? ORDER BY rowid`, eventID)
	if err != nil {
		return nil, fmt.Errorf("listing participants of %v: %w", eventID, err)
	}
	defer rows.Close()

	var out []simplycompete.Participant
	for rows.Next() {
		var p simplycompete.Participant
		var license, seed string
		err := rows.Scan(&p.FirstName, &p.LastName, &p.PreferredFirstName,
			&p.PreferredLastName, &p.Country, &p.DivisionName, &p.ClubName,
			&p.CustomClubName, &license, &seed)
		if err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		p.LicenseID = simplycompete.FlexString(license)
		p.SeedNumber = simplycompete.FlexString(seed)
		out = append(out, p)
	}
	return out, rows.Err()
}
