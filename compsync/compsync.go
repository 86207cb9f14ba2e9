/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 *
 * Package compsync refreshes the local store from SimplyCompete and the
 * ranking sources.
 */
package compsync

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/mikeb26/tkdrank/internal/metrics"
	"github.com/mikeb26/tkdrank/simplycompete"
	"github.com/mikeb26/tkdrank/store"
	"github.com/mikeb26/tkdrank/wtrank"
)

var ErrNoCompetitions = errors.New("no competitions found")

type CompetitionSource interface {
	GetCompetitions(ctx context.Context) ([]simplycompete.Competition, error)
}

type RankingSource interface {
	FetchDivisions(ctx context.Context,
		urls map[string]string) (map[string][]wtrank.Entry, error)
}

type Store interface {
	UpsertCompetitions(ctx context.Context, comps []simplycompete.Competition) error
	SaveRankings(ctx context.Context, division string, asOf time.Time,
		entries []wtrank.Entry) error
	RecordSyncRun(ctx context.Context, run store.SyncRun) error
}

type Syncer struct {
	competitions CompetitionSource
	rankings     RankingSource
	divisions    map[string]string
	store        Store
	clock        clockwork.Clock
	metrics      *metrics.Metrics
}

type Option func(*Syncer)

// WithRankings makes each run also snapshot the given divisions.
func WithRankings(src RankingSource, divisions map[string]string) Option {
	return func(s *Syncer) {
		s.rankings = src
		s.divisions = divisions
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}

func New(competitions CompetitionSource, st Store, clock clockwork.Clock,
	opts ...Option) *Syncer {

	s := &Syncer{competitions: competitions, store: st, clock: clock}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes a completed sync run.
type Result struct {
	RunID        uuid.UUID                   `json:"runId"`
	Competitions []simplycompete.Competition `json:"competitions"`
}

// Sync fetches the competition list and stores it. Every attempt is recorded
// as a sync run whether or not it succeeds. An empty list is reported as
// ErrNoCompetitions and leaves the stored competitions untouched.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	run := store.SyncRun{ID: uuid.New(), StartedAt: s.clock.Now()}
	res := Result{RunID: run.ID}

	comps, err := s.syncCompetitions(ctx)
	res.Competitions = comps
	run.Count = len(comps)
	run.FinishedAt = s.clock.Now()
	if err != nil {
		run.Error = err.Error()
	}

	if recErr := s.store.RecordSyncRun(ctx, run); recErr != nil {
		log.Printf("compsync.Sync: failed to record run %v: %v", run.ID, recErr)
	}
	s.metrics.ObserveSync(run.Count, run.FinishedAt.Sub(run.StartedAt), err)

	if err != nil {
		return res, err
	}
	log.Printf("compsync.Sync: run %v stored %v competitions", run.ID, run.Count)
	return res, nil
}

func (s *Syncer) syncCompetitions(ctx context.Context) ([]simplycompete.Competition, error) {
	comps, err := s.competitions.GetCompetitions(ctx)
	if err != nil {
		return nil, err
	}
	if len(comps) == 0 {
		return nil, ErrNoCompetitions
	}
	if err := s.store.UpsertCompetitions(ctx, comps); err != nil {
		return nil, fmt.Errorf("storing competitions: %w", err)
	}
	return comps, nil
}

// SyncRankings snapshots every configured division at the current time and
// returns the number of divisions stored.
func (s *Syncer) SyncRankings(ctx context.Context) (int, error) {
	if s.rankings == nil || len(s.divisions) == 0 {
		return 0, nil
	}

	byDiv, err := s.rankings.FetchDivisions(ctx, s.divisions)
	if err != nil {
		return 0, fmt.Errorf("fetching rankings: %w", err)
	}
	asOf := s.clock.Now()
	for div, entries := range byDiv {
		if err := s.store.SaveRankings(ctx, div, asOf, entries); err != nil {
			return 0, fmt.Errorf("storing rankings of %v: %w", div, err)
		}
	}
	return len(byDiv), nil
}

// Run syncs immediately and then every interval until ctx is done. Failed
// runs are logged and retried on the next tick.
func (s *Syncer) Run(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.Sync(ctx); err != nil && ctx.Err() == nil {
			log.Printf("compsync.Run: sync failed: %v", err)
		}
		if _, err := s.SyncRankings(ctx); err != nil && ctx.Err() == nil {
			log.Printf("compsync.Run: rankings sync failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
		}
	}
}
