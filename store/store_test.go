/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mikeb26/tkdrank/rankchange"
	"github.com/mikeb26/tkdrank/simplycompete"
	"github.com/mikeb26/tkdrank/wtrank"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "tkdrank.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCompetitions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	may := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	jul := time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.UpsertCompetitions(ctx, []simplycompete.Competition{
		{ID: "b", Name: "Small States", StartDate: jul},
		{ID: "a", Name: "Albania Open", StartDate: may},
	}))
	// replacing keeps one row per id
	require.NoError(t, s.UpsertCompetitions(ctx, []simplycompete.Competition{
		{ID: "b", Name: "Small States Championships", StartDate: jul},
	}))

	comps, err := s.ListCompetitions(ctx)
	require.NoError(t, err)
	require.Len(t, comps, 2)
	assert.Equal(t, "a", comps[0].ID)
	assert.True(t, comps[0].StartDate.Equal(may))
	assert.Equal(t, "Small States Championships", comps[1].Name)

	c, err := s.GetCompetition(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Albania Open", c.Name)

	_, err = s.GetCompetition(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListCompetitionsEmpty(t *testing.T) {
	comps, err := newTestStore(t).ListCompetitions(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, comps)
	assert.Empty(t, comps)
}

func TestParticipantsReplaced(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveParticipants(ctx, "evt", []simplycompete.Participant{
		{FirstName: "Al", LastName: "Ray", SeedNumber: "1"},
		{FirstName: "Bo", LastName: "Kim"},
	}))
	require.NoError(t, s.SaveParticipants(ctx, "evt", []simplycompete.Participant{
		{FirstName: "Cy", LastName: "Do", Country: "MLT", DivisionName: "Male -58kg",
			LicenseID: "MLT-1", SeedNumber: "3"},
	}))

	ps, err := s.ListParticipants(ctx, "evt")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "Cy Do", ps[0].DisplayName())
	assert.Equal(t, simplycompete.FlexString("MLT-1"), ps[0].LicenseID)
	assert.Equal(t, "Male -58kg", ps[0].Division())

	other, err := s.ListParticipants(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRankingSnapshots(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	div := "Male -58kg"

	_, _, err := s.ListRankings(ctx, div)
	require.ErrorIs(t, err, ErrNotFound)

	week1 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	week2 := week1.AddDate(0, 0, 7)

	require.NoError(t, s.SaveRankings(ctx, div, week1, []wtrank.Entry{
		{Rank: rankchange.Ranked(1), Name: "Jun Jaewon", Country: "KOR", Points: 100},
		{Rank: rankchange.Ranked(2), Name: "Vito Dell'Aquila", Country: "ITA", Points: 90},
	}))
	require.NoError(t, s.SaveRankings(ctx, div, week2, []wtrank.Entry{
		{Rank: rankchange.Ranked(1), Name: "Vito Dell'Aquila", Country: "ITA", Points: 120},
		{Rank: rankchange.Ranked(2), Name: "Jun Jaewon", Country: "KOR", Points: 110},
		{Rank: rankchange.Ranked(3), Name: "Ana Novak", Country: "SLO", Points: 50},
		{Rank: rankchange.Ranked(4), Previous: rankchange.Ranked(9), Name: "Given", Country: "USA"},
	}))

	entries, asOf, err := s.ListRankings(ctx, div)
	require.NoError(t, err)
	assert.True(t, asOf.Equal(week2))
	require.Len(t, entries, 4)

	assert.Equal(t, "Vito Dell'Aquila", entries[0].Name)
	assert.Equal(t, rankchange.Ranked(2), entries[0].Previous)
	assert.Equal(t, rankchange.Ranked(1), entries[1].Previous)
	assert.True(t, entries[2].Previous.IsUnranked())
	assert.Equal(t, rankchange.Ranked(9), entries[3].Previous)
	assert.Equal(t, 120.0, entries[0].Points)

	up, ok := entries[0].Change()
	require.True(t, ok)
	assert.Equal(t, rankchange.Up, up.Direction)
	assert.Equal(t, 1, up.Amount)

	// re-saving the same snapshot replaces it
	require.NoError(t, s.SaveRankings(ctx, div, week2, []wtrank.Entry{
		{Rank: rankchange.Ranked(1), Name: "Jun Jaewon", Country: "KOR"},
	}))
	entries, _, err = s.ListRankings(ctx, div)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, rankchange.Ranked(1), entries[0].Previous)

	divs, err := s.ListDivisions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{div}, divs)
}

func TestFirstSnapshotHasNoPrevious(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	require.NoError(t, s.SaveRankings(ctx, "Female -49kg", time.Now(), []wtrank.Entry{
		{Rank: rankchange.Ranked(1), Name: "Solo"},
	}))
	entries, _, err := s.ListRankings(ctx, "Female -49kg")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	c, ok := entries[0].Change()
	require.True(t, ok)
	assert.Equal(t, rankchange.New, c.Direction)
}

func TestSyncRuns(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.LastSyncRun(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	start := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	first := SyncRun{ID: uuid.New(), StartedAt: start,
		FinishedAt: start.Add(time.Second), Count: 3}
	second := SyncRun{ID: uuid.New(), StartedAt: start.Add(time.Hour),
		FinishedAt: start.Add(time.Hour + time.Second), Error: "forbidden"}
	require.NoError(t, s.RecordSyncRun(ctx, first))
	require.NoError(t, s.RecordSyncRun(ctx, second))

	last, err := s.LastSyncRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, last.ID)
	assert.Equal(t, "forbidden", last.Error)
	assert.Equal(t, 0, last.Count)
	assert.True(t, last.FinishedAt.Equal(second.FinishedAt))
}

func TestSaveRankingsRejectsEntryWithoutRank(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	err := s.SaveRankings(ctx, "Male -68kg", time.Now(), []wtrank.Entry{
		{Rank: rankchange.Ranked(1), Name: "First"},
		{Rank: rankchange.Unranked, Name: "Nobody"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Nobody")

	_, _, err = s.ListRankings(ctx, "Male -68kg")
	assert.ErrorIs(t, err, ErrNotFound)
}
