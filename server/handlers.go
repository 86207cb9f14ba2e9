/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mikeb26/tkdrank/compsync"
	"github.com/mikeb26/tkdrank/rankchange"
	"github.com/mikeb26/tkdrank/rankview"
	"github.com/mikeb26/tkdrank/simplycompete"
	"github.com/mikeb26/tkdrank/store"
	"github.com/mikeb26/tkdrank/wtrank"
)

func errorBody(err error) map[string]any {
	return map[string]any{
		"success":      false,
		"error":        err.Error(),
		"competitions": []simplycompete.Competition{},
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := "running"
	if err := s.store.Ping(ctx); err != nil {
		slog.Error("Store ping failed", "error", err)
		status = "degraded"
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":  status,
		"message": "API for SimplyCompete competitions and World Taekwondo rankings",
		"uptime":  time.Since(s.startTime).Seconds(),
		"endpoints": []string{
			"/competitions/sync - Fetch and sync competitions from API",
			"/competitions - Get stored competitions from database",
			"/competitions/:id/participants - Stored participants of a competition",
			"/divisions - List divisions with stored rankings",
			"/rankings/:division - Latest ranking snapshot with rank changes",
			"/rank-change?current=&previous= or ?delta= - Evaluate a rank change",
			"/metrics - Prometheus metrics",
		},
	})
}

func (s *Server) handleSync(c echo.Context) error {
	res, err := s.syncer.Sync(c.Request().Context())
	// a persistent 403 reads as "API call failed", not a server fault
	if errors.Is(err, simplycompete.ErrForbidden) {
		slog.Warn("Competition sync rejected upstream", "error", err)
	}
	if errors.Is(err, compsync.ErrNoCompetitions) ||
		errors.Is(err, simplycompete.ErrForbidden) {
		return c.JSON(http.StatusNotFound, map[string]any{
			"success":      false,
			"message":      "No competitions found or API call failed",
			"count":        0,
			"competitions": []simplycompete.Competition{},
		})
	}
	if err != nil {
		slog.Error("Competition sync failed", "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": fmt.Sprintf("Successfully synced %d competitions",
			len(res.Competitions)),
		"count":        len(res.Competitions),
		"competitions": res.Competitions,
		"runId":        res.RunID,
	})
}

func (s *Server) handleCompetitions(c echo.Context) error {
	comps, err := s.store.ListCompetitions(c.Request().Context())
	if err != nil {
		slog.Error("Listing competitions failed", "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":      true,
		"count":        len(comps),
		"competitions": comps,
	})
}

// handleParticipants returns a competition's stored participants along with
// per-division counts.
func (s *Server) handleParticipants(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	comp, err := s.store.GetCompetition(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]any{
			"success": false,
			"error":   fmt.Sprintf("no competition %v", id),
		})
	}
	if err != nil {
		slog.Error("Loading competition failed", "id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}

	participants, err := s.store.ListParticipants(ctx, id)
	if err != nil {
		slog.Error("Listing participants failed", "id", id, "error", err)
		return c.JSON(http.StatusInternalServerError, errorBody(err))
	}
	if participants == nil {
		participants = []simplycompete.Participant{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":      true,
		"competition":  comp,
		"count":        len(participants),
		"divisions":    simplycompete.DivisionCounts(participants),
		"participants": participants,
	})
}

func (s *Server) handleDivisions(c echo.Context) error {
	divs, err := s.store.ListDivisions(c.Request().Context())
	if err != nil {
		slog.Error("Listing divisions failed", "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}
	if divs == nil {
		divs = []string{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":   true,
		"divisions": divs,
	})
}

// rankingRow is a ranking entry with its evaluated change; Change is omitted
// when the row holds no current rank.
type rankingRow struct {
	wtrank.Entry
	Change *rankview.View `json:"change,omitempty"`
}

func (s *Server) changeView(c rankchange.Change, ok bool) *rankview.View {
	if !ok {
		return nil
	}
	s.metrics.ObserveChange(c.Direction.String())
	v := rankview.NewView(c)
	return &v
}

func (s *Server) handleRankings(c echo.Context) error {
	division, err := url.PathUnescape(c.Param("division"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "invalid division",
		})
	}

	entries, asOf, err := s.store.ListRankings(c.Request().Context(), division)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]any{
			"success": false,
			"error":   fmt.Sprintf("no rankings stored for %v", division),
		})
	}
	if err != nil {
		slog.Error("Listing rankings failed", "division", division, "error", err)
		return c.JSON(http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}

	rows := make([]rankingRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, rankingRow{Entry: e, Change: s.changeView(e.Change())})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"division": division,
		"asOf":     asOf,
		"count":    len(rows),
		"rankings": rows,
	})
}

// handleRankChange evaluates either ?delta= or ?current= against ?previous=.
// An empty or omitted current yields a null change; an omitted previous is
// treated as not yet known.
func (s *Server) handleRankChange(c echo.Context) error {
	q := c.QueryParams()
	badRequest := func(err error) error {
		return c.JSON(http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}

	if q.Has("delta") {
		delta, err := rankchange.ParseDelta(q.Get("delta"))
		if err != nil {
			return badRequest(err)
		}
		return c.JSON(http.StatusOK, map[string]any{
			"success": true,
			"change":  s.changeView(rankchange.EvaluateDelta(delta)),
		})
	}

	current, err := rankchange.ParseRank(q.Get("current"))
	if err != nil {
		return badRequest(err)
	}
	previous := rankchange.Unknown
	if q.Has("previous") {
		if previous, err = rankchange.ParseRank(q.Get("previous")); err != nil {
			return badRequest(err)
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":  true,
		"current":  current,
		"previous": previous,
		"change":   s.changeView(rankchange.Evaluate(current, previous)),
	})
}
