/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveSync(t *testing.T) {
	m := New()
	m.ObserveSync(7, time.Second, nil)
	m.ObserveSync(0, time.Second, errors.New("forbidden"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncRuns.WithLabelValues("error")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.CompetitionsSeen))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSync(1, time.Second, nil)
		m.ObserveChange("up")
	})
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveChange("up")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tkdrank_rank_changes_total{direction="up"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
