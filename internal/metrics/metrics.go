/* Copyright © 2025 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tkdrank"

// Metrics holds the collectors updated by the sync service and the HTTP API.
type Metrics struct {
	Registry *prometheus.Registry

	SyncRuns         *prometheus.CounterVec
	SyncDuration     prometheus.Histogram
	CompetitionsSeen prometheus.Gauge
	RankChanges      *prometheus.CounterVec
}

// New creates a registry with Go runtime and process collectors plus the
// application's own metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		Registry: reg,
		SyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Competition sync runs by result",
		}, []string{"result"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Competition sync duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
		CompetitionsSeen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "competitions",
			Help:      "Competitions returned by the last successful sync",
		}),
		RankChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rank_changes_total",
			Help:      "Rank changes evaluated by direction",
		}, []string{"direction"}),
	}
	reg.MustRegister(m.SyncRuns, m.SyncDuration, m.CompetitionsSeen, m.RankChanges)

	return m
}

// ObserveSync records the outcome of a sync run. A nil Metrics is a no-op.
func (m *Metrics) ObserveSync(count int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.SyncDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.SyncRuns.WithLabelValues("error").Inc()
		return
	}
	m.SyncRuns.WithLabelValues("ok").Inc()
	m.CompetitionsSeen.Set(float64(count))
}

// ObserveChange counts one evaluated rank change. A nil Metrics is a no-op.
func (m *Metrics) ObserveChange(direction string) {
	if m == nil {
		return
	}
	m.RankChanges.WithLabelValues(direction).Inc()
}

// Handler returns an http.Handler that serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
