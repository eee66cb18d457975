// Package metrics exposes Prometheus instrumentation for the query pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askql_queries_total",
			Help: "Total number of executed query actions.",
		},
		[]string{"action", "outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askql_query_duration_seconds",
			Help:    "Query action latency by action kind.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	queryTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askql_query_timeouts_total",
			Help: "Total number of queries abandoned by the timeout watchdog.",
		},
	)

	intentResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askql_intent_resolutions_total",
			Help: "Intent resolver outcomes.",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		queriesTotal,
		queryDurationSeconds,
		queryTimeoutsTotal,
		intentResolutionsTotal,
	)
}

// ObserveQuery records one executed action with its outcome and duration.
func ObserveQuery(action, outcome string, d time.Duration) {
	queriesTotal.WithLabelValues(action, outcome).Inc()
	queryDurationSeconds.WithLabelValues(action).Observe(d.Seconds())
}

// ObserveTimeout counts a watchdog expiry.
func ObserveTimeout() {
	queryTimeoutsTotal.Inc()
}

// ObserveResolution records one intent resolver outcome ("ok", "error", or
// "unknown").
func ObserveResolution(outcome string) {
	intentResolutionsTotal.WithLabelValues(outcome).Inc()
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
