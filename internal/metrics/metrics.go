// Package metrics provides Prometheus metrics for the badge engine and HTTP API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Badge engine ───────────────────────────────────────────────────────────

// Evaluations counts AwardEngine runs by outcome (ok, error, empty_catalog, nothing_pending).
var Evaluations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wellnesshub",
	Name:      "badge_evaluations_total",
	Help:      "Total badge evaluations by outcome.",
}, []string{"outcome"})

// BadgesAwarded counts badges created per badge slug.
var BadgesAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wellnesshub",
	Name:      "badges_awarded_total",
	Help:      "Total badges awarded.",
}, []string{"slug"})

// AwardConflicts counts awards lost to a concurrent evaluation.
var AwardConflicts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "wellnesshub",
	Name:      "badge_award_conflicts_total",
	Help:      "Awards skipped because a concurrent evaluation created the same badge.",
})

// MetricResolveLatency tracks metric computation time per metric type.
var MetricResolveLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "wellnesshub",
	Name:      "metric_resolve_seconds",
	Help:      "Time spent resolving a badge metric.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
}, []string{"metric"})

// CatalogCacheLookups counts catalog reads by result (hit, miss, error).
var CatalogCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wellnesshub",
	Name:      "badge_catalog_cache_lookups_total",
	Help:      "Badge catalog cache lookups by result.",
}, []string{"result"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests counts requests by route template, method and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wellnesshub",
	Name:      "http_requests_total",
	Help:      "Total HTTP requests.",
}, []string{"route", "method", "status"})

// HTTPLatency tracks request duration in seconds by route template.
var HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "wellnesshub",
	Name:      "http_request_duration_seconds",
	Help:      "HTTP request duration in seconds.",
	Buckets:   prometheus.DefBuckets,
}, []string{"route", "method"})
