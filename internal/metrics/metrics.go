// Package metrics exposes Prometheus collectors for the crawl pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hirewatch_pages_fetched_total",
		Help: "Pages fetched, by outcome (ok, blocked, failed).",
	}, []string{"outcome"})

	rateLimitWait = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "hirewatch_rate_limit_wait_seconds",
		Help:    "Time spent waiting on the per-domain rate limiter.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	robotsDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hirewatch_robots_decisions_total",
		Help: "robots.txt decisions, by result (allowed, disallowed).",
	}, []string{"decision"})

	changesDetected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hirewatch_changes_detected_total",
		Help: "Detected snapshot changes, by kind.",
	}, []string{"kind"})
)

// IncPageFetched records a fetch outcome.
func IncPageFetched(outcome string) {
	pagesFetched.WithLabelValues(outcome).Inc()
}

// ObserveRateLimitWait records time spent blocked in the limiter.
func ObserveRateLimitWait(d time.Duration) {
	if d > 0 {
		rateLimitWait.Observe(d.Seconds())
	}
}

// IncRobotsDecision records an allow/disallow decision.
func IncRobotsDecision(allowed bool) {
	decision := "allowed"
	if !allowed {
		decision = "disallowed"
	}
	robotsDecisions.WithLabelValues(decision).Inc()
}

// IncChangeDetected records one detected change of the given kind.
func IncChangeDetected(kind string) {
	changesDetected.WithLabelValues(kind).Inc()
}
