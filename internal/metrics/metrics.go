// Package metrics provides Prometheus metrics for the dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsdesk"

var (
	// ListFetchTotal counts list queries by screen and outcome.
	ListFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_fetch_total",
			Help:      "Total number of list fetches",
		},
		[]string{"screen", "status"},
	)

	// ListFetchDuration measures list query latency.
	ListFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "list_fetch_duration_seconds",
			Help:      "Duration of list fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"screen"},
	)

	// ListStaleResponses counts fetch results discarded because a newer fetch was issued.
	ListStaleResponses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_stale_responses_total",
			Help:      "Total number of superseded list responses that were discarded",
		},
		[]string{"screen"},
	)

	// ListRollbacks counts optimistic removals that were undone.
	ListRollbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_rollbacks_total",
			Help:      "Total number of optimistic removals rolled back",
		},
		[]string{"screen"},
	)

	// NotificationsTotal counts toasts raised by kind.
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of user notifications",
		},
		[]string{"screen", "kind"},
	)

	// LiveViews reports the number of live list views held in memory.
	LiveViews = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_views",
			Help:      "Number of live list views",
		},
		[]string{"screen"},
	)

	// ExportsTotal counts collection exports by format.
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Total number of collection exports",
		},
		[]string{"collection", "format", "status"},
	)

	// RateLimited counts requests rejected by the rate limiter.
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
	)

	// HTTPRequestsTotal counts handled requests by route and status class.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures request latency by route.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)
