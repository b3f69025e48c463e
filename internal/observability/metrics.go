// Package observability carries the service's Prometheus instruments
// and the HTTP request logging middleware. Counters are registered at
// package load and scraped from /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuoteComputations counts pricing engine runs, including
	// snapshot-based recomputations of approved records.
	QuoteComputations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradequote_quote_computations_total",
		Help: "Number of pricing engine computations.",
	})

	// QuoteApprovals counts successful approval transactions.
	QuoteApprovals = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradequote_quote_approvals_total",
		Help: "Number of quotes approved.",
	})

	// ApprovalConflicts counts approvals lost to a concurrent winner.
	ApprovalConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tradequote_approval_conflicts_total",
		Help: "Number of approval attempts rejected by the status guard.",
	})

	// ValidationFailures counts requests rejected before reaching a
	// service, labeled by resource.
	ValidationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradequote_validation_failures_total",
		Help: "Number of requests rejected by input validation.",
	}, []string{"resource"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tradequote_http_requests_total",
		Help: "HTTP requests by route, method and status class.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tradequote_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)
