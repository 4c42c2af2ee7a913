package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdesk_http_requests_total",
			Help: "Requests served, by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "frontdesk_http_request_duration_seconds",
			Help:    "Request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	BackendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdesk_backend_requests_total",
			Help: "Calls to the hotel backend, by operation and status code (0 for transport errors).",
		},
		[]string{"operation", "status"},
	)

	BackendRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "frontdesk_backend_request_duration_seconds",
			Help:    "Latency of calls to the hotel backend.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	CheckoutSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdesk_checkout_submissions_total",
			Help: "Check-out submissions by payment method and result.",
		},
		[]string{"method", "result"},
	)

	ReadinessPollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdesk_readiness_polls_total",
			Help: "Housekeeping note polls by result (ready, not_ready, error).",
		},
		[]string{"result"},
	)

	OpenSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "frontdesk_checkout_open_sessions",
		Help: "Check-out panels currently open.",
	})

	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdesk_cache_lookups_total",
			Help: "Redis cache lookups by key prefix and outcome (hit, miss).",
		},
		[]string{"key", "outcome"},
	)

	HandlerPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontdesk_handler_panics_total",
		Help: "Handler panics recovered by the error logger.",
	})
)
