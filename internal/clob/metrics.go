package clob

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDurationSeconds tracks CLOB API latency by method and path.
	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "updown_clob_request_duration_seconds",
			Help:    "Duration of CLOB API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// RequestErrorsTotal counts transport and non-2xx failures by path.
	RequestErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updown_clob_request_errors_total",
			Help: "Total number of failed CLOB API requests",
		},
		[]string{"path"},
	)
)
