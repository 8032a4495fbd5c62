package orderbook

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QuoteDurationSeconds tracks depth-walk latency.
	QuoteDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "updown_orderbook_quote_duration_seconds",
		Help:    "Duration of a depth walk across ask levels",
		Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
	})

	// QuotesShortTotal counts quotes where book depth could not cover the
	// requested size.
	QuotesShortTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_orderbook_quotes_short_total",
		Help: "Total number of quotes with insufficient depth for the requested size",
	})

	// FetchDurationSeconds tracks book fetch latency through the transport.
	FetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "updown_orderbook_fetch_duration_seconds",
		Help:    "Duration of an order book fetch",
		Buckets: prometheus.DefBuckets,
	})

	// InvalidSnapshotsTotal counts snapshots rejected by invariant checks.
	InvalidSnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updown_orderbook_invalid_snapshots_total",
			Help: "Total number of book snapshots rejected as malformed",
		},
		[]string{"reason"},
	)
)
