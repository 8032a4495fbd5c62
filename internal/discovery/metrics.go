package discovery

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolveDurationSeconds tracks end-to-end market resolution latency.
	ResolveDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "updown_discovery_resolve_duration_seconds",
		Help:    "Duration of active market resolution",
		Buckets: prometheus.DefBuckets,
	})

	// ResolutionsTotal counts successful resolutions by strategy.
	ResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updown_discovery_resolutions_total",
			Help: "Total number of successful market resolutions by strategy",
		},
		[]string{"strategy"},
	)

	// ResolveFailuresTotal counts resolution attempts where every strategy
	// failed.
	ResolveFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_discovery_resolve_failures_total",
		Help: "Total number of failed market resolutions",
	})
)
