package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OpportunitiesDetectedTotal counts accepted opportunities.
	OpportunitiesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_arb_opportunities_detected_total",
		Help: "Total number of arbitrage opportunities accepted for execution",
	})

	// OpportunitiesSuppressedTotal counts profitable pairs discarded by the
	// cooldown gate.
	OpportunitiesSuppressedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_arb_opportunities_suppressed_total",
		Help: "Total number of profitable pairs suppressed by the execution cooldown",
	})

	// ScansNoOpportunityTotal counts scan cycles ending without an
	// opportunity, by gate.
	ScansNoOpportunityTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updown_arb_scans_no_opportunity_total",
			Help: "Total number of scan cycles producing no opportunity",
		},
		[]string{"reason"},
	)

	// DetectionDurationSeconds tracks the latency of a full detection pass.
	DetectionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "updown_arb_detection_duration_seconds",
		Help:    "Duration of a detection pass over a pair of book snapshots",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01},
	})
)
