package position

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PositionsOpenGauge tracks the number of tokens with inventory.
	PositionsOpenGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "updown_position_open_positions",
		Help: "Number of tokens currently carrying inventory",
	})

	// RealizedPnLGauge tracks cumulative realized P&L per ledger.
	RealizedPnLGauge = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "updown_position_realized_pnl_usd",
			Help: "Cumulative realized profit and loss in USD",
		},
		[]string{"ledger"},
	)

	// ExposedPositionsGauge counts partial fills left naked by a failed
	// unwind.
	ExposedPositionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "updown_position_exposed_positions",
		Help: "Number of unhedged positions awaiting manual intervention",
	})
)
