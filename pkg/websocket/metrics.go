package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "updown_ws_active_connections",
		Help: "Whether the market-channel connection is up (0 or 1)",
	})

	SubscriptionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "updown_ws_subscriptions",
		Help: "Number of token subscriptions on the market channel",
	})

	MessagesReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "updown_ws_messages_received_total",
		Help: "Messages received by event type",
	}, []string{"event_type"})

	MessagesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_ws_messages_dropped_total",
		Help: "Messages dropped because the consumer channel was full",
	})

	ReconnectAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_ws_reconnect_attempts_total",
		Help: "Reconnection attempts made",
	})

	SnapshotsAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_ws_snapshots_applied_total",
		Help: "Full book snapshots applied to the mirrored state",
	})

	DeltasAppliedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_ws_deltas_applied_total",
		Help: "Price change messages applied to the mirrored state",
	})

	DeltasDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_ws_deltas_dropped_total",
		Help: "Price change messages dropped for lack of a base snapshot",
	})
)
