package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ExecutionsTotal counts paired executions by final outcome.
	ExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updown_execution_executions_total",
			Help: "Total number of paired executions by outcome",
		},
		[]string{"outcome"},
	)

	// ExecutionDurationSeconds tracks end-to-end execution latency.
	ExecutionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "updown_execution_duration_seconds",
		Help:    "Duration of a paired execution from submit to classification",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 10},
	})

	// SubmissionErrorsTotal counts order submissions rejected in flight.
	SubmissionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updown_execution_submission_errors_total",
			Help: "Total number of order submission errors by leg",
		},
		[]string{"leg"},
	)

	// PollErrorsTotal counts failed order state polls.
	PollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_execution_poll_errors_total",
		Help: "Total number of failed order state polls",
	})

	// PollTimeoutsTotal counts legs that never reached a terminal state
	// within the poll window.
	PollTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_execution_poll_timeouts_total",
		Help: "Total number of order polls abandoned at the timeout",
	})

	// CancelErrorsTotal counts failed cancels of resting orders.
	CancelErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_execution_cancel_errors_total",
		Help: "Total number of failed order cancellations",
	})

	// PartialFillsTotal counts executions that left one-sided exposure.
	PartialFillsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_execution_partial_fills_total",
		Help: "Total number of executions where exactly one leg filled",
	})

	// UnwindAttemptsTotal counts compensating sells attempted.
	UnwindAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_execution_unwind_attempts_total",
		Help: "Total number of unwind sells attempted after partial fills",
	})

	// UnwindsSucceededTotal counts compensating sells accepted by the CLOB.
	UnwindsSucceededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_execution_unwinds_succeeded_total",
		Help: "Total number of unwind sells accepted by the exchange",
	})

	// UnwindFailuresTotal counts unwinds that left naked exposure.
	UnwindFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "updown_execution_unwind_failures_total",
		Help: "Total number of unwind attempts that failed and require manual intervention",
	})
)
