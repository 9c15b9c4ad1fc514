package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsCreated counts sessions allocated by the turn controller.
	SessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voyant_sessions_created_total",
		Help: "Number of planning sessions created.",
	})

	// EventsEmitted counts stream events appended to session logs, by type.
	EventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voyant_events_emitted_total",
		Help: "Number of stream events emitted, labeled by event type.",
	}, []string{"type"})

	// SubmitRejected counts messages rejected because a turn was in flight.
	SubmitRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voyant_submit_rejected_total",
		Help: "Number of messages rejected while a turn was still running.",
	})

	// StageDuration observes wall time per stage execution.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voyant_stage_duration_seconds",
		Help:    "Wall-clock duration of stage executions.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	}, []string{"stage"})
)
