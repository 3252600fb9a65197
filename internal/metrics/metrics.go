// Package metrics exposes Prometheus counters for the conversation
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TurnsTotal counts completed conversation turns by outcome.
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcanus_turns_total",
		Help: "Total conversation turns by final status.",
	}, []string{"status"})

	// StageFailures counts pipeline stage failures by stage and kind.
	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcanus_stage_failures_total",
		Help: "Pipeline stage failures by stage and fault kind.",
	}, []string{"stage", "kind"})

	// SearchesTotal counts web searches by outcome status.
	SearchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arcanus_searches_total",
		Help: "Web searches by outcome status.",
	}, []string{"status"})

	// TurnDuration tracks end-to-end turn latency.
	TurnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arcanus_turn_duration_seconds",
		Help:    "End-to-end conversation turn latency.",
		Buckets: prometheus.DefBuckets,
	})
)
