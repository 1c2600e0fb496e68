// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoringAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_attempts_total",
			Help: "Total number of scoring call attempts by outcome",
		},
		[]string{"operation", "outcome"},
	)

	ScoresProduced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_scores_produced_total",
			Help: "Total number of competency scores produced by tier",
		},
		[]string{"tier"},
	)

	ExternalCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "genai_call_duration_seconds",
			Help: "Duration of GenAI service calls in seconds",
		},
		[]string{"operation"},
	)

	ReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reports_generated_total",
			Help: "Total number of assessment reports generated",
		},
		[]string{"status"},
	)

	ScenariosActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scoring_scenarios_active",
			Help: "Number of scenarios currently being scored",
		},
		[]string{"test_type"},
	)
)
