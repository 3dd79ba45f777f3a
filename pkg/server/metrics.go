package server

import (
	"github.com/nikogura/sop-writer/pkg/essay"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation outcomes recorded in sop_generations_total.
const (
	OutcomeWithinBudget    = "within_budget"
	OutcomeBudgetUnmet     = "budget_unmet"
	OutcomeServiceError    = "service_error"
	OutcomeValidationError = "validation_error"
)

// Metrics holds the collectors for form submissions.
type Metrics struct {
	Generations  *prometheus.CounterVec
	Attempts     prometheus.Histogram
	CallDuration prometheus.Histogram
}

// NewMetrics registers the collectors with reg.
func NewMetrics(reg prometheus.Registerer) (m *Metrics) {
	factory := promauto.With(reg)

	m = &Metrics{
		Generations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sop_generations_total",
				Help: "Total number of essay submissions by outcome",
			},
			[]string{"outcome"},
		),
		Attempts: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sop_generation_attempts",
				Help:    "Backend calls made per completed submission",
				Buckets: prometheus.LinearBuckets(1, 1, essay.DefaultMaxAttempts),
			},
		),
		CallDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sop_backend_call_duration_seconds",
				Help:    "Duration of individual generation backend calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
			},
		),
	}

	return m
}

// observe records backend call latency from generator events.
func (m *Metrics) observe(ev essay.Event) {
	if ev.Result != nil || ev.State == essay.StateFatal {
		m.CallDuration.Observe(ev.Elapsed.Seconds())
	}
}

// record counts a finished submission.
func (m *Metrics) record(result essay.Essay, err error) {
	switch {
	case err != nil && essay.IsServiceError(err):
		m.Generations.WithLabelValues(OutcomeServiceError).Inc()
	case err != nil:
		m.Generations.WithLabelValues(OutcomeValidationError).Inc()
	case result.BudgetMet:
		m.Generations.WithLabelValues(OutcomeWithinBudget).Inc()
		m.Attempts.Observe(float64(len(result.Attempts)))
	default:
		m.Generations.WithLabelValues(OutcomeBudgetUnmet).Inc()
		m.Attempts.Observe(float64(len(result.Attempts)))
	}
}
