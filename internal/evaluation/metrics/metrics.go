// Package metrics provides observability for the evaluation module.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks evaluation throughput, outcomes, and critical path
// durations.
type Metrics struct {
	Evaluations       *prometheus.CounterVec
	CRSTotals         prometheus.Histogram
	EvaluateDuration  prometheus.Histogram
	ReadinessVerdicts *prometheus.CounterVec
	ReadinessDuration prometheus.Histogram
}

// New creates a Metrics instance with all evaluation module metrics registered.
func New() *Metrics {
	return &Metrics{
		Evaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "maplecase_evaluations_total",
			Help: "Evaluations run, labeled by primary program recommendation",
		}, []string{"primary"}),
		CRSTotals: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "maplecase_crs_totals",
			Help:    "Distribution of CRS totals across evaluations",
			Buckets: []float64{200, 300, 350, 400, 450, 500, 600, 800, 1000, 1200},
		}),
		EvaluateDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "maplecase_evaluate_duration_seconds",
			Help:    "Duration of full evaluation runs including persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 10},
		}),
		ReadinessVerdicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "maplecase_readiness_assessments_total",
			Help: "Readiness assessments, labeled by verdict",
		}, []string{"verdict"}),
		ReadinessDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "maplecase_readiness_duration_seconds",
			Help:    "Duration of readiness assessments",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveEvaluation records one completed evaluation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveEvaluation(primary string, crsTotal int, start time.Time) {
	if m == nil {
		return
	}
	if primary == "" {
		primary = "none"
	}
	m.Evaluations.WithLabelValues(primary).Inc()
	m.CRSTotals.Observe(float64(crsTotal))
	m.EvaluateDuration.Observe(time.Since(start).Seconds())
}

// ObserveReadiness records one completed readiness assessment.
func (m *Metrics) ObserveReadiness(verdict string, start time.Time) {
	if m == nil {
		return
	}
	m.ReadinessVerdicts.WithLabelValues(verdict).Inc()
	m.ReadinessDuration.Observe(time.Since(start).Seconds())
}
