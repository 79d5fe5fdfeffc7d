// Package metrics provides Prometheus metrics for inspection evaluation and data entry.
package metrics

import (
	"fmt"
	"time"

	"github.com/bitfantasy/rmqc/internal/rm/engine"
	"github.com/prometheus/client_golang/prometheus"
)

// InspectionMetrics contains the Prometheus metrics for verdicts, entry errors and finalization.
// A nil *InspectionMetrics is valid and records nothing.
type InspectionMetrics struct {
	VerdictsTotal      *prometheus.CounterVec // Verdicts computed by level (heat, lot) and verdict
	EntryErrorsTotal   *prometheus.CounterVec // Rejected entries by section and kind
	FinalizedTotal     *prometheus.CounterVec // Finalized calls by result
	EvaluationDuration prometheus.Histogram   // Time to load and evaluate a lot

	registry *prometheus.Registry
}

// NewInspectionMetrics creates and registers the inspection metrics on the given registry.
func NewInspectionMetrics(registry *prometheus.Registry) (*InspectionMetrics, error) {
	m := &InspectionMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register inspection metrics: %w", err)
	}
	return m, nil
}

func (m *InspectionMetrics) initMetrics() {
	m.VerdictsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rm_inspection_verdicts_total",
			Help: "Total number of verdicts computed by level and verdict",
		},
		[]string{"level", "verdict"}, // level: heat, lot
	)

	m.EntryErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rm_inspection_entry_errors_total",
			Help: "Total number of rejected inspection entries by section and kind",
		},
		[]string{"section", "kind"}, // kind: precision, too_many_samples, inclusion_type, invalid
	)

	m.FinalizedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rm_inspection_finalized_total",
			Help: "Total number of finalized inspection calls by result",
		},
		[]string{"result"},
	)

	m.EvaluationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rm_inspection_evaluation_duration_seconds",
			Help:    "Time taken to load and evaluate an inspection lot",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		},
	)
}

// RecordEvaluation counts the lot verdict and every heat verdict.
func (m *InspectionMetrics) RecordEvaluation(ev engine.LotEvaluation, took time.Duration) {
	if m == nil {
		return
	}
	m.VerdictsTotal.WithLabelValues("lot", string(ev.LotStatus)).Inc()
	for _, h := range ev.Heats {
		m.VerdictsTotal.WithLabelValues("heat", string(h.Disposition.HeatStatus)).Inc()
	}
	m.EvaluationDuration.Observe(took.Seconds())
}

// RecordEntryError counts a rejected entry.
func (m *InspectionMetrics) RecordEntryError(section, kind string) {
	if m == nil {
		return
	}
	m.EntryErrorsTotal.WithLabelValues(section, kind).Inc()
}

// RecordFinalized counts a finalized call.
func (m *InspectionMetrics) RecordFinalized(result string) {
	if m == nil {
		return
	}
	m.FinalizedTotal.WithLabelValues(result).Inc()
}

// Describe implements prometheus.Collector.
func (m *InspectionMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.VerdictsTotal.Describe(ch)
	m.EntryErrorsTotal.Describe(ch)
	m.FinalizedTotal.Describe(ch)
	m.EvaluationDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *InspectionMetrics) Collect(ch chan<- prometheus.Metric) {
	m.VerdictsTotal.Collect(ch)
	m.EntryErrorsTotal.Collect(ch)
	m.FinalizedTotal.Collect(ch)
	m.EvaluationDuration.Collect(ch)
}
