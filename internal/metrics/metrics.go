// Package metrics holds the Prometheus collectors for the recommendation
// engine. A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricSignalsTotal           = "supplier_signals_total"
	MetricSignalDuration         = "supplier_signal_duration_seconds"
	MetricRecommendationsTotal   = "supplier_recommendations_total"
	MetricRecommendationDuration = "supplier_recommendation_duration_seconds"
	MetricSuppliersScored        = "supplier_suppliers_scored_total"
	MetricClassificationsTotal   = "supplier_classifications_total"
)

// Signal outcome labels.
const (
	OutcomeAvailable   = "available"
	OutcomeUnavailable = "unavailable"
)

// Recommendation status labels.
const (
	StatusSuccess = "success"
	StatusInvalid = "invalid"
	StatusFailure = "failure"
)

// Metrics contains the engine's collectors.
type Metrics struct {
	signals         *prometheus.CounterVec
	signalDuration  *prometheus.HistogramVec
	recommendations *prometheus.CounterVec
	recDuration     prometheus.Histogram
	scored          prometheus.Counter
	classifications *prometheus.CounterVec
}

// New creates unregistered collectors. Call Register to expose them.
func New() *Metrics {
	return &Metrics{
		signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSignalsTotal,
				Help: "Risk signal lookups by signal type and outcome",
			},
			[]string{"signal", "outcome"},
		),
		signalDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricSignalDuration,
				Help:    "Risk signal lookup latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"signal"},
		),
		recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRecommendationsTotal,
				Help: "Recommendation requests by status",
			},
			[]string{"status"},
		),
		recDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricRecommendationDuration,
				Help:    "End-to-end recommendation latency in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),
		scored: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricSuppliersScored,
				Help: "Suppliers scored across all requests",
			},
		),
		classifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricClassificationsTotal,
				Help: "Product classifications by source (collaborator or fallback)",
			},
			[]string{"source"},
		),
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns every collector.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.signals,
		m.signalDuration,
		m.recommendations,
		m.recDuration,
		m.scored,
		m.classifications,
	}
}

// ObserveSignal records one adapter lookup.
func (m *Metrics) ObserveSignal(signal string, available bool, seconds float64) {
	if m == nil {
		return
	}
	outcome := OutcomeUnavailable
	if available {
		outcome = OutcomeAvailable
	}
	m.signals.WithLabelValues(signal, outcome).Inc()
	m.signalDuration.WithLabelValues(signal).Observe(seconds)
}

// ObserveRecommendation records one finished request.
func (m *Metrics) ObserveRecommendation(status string, seconds float64, suppliers int) {
	if m == nil {
		return
	}
	m.recommendations.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		m.recDuration.Observe(seconds)
		m.scored.Add(float64(suppliers))
	}
}

// IncClassification records where a classification code came from.
func (m *Metrics) IncClassification(source string) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(source).Inc()
}
