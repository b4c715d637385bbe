package verification

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records verification outcomes. A nil *Metrics is a no-op.
type Metrics struct {
	verifications *prometheus.CounterVec
	fraudRisk     *prometheus.CounterVec
	scores        prometheus.Histogram
	failures      *prometheus.CounterVec
}

// NewMetrics creates the verification collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_results_total",
				Help: "Total number of verifications by category and status",
			},
			[]string{"category", "status"},
		),
		fraudRisk: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_fraud_risk_total",
				Help: "Total number of verifications by fraud risk tier",
			},
			[]string{"risk"},
		),
		scores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "verification_overall_score",
				Help:    "Distribution of overall verification scores",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "verification_collaborator_failures_total",
				Help: "Total number of failed persistence, cache or notification calls",
			},
			[]string{"collaborator"},
		),
	}

	reg.MustRegister(m.verifications, m.fraudRisk, m.scores, m.failures)
	return m
}

// Observe records one verification result
func (m *Metrics) Observe(r *Result) {
	if m == nil || r == nil {
		return
	}
	m.verifications.WithLabelValues(string(r.Category), string(r.Status)).Inc()
	m.fraudRisk.WithLabelValues(string(r.FraudRisk)).Inc()
	m.scores.Observe(r.OverallScore)
}

// Failure records a failed collaborator call
func (m *Metrics) Failure(collaborator string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(collaborator).Inc()
}
