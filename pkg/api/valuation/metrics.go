package valuation

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the Prometheus collectors of the valuation API.
type Metrics struct {
	registry *prometheus.Registry

	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	RequestErrors      *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		EvaluationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evalup_evaluations_total",
				Help: "Total number of evaluations computed",
			},
			[]string{"archetype", "has_valuation"},
		),
		EvaluationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "evalup_evaluation_duration_seconds",
				Help:    "Duration of one evaluation in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
			},
		),
		RequestErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evalup_request_errors_total",
				Help: "Total number of rejected or failed API requests",
			},
			[]string{"endpoint", "code"},
		),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) observeEvaluation(archetype string, hasValuation bool, seconds float64) {
	if m == nil {
		return
	}
	m.EvaluationsTotal.WithLabelValues(archetype, strconv.FormatBool(hasValuation)).Inc()
	m.EvaluationDuration.Observe(seconds)
}

func (m *Metrics) requestError(endpoint string, code int) {
	if m == nil {
		return
	}
	m.RequestErrors.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
}
