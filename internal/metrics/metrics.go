// Package metrics exposes Prometheus counters for CORS decisions and
// conditional-response outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brunoabdon/abdedge/conditional"
	"github.com/brunoabdon/abdedge/cors"
)

// Metrics holds the edge layer's counters on a private registry.
// It implements both [cors.Observer] and [conditional.Observer].
type Metrics struct {
	corsDecisions       *prometheus.CounterVec
	conditionalOutcomes *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	_ cors.Observer        = (*Metrics)(nil)
	_ conditional.Observer = (*Metrics)(nil)
)

// NewMetrics creates a Metrics instance with all counters registered.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		corsDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abdedge_cors_decisions_total",
				Help: "CORS decisions by request classification and action",
			},
			[]string{"classification", "action"},
		),
		conditionalOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "abdedge_conditional_outcomes_total",
				Help: "Conditional response outcomes",
			},
			[]string{"outcome"},
		),
		registry: registry,
	}

	registry.MustRegister(m.corsDecisions, m.conditionalOutcomes)
	return m
}

// ObserveDecision counts d.
func (m *Metrics) ObserveDecision(d cors.Decision) {
	m.corsDecisions.WithLabelValues(d.Classification.String(), d.Action.String()).Inc()
}

// ObserveOutcome counts o.
func (m *Metrics) ObserveOutcome(o conditional.Outcome) {
	m.conditionalOutcomes.WithLabelValues(o.String()).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry, for registering extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
