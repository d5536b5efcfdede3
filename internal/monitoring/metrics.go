package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ducminhle1904/strategy-guard/internal/health"
	"github.com/ducminhle1904/strategy-guard/internal/integration"
)

// Metrics publishes guard recommendations as Prometheus series
type Metrics struct {
	registry *prometheus.Registry

	healthState         *prometheus.GaugeVec
	maxDrawdown         *prometheus.GaugeVec
	confidenceThreshold *prometheus.GaugeVec
	positionMultiplier  *prometheus.GaugeVec
	stateTransitions    *prometheus.CounterVec
	guardActions        *prometheus.CounterVec
	errorsTotal         *prometheus.CounterVec
}

// NewMetrics creates the guard metrics on their own registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		healthState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "strategy_guard_health_state",
				Help: "Strategy health state severity (0=ACTIVE .. 4=DISABLED)",
			},
			[]string{"strategy"},
		),
		maxDrawdown: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "strategy_guard_max_drawdown",
				Help: "Maximum equity drawdown since the last reset",
			},
			[]string{"strategy"},
		),
		confidenceThreshold: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "strategy_guard_confidence_threshold",
				Help: "Entry confidence bar currently in force",
			},
			[]string{"strategy"},
		),
		positionMultiplier: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "strategy_guard_position_multiplier",
				Help: "Combined health and portfolio guard position size multiplier",
			},
			[]string{"strategy"},
		),
		stateTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strategy_guard_state_transitions_total",
				Help: "Total number of strategy health state transitions",
			},
			[]string{"strategy", "from", "to"},
		),
		guardActions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strategy_guard_guard_actions_total",
				Help: "Portfolio guard decisions by action",
			},
			[]string{"strategy", "action"},
		),
		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "strategy_guard_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type"},
		),
	}

	m.registry.MustRegister(
		m.healthState,
		m.maxDrawdown,
		m.confidenceThreshold,
		m.positionMultiplier,
		m.stateTransitions,
		m.guardActions,
		m.errorsTotal,
	)
	return m
}

// Registry exposes the registry, mainly for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observe records the gauges of a recommendation and counts its guard action
func (m *Metrics) Observe(rec integration.Recommendation) {
	m.healthState.WithLabelValues(rec.StrategyID).Set(float64(rec.State.Severity()))
	m.maxDrawdown.WithLabelValues(rec.StrategyID).Set(rec.MaxDrawdown)
	m.confidenceThreshold.WithLabelValues(rec.StrategyID).Set(rec.ConfidenceThreshold)
	m.positionMultiplier.WithLabelValues(rec.StrategyID).Set(rec.PositionSizeMultiplier)
	m.guardActions.WithLabelValues(rec.StrategyID, string(rec.GuardAction)).Inc()
}

// ObserveTransition counts a health state change
func (m *Metrics) ObserveTransition(strategyID string, t health.StateTransition) {
	m.stateTransitions.WithLabelValues(strategyID, string(t.From), string(t.To)).Inc()
}

// RecordError records an error metric
func (m *Metrics) RecordError(errorType string) {
	m.errorsTotal.WithLabelValues(errorType).Inc()
}
