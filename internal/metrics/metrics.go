package metrics

import (
	"time"
)

var Observer = &Metrics{
	prometheus: NewPrometheusMetrics(),
}

type Metrics struct {
	prometheus Prometheus
}

// Round tracks a completed training round.
func (m *Metrics) Round(trainer string, duration time.Duration) {
	m.prometheus.Rounds.WithLabelValues(trainer).Inc()
	m.prometheus.RoundDuration.WithLabelValues(trainer).Observe(duration.Seconds())
}

// Movement tracks the latest convergence value of the given trainer.
func (m *Metrics) Movement(trainer string, value float64) {
	m.prometheus.Movement.WithLabelValues(trainer).Set(value)
}

// Action tracks a dataset action and its outcome.
func (m *Metrics) Action(engine, action string, err error) {
	m.prometheus.Actions.WithLabelValues(engine, action).Inc()
	if err != nil {
		m.prometheus.ActionErrors.WithLabelValues(engine, action).Inc()
	}
}
