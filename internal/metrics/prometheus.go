package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus holds the prometheus collectors for the training rounds and the dataset actions.
type Prometheus struct {
	Rounds        *prometheus.CounterVec
	RoundDuration *prometheus.HistogramVec
	Movement      *prometheus.GaugeVec
	Actions       *prometheus.CounterVec
	ActionErrors  *prometheus.CounterVec
}

func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Rounds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "ml",
				Name:      "rounds",
				Help:      "completed training rounds",
			}, []string{"trainer"}),
		RoundDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "ml",
				Name:      "round_duration_seconds",
				Help:      "duration of a training round",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			}, []string{"trainer"}),
		Movement: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "ml",
				Name:      "movement",
				Help:      "last convergence metric of the trainer",
			}, []string{"trainer"}),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "data",
				Name:      "actions",
				Help:      "executed dataset actions",
			}, []string{"engine", "action"}),
		ActionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "data",
				Name:      "action_errors",
				Help:      "dataset actions aborted by an error",
			}, []string{"engine", "action"}),
	}
}

func (p Prometheus) collectors() []prometheus.Collector {
	return []prometheus.Collector{p.Rounds, p.RoundDuration, p.Movement, p.Actions, p.ActionErrors}
}
