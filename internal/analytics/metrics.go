package analytics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts calculations in Prometheus.
type Metrics struct {
	calculations *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	verdicts     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "abkit",
			Name:      "calculations_total",
			Help:      "Calculations run, by calculator, source and outcome.",
		}, []string{"calculator", "source", "outcome"}),

		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "abkit",
			Name:      "calculation_duration_seconds",
			Help:      "Time spent in a calculation.",
			Buckets:   []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"calculator"}),

		// Labels: metric_type (conversion, continuous), significant (true, false)
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "abkit",
			Name:      "significance_verdicts_total",
			Help:      "Significance test verdicts by metric type.",
		}, []string{"metric_type", "significant"}),
	}

	for _, c := range []prometheus.Collector{m.calculations, m.duration, m.verdicts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Observe(_ context.Context, ev Event) {
	m.calculations.WithLabelValues(string(ev.Calculator), ev.Source, ev.Outcome()).Inc()
	m.duration.WithLabelValues(string(ev.Calculator)).Observe(ev.Duration.Seconds())

	if ev.Calculator == CalculatorSignificance && ev.Err == nil {
		if sig, ok := ev.Labels["significant"]; ok {
			m.verdicts.WithLabelValues(ev.Labels["metric_type"], sig).Inc()
		}
	}
}
