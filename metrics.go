package pconic

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects the flight statistics of a craft.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	soiTransitions *prometheus.CounterVec
	predictions    *prometheus.CounterVec
	distanceToEdge prometheus.Gauge
}

// NewMetrics returns the collectors registered on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		soiTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pconic_soi_transitions_total",
				Help: "Total number of reference body changes, by new reference body",
			},
			[]string{"body"},
		),
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pconic_trajectory_predictions_total",
				Help: "Total number of trajectory predictions, by computation path",
			},
			[]string{"path"},
		),
		distanceToEdge: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pconic_distance_to_soi_edge",
				Help: "Distance from the craft to the edge of the SOI of its reference body",
			},
		),
	}
	for _, c := range []prometheus.Collector{m.soiTransitions, m.predictions, m.distanceToEdge} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) transition(to *Body) {
	if m == nil {
		return
	}
	m.soiTransitions.WithLabelValues(to.String()).Inc()
}

func (m *Metrics) predicted(path string) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(path).Inc()
}

// distance is set to -1 in free space, where the edge is infinitely far.
func (m *Metrics) distance(d float64) {
	if m == nil {
		return
	}
	if math.IsInf(d, 0) || math.IsNaN(d) {
		d = -1
	}
	m.distanceToEdge.Set(d)
}
