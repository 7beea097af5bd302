package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Denials      *prometheus.CounterVec
	AdminChanges *prometheus.CounterVec
	Operational  prometheus.Gauge
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Denials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_gate_denials_total",
			Help: "Requests refused by the access gate, labeled by reason",
		}, []string{"reason"}),
		AdminChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_gate_admin_changes_total",
			Help: "Effective owner changes to the gate, labeled by kind",
		}, []string{"kind"}),
		Operational: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flightsurety_operational",
			Help: "1 while the system accepts mutations, 0 otherwise",
		}),
	}
}

func (m *Metrics) IncrementDenied(reason string) {
	m.Denials.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementAdminChange(kind string) {
	m.AdminChanges.WithLabelValues(kind).Inc()
}

func (m *Metrics) SetOperational(operational bool) {
	if operational {
		m.Operational.Set(1)
		return
	}
	m.Operational.Set(0)
}
