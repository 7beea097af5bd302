package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide Prometheus metrics. Domain modules register
// their own counters in their metrics packages against the same registerer.
type Metrics struct {
	EndpointLatency   *prometheus.HistogramVec
	TxDuration        *prometheus.HistogramVec
	TxOutcomes        *prometheus.CounterVec
	EventsDropped     *prometheus.CounterVec
	StreamSubscribers prometheus.Gauge
}

// New registers the metrics with reg. Pass prometheus.NewRegistry() in tests
// so repeated construction does not collide on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EndpointLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flightsurety_endpoint_latency_seconds",
			Help:    "Latency of endpoints in seconds, labeled by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		TxDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flightsurety_tx_duration_seconds",
			Help:    "Time spent holding the write authority, including lock wait",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1, 5},
		}, []string{"backend"}),
		TxOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_tx_total",
			Help: "Transactions by backend and outcome (commit, rollback)",
		}, []string{"backend", "outcome"}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "flightsurety_events_dropped_total",
			Help: "Events a slow subscriber could not accept, labeled by event type",
		}, []string{"type"}),
		StreamSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "flightsurety_event_stream_subscribers",
			Help: "Current number of connected event stream clients",
		}),
	}
}

// ObserveEndpointLatency records the latency for a route pattern.
func (m *Metrics) ObserveEndpointLatency(route string, seconds float64) {
	m.EndpointLatency.WithLabelValues(route).Observe(seconds)
}

// ObserveTx records a finished transaction from either runner.
func (m *Metrics) ObserveTx(backend, outcome string, d time.Duration) {
	m.TxDuration.WithLabelValues(backend).Observe(d.Seconds())
	m.TxOutcomes.WithLabelValues(backend, outcome).Inc()
}

func (m *Metrics) IncrementEventsDropped(eventType string) {
	m.EventsDropped.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncrementStreamSubscribers() {
	m.StreamSubscribers.Inc()
}

func (m *Metrics) DecrementStreamSubscribers() {
	m.StreamSubscribers.Dec()
}
