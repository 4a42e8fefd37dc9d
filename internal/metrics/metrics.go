package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus metrics for the connection lifecycle and outbound
// provider calls.
type Metrics struct {
	callbacks       *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	disconnects     *prometheus.CounterVec
	outboundTotal   *prometheus.CounterVec
	outboundLatency *prometheus.HistogramVec
	handler         http.Handler
}

// New creates and registers the metrics.
// A nil registerer gets a fresh registry, which keeps tests independent.
func New(registerer prometheus.Registerer) *Metrics {
	var gatherer prometheus.Gatherer = prometheus.DefaultGatherer
	if registerer == nil {
		reg := prometheus.NewRegistry()
		registerer, gatherer = reg, reg
	} else if g, ok := registerer.(prometheus.Gatherer); ok {
		gatherer = g
	}

	m := &Metrics{
		callbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tether",
				Subsystem: "oauth",
				Name:      "callbacks_total",
				Help:      "OAuth callbacks by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		refreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tether",
				Subsystem: "oauth",
				Name:      "refreshes_total",
				Help:      "Access token refreshes by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		disconnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tether",
				Subsystem: "oauth",
				Name:      "disconnects_total",
				Help:      "Provider disconnects by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		outboundTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tether",
				Subsystem: "provider",
				Name:      "requests_total",
				Help:      "Outbound provider requests by status code and method",
			},
			[]string{"code", "method"},
		),
		outboundLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tether",
				Subsystem: "provider",
				Name:      "request_duration_seconds",
				Help:      "Latency of outbound provider requests",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"code", "method"},
		),
	}

	registerer.MustRegister(m.callbacks, m.refreshes, m.disconnects, m.outboundTotal, m.outboundLatency)
	m.handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})

	return m
}

func (m *Metrics) Callback(provider, outcome string) {
	m.callbacks.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) Refresh(provider, outcome string) {
	m.refreshes.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) Disconnect(provider, outcome string) {
	m.disconnects.WithLabelValues(provider, outcome).Inc()
}

// InstrumentTransport wraps next so every outbound provider call is counted and timed
func (m *Metrics) InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(m.outboundTotal,
		promhttp.InstrumentRoundTripperDuration(m.outboundLatency, next))
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return m.handler
}
