// Package metrics exposes Prometheus collectors for the tracker session.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "vmpeer"

// Metrics groups every collector on its own registry.
type Metrics struct {
	Registry *prometheus.Registry

	Transitions       *prometheus.CounterVec
	ConnectionState   *prometheus.GaugeVec
	ReconnectAttempts prometheus.Counter
	EventsReceived    *prometheus.CounterVec
	MalformedEvents   *prometheus.CounterVec
	Commands          *prometheus.CounterVec
	Participants      prometheus.Gauge
	Resources         prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_transitions_total",
			Help:      "Connection state transitions by target state.",
		}, []string{"state"}),
		ConnectionState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "1 for the current connection state, 0 otherwise.",
		}, []string{"state"}),
		ReconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnect_attempts_total",
			Help:      "Automatic reconnection attempts started.",
		}),
		EventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_received_total",
			Help:      "Inbound tracker events by name.",
		}, []string{"event"}),
		MalformedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_events_total",
			Help:      "Inbound events that needed defaults.",
		}, []string{"event"}),
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Outbound commands by name and result.",
		}, []string{"command", "result"}),
		Participants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "participants",
			Help:      "Participants in the last snapshot.",
		}),
		Resources: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "resources",
			Help:      "Resources in the last snapshot.",
		}),
	}
	m.Registry.MustRegister(
		m.Transitions,
		m.ConnectionState,
		m.ReconnectAttempts,
		m.EventsReceived,
		m.MalformedEvents,
		m.Commands,
		m.Participants,
		m.Resources,
		collectors.NewGoCollector(),
	)
	return m
}

// SetConnectionState flips the state gauge so exactly one label reads 1.
func (m *Metrics) SetConnectionState(current string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		m.ConnectionState.WithLabelValues(s).Set(v)
	}
	m.Transitions.WithLabelValues(current).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
