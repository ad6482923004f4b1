// Package metrics provides Prometheus instrumentation for the opsdesk
// backend. It exposes gauges for live WebSocket connections, counters for
// broadcast throughput and send failures, and a histogram for fanout latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsActive tracks the current number of registered WebSocket
	// connections.
	ConnectionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "opsdesk_ws_connections_active",
		Help: "Current number of registered WebSocket connections",
	})

	// EventsBroadcast counts ticket update events fanned out, labeled by
	// outcome: "delivered" or "failed".
	EventsBroadcast = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opsdesk_events_broadcast_total",
		Help: "Total number of per-connection event deliveries",
	}, []string{"outcome"})

	// BroadcastDuration records how long a full fanout pass takes.
	BroadcastDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "opsdesk_broadcast_duration_seconds",
		Help:    "Duration of a single broadcast fanout pass",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	})

	// AuthFailures counts rejected requests, labeled by kind:
	// "missing" or "invalid".
	AuthFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "opsdesk_auth_failures_total",
		Help: "Total number of rejected authentication attempts",
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(
		ConnectionsActive,
		EventsBroadcast,
		BroadcastDuration,
		AuthFailures,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
