package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_connections",
			Help: "Currently open websocket connections",
		},
	)
	wsEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_published_total",
			Help: "Task events delivered to connections",
		},
		[]string{"type"},
	)
	wsEventsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ws_events_dropped_total",
			Help: "Task events dropped because a connection's send queue was full",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(wsConnections)
	prometheus.MustRegister(wsEventsPublished)
	prometheus.MustRegister(wsEventsDropped)
}
