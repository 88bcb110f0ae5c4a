package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RealtimeMetrics records push-channel activity.
type RealtimeMetrics struct {
	connections *prometheus.GaugeVec
	delivered   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
}

// NewRealtimeMetrics registers the realtime metrics on the provided registerer.
func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	if reg == nil {
		return &RealtimeMetrics{}
	}
	connections := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "realtime_connections",
		Help: "Currently open websocket connections.",
	}, []string{"state"})
	delivered := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_delivered_total",
		Help: "Events delivered to websocket subscribers.",
	}, []string{"event"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_dropped_total",
		Help: "Events dropped because a subscriber's send queue was full.",
	}, []string{"event"})
	reg.MustRegister(connections, delivered, dropped)
	return &RealtimeMetrics{
		connections: connections,
		delivered:   delivered,
		dropped:     dropped,
	}
}

// ConnOpened increments the open-connection gauge.
func (m *RealtimeMetrics) ConnOpened() {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.WithLabelValues("open").Inc()
}

// ConnClosed decrements the open-connection gauge.
func (m *RealtimeMetrics) ConnClosed() {
	if m == nil || m.connections == nil {
		return
	}
	m.connections.WithLabelValues("open").Dec()
}

// EventDelivered counts a delivered event by name.
func (m *RealtimeMetrics) EventDelivered(event string) {
	if m == nil || m.delivered == nil {
		return
	}
	m.delivered.WithLabelValues(event).Inc()
}

// EventDropped counts an event discarded for a slow consumer.
func (m *RealtimeMetrics) EventDropped(event string) {
	if m == nil || m.dropped == nil {
		return
	}
	m.dropped.WithLabelValues(event).Inc()
}
