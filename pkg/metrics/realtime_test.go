package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRealtimeMetricsRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRealtimeMetrics(reg)

	m.ConnOpened()
	m.ConnOpened()
	m.ConnClosed()
	m.EventDelivered("notification")
	m.EventDelivered("notification")
	m.EventDropped("new-message")

	if got := testutil.ToFloat64(m.connections.WithLabelValues("open")); got != 1 {
		t.Fatalf("expected 1 open connection, got %v", got)
	}
	if got := testutil.ToFloat64(m.delivered.WithLabelValues("notification")); got != 2 {
		t.Fatalf("expected 2 delivered, got %v", got)
	}
	if got := testutil.ToFloat64(m.dropped.WithLabelValues("new-message")); got != 1 {
		t.Fatalf("expected 1 dropped, got %v", got)
	}
}

func TestRealtimeMetricsNilSafe(t *testing.T) {
	var m *RealtimeMetrics
	m.ConnOpened()
	m.ConnClosed()
	m.EventDelivered("notification")
	m.EventDropped("notification")

	empty := NewRealtimeMetrics(nil)
	empty.ConnOpened()
	empty.EventDelivered("notification")
}
