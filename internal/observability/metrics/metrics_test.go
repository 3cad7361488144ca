package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestGatewayMetricsObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewGatewayMetrics(reg)

	m.ObserveRequest("GET", "200", 0.05)
	m.ObserveRequest("GET", "200", 0.10)
	m.ObserveRequest("POST", "500", 1.2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var sawRequests, sawLatency bool
	for _, mf := range mfs {
		switch mf.GetName() {
		case "clinic_gateway_requests_total":
			sawRequests = true
			var total float64
			for _, metric := range mf.Metric {
				total += metric.GetCounter().GetValue()
			}
			if total != 3 {
				t.Fatalf("expected 3 requests counted, got %v", total)
			}
		case GatewayLatencyMetric:
			sawLatency = true
		}
	}
	if !sawRequests || !sawLatency {
		t.Fatalf("expected both gateway metric families, requests=%v latency=%v", sawRequests, sawLatency)
	}
}

func TestGatewayMetricsNilSafe(t *testing.T) {
	var m *GatewayMetrics
	m.ObserveRequest("GET", "200", 0.01)
}

func TestBusMetricsNilSafe(t *testing.T) {
	var m *BusMetrics
	m.ObservePublish("client:created")
	m.ObserveDelivery("client:created")
}

func TestBusMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBusMetrics(reg)

	m.ObservePublish("appointment:created")
	m.ObserveDelivery("appointment:created")
	m.ObserveDelivery("appointment:created")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	counts := map[string]float64{}
	for _, mf := range mfs {
		for _, metric := range mf.Metric {
			counts[mf.GetName()] += metric.GetCounter().GetValue()
		}
	}
	if counts["clinic_events_published_total"] != 1 {
		t.Fatalf("expected 1 publish, got %v", counts["clinic_events_published_total"])
	}
	if counts["clinic_events_delivered_total"] != 2 {
		t.Fatalf("expected 2 deliveries, got %v", counts["clinic_events_delivered_total"])
	}
}
