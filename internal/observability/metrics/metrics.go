package metrics

import "github.com/prometheus/client_golang/prometheus"

// GatewayLatencyMetric is the fully qualified histogram name used by the
// status-endpoint latency snapshot.
const GatewayLatencyMetric = "clinic_gateway_request_latency_seconds"

// GatewayMetrics exposes counters/histograms for backend REST calls.
type GatewayMetrics struct {
	requestsTotal *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	m := &GatewayMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total REST requests to the clinic backend",
		}, []string{"method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "gateway",
			Name:      "request_latency_seconds",
			Help:      "Latency of clinic backend REST requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.latency)
	return m
}

func (m *GatewayMetrics) ObserveRequest(method, status string, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, status).Inc()
	m.latency.WithLabelValues(method).Observe(seconds)
}

// BusMetrics counts event-bus publishes and handler deliveries. A publish
// that fans out to three mounted views counts one publish, three deliveries.
type BusMetrics struct {
	published *prometheus.CounterVec
	delivered *prometheus.CounterVec
}

func NewBusMetrics(reg prometheus.Registerer) *BusMetrics {
	m := &BusMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total events published on the cross-view bus",
		}, []string{"event_type"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "events",
			Name:      "delivered_total",
			Help:      "Total event deliveries to subscribed views",
		}, []string{"event_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.published, m.delivered)
	return m
}

func (m *BusMetrics) ObservePublish(eventType string) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(eventType).Inc()
}

func (m *BusMetrics) ObserveDelivery(eventType string) {
	if m == nil {
		return
	}
	m.delivered.WithLabelValues(eventType).Inc()
}
