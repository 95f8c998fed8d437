package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flemzord/intentd/internal/protocol"
)

// Metrics holds the gateway's Prometheus collectors on a private registry
// so tests can construct gateways without duplicate-registration panics.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	duration      prometheus.Histogram
	rateLimited   prometheus.Counter
	wsConnections prometheus.Gauge
}

// NewMetrics creates the collector set.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intentd",
		Subsystem: "gateway",
		Name:      "requests_total",
		Help:      "Requests served, by outcome and error code.",
	}, []string{"outcome", "code"})

	m.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "intentd",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Help:      "Wall time from request receipt to response write.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	m.rateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "intentd",
		Subsystem: "gateway",
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the transport-edge rate limiter.",
	})

	m.wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "intentd",
		Subsystem: "gateway",
		Name:      "websocket_connections",
		Help:      "Currently open WebSocket sessions.",
	})

	m.registry.MustRegister(m.requests, m.duration, m.rateLimited, m.wsConnections)
	return m
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(resp protocol.Response, elapsed time.Duration) {
	outcome := "ok"
	code := ""
	if resp.Error != nil {
		outcome = "error"
		code = strconv.Itoa(resp.Error.Code)
	}
	m.requests.WithLabelValues(outcome, code).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// IncRateLimited counts one rejected request.
func (m *Metrics) IncRateLimited() { m.rateLimited.Inc() }

// IncWSConnections and DecWSConnections track open sessions.
func (m *Metrics) IncWSConnections() { m.wsConnections.Inc() }
func (m *Metrics) DecWSConnections() { m.wsConnections.Dec() }

// Handler exposes the registry in Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
