package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DisplayMetrics contains Prometheus metrics for the local display server.
type DisplayMetrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	wsActiveClients prometheus.Gauge
	wsMessagesSent  prometheus.Counter
	wsDropped       prometheus.Counter
}

// NewDisplayMetrics creates and registers display server metrics.
func NewDisplayMetrics(registry *prometheus.Registry) (*DisplayMetrics, error) {
	m := &DisplayMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *DisplayMetrics) initMetrics() {
	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "display_http_requests_total",
			Help:      "Total number of display server requests",
		},
		[]string{"method", "path", "status_code"}, // path is the route template, e.g. /api/v1/spins
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "display_http_request_duration_seconds",
			Help:      "Time taken for display server requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.wsActiveClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "display_ws_clients",
		Help:      "Currently connected WebSocket display clients",
	})

	m.wsMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "display_ws_messages_sent_total",
		Help:      "State updates pushed to WebSocket clients",
	})

	m.wsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "display_ws_messages_dropped_total",
		Help:      "State updates dropped because a client was too slow",
	})
}

// RecordHTTPRequest records a served request.
func (m *DisplayMetrics) RecordHTTPRequest(method, path string, statusCode int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ClientConnected increments the active WebSocket client gauge.
func (m *DisplayMetrics) ClientConnected() { m.wsActiveClients.Inc() }

// ClientDisconnected decrements the active WebSocket client gauge.
func (m *DisplayMetrics) ClientDisconnected() { m.wsActiveClients.Dec() }

// MessageSent counts a pushed state update.
func (m *DisplayMetrics) MessageSent() { m.wsMessagesSent.Inc() }

// MessageDropped counts an update dropped for a slow client.
func (m *DisplayMetrics) MessageDropped() { m.wsDropped.Inc() }

// Describe implements the prometheus.Collector interface.
func (m *DisplayMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.httpRequestsTotal.Describe(ch)
	m.httpRequestDuration.Describe(ch)
	ch <- m.wsActiveClients.Desc()
	ch <- m.wsMessagesSent.Desc()
	ch <- m.wsDropped.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *DisplayMetrics) Collect(ch chan<- prometheus.Metric) {
	m.httpRequestsTotal.Collect(ch)
	m.httpRequestDuration.Collect(ch)
	ch <- m.wsActiveClients
	ch <- m.wsMessagesSent
	ch <- m.wsDropped
}
