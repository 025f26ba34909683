package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MQTTMetrics contains all Prometheus metrics related to event publishing over MQTT.
type MQTTMetrics struct {
	ConnectionStatus  prometheus.Gauge
	MessagesDelivered prometheus.Counter
	Errors            prometheus.Counter
	ReconnectAttempts prometheus.Counter
	MessageSize       prometheus.Histogram
	PublishLatency    prometheus.Histogram
	registry          *prometheus.Registry
}

// NewMQTTMetrics creates and registers MQTT metrics.
func NewMQTTMetrics(registry *prometheus.Registry) (*MQTTMetrics, error) {
	m := &MQTTMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *MQTTMetrics) initMetrics() {
	m.ConnectionStatus = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "mqtt_connection_status",
		Help:      "Current MQTT connection status (1 for connected, 0 for disconnected)",
	})

	m.MessagesDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "mqtt_messages_delivered_total",
		Help:      "Total number of session events delivered to the broker",
	})

	m.Errors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "mqtt_errors_total",
		Help:      "Total number of MQTT errors encountered",
	})

	m.ReconnectAttempts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "mqtt_reconnect_attempts_total",
		Help:      "Total number of MQTT reconnection attempts",
	})

	m.MessageSize = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "mqtt_message_size_bytes",
		Help:      "Size of published MQTT messages in bytes",
		Buckets:   prometheus.ExponentialBuckets(BucketStart64B, BucketFactor2, BucketCount10),
	})

	m.PublishLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "mqtt_publish_latency_seconds",
		Help:      "Latency of MQTT publish operations in seconds",
		Buckets:   prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
	})
}

// UpdateConnectionStatus should be called whenever the connection state changes.
func (m *MQTTMetrics) UpdateConnectionStatus(connected bool) {
	if connected {
		m.ConnectionStatus.Set(1)
		return
	}
	m.ConnectionStatus.Set(0)
}

func (m *MQTTMetrics) IncrementMessagesDelivered() { m.MessagesDelivered.Inc() }

func (m *MQTTMetrics) IncrementErrors() { m.Errors.Inc() }

func (m *MQTTMetrics) IncrementReconnectAttempts() { m.ReconnectAttempts.Inc() }

// ObservePublish records size and latency of a completed publish.
func (m *MQTTMetrics) ObservePublish(sizeBytes int, latency time.Duration) {
	m.MessageSize.Observe(float64(sizeBytes))
	m.PublishLatency.Observe(latency.Seconds())
}

// Collect implements the prometheus.Collector interface.
func (m *MQTTMetrics) Collect(ch chan<- prometheus.Metric) {
	ch <- m.ConnectionStatus
	ch <- m.MessagesDelivered
	ch <- m.Errors
	ch <- m.ReconnectAttempts
	ch <- m.MessageSize
	ch <- m.PublishLatency
}

// Describe implements the prometheus.Collector interface.
func (m *MQTTMetrics) Describe(ch chan<- *prometheus.Desc) {
	ch <- m.ConnectionStatus.Desc()
	ch <- m.MessagesDelivered.Desc()
	ch <- m.Errors.Desc()
	ch <- m.ReconnectAttempts.Desc()
	ch <- m.MessageSize.Desc()
	ch <- m.PublishLatency.Desc()
}
