package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/events"
)

// ClientMetrics tracks backend traffic, the snapshot cache and session activity.
type ClientMetrics struct {
	registry *prometheus.Registry

	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	snapshotCache   *prometheus.CounterVec
	outboundHTTP    *prometheus.CounterVec
	sessionEvents   *prometheus.CounterVec
	staleDropped    prometheus.Counter
	errorsTotal     *prometheus.CounterVec
}

// NewClientMetrics creates and registers client metrics.
func NewClientMetrics(registry *prometheus.Registry) (*ClientMetrics, error) {
	m := &ClientMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ClientMetrics) initMetrics() {
	m.backendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "backend_requests_total",
			Help:      "Total number of analysis backend requests",
		},
		[]string{"operation", "status"}, // operation: add_spin, snapshot, reset_session
	)

	m.backendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "backend_request_duration_seconds",
			Help:      "Time taken for analysis backend requests",
			Buckets:   prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount15),
		},
		[]string{"operation"},
	)

	m.snapshotCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "snapshot_cache_total",
			Help:      "Snapshot cache lookups by result",
		},
		[]string{"result"},
	)

	m.outboundHTTP = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_client_requests_total",
			Help:      "Outbound HTTP requests by method and status code",
		},
		[]string{"method", "status_code"},
	)

	m.sessionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "session_events_total",
			Help:      "Session events by kind",
		},
		[]string{"kind"},
	)

	m.staleDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "stale_responses_dropped_total",
		Help:      "Backend responses discarded because a newer submission was already applied",
	})

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "errors_total",
			Help:      "Errors built through the errors package, by component and category",
		},
		[]string{"component", "category"},
	)
}

// RecordBackendRequest records one backend round trip.
func (m *ClientMetrics) RecordBackendRequest(operation, status string, duration time.Duration) {
	m.backendRequests.WithLabelValues(operation, status).Inc()
	m.backendDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordSnapshotCache records a snapshot cache lookup.
func (m *ClientMetrics) RecordSnapshotCache(hit bool) {
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	m.snapshotCache.WithLabelValues(result).Inc()
}

// ObserveHTTP has the shape of an httpclient request observer.
func (m *ClientMetrics) ObserveHTTP(req *http.Request, resp *http.Response, err error, _ time.Duration) {
	code := StatusError
	if err == nil && resp != nil {
		code = strconv.Itoa(resp.StatusCode)
	}
	m.outboundHTTP.WithLabelValues(req.Method, code).Inc()
}

// Name implements events.Consumer.
func (m *ClientMetrics) Name() string { return "metrics" }

// ProcessEvent implements events.Consumer.
func (m *ClientMetrics) ProcessEvent(event events.Event) error {
	m.sessionEvents.WithLabelValues(string(event.Kind)).Inc()
	if event.Kind == events.KindStaleDropped {
		m.staleDropped.Inc()
	}
	return nil
}

// RecordError counts an enhanced error. It is registered as an errors hook by HookErrors.
func (m *ClientMetrics) RecordError(ee *errors.EnhancedError) {
	m.errorsTotal.WithLabelValues(ee.GetComponent(), ee.GetCategory()).Inc()
}

// HookErrors routes every built EnhancedError into errors_total until unhook is called.
func (m *ClientMetrics) HookErrors() (unhook func()) {
	return errors.RegisterErrorHook(m.RecordError)
}

// Describe implements the prometheus.Collector interface.
func (m *ClientMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.backendRequests.Describe(ch)
	m.backendDuration.Describe(ch)
	m.snapshotCache.Describe(ch)
	m.outboundHTTP.Describe(ch)
	m.sessionEvents.Describe(ch)
	ch <- m.staleDropped.Desc()
	m.errorsTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *ClientMetrics) Collect(ch chan<- prometheus.Metric) {
	m.backendRequests.Collect(ch)
	m.backendDuration.Collect(ch)
	m.snapshotCache.Collect(ch)
	m.outboundHTTP.Collect(ch)
	m.sessionEvents.Collect(ch)
	ch <- m.staleDropped
	m.errorsTotal.Collect(ch)
}
