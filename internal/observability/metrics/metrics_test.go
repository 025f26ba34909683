package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouletteai/roulette-client/internal/backend"
	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/events"
)

var (
	_ backend.Recorder = (*ClientMetrics)(nil)
	_ events.Consumer  = (*ClientMetrics)(nil)
)

func newClientMetrics(t *testing.T) *ClientMetrics {
	t.Helper()
	m, err := NewClientMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return m
}

func TestClientMetricsBackendRequests(t *testing.T) {
	m := newClientMetrics(t)

	m.RecordBackendRequest("add_spin", StatusSuccess, 120*time.Millisecond)
	m.RecordBackendRequest("add_spin", StatusSuccess, 80*time.Millisecond)
	m.RecordBackendRequest("add_spin", "502", time.Second)

	assert.InDelta(t, 2, testutil.ToFloat64(m.backendRequests.WithLabelValues("add_spin", StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.backendRequests.WithLabelValues("add_spin", "502")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.backendDuration))
}

func TestClientMetricsSnapshotCache(t *testing.T) {
	m := newClientMetrics(t)

	m.RecordSnapshotCache(false)
	m.RecordSnapshotCache(true)
	m.RecordSnapshotCache(true)

	assert.InDelta(t, 2, testutil.ToFloat64(m.snapshotCache.WithLabelValues(CacheHit)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.snapshotCache.WithLabelValues(CacheMiss)), 0)
}

func TestClientMetricsSessionEvents(t *testing.T) {
	m := newClientMetrics(t)

	require.NoError(t, m.ProcessEvent(events.Event{Kind: events.KindSpin}))
	require.NoError(t, m.ProcessEvent(events.Event{Kind: events.KindStaleDropped}))
	require.NoError(t, m.ProcessEvent(events.Event{Kind: events.KindStaleDropped}))

	assert.InDelta(t, 1, testutil.ToFloat64(m.sessionEvents.WithLabelValues("spin")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.staleDropped), 0)
	assert.Equal(t, "metrics", m.Name())
}

func TestClientMetricsObserveHTTP(t *testing.T) {
	m := newClientMetrics(t)
	req, err := http.NewRequest(http.MethodPost, "http://backend.test/add-spin", http.NoBody)
	require.NoError(t, err)

	m.ObserveHTTP(req, &http.Response{StatusCode: http.StatusOK}, nil, time.Millisecond)
	m.ObserveHTTP(req, nil, errors.NewStd("connection refused"), time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.outboundHTTP.WithLabelValues(http.MethodPost, "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.outboundHTTP.WithLabelValues(http.MethodPost, StatusError)), 0)
}

func TestClientMetricsErrorHook(t *testing.T) {
	m := newClientMetrics(t)
	unhook := m.HookErrors()
	t.Cleanup(unhook)

	build := func() {
		_ = errors.Newf("outcome 40 out of range").
			Component("wheel").
			Category(errors.CategoryValidation).
			Build()
	}

	build()
	assert.InDelta(t, 1, testutil.ToFloat64(m.errorsTotal.WithLabelValues("wheel", "validation")), 0)

	unhook()
	build()
	assert.InDelta(t, 1, testutil.ToFloat64(m.errorsTotal.WithLabelValues("wheel", "validation")), 0,
		"errors built after unhook must not be counted")
}

func TestDuplicateRegistrationFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewClientMetrics(registry)
	require.NoError(t, err)
	_, err = NewClientMetrics(registry)
	require.Error(t, err)
}

func TestDisplayMetrics(t *testing.T) {
	m, err := NewDisplayMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordHTTPRequest(http.MethodGet, "/api/v1/state", http.StatusOK, 5*time.Millisecond)
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()
	m.MessageSent()
	m.MessageDropped()

	assert.InDelta(t, 1, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/state", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.wsActiveClients), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.wsMessagesSent), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.wsDropped), 0)
}

func TestMQTTMetrics(t *testing.T) {
	m, err := NewMQTTMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.UpdateConnectionStatus(true)
	m.IncrementMessagesDelivered()
	m.ObservePublish(256, 10*time.Millisecond)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ConnectionStatus), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.MessagesDelivered), 0)

	m.UpdateConnectionStatus(false)
	assert.InDelta(t, 0, testutil.ToFloat64(m.ConnectionStatus), 0)
}
