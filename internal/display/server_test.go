package display

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rouletteai/roulette-client/internal/analysis"
	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/events"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/prefs"
	"github.com/rouletteai/roulette-client/internal/session"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubBackend returns a fixed analysis for every spin, or err when set.
type stubBackend struct {
	mu  sync.Mutex
	err error
}

func (b *stubBackend) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.err = err
}

func (b *stubBackend) SubmitSpin(_ context.Context, o wheel.Outcome) (*analysis.Payload, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return zeroScenario(o), nil
}

func (b *stubBackend) Snapshot(context.Context) (*analysis.Payload, error) {
	return analysis.Empty(), nil
}

func zeroScenario(last wheel.Outcome) *analysis.Payload {
	return &analysis.Payload{
		Status:  "success",
		History: []wheel.Outcome{last},
		Numbers: map[wheel.Outcome]int{last: 1},
		Zones: []analysis.Zone{
			{Name: "Tiers", Numbers: []wheel.Outcome{27, 13, 36}},
			{Name: "Voisins", Numbers: []wheel.Outcome{26, 0, 32}, Status: analysis.StatusHot},
		},
		Neighbors: []analysis.NeighborPressure{{Number: 26, Pressure: 0.4}, {Number: 32, Pressure: 0.7}},
		Horses:    []analysis.HorsePair{{Pair: []wheel.Outcome{0, 32}}},
	}
}

type fixture struct {
	server  *Server
	session *session.Session
	backend *stubBackend
	bus     *events.Bus
	prefs   prefs.Store
}

func newFixture(t *testing.T, opts ...ServerOption) *fixture {
	t.Helper()

	bus := events.New(events.Config{BufferSize: 64, Workers: 1, Logger: logger.NewDiscardLogger()})
	backend := &stubBackend{}
	sess := session.New(backend, session.Config{Logger: logger.NewDiscardLogger(), Events: bus})
	store := prefs.NewMemoryStore()

	opts = append([]ServerOption{WithLogger(logger.NewDiscardLogger())}, opts...)
	srv, err := New(Config{Listen: "127.0.0.1:0"}, sess, store, opts...)
	require.NoError(t, err)
	require.NoError(t, bus.RegisterConsumer(srv.Hub()))

	t.Cleanup(func() {
		srv.Hub().Close()
		_ = bus.Shutdown(time.Second)
	})

	return &fixture{server: srv, session: sess, backend: backend, bus: bus, prefs: store}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNewRequiresSession(t *testing.T) {
	_, err := New(DefaultConfig(), nil, nil)
	require.Error(t, err)
}

func TestNewRejectsBadBodyLimit(t *testing.T) {
	sess := session.New(&stubBackend{}, session.Config{})
	_, err := New(Config{BodyLimit: "lots"}, sess, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))
}

func TestGetStateEmpty(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/v1/state", "")
	require.Equal(t, http.StatusOK, rec.Code)

	st := decode[StateResponse](t, rec)
	assert.Equal(t, "empty", st.Status)
	assert.Empty(t, st.History)
	assert.False(t, st.Inspecting)
	assert.Nil(t, st.Selection)
}

func TestPostSpin(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{`{"number": "14"}`, `{"number": 0}`} {
		rec := f.do(t, http.MethodPost, "/api/v1/spins", body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.True(t, decode[SpinResponse](t, rec).Applied)
	}

	st := f.session.State()
	assert.Equal(t, []wheel.Outcome{14, 0}, st.History)
	assert.Equal(t, []wheel.Outcome{0}, st.Payload.History)
}

func TestPostSpinValidation(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{`{"number": "37"}`, `{"number": "abc"}`, `{"number": -1}`, `{}`, ``} {
		rec := f.do(t, http.MethodPost, "/api/v1/spins", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %q", body)
		assert.NotEmpty(t, decode[ErrorResponse](t, rec).Error)
	}
	assert.Empty(t, f.session.State().History)
}

func TestPostSpinBackendFailureKeepsState(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/spins", `{"number": 5}`).Code)

	f.backend.setErr(errors.Newf("backend unavailable").
		Category(errors.CategoryHTTP).
		Build())

	rec := f.do(t, http.MethodPost, "/api/v1/spins", `{"number": 6}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "backend unavailable", decode[ErrorResponse](t, rec).Error)

	st := f.session.State()
	assert.Equal(t, []wheel.Outcome{5}, st.History)
	assert.Equal(t, []wheel.Outcome{5}, st.Payload.History)
}

func TestSelectionAndInspection(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/spins", `{"number": 0}`).Code)

	rec := f.do(t, http.MethodGet, "/api/v1/inspection", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/v1/selection", `{"index": 0}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[analysis.InspectionResult](t, rec)
	assert.Equal(t, wheel.Outcome(0), res.Selection.Outcome)
	assert.True(t, res.HasNeighbors)
	assert.Equal(t, wheel.NeighborPair{Left: 26, Right: 32}, res.Neighbors)
	assert.InDelta(t, 0.4, res.Left.Value, 1e-9)
	assert.InDelta(t, 0.7, res.Right.Value, 1e-9)
	require.NotNil(t, res.Horse)
	assert.Equal(t, []wheel.Outcome{0, 32}, res.Horse.Pair)
	require.NotNil(t, res.Zone)
	assert.Equal(t, 2, res.Zone.Ordinal())

	rec = f.do(t, http.MethodDelete, "/api/v1/selection", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/inspection", "").Code)

	st := f.session.State()
	require.NotNil(t, st.Selection, "closing keeps the highlight")
	assert.False(t, st.Inspecting)
}

func TestSelectionErrors(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/v1/selection", `{"index": 3}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/v1/selection", `{"index": -1}`).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodPost, "/api/v1/selection", `{"index": 0, "number": 40}`).Code)

	rec := f.do(t, http.MethodPost, "/api/v1/selection", `{"index": 4, "number": 17}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[analysis.InspectionResult](t, rec)
	assert.Equal(t, wheel.Outcome(17), res.Selection.Outcome)
	assert.Nil(t, res.Horse)
	assert.Nil(t, res.Zone)
	assert.False(t, res.Left.Found)
}

func TestClearKeepsSelection(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/spins", `{"number": 0}`).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/v1/selection", `{"index": 0}`).Code)

	rec := f.do(t, http.MethodPost, "/api/v1/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[StateResponse](t, rec)
	assert.Equal(t, "empty", st.Status)
	assert.True(t, st.Inspecting)
	assert.Equal(t, []wheel.Outcome{0}, st.History)

	res := decode[analysis.InspectionResult](t, f.do(t, http.MethodGet, "/api/v1/inspection", ""))
	assert.Nil(t, res.Horse)
	assert.True(t, res.HasNeighbors)
}

func TestLiveURLPreference(t *testing.T) {
	f := newFixture(t)

	assert.Empty(t, decode[LiveURL](t, f.do(t, http.MethodGet, "/api/v1/preferences/live-url", "")).URL)

	rec := f.do(t, http.MethodPut, "/api/v1/preferences/live-url", `{"url": "https://stream.example.com/table/1"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://stream.example.com/table/1", decode[LiveURL](t, rec).URL)

	rec = f.do(t, http.MethodPut, "/api/v1/preferences/live-url", `{"url": "not a url"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPut, "/api/v1/preferences/live-url", `{"url": ""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[LiveURL](t, rec).URL)
}

type recordingMetrics struct {
	nopMetrics
	mu    sync.Mutex
	paths []string
}

func (m *recordingMetrics) RecordHTTPRequest(_, path string, _ int, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
}

func TestMetricsRoute(t *testing.T) {
	metrics := &recordingMetrics{}
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("roulette_client_up 1\n"))
	})
	f := newFixture(t, WithMetrics(metrics), WithMetricsHandler(handler))

	rec := f.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "roulette_client_up")

	f.do(t, http.MethodGet, "/api/v1/state", "")
	f.do(t, http.MethodGet, "/nope", "")

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	require.Len(t, metrics.paths, 3)
	assert.Equal(t, []string{"/metrics", "/api/v1/state"}, metrics.paths[:2])
	assert.NotEqual(t, "/nope", metrics.paths[2], "unknown paths must not become label values")
}

func TestDisplayPage(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, cacheControlNoCache, rec.Header().Get("Cache-Control"))
	assert.Contains(t, rec.Body.String(), "/static/app.js")

	rec = f.do(t, http.MethodGet, "/static/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1")
}

func TestWebSocketPushesState(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.server.Start(t.Context()))
	t.Cleanup(func() { _ = f.server.Shutdown(context.Background()) })

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+f.server.Addr()+"/api/v1/ws", nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer func() { _ = conn.Close() }()

	read := func() Message {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var msg Message
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	initial := read()
	assert.Equal(t, MessageTypeState, initial.Type)
	assert.Empty(t, initial.State.History)

	res, err := f.session.Submit(t.Context(), "32")
	require.NoError(t, err)
	require.True(t, res.Applied)

	msg := read()
	assert.Equal(t, events.KindSpin, msg.Event)
	assert.Equal(t, []wheel.Outcome{32}, msg.State.History)
	assert.Equal(t, 1, f.server.Hub().Clients())
}
