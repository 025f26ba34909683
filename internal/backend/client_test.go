package backend

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/httpclient"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

const testBaseURL = "https://backend.test"

type countingRecorder struct {
	mu       sync.Mutex
	requests map[string]int
	hits     int
	misses   int
}

func (r *countingRecorder) RecordBackendRequest(operation, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.requests == nil {
		r.requests = map[string]int{}
	}
	r.requests[operation+":"+status]++
}

func (r *countingRecorder) RecordSnapshotCache(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func newMockedClient(t *testing.T, mutate func(*Config)) (*Client, *httpmock.MockTransport, *countingRecorder) {
	t.Helper()
	transport := httpmock.NewMockTransport()
	rec := &countingRecorder{}
	cfg := Config{
		BaseURL:    testBaseURL,
		SessionID:  "test-session",
		HTTPClient: httpclient.New(&httpclient.Config{Transport: transport}),
		Metrics:    rec,
		Logger:     logger.NewDiscardLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	c, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, transport, rec
}

func TestSubmitSpinSendsNumberAndLimit(t *testing.T) {
	c, transport, rec := newMockedClient(t, nil)

	transport.RegisterResponder(http.MethodPost, testBaseURL+"/add-spin",
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "14", q.Get("number"))
			assert.Equal(t, "50", q.Get("history_limit"))
			assert.Equal(t, "test-session", q.Get("session_id"))

			body, err := io.ReadAll(req.Body)
			require.NoError(t, err)
			var sr spinRequest
			require.NoError(t, json.Unmarshal(body, &sr))
			assert.Equal(t, spinRequest{Number: 14, HistoryLimit: 50}, sr)

			return httpmock.NewStringResponse(http.StatusOK,
				`{"status": "ok", "history": [3, 14], "horses": [{"pair": [14, 26]}]}`), nil
		})

	p, err := c.SubmitSpin(t.Context(), 14)
	require.NoError(t, err)
	assert.Equal(t, []wheel.Outcome{3, 14}, p.History)
	require.Len(t, p.Horses, 1)
	assert.Equal(t, 1, transport.GetTotalCallCount())
	assert.Equal(t, 1, rec.requests["submit_spin:200"])
}

func TestSubmitSpinVersionedEnvelope(t *testing.T) {
	c, transport, _ := newMockedClient(t, func(cfg *Config) { cfg.APIPrefix = "/api/v1" })

	transport.RegisterResponder(http.MethodPost, testBaseURL+"/api/v1/add-spin",
		httpmock.NewStringResponder(http.StatusOK,
			`{"status": "ok", "session_id": "test-session", "data": {"status": "ok", "history": [9]}}`))

	p, err := c.SubmitSpin(t.Context(), 9)
	require.NoError(t, err)
	assert.Equal(t, []wheel.Outcome{9}, p.History)
	assert.Equal(t, "test-session", p.SessionID)
}

func TestSubmitSpinRejectsInvalidWithoutRequest(t *testing.T) {
	c, transport, _ := newMockedClient(t, nil)

	_, err := c.SubmitSpin(t.Context(), 37)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Zero(t, transport.GetTotalCallCount())
}

func TestBackendErrorMessages(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"validation detail", http.StatusUnprocessableEntity,
			`{"detail": [{"loc": ["query", "number"], "msg": "Input should be a valid integer"}]}`,
			"Input should be a valid integer"},
		{"message field", http.StatusBadRequest,
			`{"status": "error", "message": "Número deve estar entre 0 e 36"}`,
			"Número deve estar entre 0 e 36"},
		{"string detail", http.StatusInternalServerError, `{"detail": "boom"}`, "boom"},
		{"detail array without msg", http.StatusBadRequest, `{"detail": [{}], "message": "fallback"}`, "fallback"},
		{"html body", http.StatusBadGateway, `<html>Bad Gateway</html>`, FallbackMessage},
		{"empty body", http.StatusServiceUnavailable, ``, FallbackMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, transport, _ := newMockedClient(t, nil)
			transport.RegisterResponder(http.MethodPost, testBaseURL+"/add-spin",
				httpmock.NewStringResponder(tt.status, tt.body))

			_, err := c.SubmitSpin(t.Context(), 5)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.True(t, errors.IsCategory(err, errors.CategoryHTTP))
		})
	}
}

func TestTransportFailure(t *testing.T) {
	c, transport, rec := newMockedClient(t, nil)
	transport.RegisterResponder(http.MethodPost, testBaseURL+"/add-spin",
		httpmock.NewErrorResponder(io.ErrUnexpectedEOF))

	_, err := c.SubmitSpin(t.Context(), 5)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryNetwork))
	assert.Contains(t, err.Error(), FallbackMessage)
	assert.Equal(t, 1, rec.requests["submit_spin:error"])
}

func TestMalformedSuccessBody(t *testing.T) {
	c, transport, _ := newMockedClient(t, nil)
	transport.RegisterResponder(http.MethodPost, testBaseURL+"/add-spin",
		httpmock.NewStringResponder(http.StatusOK, `{"history": "nope"}`))

	_, err := c.SubmitSpin(t.Context(), 5)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileParsing))
}

func TestSnapshotIsCachedUntilNextSubmit(t *testing.T) {
	c, transport, rec := newMockedClient(t, nil)

	transport.RegisterResponder(http.MethodGet, testBaseURL+"/analysis",
		httpmock.NewStringResponder(http.StatusOK, `{"status": "ok", "history": [1, 2, 3]}`))
	transport.RegisterResponder(http.MethodPost, testBaseURL+"/add-spin",
		httpmock.NewStringResponder(http.StatusOK, `{"status": "ok", "history": [1, 2, 3, 4]}`))

	p, err := c.Snapshot(t.Context())
	require.NoError(t, err)
	assert.Len(t, p.History, 3)

	_, err = c.Snapshot(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, transport.GetCallCountInfo()["GET "+testBaseURL+"/analysis"])
	assert.Equal(t, 1, rec.hits)

	_, err = c.SubmitSpin(t.Context(), 4)
	require.NoError(t, err)

	_, err = c.Snapshot(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, transport.GetCallCountInfo()["GET "+testBaseURL+"/analysis"])
}

func TestResetSession(t *testing.T) {
	c, transport, _ := newMockedClient(t, func(cfg *Config) { cfg.APIPrefix = "/api/v1" })
	transport.RegisterResponder(http.MethodDelete, testBaseURL+"/api/v1/session/test-session",
		httpmock.NewStringResponder(http.StatusOK, `{"status": "ok"}`))

	require.NoError(t, c.ResetSession(t.Context()))
	assert.Equal(t, 1, transport.GetTotalCallCount())
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{BaseURL: "not a url", Logger: logger.NewDiscardLogger()})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	_, err = New(Config{HistoryLimit: 500, Logger: logger.NewDiscardLogger()})
	require.Error(t, err)

	c, err := New(Config{Logger: logger.NewDiscardLogger()})
	require.NoError(t, err)
	assert.NotEmpty(t, c.SessionID(), "a session id is generated")
	assert.Equal(t, DefaultHistoryLimit, c.HistoryLimit())
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "x", ErrorMessage([]byte(`{"detail": [{"msg": "x"}], "message": "y"}`)))
	assert.Equal(t, FallbackMessage, ErrorMessage([]byte(`{"message": "  "}`)))
	assert.Equal(t, FallbackMessage, ErrorMessage(nil))
}
