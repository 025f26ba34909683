package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// newTestClientWithConfig creates a Client with custom configuration and registers cleanup.
func newTestClientWithConfig(t *testing.T, cfg *Config) *Client {
	t.Helper()
	client := New(cfg)
	t.Cleanup(client.Close)
	return client
}

// newTestServer creates a test HTTP server and registers cleanup.
func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// closeResponseBody closes a response body, logging failures.
func closeResponseBody(t *testing.T, resp *http.Response) {
	t.Helper()
	if resp == nil || resp.Body == nil {
		return
	}
	if err := resp.Body.Close(); err != nil {
		t.Logf("failed to close response body: %v", err)
	}
}
