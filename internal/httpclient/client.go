// Package httpclient wraps net/http with per-request deadlines, User-Agent
// injection and observation hooks. The backend client and any future
// outbound integrations share it.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultTimeout applies when the request context carries no deadline.
	DefaultTimeout = 15 * time.Second

	defaultMaxIdleConnsPerHost   = 4
	defaultIdleConnTimeout       = 90 * time.Second
	defaultTLSHandshakeTimeout   = 10 * time.Second
	defaultResponseHeaderTimeout = 10 * time.Second
	defaultDialTimeout           = 10 * time.Second

	defaultUserAgent = "roulette-client"
)

// RequestObserver receives every completed request. resp is nil when err is set.
type RequestObserver func(req *http.Request, resp *http.Response, err error, elapsed time.Duration)

// Client is safe for concurrent use.
type Client struct {
	client         *http.Client
	defaultTimeout time.Duration
	userAgent      string

	hookMu    sync.RWMutex
	before    func(*http.Request)
	observers []RequestObserver
}

// Config holds configuration for creating an HTTP client.
type Config struct {
	// DefaultTimeout is the timeout applied if the request context has no deadline
	DefaultTimeout time.Duration

	// UserAgent is added to requests that don't set one
	UserAgent string

	// Transport overrides the tuned default transport. Tests inject mocks here.
	Transport http.RoundTripper
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout: DefaultTimeout,
		UserAgent:      defaultUserAgent,
	}
}

// New creates a client. A nil cfg falls back to DefaultConfig; the caller's config is not mutated.
func New(cfg *Config) *Client {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.DefaultTimeout > 0 {
			c.DefaultTimeout = cfg.DefaultTimeout
		}
		if cfg.UserAgent != "" {
			c.UserAgent = cfg.UserAgent
		}
		c.Transport = cfg.Transport
	}

	transport := c.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConnsPerHost:   defaultMaxIdleConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			TLSHandshakeTimeout:   defaultTLSHandshakeTimeout,
			ResponseHeaderTimeout: defaultResponseHeaderTimeout,
		}
	}

	return &Client{
		client:         &http.Client{Transport: transport},
		defaultTimeout: c.DefaultTimeout,
		userAgent:      c.UserAgent,
	}
}

// HTTPClient exposes the underlying *http.Client, e.g. for httpmock.ActivateNonDefault.
func (c *Client) HTTPClient() *http.Client {
	return c.client
}

// Do executes req under ctx. If ctx has no deadline the default timeout is applied.
// The response body must be closed by the caller if err is nil.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var cancel context.CancelFunc
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.defaultTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.defaultTimeout)
	}
	req = req.WithContext(ctx)

	if req.Header.Get("User-Agent") == "" && c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.hookMu.RLock()
	before := c.before
	observers := c.observers
	c.hookMu.RUnlock()

	if before != nil {
		before(req)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	elapsed := time.Since(start)

	for _, observe := range observers {
		observe(req, resp, err, elapsed)
	}

	if cancel != nil {
		if err != nil || resp == nil {
			cancel()
		} else {
			// The deadline must outlive Do so the caller can still read the body.
			resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
		}
	}

	return resp, err
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(contextOrBackground(ctx), http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}
	return c.Do(ctx, req)
}

// Post performs a POST request. A nil body sends no content; []byte and io.Reader
// are sent as-is; anything else is marshalled to JSON.
func (c *Client) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	isJSON := false

	switch v := body.(type) {
	case nil:
	case io.Reader:
		reader = v
	case []byte:
		reader = bytes.NewReader(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
		isJSON = true
	}

	req, err := http.NewRequestWithContext(contextOrBackground(ctx), http.MethodPost, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if isJSON {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.Do(ctx, req)
}

// SetBeforeRequestHook sets a function called before each request is sent.
func (c *Client) SetBeforeRequestHook(fn func(*http.Request)) {
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	c.before = fn
}

// AddObserver registers fn to run after each request completes.
func (c *Client) AddObserver(fn RequestObserver) {
	if fn == nil {
		return
	}
	c.hookMu.Lock()
	defer c.hookMu.Unlock()
	next := make([]RequestObserver, len(c.observers), len(c.observers)+1)
	copy(next, c.observers)
	c.observers = append(next, fn)
}

// Close releases idle pooled connections.
func (c *Client) Close() {
	c.client.CloseIdleConnections()
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
