// Package backend is the client for the remote analysis service: it submits
// spins and fetches analysis snapshots.
package backend

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/antonholmquist/jason"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/rouletteai/roulette-client/internal/analysis"
	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/httpclient"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

const (
	snapshotCacheKey = "snapshot"
	maxBodyPreview   = 500
	maxBodySize      = 4 << 20
)

// Client talks to the analysis service. It is safe for concurrent use.
type Client struct {
	cfg     Config
	base    *url.URL
	http    *httpclient.Client
	cache   *cache.Cache
	group   singleflight.Group
	limiter *rate.Limiter
	metrics Recorder
	log     logger.Logger
}

// New creates a backend client. Missing config values fall back to DefaultConfig.
func New(cfg Config) (*Client, error) {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.HistoryLimit == 0 {
		cfg.HistoryLimit = def.HistoryLimit
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = def.SnapshotTTL
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopRecorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Global().Module("backend")
	}

	if cfg.HistoryLimit < MinHistoryLimit || cfg.HistoryLimit > MaxHistoryLimit {
		return nil, errors.Newf("history limit %d out of range [%d, %d]", cfg.HistoryLimit, MinHistoryLimit, MaxHistoryLimit).
			Component("backend").
			Category(errors.CategoryConfiguration).
			Build()
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, errors.Newf("invalid backend URL %q", cfg.BaseURL).
			Component("backend").
			Category(errors.CategoryConfiguration).
			Context("base_url", cfg.BaseURL).
			Build()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = httpclient.New(&httpclient.Config{DefaultTimeout: cfg.Timeout, UserAgent: cfg.UserAgent})
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	c := &Client{
		cfg:     cfg,
		base:    base,
		http:    httpClient,
		cache:   cache.New(cfg.SnapshotTTL, cfg.SnapshotTTL*2),
		limiter: rate.NewLimiter(limit, 1),
		metrics: cfg.Metrics,
		log:     cfg.Logger,
	}

	c.log.Debug("Backend client initialized",
		logger.String("base_url", base.String()),
		logger.String("api_prefix", cfg.APIPrefix),
		logger.Int("history_limit", cfg.HistoryLimit),
		logger.Duration("snapshot_ttl", cfg.SnapshotTTL))

	return c, nil
}

// SessionID returns the backend session this client writes to.
func (c *Client) SessionID() string {
	return c.cfg.SessionID
}

// HistoryLimit returns the requested history window size.
func (c *Client) HistoryLimit() int {
	return c.cfg.HistoryLimit
}

// spinRequest is the JSON body understood by the versioned API. The root
// route reads the same values from the query string.
type spinRequest struct {
	Number       int `json:"number"`
	HistoryLimit int `json:"history_limit"`
}

// SubmitSpin records one outcome and returns the refreshed analysis.
// Out-of-range outcomes are rejected without a request.
func (c *Client) SubmitSpin(ctx context.Context, o wheel.Outcome) (*analysis.Payload, error) {
	if _, err := wheel.CheckOutcome(int(o)); err != nil {
		return nil, err
	}

	query := c.baseQuery()
	query.Set("number", strconv.Itoa(int(o)))
	endpoint := c.endpoint("/add-spin", query)

	payload, err := c.do(ctx, "submit_spin", http.MethodPost, endpoint,
		spinRequest{Number: int(o), HistoryLimit: c.cfg.HistoryLimit})
	if err != nil {
		return nil, err
	}

	// any cached snapshot is now behind the backend
	c.cache.Flush()
	if payload.SessionID != "" && payload.SessionID != c.cfg.SessionID {
		c.log.Debug("Backend reported a different session id",
			logger.String("requested", c.cfg.SessionID),
			logger.String("reported", payload.SessionID))
	}
	return payload, nil
}

// Snapshot returns the current analysis. Results are cached briefly and
// concurrent callers share one request.
func (c *Client) Snapshot(ctx context.Context) (*analysis.Payload, error) {
	if cached, found := c.cache.Get(snapshotCacheKey); found {
		if payload, ok := cached.(*analysis.Payload); ok {
			c.metrics.RecordSnapshotCache(true)
			return payload, nil
		}
	}
	c.metrics.RecordSnapshotCache(false)

	v, err, shared := c.group.Do(snapshotCacheKey, func() (any, error) {
		payload, err := c.do(ctx, "snapshot", http.MethodGet, c.endpoint("/analysis", c.baseQuery()), nil)
		if err != nil {
			return nil, err
		}
		c.cache.Set(snapshotCacheKey, payload, cache.DefaultExpiration)
		return payload, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.Trace("Snapshot request shared with concurrent caller")
	}
	return v.(*analysis.Payload), nil
}

// ResetSession deletes the backend's history for this session.
func (c *Client) ResetSession(ctx context.Context) error {
	endpoint := c.endpoint("/session/"+url.PathEscape(c.cfg.SessionID), nil)
	if _, err := c.doRaw(ctx, "reset_session", http.MethodDelete, endpoint, nil); err != nil {
		return err
	}
	c.cache.Flush()
	return nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.Close()
}

func (c *Client) baseQuery() url.Values {
	q := url.Values{}
	q.Set("history_limit", strconv.Itoa(c.cfg.HistoryLimit))
	q.Set("session_id", c.cfg.SessionID)
	return q
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + c.cfg.APIPrefix + path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) do(ctx context.Context, operation, method, endpoint string, body any) (*analysis.Payload, error) {
	data, err := c.doRaw(ctx, operation, method, endpoint, body)
	if err != nil {
		return nil, err
	}

	payload, err := analysis.DecodePayload(data)
	if err != nil {
		c.log.Error("Failed to parse analysis response",
			logger.String("operation", operation),
			logger.Int("response_size", len(data)),
			logger.String("response_preview", preview(data)),
			logger.Error(err))
		return nil, errors.New(err).
			Component("backend").
			Category(errors.CategoryFileParsing).
			Context("operation", operation).
			Context("response_size", len(data)).
			Build()
	}
	return payload, nil
}

func (c *Client) doRaw(ctx context.Context, operation, method, endpoint string, body any) ([]byte, error) {
	log := c.log.WithContext(ctx).With(logger.String("operation", operation))

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.New(err).
			Component("backend").
			Category(errors.CategoryCancellation).
			Context("operation", operation).
			Build()
	}

	start := time.Now()
	var (
		resp *http.Response
		err  error
	)
	switch method {
	case http.MethodGet:
		resp, err = c.http.Get(ctx, endpoint)
	case http.MethodPost:
		resp, err = c.http.Post(ctx, endpoint, body)
	default:
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, method, endpoint, http.NoBody)
		if err == nil {
			resp, err = c.http.Do(ctx, req)
		}
	}
	if err != nil {
		c.metrics.RecordBackendRequest(operation, "error", time.Since(start))
		log.Warn("Backend request failed", logger.Error(err))
		return nil, errors.New(fmt.Errorf("%s: %w", FallbackMessage, err)).
			Component("backend").
			Category(errors.CategoryNetwork).
			NetworkContext(endpoint, c.cfg.Timeout).
			Context("operation", operation).
			Build()
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Debug("Failed to close response body", logger.Error(cerr))
		}
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	status := strconv.Itoa(resp.StatusCode)
	c.metrics.RecordBackendRequest(operation, status, time.Since(start))
	if err != nil {
		return nil, errors.New(fmt.Errorf("%s: %w", FallbackMessage, err)).
			Component("backend").
			Category(errors.CategoryNetwork).
			Context("operation", operation).
			Context("status_code", resp.StatusCode).
			Build()
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := ErrorMessage(data)
		log.Warn("Backend returned error status",
			logger.Int("status_code", resp.StatusCode),
			logger.String("message", msg),
			logger.String("response_preview", preview(data)))
		return nil, errors.New(errors.NewStd(msg)).
			Component("backend").
			Category(errors.CategoryHTTP).
			Context("operation", operation).
			Context("status_code", resp.StatusCode).
			Build()
	}

	log.Debug("Backend request completed",
		logger.Int("status_code", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)),
		logger.Int("response_size", len(data)))
	return data, nil
}

// ErrorMessage extracts a human-readable message from an error body. It
// looks at detail[0].msg (request validation), then message, then a plain
// string detail, and falls back to FallbackMessage.
func ErrorMessage(body []byte) string {
	obj, err := jason.NewObjectFromBytes(body)
	if err != nil {
		return FallbackMessage
	}

	if details, err := obj.GetObjectArray("detail"); err == nil && len(details) > 0 {
		if msg, err := details[0].GetString("msg"); err == nil && strings.TrimSpace(msg) != "" {
			return msg
		}
	}
	if msg, err := obj.GetString("message"); err == nil && strings.TrimSpace(msg) != "" {
		return msg
	}
	if detail, err := obj.GetString("detail"); err == nil && strings.TrimSpace(detail) != "" {
		return detail
	}
	return FallbackMessage
}

func preview(data []byte) string {
	if len(data) > maxBodyPreview {
		return string(data[:maxBodyPreview]) + "..."
	}
	return string(data)
}
