package backend

import (
	"time"

	"github.com/rouletteai/roulette-client/internal/httpclient"
	"github.com/rouletteai/roulette-client/internal/logger"
)

const (
	// DefaultBaseURL is the hosted analysis service.
	DefaultBaseURL = "https://roulette-ai-mvp-production.up.railway.app"

	DefaultHistoryLimit = 50
	MinHistoryLimit     = 10
	MaxHistoryLimit     = 200

	DefaultTimeout     = 15 * time.Second
	DefaultSnapshotTTL = 5 * time.Second

	// FallbackMessage is shown when the backend error body carries no usable message.
	FallbackMessage = "failed to communicate with the backend"
)

// Config holds configuration for the analysis backend client
type Config struct {
	BaseURL string
	// APIPrefix is prepended to endpoint paths, e.g. "/api/v1". Empty targets the root routes.
	APIPrefix    string
	HistoryLimit int
	// SessionID scopes the spin history on the backend. Generated when empty.
	SessionID   string
	Timeout     time.Duration
	SnapshotTTL time.Duration
	UserAgent   string
	// RateLimit caps outgoing requests per second. Zero disables limiting.
	RateLimit float64

	HTTPClient *httpclient.Client
	Metrics    Recorder
	Logger     logger.Logger
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		HistoryLimit: DefaultHistoryLimit,
		Timeout:      DefaultTimeout,
		SnapshotTTL:  DefaultSnapshotTTL,
	}
}

// Recorder receives client-side measurements. The metrics package implements it.
type Recorder interface {
	RecordBackendRequest(operation, status string, duration time.Duration)
	RecordSnapshotCache(hit bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordBackendRequest(string, string, time.Duration) {}
func (nopRecorder) RecordSnapshotCache(bool)                          {}
