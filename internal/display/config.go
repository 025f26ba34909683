// Package display serves the session to local displays: a terminal renderer
// and an HTTP/WebSocket server exposing the state, inspection and preferences.
package display

import (
	"time"

	"github.com/rouletteai/roulette-client/internal/logger"
)

// Default constants for the display server.
const (
	DefaultListen          = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultBodyLimit       = "64K"
)

// Config holds the display server configuration.
type Config struct {
	Listen          string
	AllowedOrigins  []string
	BodyLimit       string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config bound to localhost.
func DefaultConfig() Config {
	return Config{
		Listen:          DefaultListen,
		AllowedOrigins:  []string{"*"},
		BodyLimit:       DefaultBodyLimit,
		ReadTimeout:     DefaultReadTimeout,
		WriteTimeout:    DefaultWriteTimeout,
		IdleTimeout:     DefaultIdleTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = d.AllowedOrigins
	}
	if c.BodyLimit == "" {
		c.BodyLimit = d.BodyLimit
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
}

// Metrics receives display server measurements.
type Metrics interface {
	RecordHTTPRequest(method, path string, statusCode int, duration time.Duration)
	ClientConnected()
	ClientDisconnected()
	MessageSent()
	MessageDropped()
}

type nopMetrics struct{}

func (nopMetrics) RecordHTTPRequest(string, string, int, time.Duration) {}
func (nopMetrics) ClientConnected()                                     {}
func (nopMetrics) ClientDisconnected()                                  {}
func (nopMetrics) MessageSent()                                         {}
func (nopMetrics) MessageDropped()                                      {}

// GetLogger returns the display package logger.
func GetLogger() logger.Logger {
	return logger.Global().Module("display")
}
