package display

import (
	"context"
	stderrors "errors"
	"net"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/prefs"
	"github.com/rouletteai/roulette-client/internal/session"
)

var bodyLimitPattern = regexp.MustCompile(`^(?i)\d+(\.\d+)?\s*[KMGTPE]?B?$`)

// Server is the local display server.
type Server struct {
	echo           *echo.Echo
	config         Config
	session        *session.Session
	prefs          prefs.Store
	hub            *Hub
	metrics        Metrics
	metricsHandler http.Handler
	log            logger.Logger
	startTime      time.Time

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithMetrics records request and WebSocket metrics.
func WithMetrics(m Metrics) ServerOption {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) ServerOption {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a display server for sess. A nil store keeps preferences in memory.
func New(cfg Config, sess *session.Session, store prefs.Store, opts ...ServerOption) (*Server, error) {
	if sess == nil {
		return nil, errors.Newf("display server requires a session").
			Component("display").
			Category(errors.CategoryConfiguration).
			Build()
	}
	cfg.applyDefaults()
	if !bodyLimitPattern.MatchString(cfg.BodyLimit) {
		return nil, errors.Newf("invalid body limit %q", cfg.BodyLimit).
			Component("display").
			Category(errors.CategoryConfiguration).
			Build()
	}
	if store == nil {
		store = prefs.NewMemoryStore()
	}

	s := &Server{
		config:    cfg,
		session:   sess,
		prefs:     store,
		metrics:   nopMetrics{},
		log:       GetLogger(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.hub = NewHub(sess.State, s.metrics, s.log)

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Server.ReadTimeout = cfg.ReadTimeout
	s.echo.Server.WriteTimeout = cfg.WriteTimeout
	s.echo.Server.IdleTimeout = cfg.IdleTimeout

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

func (s *Server) setupMiddleware() {
	s.echo.Use(echomw.Recover())
	s.echo.Use(newMetricsMiddleware(s.metrics))
	s.echo.Use(newRequestLogger(s.log))
	s.echo.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: s.config.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
	}))
	s.echo.Use(echomw.BodyLimit(s.config.BodyLimit))
}

// Hub returns the WebSocket hub so it can be registered as an event consumer.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start binds the listener and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", s.config.Listen)
	if err != nil {
		return errors.New(err).
			Component("display").
			Category(errors.CategoryNetwork).
			Context("listen", s.config.Listen).
			Build()
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.log.Info("Display server starting", logger.String("address", ln.Addr().String()))
	s.wg.Go(func() {
		if err := s.echo.Server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			s.log.Error("Display server error", logger.Error(err))
		}
	})
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown disconnects WebSocket clients and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.hub.Close()
	err := s.echo.Shutdown(ctx)
	s.wg.Wait()
	s.log.Info("Display server stopped", logger.Duration("uptime", time.Since(s.startTime)))
	return err
}
