package app

import (
	"context"
	"sync"

	"github.com/rouletteai/roulette-client/internal/display"
	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/observability"
)

// StartDisplay starts the display server on listen, or on the configured
// address when listen is empty, and subscribes it to session events.
func (a *App) StartDisplay(ctx context.Context, listen string) (*display.Server, error) {
	cfg := display.DefaultConfig()
	cfg.Listen = a.Settings.WebServer.Listen
	if listen != "" {
		cfg.Listen = listen
	}
	if len(a.Settings.WebServer.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = a.Settings.WebServer.AllowedOrigins
	}

	opts := []display.ServerOption{display.WithMetrics(a.Metrics.Display)}
	if a.Settings.Metrics.Enabled {
		opts = append(opts, display.WithMetricsHandler(a.Metrics.Handler()))
	}

	srv, err := display.New(cfg, a.Session, a.Prefs, opts...)
	if err != nil {
		return nil, err
	}
	if err := a.Bus.RegisterConsumer(srv.Hub()); err != nil {
		return nil, err
	}
	if err := srv.Start(ctx); err != nil {
		return nil, err
	}
	return srv, nil
}

// StartMetricsEndpoint serves the Prometheus registry on the configured
// metrics address until ctx is done.
func (a *App) StartMetricsEndpoint(ctx context.Context, wg *sync.WaitGroup) (*observability.Endpoint, error) {
	ep, err := observability.NewEndpoint(a.Settings.Metrics.Listen, a.Metrics)
	if err != nil {
		return nil, errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Context("operation", "init-metrics-endpoint").
			Build()
	}
	if err := ep.Start(ctx, wg); err != nil {
		return nil, errors.New(err).
			Component("app").
			Category(errors.CategoryNetwork).
			Context("listen", a.Settings.Metrics.Listen).
			Build()
	}
	return ep, nil
}
