// Package app assembles the roulette client runtime from loaded settings:
// metrics, preference store, backend client, event bus consumers and the
// session that owns the analysis state.
package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rouletteai/roulette-client/internal/backend"
	"github.com/rouletteai/roulette-client/internal/conf"
	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/events"
	"github.com/rouletteai/roulette-client/internal/httpclient"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/mqtt"
	"github.com/rouletteai/roulette-client/internal/observability"
	"github.com/rouletteai/roulette-client/internal/prefs"
	"github.com/rouletteai/roulette-client/internal/session"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

// Timeouts used while assembling and tearing down the runtime.
const (
	connectTimeout  = 10 * time.Second
	shutdownTimeout = 5 * time.Second
	eventBufferSize = 256
)

// App is a fully wired client runtime.
type App struct {
	Settings *conf.Settings
	Metrics  *observability.Metrics
	Prefs    prefs.Store
	Backend  *backend.Client
	Bus      *events.Bus
	Session  *session.Session
	Wheel    *wheel.Wheel

	mqttClient   mqtt.Client
	unhookErrors func()
	log          logger.Logger
}

// Option customises New.
type Option func(*options)

type options struct {
	transport http.RoundTripper
	store     prefs.Store
}

// WithTransport routes backend traffic through rt. Tests pass an httpmock transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithPreferenceStore uses store instead of opening the configured one.
func WithPreferenceStore(store prefs.Store) Option {
	return func(o *options) { o.store = store }
}

// New wires every component described by settings. The returned App must be closed.
func New(ctx context.Context, settings *conf.Settings, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Settings: settings,
		Wheel:    wheel.European(),
		log:      logger.Global().Module("app"),
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		return nil, errors.New(err).
			Component("app").
			Category(errors.CategoryConfiguration).
			Context("operation", "init-metrics").
			Build()
	}
	a.unhookErrors = metrics.Client.HookErrors()
	a.Metrics = metrics

	a.Prefs = o.store
	if a.Prefs == nil {
		a.Prefs, err = OpenPreferences(ctx, settings)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	sessionID, err := resolveSessionID(ctx, a.Prefs, settings.Backend.SessionID)
	if err != nil {
		a.Close()
		return nil, err
	}

	httpClient := httpclient.New(&httpclient.Config{
		DefaultTimeout: settings.Backend.Timeout,
		UserAgent:      settings.Backend.UserAgent,
		Transport:      o.transport,
	})
	httpClient.AddObserver(metrics.Client.ObserveHTTP)

	a.Backend, err = backend.New(backend.Config{
		BaseURL:      settings.Backend.URL,
		APIPrefix:    settings.Backend.APIPrefix,
		HistoryLimit: settings.Backend.HistoryLimit,
		SessionID:    sessionID,
		Timeout:      settings.Backend.Timeout,
		SnapshotTTL:  settings.Backend.SnapshotCacheTTL,
		UserAgent:    settings.Backend.UserAgent,
		RateLimit:    settings.Backend.RateLimit,
		HTTPClient:   httpClient,
		Metrics:      metrics.Client,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Bus = events.New(events.Config{BufferSize: eventBufferSize, Workers: 1})
	if err := a.Bus.RegisterConsumer(metrics.Client); err != nil {
		a.Close()
		return nil, err
	}

	if settings.MQTT.Enabled {
		if err := a.startMQTT(ctx); err != nil {
			a.Close()
			return nil, err
		}
	}

	a.Session = session.New(a.Backend, session.Config{
		Wheel:      a.Wheel,
		WindowSize: settings.Session.WindowSize,
		Events:     a.Bus,
	})

	a.log.Debug("Client runtime ready",
		logger.String("backend", settings.Backend.URL),
		logger.String("session_id", sessionID),
		logger.String("preferences", settings.Preferences.Backend),
		logger.Bool("mqtt", settings.MQTT.Enabled))

	return a, nil
}

// OpenPreferences opens the preference store selected by settings.
func OpenPreferences(ctx context.Context, settings *conf.Settings) (prefs.Store, error) {
	p := settings.Preferences
	return prefs.Open(ctx, prefs.Options{
		Backend:    p.Backend,
		SQLitePath: p.SQLite.Path,
		Redis: prefs.RedisOptions{
			Addr:     p.Redis.Addr,
			Password: p.Redis.Password,
			DB:       p.Redis.DB,
			Prefix:   p.Redis.Prefix,
		},
		Debug: settings.Debug,
	})
}

// resolveSessionID returns the configured session id, else the stored one,
// else a new id which is stored for the next run.
func resolveSessionID(ctx context.Context, store prefs.Store, configured string) (string, error) {
	if id := strings.TrimSpace(configured); id != "" {
		return id, nil
	}

	stored, found, err := store.Get(ctx, prefs.KeySessionID)
	if err != nil {
		return "", err
	}
	if found && stored != "" {
		return stored, nil
	}

	id := uuid.NewString()
	if err := store.Set(ctx, prefs.KeySessionID, id); err != nil {
		return "", err
	}
	return id, nil
}

// startMQTT connects to the broker and registers the event publisher. A
// failed first connection is logged; paho keeps retrying in the background.
func (a *App) startMQTT(ctx context.Context) error {
	m := a.Settings.MQTT
	cfg := mqtt.DefaultConfig()
	cfg.Broker = m.Broker
	cfg.ClientID = a.Settings.Main.Name
	cfg.Username = m.Username
	cfg.Password = m.Password
	cfg.Topic = m.Topic
	cfg.Retain = m.Retain
	cfg.QoS = byte(m.QoS) //nolint:gosec // G115: validated to 0-2 by conf

	client, err := mqtt.NewClient(cfg, a.Metrics.MQTT)
	if err != nil {
		return err
	}
	a.mqttClient = client

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Connect(connectCtx); err != nil {
		a.log.Warn("MQTT broker unreachable, events are not published until it connects",
			logger.String("broker", m.Broker),
			logger.Error(err))
	}

	return a.Bus.RegisterConsumer(mqtt.NewPublisher(client, cfg, a.Wheel))
}

// ResetSession starts a fresh backend session and clears the local analysis.
func (a *App) ResetSession(ctx context.Context) error {
	if err := a.Backend.ResetSession(ctx); err != nil {
		return err
	}
	a.Session.Clear()
	return nil
}

// Close releases every component. It is safe to call on a partially built App.
func (a *App) Close() {
	if a.unhookErrors != nil {
		a.unhookErrors()
	}
	if a.Bus != nil {
		if err := a.Bus.Shutdown(shutdownTimeout); err != nil {
			a.log.Warn("Event bus shutdown incomplete", logger.Error(err))
		}
	}
	if a.mqttClient != nil {
		a.mqttClient.Disconnect()
	}
	if a.Backend != nil {
		a.Backend.Close()
	}
	if a.Prefs != nil {
		if err := a.Prefs.Close(); err != nil {
			a.log.Warn("Failed to close preference store", logger.Error(err))
		}
	}
}
