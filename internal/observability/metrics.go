// Package observability exposes the client's Prometheus registry over HTTP.
package observability

import (
	"fmt"
	stdlog "log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rouletteai/roulette-client/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Client   *metrics.ClientMetrics
	MQTT     *metrics.MQTTMetrics
	Display  *metrics.DisplayMetrics
}

// NewMetrics creates a private registry with Go runtime collectors and every client collector.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	clientMetrics, err := metrics.NewClientMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create client metrics: %w", err)
	}

	mqttMetrics, err := metrics.NewMQTTMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create MQTT metrics: %w", err)
	}

	displayMetrics, err := metrics.NewDisplayMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create display metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Client:   clientMetrics,
		MQTT:     mqttMetrics,
		Display:  displayMetrics,
	}, nil
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      stdlog.New(os.Stderr, "metrics handler: ", stdlog.LstdFlags),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}

// RegisterHandlers registers the metrics endpoint with the provided http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.Handle("/metrics", m.Handler())
}
