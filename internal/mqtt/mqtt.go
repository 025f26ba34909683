// Package mqtt publishes session events to an MQTT broker.
package mqtt

import (
	"context"
	"time"

	"github.com/rouletteai/roulette-client/internal/logger"
)

// Client defines the broker operations the publisher depends on.
type Client interface {
	// Connect attempts to connect to the MQTT broker.
	Connect(ctx context.Context) error

	// Publish sends payload to topic. It fails fast when disconnected.
	Publish(ctx context.Context, topic string, payload []byte) error

	// IsConnected returns true if the client is currently connected to the broker.
	IsConnected() bool

	// Disconnect closes the connection to the broker.
	Disconnect()
}

// Metrics receives connection and publish measurements.
type Metrics interface {
	UpdateConnectionStatus(connected bool)
	IncrementMessagesDelivered()
	IncrementErrors()
	IncrementReconnectAttempts()
	ObservePublish(sizeBytes int, latency time.Duration)
}

// Config holds the configuration for the MQTT client.
type Config struct {
	Broker            string
	ClientID          string
	Username          string
	Password          string
	Topic             string // base topic; events go to Topic/<kind>
	Retain            bool
	QoS               byte
	ReconnectCooldown time.Duration
	ConnectTimeout    time.Duration
	PublishTimeout    time.Duration
	DisconnectTimeout time.Duration
}

// DefaultTopic is used when Config.Topic is empty.
const DefaultTopic = "roulette"

// DefaultConfig returns a Config with reasonable default values
func DefaultConfig() Config {
	return Config{
		Topic:             DefaultTopic,
		ReconnectCooldown: 5 * time.Second,
		ConnectTimeout:    30 * time.Second,
		PublishTimeout:    10 * time.Second,
		DisconnectTimeout: 250 * time.Millisecond,
	}
}

var log = logger.Global().Module("mqtt")

type nopMetrics struct{}

func (nopMetrics) UpdateConnectionStatus(bool)       {}
func (nopMetrics) IncrementMessagesDelivered()       {}
func (nopMetrics) IncrementErrors()                  {}
func (nopMetrics) IncrementReconnectAttempts()       {}
func (nopMetrics) ObservePublish(int, time.Duration) {}
