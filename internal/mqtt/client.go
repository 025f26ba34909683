package mqtt

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/logger"
)

// client implements Client on top of paho.
type client struct {
	config          Config
	internalClient  paho.Client
	lastConnAttempt time.Time
	mu              sync.Mutex
	metrics         Metrics
}

// NewClient validates cfg and returns a disconnected client. A nil metrics disables measurements.
func NewClient(cfg Config, metrics Metrics) (Client, error) {
	defaults := DefaultConfig()
	if cfg.Topic == "" {
		cfg.Topic = defaults.Topic
	}
	if cfg.ReconnectCooldown <= 0 {
		cfg.ReconnectCooldown = defaults.ReconnectCooldown
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaults.ConnectTimeout
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = defaults.PublishTimeout
	}
	if cfg.DisconnectTimeout <= 0 {
		cfg.DisconnectTimeout = defaults.DisconnectTimeout
	}
	if cfg.QoS > 2 {
		return nil, errors.Newf("invalid MQTT QoS %d", cfg.QoS).
			Component("mqtt").
			Category(errors.CategoryValidation).
			Build()
	}

	u, err := url.Parse(cfg.Broker)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Newf("invalid broker URL %q", cfg.Broker).
			Component("mqtt").
			Category(errors.CategoryValidation).
			Build()
	}

	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &client{config: cfg, metrics: metrics}, nil
}

// Connect resolves the broker host and then connects. Attempts closer together
// than ReconnectCooldown are rejected.
func (c *client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if since := time.Since(c.lastConnAttempt); since < c.config.ReconnectCooldown {
		return errors.Newf("connection attempt too recent, last attempt was %v ago", since.Round(time.Millisecond)).
			Component("mqtt").
			Category(errors.CategoryMQTTConnect).
			Build()
	}
	c.lastConnAttempt = time.Now()

	u, _ := url.Parse(c.config.Broker)
	host := u.Hostname()
	if net.ParseIP(host) == nil {
		if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
			return errors.New(err).
				Component("mqtt").
				Category(errors.CategoryMQTTConnect).
				NetworkContext(c.config.Broker, c.config.ConnectTimeout).
				Context("operation", "resolve_broker").
				Build()
		}
	}

	opts := paho.NewClientOptions()
	opts.AddBroker(c.config.Broker)
	opts.SetClientID(c.config.ClientID)
	opts.SetUsername(c.config.Username)
	opts.SetPassword(c.config.Password)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(c.config.ConnectTimeout)
	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)
	opts.SetReconnectingHandler(c.onReconnecting)

	c.internalClient = paho.NewClient(opts)

	token := c.internalClient.Connect()
	if !waitToken(ctx, token, c.config.ConnectTimeout) {
		c.metrics.IncrementErrors()
		return errors.Newf("connection timeout").
			Component("mqtt").
			Category(errors.CategoryMQTTConnect).
			NetworkContext(c.config.Broker, c.config.ConnectTimeout).
			Build()
	}
	if err := token.Error(); err != nil {
		c.metrics.IncrementErrors()
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTConnect).
			NetworkContext(c.config.Broker, c.config.ConnectTimeout).
			Build()
	}

	c.metrics.UpdateConnectionStatus(true)
	return nil
}

// Publish sends payload to topic on the broker.
func (c *client) Publish(ctx context.Context, topic string, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.IsConnected() {
		return errors.Newf("not connected to MQTT broker").
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}

	start := time.Now()
	token := c.internalClient.Publish(topic, c.config.QoS, c.config.Retain, payload)
	if !waitToken(ctx, token, c.config.PublishTimeout) {
		c.metrics.IncrementErrors()
		log.Warn("Publish timeout", logger.String("topic", topic))
		return errors.Newf("publish timeout").
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}
	if err := token.Error(); err != nil {
		c.metrics.IncrementErrors()
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("topic", topic).
			Build()
	}

	c.metrics.IncrementMessagesDelivered()
	c.metrics.ObservePublish(len(payload), time.Since(start))
	return nil
}

// IsConnected returns true if the client is currently connected to the broker.
func (c *client) IsConnected() bool {
	return c.internalClient != nil && c.internalClient.IsConnected()
}

// Disconnect closes the connection to the broker.
func (c *client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.internalClient == nil {
		return
	}
	c.internalClient.Disconnect(uint(c.config.DisconnectTimeout.Milliseconds()))
	c.metrics.UpdateConnectionStatus(false)
}

func (c *client) onConnect(_ paho.Client) {
	log.Info("Connected to MQTT broker", logger.String("client_id", c.config.ClientID))
	c.metrics.UpdateConnectionStatus(true)
}

func (c *client) onConnectionLost(_ paho.Client, err error) {
	log.Warn("Connection to MQTT broker lost", logger.Error(err))
	c.metrics.UpdateConnectionStatus(false)
	c.metrics.IncrementErrors()
}

func (c *client) onReconnecting(_ paho.Client, _ *paho.ClientOptions) {
	c.metrics.IncrementReconnectAttempts()
}

// waitToken waits for token completion, the timeout, or ctx cancellation.
func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
