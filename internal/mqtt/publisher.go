package mqtt

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/events"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

// Publisher forwards session events to the broker. It implements events.Consumer
// and runs on the event bus workers, so a slow broker never delays a spin.
type Publisher struct {
	client Client
	topic  string
	source string
	wheel  *wheel.Wheel
	cfg    Config
	log    logger.Logger
}

// NewPublisher creates a Publisher. Events are published to cfg.Topic/<kind>.
func NewPublisher(client Client, cfg Config, w *wheel.Wheel) *Publisher {
	topic := strings.TrimSuffix(cfg.Topic, "/")
	if topic == "" {
		topic = DefaultTopic
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultConfig().PublishTimeout
	}
	if w == nil {
		w = wheel.European()
	}
	return &Publisher{
		client: client,
		topic:  topic,
		source: cfg.ClientID,
		wheel:  w,
		cfg:    cfg,
		log:    log.With(logger.String("topic", topic)),
	}
}

// Name implements events.Consumer.
func (p *Publisher) Name() string { return "mqtt" }

// TopicFor returns the topic an event kind is published to.
func (p *Publisher) TopicFor(kind events.Kind) string {
	return p.topic + "/" + string(kind)
}

// ProcessEvent implements events.Consumer.
func (p *Publisher) ProcessEvent(event events.Event) error {
	if !p.client.IsConnected() {
		p.log.Debug("Skipping event, broker not connected", logger.String("kind", string(event.Kind)))
		return errors.Newf("not connected to MQTT broker").
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("kind", string(event.Kind)).
			Build()
	}

	data, err := json.Marshal(NewEventMessage(p.wheel, event, p.source))
	if err != nil {
		return errors.New(err).
			Component("mqtt").
			Category(errors.CategoryMQTTPublish).
			Context("operation", "marshal_event").
			Build()
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.PublishTimeout)
	defer cancel()

	topic := p.TopicFor(event.Kind)
	if err := p.client.Publish(ctx, topic, data); err != nil {
		p.log.Warn("Failed to publish event", logger.String("kind", string(event.Kind)), logger.Error(err))
		return err
	}
	p.log.Trace("Published event", logger.String("kind", string(event.Kind)), logger.Int("bytes", len(data)))
	return nil
}
