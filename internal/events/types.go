// Package events delivers session events to consumers asynchronously so
// that slow consumers (WebSocket clients, an MQTT broker) never block a
// spin submission.
package events

import (
	"time"

	"github.com/rouletteai/roulette-client/internal/wheel"
)

// Kind identifies what happened in the session.
type Kind string

const (
	KindSpin             Kind = "spin"              // a submission was applied
	KindSnapshot         Kind = "snapshot"          // the startup snapshot was loaded
	KindClear            Kind = "clear"             // the payload was replaced with an empty one
	KindSelection        Kind = "selection"         // an outcome was selected for inspection
	KindInspectionClosed Kind = "inspection_closed" // the inspection was closed
	KindStaleDropped     Kind = "stale_dropped"     // a late response was discarded
	KindSubmitFailed     Kind = "submit_failed"     // validation or backend failure
)

// Event describes a single session change.
type Event struct {
	Kind      Kind          `json:"kind"`
	Outcome   wheel.Outcome `json:"number"`
	Index     int           `json:"index,omitempty"`
	Token     uint64        `json:"token,omitempty"`
	Message   string        `json:"message,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// Consumer processes events
type Consumer interface {
	// Name returns the consumer name for identification
	Name() string

	// ProcessEvent handles a single event
	ProcessEvent(event Event) error
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc struct {
	ConsumerName string
	Fn           func(Event) error
}

func (c ConsumerFunc) Name() string { return c.ConsumerName }

func (c ConsumerFunc) ProcessEvent(event Event) error { return c.Fn(event) }

// Publisher is the producer side of the bus.
type Publisher interface {
	TryPublish(event Event) bool
}

// Stats contains runtime statistics for monitoring
type Stats struct {
	EventsReceived  uint64
	EventsProcessed uint64
	EventsDropped   uint64
	ConsumerErrors  uint64
}
