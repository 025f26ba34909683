package mqtt

import (
	"time"

	"github.com/rouletteai/roulette-client/internal/events"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

// EventMessage is the JSON document published for each session event.
//
// Field names are part of the broker contract consumed by dashboards;
// add fields rather than renaming them.
type EventMessage struct {
	Kind      string              `json:"kind"`
	Number    *int                `json:"number,omitempty"` // absent when the event carries no outcome
	Index     int                 `json:"index,omitempty"`
	Token     uint64              `json:"token,omitempty"`
	Message   string              `json:"message,omitempty"`
	Color     string              `json:"color,omitempty"`
	Sector    string              `json:"sector,omitempty"`
	Neighbors *wheel.NeighborPair `json:"neighbors,omitempty"`
	Source    string              `json:"source,omitempty"`
	Timestamp string              `json:"timestamp"` // RFC 3339, UTC
}

// NewEventMessage converts an event into its broker representation.
// Outcome details are attached only to events that refer to a spin.
func NewEventMessage(w *wheel.Wheel, event events.Event, source string) EventMessage {
	if w == nil {
		w = wheel.European()
	}
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	msg := EventMessage{
		Kind:      string(event.Kind),
		Index:     event.Index,
		Token:     event.Token,
		Message:   event.Message,
		Source:    source,
		Timestamp: ts.UTC().Format(time.RFC3339),
	}

	if !carriesOutcome(event) {
		return msg
	}

	n := int(event.Outcome)
	msg.Number = &n
	if attrs, ok := wheel.Describe(event.Outcome); ok {
		msg.Color = string(attrs.Color)
		msg.Sector = string(attrs.Sector)
	}
	if pair, ok := w.NeighborsOf(event.Outcome); ok {
		msg.Neighbors = &pair
	}
	return msg
}

func carriesOutcome(event events.Event) bool {
	switch event.Kind {
	case events.KindSpin, events.KindSelection, events.KindStaleDropped:
		return true
	case events.KindSubmitFailed:
		// Input rejected before a token was drawn has no valid outcome.
		return event.Token != 0
	default:
		return false
	}
}
