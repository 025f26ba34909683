package session

import (
	"slices"

	"github.com/rouletteai/roulette-client/internal/wheel"
)

// DefaultWindowSize is how many recent outcomes the display shows.
const DefaultWindowSize = 50

// History is an append-only record of observed outcomes. Only the most
// recent window is exposed for display. It is not safe for concurrent
// use; Session serialises access.
type History struct {
	items  []wheel.Outcome
	window int
}

// NewHistory returns an empty history with the given window size.
// Non-positive sizes use DefaultWindowSize.
func NewHistory(window int) *History {
	if window <= 0 {
		window = DefaultWindowSize
	}
	return &History{window: window}
}

// Append adds o to the end of the history.
func (h *History) Append(o wheel.Outcome) {
	h.items = append(h.items, o)
}

// Seed appends a batch of outcomes, oldest first.
func (h *History) Seed(items []wheel.Outcome) {
	h.items = append(h.items, items...)
}

// Len is the total number of recorded outcomes.
func (h *History) Len() int {
	return len(h.items)
}

// WindowSize is the configured display window length.
func (h *History) WindowSize() int {
	return h.window
}

// Windowed returns a copy of the last min(window, Len) outcomes in original order.
func (h *History) Windowed() []wheel.Outcome {
	start := max(0, len(h.items)-h.window)
	return slices.Clone(h.items[start:])
}

// At returns the outcome at offset i of the current window.
func (h *History) At(i int) (wheel.Outcome, bool) {
	start := max(0, len(h.items)-h.window)
	if i < 0 || start+i >= len(h.items) {
		return 0, false
	}
	return h.items[start+i], true
}
