// Package session owns the client-side interaction state: the latest
// analysis snapshot, the local spin history and the inspection selection.
//
// All resolution is synchronous. The only asynchronous boundary is the
// backend call; while it is outstanding the previous snapshot and selection
// stay readable. Overlapping submissions are sequenced with monotonically
// increasing tokens and only the newest response is applied.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rouletteai/roulette-client/internal/analysis"
	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/events"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

// Backend submits spins and fetches analysis snapshots.
type Backend interface {
	SubmitSpin(ctx context.Context, outcome wheel.Outcome) (*analysis.Payload, error)
	Snapshot(ctx context.Context) (*analysis.Payload, error)
}

// Config configures a Session. Zero values are usable.
type Config struct {
	Wheel      *wheel.Wheel
	WindowSize int
	Logger     logger.Logger
	// Events receives session changes. Publishing never blocks.
	Events events.Publisher
}

// Session is the single owner of the payload, history and selection.
// It is safe for concurrent use.
type Session struct {
	backend Backend
	wheel   *wheel.Wheel
	log     logger.Logger
	events  events.Publisher

	payload atomic.Pointer[analysis.Payload]

	mu        sync.Mutex
	history   *History
	inspector Inspector
	applied   uint64 // newest token whose response was applied
	seeded    bool

	nextToken atomic.Uint64
	stale     atomic.Uint64
}

// New creates a session with an empty payload.
func New(backend Backend, cfg Config) *Session {
	if cfg.Wheel == nil {
		cfg.Wheel = wheel.European()
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Global().Module("session")
	}

	s := &Session{
		backend: backend,
		wheel:   cfg.Wheel,
		log:     cfg.Logger,
		events:  cfg.Events,
		history: NewHistory(cfg.WindowSize),
	}
	s.payload.Store(analysis.Empty())
	return s
}

// SubmitResult reports the outcome of a submission.
type SubmitResult struct {
	Outcome wheel.Outcome
	Token   uint64
	// Applied is false when a newer submission's response had already been applied.
	Applied bool
	Payload *analysis.Payload
}

// Submit validates raw user input and submits it. Invalid input is
// rejected before any backend call and leaves state untouched.
func (s *Session) Submit(ctx context.Context, raw string) (SubmitResult, error) {
	o, err := wheel.ParseOutcome(raw)
	if err != nil {
		s.publish(events.Event{Kind: events.KindSubmitFailed, Message: err.Error()})
		return SubmitResult{}, err
	}
	return s.SubmitOutcome(ctx, o)
}

// SubmitOutcome submits o to the backend. On failure the previous payload,
// history and selection are preserved.
func (s *Session) SubmitOutcome(ctx context.Context, o wheel.Outcome) (SubmitResult, error) {
	if !o.Valid() {
		_, err := wheel.CheckOutcome(int(o))
		return SubmitResult{}, err
	}
	if s.backend == nil {
		return SubmitResult{}, errors.Newf("no backend configured").
			Component("session").
			Category(errors.CategoryState).
			Build()
	}

	token := s.nextToken.Add(1)
	log := s.log.WithContext(ctx).With(logger.Int("number", int(o)), logger.Uint64("token", token))
	start := time.Now()

	payload, err := s.backend.SubmitSpin(ctx, o)
	if err != nil {
		log.Warn("Spin submission failed", logger.Error(err))
		s.publish(events.Event{Kind: events.KindSubmitFailed, Outcome: o, Token: token, Message: err.Error()})
		return SubmitResult{Outcome: o, Token: token}, err
	}
	if payload == nil {
		payload = analysis.Empty()
	}

	s.mu.Lock()
	s.history.Append(o)
	applied := token > s.applied
	if applied {
		s.applied = token
		s.payload.Store(payload)
	}
	s.mu.Unlock()

	if !applied {
		s.stale.Add(1)
		log.Info("Dropped stale analysis response", logger.Duration("elapsed", time.Since(start)))
		s.publish(events.Event{Kind: events.KindStaleDropped, Outcome: o, Token: token})
		return SubmitResult{Outcome: o, Token: token, Payload: payload}, nil
	}

	log.Debug("Applied analysis response", logger.Duration("elapsed", time.Since(start)))
	s.publish(events.Event{Kind: events.KindSpin, Outcome: o, Token: token})
	return SubmitResult{Outcome: o, Token: token, Applied: true, Payload: payload}, nil
}

// LoadSnapshot fetches the current analysis and seeds the local history
// from it. Only the first successful call seeds; later calls return the
// current payload without contacting the backend.
func (s *Session) LoadSnapshot(ctx context.Context) (*analysis.Payload, error) {
	s.mu.Lock()
	seeded := s.seeded
	s.mu.Unlock()
	if seeded {
		return s.Payload(), nil
	}
	if s.backend == nil {
		return nil, errors.Newf("no backend configured").
			Component("session").
			Category(errors.CategoryState).
			Build()
	}

	token := s.nextToken.Add(1)
	payload, err := s.backend.Snapshot(ctx)
	if err != nil {
		s.log.WithContext(ctx).Warn("Initial snapshot failed", logger.Error(err))
		return nil, err
	}
	if payload == nil {
		payload = analysis.Empty()
	}

	s.mu.Lock()
	if s.seeded {
		s.mu.Unlock()
		return s.Payload(), nil
	}
	s.seeded = true
	// local spins submitted while the snapshot was in flight keep their place after the seed
	local := s.history.items
	s.history.items = nil
	s.history.Seed(validOutcomes(payload.History))
	s.history.Seed(local)
	if token > s.applied {
		s.applied = token
		s.payload.Store(payload)
	}
	count := s.history.Len()
	s.mu.Unlock()

	s.log.Info("Loaded analysis snapshot", logger.Int("history", count), logger.String("status", payload.Status))
	s.publish(events.Event{Kind: events.KindSnapshot, Token: token})
	return payload, nil
}

// Clear replaces the payload with an empty analysis. History and the
// selection are kept.
func (s *Session) Clear() {
	s.mu.Lock()
	s.payload.Store(analysis.Empty())
	s.mu.Unlock()

	s.publish(events.Event{Kind: events.KindClear})
}

// Select marks the entry at index of the displayed window as inspected
// and opens the inspection. The pair is recorded as given.
func (s *Session) Select(index int, o wheel.Outcome) {
	s.mu.Lock()
	s.inspector.Select(analysis.Selection{Index: index, Outcome: o})
	s.mu.Unlock()

	s.publish(events.Event{Kind: events.KindSelection, Outcome: o, Index: index})
}

// SelectIndex selects the entry currently shown at index of the window.
func (s *Session) SelectIndex(index int) (analysis.Selection, error) {
	s.mu.Lock()
	o, ok := s.history.At(index)
	s.mu.Unlock()
	if !ok {
		return analysis.Selection{}, errors.Newf("no history entry at position %d", index).
			Component("session").
			Category(errors.CategoryNotFound).
			Context("index", index).
			Build()
	}

	s.Select(index, o)
	return analysis.Selection{Index: index, Outcome: o}, nil
}

// Close closes the inspection. The selection stays highlighted.
func (s *Session) Close() {
	s.mu.Lock()
	wasOpen := s.inspector.IsOpen()
	s.inspector.Close()
	s.mu.Unlock()

	if wasOpen {
		s.publish(events.Event{Kind: events.KindInspectionClosed})
	}
}

// Inspect resolves the open selection against the current payload.
// ok is false when no inspection is open.
func (s *Session) Inspect() (result analysis.InspectionResult, ok bool) {
	s.mu.Lock()
	sel, selected := s.inspector.Selection()
	open := s.inspector.IsOpen()
	payload := s.payload.Load()
	s.mu.Unlock()

	if !selected || !open {
		return analysis.InspectionResult{}, false
	}
	return analysis.Resolve(s.wheel, sel, payload), true
}

// Payload returns the current analysis snapshot. Callers must not modify it.
func (s *Session) Payload() *analysis.Payload {
	return s.payload.Load()
}

// State is a consistent copy of everything the display renders.
type State struct {
	History    []wheel.Outcome     `json:"history"`
	Selection  *analysis.Selection `json:"selection,omitempty"`
	Inspecting bool                `json:"inspecting"`
	Payload    *analysis.Payload   `json:"payload"`
	Token      uint64              `json:"token"`
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		History:    s.history.Windowed(),
		Inspecting: s.inspector.IsOpen(),
		Payload:    s.payload.Load(),
		Token:      s.applied,
	}
	if sel, ok := s.inspector.Selection(); ok {
		st.Selection = &sel
	}
	return st
}

// StaleDropped is the number of responses discarded because a newer one had been applied.
func (s *Session) StaleDropped() uint64 {
	return s.stale.Load()
}

// Wheel returns the wheel used for resolution.
func (s *Session) Wheel() *wheel.Wheel {
	return s.wheel
}

func (s *Session) publish(event events.Event) {
	if s.events == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.events.TryPublish(event)
}

func validOutcomes(in []wheel.Outcome) []wheel.Outcome {
	out := make([]wheel.Outcome, 0, len(in))
	for _, o := range in {
		if o.Valid() {
			out = append(out, o)
		}
	}
	return out
}
