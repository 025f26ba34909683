package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rouletteai/roulette-client/internal/analysis"
	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/events"
	"github.com/rouletteai/roulette-client/internal/logger"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeBackend echoes the submitted number into a payload. Per-number gates
// let tests control response ordering.
type fakeBackend struct {
	calls    atomic.Int32
	err      error
	snapshot *analysis.Payload

	mu    sync.Mutex
	gates map[wheel.Outcome]chan struct{}
}

func (f *fakeBackend) gate(o wheel.Outcome) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gates == nil {
		f.gates = map[wheel.Outcome]chan struct{}{}
	}
	ch, ok := f.gates[o]
	if !ok {
		ch = make(chan struct{})
		f.gates[o] = ch
	}
	return ch
}

func (f *fakeBackend) SubmitSpin(ctx context.Context, o wheel.Outcome) (*analysis.Payload, error) {
	f.calls.Add(1)
	f.mu.Lock()
	ch := f.gates[o]
	f.mu.Unlock()
	if ch != nil {
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &analysis.Payload{
		Status:  "ok",
		History: []wheel.Outcome{o},
		Zones:   []analysis.Zone{{Name: fmt.Sprintf("zone-%d", o), Numbers: []wheel.Outcome{o}}},
	}, nil
}

func (f *fakeBackend) Snapshot(context.Context) (*analysis.Payload, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.snapshot, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *capturePublisher) TryPublish(e events.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return true
}

func (c *capturePublisher) kinds() []events.Kind {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Kind, len(c.events))
	for i, e := range c.events {
		out[i] = e.Kind
	}
	return out
}

func newTestSession(t *testing.T, b Backend) (*Session, *capturePublisher) {
	t.Helper()
	pub := &capturePublisher{}
	return New(b, Config{Logger: logger.NewDiscardLogger(), Events: pub}), pub
}

func TestSubmitRejectsInvalidInputWithoutBackendCall(t *testing.T) {
	backend := &fakeBackend{}
	s, pub := newTestSession(t, backend)

	for _, raw := range []string{"37", "-1", "abc", ""} {
		_, err := s.Submit(t.Context(), raw)
		require.Error(t, err, raw)
		assert.True(t, errors.IsValidation(err))
	}

	assert.Zero(t, backend.calls.Load())
	assert.Empty(t, s.State().History)
	assert.True(t, s.Payload().IsEmpty())
	assert.Equal(t, events.KindSubmitFailed, pub.kinds()[0])
}

func TestSubmitAppliesPayloadAndAppendsHistory(t *testing.T) {
	s, pub := newTestSession(t, &fakeBackend{})

	res, err := s.Submit(t.Context(), " 14 ")
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, wheel.Outcome(14), res.Outcome)

	st := s.State()
	assert.Equal(t, []wheel.Outcome{14}, st.History)
	assert.Equal(t, "zone-14", st.Payload.Zones[0].Name)
	assert.Equal(t, res.Token, st.Token)
	assert.Equal(t, []events.Kind{events.KindSpin}, pub.kinds())
}

func TestSubmitFailurePreservesState(t *testing.T) {
	backend := &fakeBackend{}
	s, _ := newTestSession(t, backend)

	_, err := s.Submit(t.Context(), "5")
	require.NoError(t, err)
	s.Select(0, 5)
	before := s.State()

	backend.err = errors.Newf("backend down").Category(errors.CategoryNetwork).Build()
	_, err = s.Submit(t.Context(), "9")
	require.Error(t, err)

	after := s.State()
	assert.Equal(t, before.History, after.History)
	assert.Same(t, before.Payload, after.Payload)
	assert.Equal(t, before.Selection, after.Selection)
	assert.True(t, after.Inspecting)
}

func TestStaleResponseIsDropped(t *testing.T) {
	backend := &fakeBackend{}
	slow := backend.gate(1)
	s, pub := newTestSession(t, backend)

	var wg sync.WaitGroup
	var slowRes SubmitResult
	wg.Go(func() {
		slowRes, _ = s.SubmitOutcome(t.Context(), 1)
	})

	// wait until the slow request holds token 1
	require.Eventually(t, func() bool { return backend.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	fast, err := s.SubmitOutcome(t.Context(), 2)
	require.NoError(t, err)
	require.True(t, fast.Applied)

	close(slow)
	wg.Wait()

	assert.False(t, slowRes.Applied, "older token must not overwrite newer payload")
	assert.Equal(t, "zone-2", s.Payload().Zones[0].Name)
	assert.Equal(t, uint64(1), s.StaleDropped())
	assert.Equal(t, []wheel.Outcome{2, 1}, s.State().History, "the spin itself was accepted by the backend")
	assert.Contains(t, pub.kinds(), events.KindStaleDropped)
}

func TestSelectionIsStaleButAddressable(t *testing.T) {
	s, _ := newTestSession(t, &fakeBackend{})

	for i := range 5 {
		_, err := s.SubmitOutcome(t.Context(), wheel.Outcome(i+10))
		require.NoError(t, err)
	}
	s.Select(3, 14)

	for i := range 10 {
		_, err := s.SubmitOutcome(t.Context(), wheel.Outcome(i))
		require.NoError(t, err)
	}

	st := s.State()
	require.NotNil(t, st.Selection)
	assert.Equal(t, analysis.Selection{Index: 3, Outcome: 14}, *st.Selection)
	assert.True(t, st.Inspecting)

	res, ok := s.Inspect()
	require.True(t, ok)
	assert.Equal(t, wheel.Outcome(14), res.Selection.Outcome)
	assert.Equal(t, wheel.NeighborPair{Left: 20, Right: 31}, res.Neighbors)
}

func TestInspectFollowsPayload(t *testing.T) {
	s, _ := newTestSession(t, &fakeBackend{})

	_, err := s.SubmitOutcome(t.Context(), 7)
	require.NoError(t, err)
	s.Select(0, 7)

	res, ok := s.Inspect()
	require.True(t, ok)
	require.NotNil(t, res.Zone)
	assert.Equal(t, "zone-7", res.Zone.Zone.Name)

	_, err = s.SubmitOutcome(t.Context(), 8)
	require.NoError(t, err)

	res, ok = s.Inspect()
	require.True(t, ok)
	assert.Nil(t, res.Zone, "zone membership comes from the new payload")
}

func TestCloseAndClear(t *testing.T) {
	s, pub := newTestSession(t, &fakeBackend{})

	_, ok := s.Inspect()
	assert.False(t, ok)

	_, err := s.SubmitOutcome(t.Context(), 3)
	require.NoError(t, err)
	s.Select(0, 3)
	s.Clear()

	st := s.State()
	assert.True(t, st.Payload.IsEmpty())
	assert.Equal(t, []wheel.Outcome{3}, st.History)
	require.NotNil(t, st.Selection, "clearing keeps the selection")
	assert.True(t, st.Inspecting)

	s.Close()
	s.Close()
	_, ok = s.Inspect()
	assert.False(t, ok)
	assert.NotNil(t, s.State().Selection)

	assert.Equal(t, []events.Kind{
		events.KindSpin, events.KindSelection, events.KindClear, events.KindInspectionClosed,
	}, pub.kinds())
}

func TestSelectIndex(t *testing.T) {
	s, _ := newTestSession(t, &fakeBackend{})

	_, err := s.SelectIndex(0)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	_, err = s.SubmitOutcome(t.Context(), 22)
	require.NoError(t, err)

	sel, err := s.SelectIndex(0)
	require.NoError(t, err)
	assert.Equal(t, wheel.Outcome(22), sel.Outcome)
}

func TestLoadSnapshotSeedsOnce(t *testing.T) {
	backend := &fakeBackend{snapshot: &analysis.Payload{
		Status:  "ok",
		History: []wheel.Outcome{1, 2, 99, 3},
	}}
	s, pub := newTestSession(t, backend)

	p, err := s.LoadSnapshot(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "ok", p.Status)
	assert.Equal(t, []wheel.Outcome{1, 2, 3}, s.State().History, "invalid outcomes are skipped")

	_, err = s.LoadSnapshot(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int32(1), backend.calls.Load())
	assert.Equal(t, []events.Kind{events.KindSnapshot}, pub.kinds())

	_, err = s.SubmitOutcome(t.Context(), 4)
	require.NoError(t, err)
	assert.Equal(t, []wheel.Outcome{1, 2, 3, 4}, s.State().History)
}

func TestLoadSnapshotFailure(t *testing.T) {
	s, _ := newTestSession(t, &fakeBackend{err: fmt.Errorf("offline")})

	_, err := s.LoadSnapshot(t.Context())
	require.Error(t, err)
	assert.True(t, s.Payload().IsEmpty())
}

func TestConcurrentSubmissions(t *testing.T) {
	s, _ := newTestSession(t, &fakeBackend{})

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Go(func() {
			_, _ = s.SubmitOutcome(t.Context(), wheel.Outcome(i))
		})
	}
	wg.Wait()

	st := s.State()
	assert.Len(t, st.History, 20)
	assert.Equal(t, uint64(20), st.Token, "the newest token always ends up applied")
}
