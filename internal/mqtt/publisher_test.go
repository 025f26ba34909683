package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rouletteai/roulette-client/internal/errors"
	"github.com/rouletteai/roulette-client/internal/events"
	"github.com/rouletteai/roulette-client/internal/wheel"
)

type published struct {
	topic   string
	payload []byte
}

// fakeClient records publishes instead of talking to a broker.
type fakeClient struct {
	mu        sync.Mutex
	connected bool
	fail      error
	messages  []published
}

func (f *fakeClient) Connect(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = true
	return nil
}

func (f *fakeClient) Publish(_ context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.messages = append(f.messages, published{topic: topic, payload: payload})
	return nil
}

func (f *fakeClient) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeClient) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = false
}

func decodeMessage(t *testing.T, data []byte) EventMessage {
	t.Helper()
	var msg EventMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestPublisherSpinEvent(t *testing.T) {
	client := &fakeClient{connected: true}
	pub := NewPublisher(client, Config{Topic: "casino/table1/", ClientID: "table1"}, nil)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, pub.ProcessEvent(events.Event{Kind: events.KindSpin, Outcome: 0, Token: 7, Timestamp: ts}))

	require.Len(t, client.messages, 1)
	assert.Equal(t, "casino/table1/spin", client.messages[0].topic)

	msg := decodeMessage(t, client.messages[0].payload)
	require.NotNil(t, msg.Number, "zero is a real outcome and must be present")
	assert.Equal(t, 0, *msg.Number)
	assert.Equal(t, "green", msg.Color)
	assert.Equal(t, "voisins", msg.Sector)
	require.NotNil(t, msg.Neighbors)
	assert.Equal(t, wheel.Outcome(26), msg.Neighbors.Left)
	assert.Equal(t, wheel.Outcome(32), msg.Neighbors.Right)
	assert.Equal(t, uint64(7), msg.Token)
	assert.Equal(t, "table1", msg.Source)
	assert.Equal(t, "2026-03-01T12:00:00Z", msg.Timestamp)
}

func TestPublisherEventsWithoutOutcome(t *testing.T) {
	client := &fakeClient{connected: true}
	pub := NewPublisher(client, Config{}, nil)

	require.NoError(t, pub.ProcessEvent(events.Event{Kind: events.KindClear}))
	require.NoError(t, pub.ProcessEvent(events.Event{Kind: events.KindSubmitFailed, Message: "invalid number"}))

	require.Len(t, client.messages, 2)
	assert.Equal(t, "roulette/clear", client.messages[0].topic)
	for _, m := range client.messages {
		msg := decodeMessage(t, m.payload)
		assert.Nil(t, msg.Number)
		assert.Nil(t, msg.Neighbors)
		assert.Empty(t, msg.Color)
	}
	assert.Equal(t, "invalid number", decodeMessage(t, client.messages[1].payload).Message)
}

func TestPublisherSubmitFailureWithToken(t *testing.T) {
	msg := NewEventMessage(nil, events.Event{Kind: events.KindSubmitFailed, Outcome: 17, Token: 3}, "")
	require.NotNil(t, msg.Number)
	assert.Equal(t, 17, *msg.Number)
	assert.Equal(t, "red", msg.Color)
}

func TestPublisherDisconnected(t *testing.T) {
	client := &fakeClient{}
	pub := NewPublisher(client, Config{}, nil)

	err := pub.ProcessEvent(events.Event{Kind: events.KindSpin, Outcome: 5})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryMQTTPublish))
	assert.Empty(t, client.messages)
}

func TestPublisherPropagatesPublishError(t *testing.T) {
	client := &fakeClient{connected: true, fail: errors.NewStd("broker gone")}
	pub := NewPublisher(client, Config{}, nil)

	err := pub.ProcessEvent(events.Event{Kind: events.KindSelection, Outcome: 9, Index: 2})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker gone")
}

func TestPublisherAsBusConsumer(t *testing.T) {
	client := &fakeClient{connected: true}
	pub := NewPublisher(client, Config{}, nil)

	bus := events.New(events.DefaultConfig())
	require.NoError(t, bus.RegisterConsumer(pub))
	assert.True(t, bus.TryPublish(events.Event{Kind: events.KindSpin, Outcome: 32}))
	require.NoError(t, bus.Shutdown(time.Second))

	client.mu.Lock()
	defer client.mu.Unlock()
	require.Len(t, client.messages, 1)
	assert.Equal(t, "roulette/spin", client.messages[0].topic)
}
