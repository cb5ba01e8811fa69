package messaging_test

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rashid-RG/gemini-lms-sub003/internal/domain/shared"
	"github.com/Rashid-RG/gemini-lms-sub003/internal/infrastructure/messaging"
)

// fakeRedisClient captures published envelopes and lets tests inject
// messages as if they arrived from another worker instance.
type fakeRedisClient struct {
	mu        sync.Mutex
	published []string
	incoming  chan messaging.RedisMessage
}

func newFakeRedisClient() *fakeRedisClient {
	return &fakeRedisClient{incoming: make(chan messaging.RedisMessage, 8)}
}

func (c *fakeRedisClient) Publish(ctx context.Context, channel string, message interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, message.(string))
	return nil
}

func (c *fakeRedisClient) Subscribe(ctx context.Context, channels ...string) (<-chan messaging.RedisMessage, error) {
	return c.incoming, nil
}

func (c *fakeRedisClient) Close() error { return nil }

func (c *fakeRedisClient) Published() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.published))
	copy(out, c.published)
	return out
}

func newRedisBus(t *testing.T, client *fakeRedisClient) *messaging.RedisEventBus {
	t.Helper()
	bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:     client,
		InstanceID: "worker-1",
		LocalBusConfig: messaging.InMemoryEventBusConfig{
			AsyncMode: false,
			Logger:    quietLogger(),
		},
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestRedisEventBusFansOutToRedisAndLocal(t *testing.T) {
	client := newFakeRedisClient()
	bus := newRedisBus(t, client)

	var calls atomic.Int64
	require.NoError(t, bus.SubscribeAll(func(event shared.Event) error {
		calls.Add(1)
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewAssignmentGradeRequestedEvent("a1", "s@example.com")))

	// Local handlers ran synchronously; the wire got one tagged envelope.
	assert.Equal(t, int64(1), calls.Load())
	published := client.Published()
	require.Len(t, published, 1)

	var envelope struct {
		InstanceID string          `json:"instance_id"`
		EventType  string          `json:"event_type"`
		Payload    json.RawMessage `json:"payload"`
	}
	require.NoError(t, json.Unmarshal([]byte(published[0]), &envelope))
	assert.Equal(t, "worker-1", envelope.InstanceID)
	assert.Equal(t, string(shared.EventAssignmentGrade), envelope.EventType)

	var evt shared.AssignmentGradeRequestedEvent
	require.NoError(t, json.Unmarshal(envelope.Payload, &evt))
	assert.Equal(t, "a1", evt.AssignmentID)
}

func TestRedisEventBusDeliversRemoteEvents(t *testing.T) {
	client := newFakeRedisClient()
	bus := newRedisBus(t, client)

	var calls atomic.Int64
	var gotAssignment atomic.Value
	require.NoError(t, bus.SubscribeAll(func(event shared.Event) error {
		evt, err := shared.DecodeEvent[shared.AssignmentGradeRequestedEvent](event)
		if err != nil {
			return err
		}
		gotAssignment.Store(evt.AssignmentID)
		calls.Add(1)
		return nil
	}))

	remote := shared.NewAssignmentGradeRequestedEvent("a7", "s@example.com")
	payload, err := json.Marshal(remote)
	require.NoError(t, err)
	envelope, err := json.Marshal(map[string]interface{}{
		"instance_id":  "worker-2",
		"event_type":   shared.EventAssignmentGrade,
		"aggregate_id": "a7",
		"occurred_at":  time.Now().UTC(),
		"payload":      json.RawMessage(payload),
	})
	require.NoError(t, err)

	client.incoming <- messaging.RedisMessage{Channel: "lms:events", Payload: string(envelope)}

	require.Eventually(t, func() bool {
		return calls.Load() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "a7", gotAssignment.Load())
}

func TestRedisEventBusSkipsOwnEvents(t *testing.T) {
	client := newFakeRedisClient()
	bus := newRedisBus(t, client)

	var calls atomic.Int64
	require.NoError(t, bus.SubscribeAll(func(event shared.Event) error {
		calls.Add(1)
		return nil
	}))

	// Publish locally, then feed the same envelope back in - Redis Pub/Sub
	// echoes every message to its publisher.
	require.NoError(t, bus.Publish(shared.NewAssignmentGradeRequestedEvent("a1", "s@example.com")))
	published := client.Published()
	require.Len(t, published, 1)
	client.incoming <- messaging.RedisMessage{Channel: "lms:events", Payload: published[0]}

	// The echo carries our own instance id and must not double-deliver.
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), calls.Load())
}
