package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueue_PublishSubscribe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryFulfillmentQueue(10)
	deliveries, err := q.Subscribe(ctx)
	require.NoError(t, err)

	event := &FulfillmentEvent{
		Type:       EventOrderPaid,
		OrderID:    42,
		UserID:     7,
		EventID:    1,
		Total:      900,
		OccurredAt: time.Now().UTC(),
	}
	require.NoError(t, q.Publish(ctx, event))

	select {
	case delivery := <-deliveries:
		assert.Equal(t, EventOrderPaid, delivery.Data.Type)
		assert.Equal(t, 42, delivery.Data.OrderID)
		delivery.Ack()
	case <-time.After(time.Second):
		t.Fatal("expected a delivery")
	}
}

func TestMemoryQueue_NackRequeues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := NewMemoryFulfillmentQueue(10)
	deliveries, err := q.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, q.Publish(ctx, &FulfillmentEvent{Type: EventOrderRefunded, OrderID: 1}))

	first := <-deliveries
	first.Nack(true)

	select {
	case second := <-deliveries:
		assert.Equal(t, 1, second.Data.OrderID)
		second.Ack()
	case <-time.After(time.Second):
		t.Fatal("nacked event should be redelivered")
	}
}

func TestMemoryQueue_SubscribeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	q := NewMemoryFulfillmentQueue(10)
	deliveries, err := q.Subscribe(ctx)
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-deliveries:
		assert.False(t, ok, "channel should be closed after cancel")
	case <-time.After(time.Second):
		t.Fatal("subscription should terminate on context cancel")
	}
}
