package queue

import (
	"context"
	"time"
)

// FulfillmentEventType 履約事件類型
type FulfillmentEventType string

const (
	EventOrderPaid     FulfillmentEventType = "order.paid"
	EventOrderRefunded FulfillmentEventType = "order.refunded"
)

// FulfillmentEvent 訂單付款/退款後發出的履約事件，
// 由通知端（email 等，核心範圍外）消費
type FulfillmentEvent struct {
	Type       FulfillmentEventType `json:"type"`
	OrderID    int                  `json:"order_id"`
	UserID     int                  `json:"user_id"`
	EventID    int                  `json:"event_id"`
	Total      float64              `json:"total"`
	OccurredAt time.Time            `json:"occurred_at"`
}

type Delivery struct {
	Data *FulfillmentEvent
	Ack  func()
	Nack func(requeue bool)
}

type FulfillmentQueue interface {
	// 發送履約事件到隊列
	Publish(ctx context.Context, event *FulfillmentEvent) error
	// 訂閱履約事件隊列
	Subscribe(ctx context.Context) (<-chan Delivery, error)
}

type MemoryFulfillmentQueue struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch chan *FulfillmentEvent
}

func NewMemoryFulfillmentQueue(bufferSize int) *MemoryFulfillmentQueue {
	return &MemoryFulfillmentQueue{
		ch: make(chan *FulfillmentEvent, bufferSize),
	}
}

func (q *MemoryFulfillmentQueue) Publish(ctx context.Context, event *FulfillmentEvent) error {
	q.ch <- event
	return nil
}

func (q *MemoryFulfillmentQueue) Subscribe(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-q.ch:
				if !ok {
					return
				}

				out <- Delivery{
					Data: event,
					Ack:  func() { /* 記憶體版不用做特別動作 */ },
					Nack: func(requeue bool) {
						if requeue {
							q.ch <- event // 簡單模擬重回隊列
						}
					},
				}
			}
		}
	}()

	return out, nil
}
