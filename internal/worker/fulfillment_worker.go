package worker

import (
	"context"

	"go-ticket-storefront/internal/queue"
	"go-ticket-storefront/pkg/logger"

	"go.uber.org/zap"
)

// Notifier 通知端掛鉤：email 寄送等在核心範圍外，由外部實作注入
type Notifier interface {
	Notify(ctx context.Context, event *queue.FulfillmentEvent) error
}

// LogNotifier 預設實作：只記錄事件
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, event *queue.FulfillmentEvent) error {
	logger.WithComponent("notifier").Info("fulfillment event",
		zap.String("type", string(event.Type)),
		zap.Int("order_id", event.OrderID),
		zap.Int("user_id", event.UserID),
		zap.Float64("total", event.Total))
	return nil
}

type FulfillmentWorker interface {
	// 訂閱履約事件隊列
	Start(ctx context.Context) error
}

type FulfillmentWorkerImpl struct {
	notifier Notifier
	queue    queue.FulfillmentQueue
}

func NewFulfillmentWorker(notifier Notifier, queue queue.FulfillmentQueue) FulfillmentWorker {
	return &FulfillmentWorkerImpl{
		notifier: notifier,
		queue:    queue,
	}
}

func (w *FulfillmentWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			err := w.notifier.Notify(ctx, msg.Data)
			if err != nil {
				// 通知端暫時失敗，留給隊列重試
				msg.Nack(true)
			} else {
				msg.Ack()
			}
		}
	}()
	return nil
}
