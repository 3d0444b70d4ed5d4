package service

import (
	"context"
	"testing"

	"go-ticket-storefront/internal/inventory"
	"go-ticket-storefront/internal/model"
	"go-ticket-storefront/internal/queue"
	apperrors "go-ticket-storefront/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingQueue 記錄發佈的履約事件供斷言
type recordingQueue struct {
	events []*queue.FulfillmentEvent
}

func (q *recordingQueue) Publish(ctx context.Context, event *queue.FulfillmentEvent) error {
	q.events = append(q.events, event)
	return nil
}

func (q *recordingQueue) Subscribe(ctx context.Context) (<-chan queue.Delivery, error) {
	return nil, nil
}

type orderFixture struct {
	svc          OrderService
	orderRepo    *memOrderRepo
	ticketRepo   *memTicketRepo
	discountRepo *memDiscountRepo
	store        *inventory.MemoryLedgerStore
	published    *recordingQueue
}

// 活動 1：票種 10（500 元、10 張）、票種 11（800 元、2 張、每人限 2）
// 活動 2：票種 20（300 元、5 張）
func newOrderFixture(discounts ...*model.DiscountCode) *orderFixture {
	ticketTypeRepo := newMemTicketTypeRepo(
		&model.TicketType{ID: 10, EventID: 1, Name: "General", Price: 500, Capacity: 10},
		&model.TicketType{ID: 11, EventID: 1, Name: "VIP", Price: 800, Capacity: 2, MaxPerUser: 2},
		&model.TicketType{ID: 20, EventID: 2, Name: "Other", Price: 300, Capacity: 5},
	)

	store := inventory.NewMemoryLedgerStore()
	store.Put(inventory.Entry{Key: inventory.Key{EventID: 1, TicketTypeID: 10}, Capacity: 10})
	store.Put(inventory.Entry{Key: inventory.Key{EventID: 1, TicketTypeID: 11}, Capacity: 2})
	store.Put(inventory.Entry{Key: inventory.Key{EventID: 2, TicketTypeID: 20}, Capacity: 5})

	orderRepo := newMemOrderRepo()
	ticketRepo := newMemTicketRepo()
	discountRepo := newMemDiscountRepo(discounts...)
	published := &recordingQueue{}

	svc := NewOrderService(
		orderRepo,
		ticketTypeRepo,
		ticketRepo,
		discountRepo,
		NewDiscountServiceWithClock(discountRepo, testClock),
		inventory.NewEngine(store, nil, 0),
		published,
	)

	return &orderFixture{
		svc:          svc,
		orderRepo:    orderRepo,
		ticketRepo:   ticketRepo,
		discountRepo: discountRepo,
		store:        store,
		published:    published,
	}
}

func (f *orderFixture) sold(eventID, ticketTypeID int) int {
	entry, _ := f.store.Get(context.Background(), inventory.Key{EventID: eventID, TicketTypeID: ticketTypeID})
	return entry.Sold
}

func TestCreateOrder_ComputesTotals(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	order, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID:  1,
		EventID: 1,
		Lines: []model.OrderLineRequest{
			{TicketTypeID: 10, Quantity: 2},
			{TicketTypeID: 11, Quantity: 1},
		},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, 1800.0, order.Subtotal)
	assert.Equal(t, 0.0, order.DiscountAmount)
	assert.Equal(t, 1800.0, order.Total)
	assert.Len(t, order.Lines, 2)
	assert.NotEqual(t, 0, order.ID)

	// 建單階段不動庫存
	assert.Equal(t, 0, f.sold(1, 10))
	assert.Equal(t, 0, f.sold(1, 11))
}

func TestCreateOrder_WithDiscount(t *testing.T) {
	ctx := context.Background()
	from, until := activeWindow()
	discount := &model.DiscountCode{
		Code: "SUMMER10", Type: model.DiscountTypePercentage, Value: 10,
		ValidFrom: from, ValidUntil: until, MaxUses: intPtr(5),
	}
	f := newOrderFixture(discount)

	order, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID:        1,
		EventID:       1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 10, Quantity: 2}},
		DiscountCode:  "summer10",
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)

	assert.Equal(t, 1000.0, order.Subtotal)
	assert.Equal(t, 100.0, order.DiscountAmount)
	assert.Equal(t, 900.0, order.Total)
	require.NotNil(t, order.DiscountCode)
	assert.Equal(t, "SUMMER10", *order.DiscountCode)

	// 建單只驗證不消耗
	assert.Equal(t, 0, discount.UsedCount)
}

func TestCreateOrder_InvalidDiscountRejectsWholeOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	_, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID:        1,
		EventID:       1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 10, Quantity: 1}},
		DiscountCode:  "NOPE",
		PaymentMethod: "credit_card",
	})
	assert.ErrorIs(t, err, apperrors.ErrDiscountNotFound)

	orders, _ := f.orderRepo.List(ctx)
	assert.Empty(t, orders, "no pending order should be persisted")
}

func TestCreateOrder_RejectsBadLines(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	_, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 999, Quantity: 1}},
		PaymentMethod: "credit_card",
	})
	assert.ErrorIs(t, err, apperrors.ErrTicketTypeNotFound)

	// 票種不屬於該活動
	_, err = f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 20, Quantity: 1}},
		PaymentMethod: "credit_card",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestCreateOrder_MaxPerUser(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	_, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 11, Quantity: 2}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)

	// 未取消的既有訂單計入限購額度
	_, err = f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 11, Quantity: 1}},
		PaymentMethod: "credit_card",
	})
	assert.ErrorIs(t, err, apperrors.ErrExceedsMaxPerUser)

	// 其他使用者不受影響
	_, err = f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 2, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 11, Quantity: 1}},
		PaymentMethod: "credit_card",
	})
	assert.NoError(t, err)
}

func TestConfirmPayment_Success(t *testing.T) {
	ctx := context.Background()
	from, until := activeWindow()
	discount := &model.DiscountCode{
		Code: "SUMMER10", Type: model.DiscountTypePercentage, Value: 10,
		ValidFrom: from, ValidUntil: until, MaxUses: intPtr(5),
	}
	f := newOrderFixture(discount)

	order, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines: []model.OrderLineRequest{
			{TicketTypeID: 10, Quantity: 2},
			{TicketTypeID: 11, Quantity: 1},
		},
		DiscountCode:  "SUMMER10",
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)

	paid, err := f.svc.ConfirmPayment(ctx, order.ID, model.PaymentOutcome{Success: true, Reference: "pay-123"})
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	// 付款時才扣庫存
	assert.Equal(t, 2, f.sold(1, 10))
	assert.Equal(t, 1, f.sold(1, 11))

	// 折扣在付款時原子消耗一次
	assert.Equal(t, 1, discount.UsedCount)

	// 每單位數量一張票，核銷碼唯一
	tickets, err := f.ticketRepo.ListByOrderID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, tickets, 3)
	codes := map[string]bool{}
	for _, ticket := range tickets {
		assert.NotEmpty(t, ticket.RedemptionCode)
		assert.False(t, codes[ticket.RedemptionCode], "redemption codes must be unique")
		codes[ticket.RedemptionCode] = true
	}

	require.Len(t, f.published.events, 1)
	assert.Equal(t, queue.EventOrderPaid, f.published.events[0].Type)
	assert.Equal(t, order.ID, f.published.events[0].OrderID)
}

func TestConfirmPayment_FailedOutcomeCancels(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	order, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 10, Quantity: 2}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)

	cancelled, err := f.svc.ConfirmPayment(ctx, order.ID, model.PaymentOutcome{Success: false})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)

	assert.Equal(t, 0, f.sold(1, 10))
	assert.Empty(t, f.published.events)
}

func TestConfirmPayment_InsufficientStockCancels(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	// 票種 11 只有 2 張，先建兩筆各 2 張的 pending 訂單（不同使用者）
	first, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 11, Quantity: 2}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 2, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 11, Quantity: 2}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, first.ID, model.PaymentOutcome{Success: true})
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, second.ID, model.PaymentOutcome{Success: true})
	require.Error(t, err)

	var insufficient *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 11, insufficient.TicketTypeID)
	assert.Equal(t, 0, insufficient.Available)

	got, _ := f.orderRepo.FindByID(ctx, second.ID)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)
	assert.Equal(t, 2, f.sold(1, 11), "losing order must not consume stock")
}

func TestConfirmPayment_AlreadyPaid(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	order, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 10, Quantity: 1}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, order.ID, model.PaymentOutcome{Success: true})
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, order.ID, model.PaymentOutcome{Success: true})
	assert.ErrorIs(t, err, apperrors.ErrStateViolation)

	// 重複確認不會再扣庫存、不會再鑄票
	assert.Equal(t, 1, f.sold(1, 10))
	tickets, _ := f.ticketRepo.ListByOrderID(ctx, order.ID)
	assert.Len(t, tickets, 1)
}

// 兩張 pending 訂單掛同一個只剩一次的折扣碼：後付款者拿不到折扣，
// 訂單取消且剛預訂的庫存要還回去
func TestConfirmPayment_ExhaustedDiscountReleasesStock(t *testing.T) {
	ctx := context.Background()
	from, until := activeWindow()
	discount := &model.DiscountCode{
		Code: "LASTONE", Type: model.DiscountTypeFixedAmount, Value: 100,
		ValidFrom: from, ValidUntil: until, MaxUses: intPtr(1),
	}
	f := newOrderFixture(discount)

	first, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 10, Quantity: 1}},
		DiscountCode:  "LASTONE",
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 2, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 10, Quantity: 1}},
		DiscountCode:  "LASTONE",
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, first.ID, model.PaymentOutcome{Success: true})
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, second.ID, model.PaymentOutcome{Success: true})
	assert.ErrorIs(t, err, apperrors.ErrDiscountExhausted)

	got, _ := f.orderRepo.FindByID(ctx, second.ID)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)
	assert.Equal(t, 1, f.sold(1, 10), "stock reserved for the failed order must be released")
	assert.Equal(t, 1, discount.UsedCount)
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	order, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 10, Quantity: 1}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.CancelOrder(ctx, order.ID))
	got, _ := f.orderRepo.FindByID(ctx, order.ID)
	assert.Equal(t, model.OrderStatusCancelled, got.Status)
	assert.NotNil(t, got.CancelledAt)

	// 終態不可再取消
	assert.ErrorIs(t, f.svc.CancelOrder(ctx, order.ID), apperrors.ErrStateViolation)
	assert.ErrorIs(t, f.svc.CancelOrder(ctx, 999), apperrors.ErrOrderNotFound)
}

func TestCancelOrder_PaidOrderRejected(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	order, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 10, Quantity: 1}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, order.ID, model.PaymentOutcome{Success: true})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.CancelOrder(ctx, order.ID), apperrors.ErrStateViolation)
}

func TestRefundOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	order, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 10, Quantity: 3}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, order.ID, model.PaymentOutcome{Success: true})
	require.NoError(t, err)
	require.Equal(t, 3, f.sold(1, 10))

	require.NoError(t, f.svc.RefundOrder(ctx, order.ID))

	got, _ := f.orderRepo.FindByID(ctx, order.ID)
	assert.Equal(t, model.OrderStatusRefunded, got.Status)
	assert.Equal(t, 0, f.sold(1, 10), "refund restores stock")

	// 票券作廢不刪除
	tickets, _ := f.ticketRepo.ListByOrderID(ctx, order.ID)
	require.Len(t, tickets, 3)
	for _, ticket := range tickets {
		assert.True(t, ticket.Void)
	}

	require.Len(t, f.published.events, 2)
	assert.Equal(t, queue.EventOrderRefunded, f.published.events[1].Type)

	// 重複退款被狀態機擋下，庫存不會回補兩次
	assert.ErrorIs(t, f.svc.RefundOrder(ctx, order.ID), apperrors.ErrStateViolation)
	assert.Equal(t, 0, f.sold(1, 10))
}

func TestRefundOrder_PendingRejected(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	order, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 10, Quantity: 1}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.RefundOrder(ctx, order.ID), apperrors.ErrStateViolation)
}

// 容量 2 的完整輪迴：A 買斷、B 缺貨取消、A 退款、B 重試成功
func TestOrderLifecycle_RefundFreesStockForRetry(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	orderA, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 11, Quantity: 2}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, orderA.ID, model.PaymentOutcome{Success: true})
	require.NoError(t, err)

	orderB, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 2, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 11, Quantity: 1}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, orderB.ID, model.PaymentOutcome{Success: true})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	require.NoError(t, f.svc.RefundOrder(ctx, orderA.ID))

	orderB2, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 2, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 11, Quantity: 1}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)
	paid, err := f.svc.ConfirmPayment(ctx, orderB2.ID, model.PaymentOutcome{Success: true})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, paid.Status)
	assert.Equal(t, 1, f.sold(1, 11))
}

func TestValidateCart(t *testing.T) {
	ctx := context.Background()
	from, until := activeWindow()
	f := newOrderFixture(&model.DiscountCode{
		Code: "SUMMER10", Type: model.DiscountTypePercentage, Value: 10,
		ValidFrom: from, ValidUntil: until,
	})

	// 先賣掉票種 11 的兩張，讓整車驗證看到缺貨
	order, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 9, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 11, Quantity: 2}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, order.ID, model.PaymentOutcome{Success: true})
	require.NoError(t, err)

	validation, err := f.svc.ValidateCart(ctx, model.Cart{
		EventID: 1,
		Lines: []model.CartLine{
			{TicketTypeID: 10, Quantity: 2},
			{TicketTypeID: 11, Quantity: 1},
		},
		DiscountCode: "SUMMER10",
	})
	require.NoError(t, err)

	require.Len(t, validation.Lines, 2)
	assert.True(t, validation.Lines[0].Sufficient)
	assert.Equal(t, 8, validation.Lines[0].Available)
	assert.False(t, validation.Lines[1].Sufficient)
	assert.Equal(t, 0, validation.Lines[1].Available)

	assert.Equal(t, 1800.0, validation.Subtotal)
	assert.Equal(t, 180.0, validation.DiscountAmount)
	assert.Equal(t, 1620.0, validation.Total)
	assert.Empty(t, validation.DiscountError)
}

func TestValidateCart_DiscountErrorIsAdvisory(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	validation, err := f.svc.ValidateCart(ctx, model.Cart{
		EventID:      1,
		Lines:        []model.CartLine{{TicketTypeID: 10, Quantity: 1}},
		DiscountCode: "NOPE",
	})
	require.NoError(t, err, "bad discount must not fail the whole validation")
	assert.NotEmpty(t, validation.DiscountError)
	assert.Equal(t, 0.0, validation.DiscountAmount)
	assert.Equal(t, 500.0, validation.Total)
}

func TestListOrderTickets(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	order, err := f.svc.CreateOrder(ctx, model.CreateOrderRequest{
		UserID: 1, EventID: 1,
		Lines:         []model.OrderLineRequest{{TicketTypeID: 10, Quantity: 2}},
		PaymentMethod: "credit_card",
	})
	require.NoError(t, err)
	_, err = f.svc.ConfirmPayment(ctx, order.ID, model.PaymentOutcome{Success: true})
	require.NoError(t, err)

	tickets, err := f.svc.ListOrderTickets(ctx, order.ID)
	require.NoError(t, err)
	assert.Len(t, tickets, 2)

	_, err = f.svc.ListOrderTickets(ctx, 999)
	assert.ErrorIs(t, err, apperrors.ErrOrderNotFound)
}
