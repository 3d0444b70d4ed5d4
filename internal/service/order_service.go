package service

import (
	"context"
	"errors"
	"time"

	"go-ticket-storefront/internal/inventory"
	"go-ticket-storefront/internal/model"
	"go-ticket-storefront/internal/queue"
	"go-ticket-storefront/internal/repository"
	apperrors "go-ticket-storefront/pkg/app_errors"
	"go-ticket-storefront/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderService interface {
	// CreateOrder 建立 pending 訂單：算小計、驗折扣（唯讀）、寫入訂單。
	// 此時不動庫存：預訂延後到付款確認，避免被不會成單的購物車佔走。
	CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error)
	// ConfirmPayment 付款確認：預訂庫存、消耗折扣、轉 paid、鑄票。
	// 庫存不足或衝突時訂單轉 cancelled，錯誤帶出缺貨明細。
	ConfirmPayment(ctx context.Context, id int, outcome model.PaymentOutcome) (*model.Order, error)
	CancelOrder(ctx context.Context, id int) error
	RefundOrder(ctx context.Context, id int) error
	GetOrderByID(ctx context.Context, id int) (*model.Order, error)
	OrderList(ctx context.Context) ([]*model.Order, error)
	ListOrderTickets(ctx context.Context, id int) ([]*model.Ticket, error)
	// ValidateCart 整車重新驗證：逐行可售數量 + 折扣試算，僅供 UI 提示
	ValidateCart(ctx context.Context, cart model.Cart) (*model.CartValidation, error)
}

type OrderServiceImpl struct {
	orderRepo       repository.OrderRepository
	ticketTypeRepo  repository.TicketTypeRepository
	ticketRepo      repository.TicketRepository
	discountRepo    repository.DiscountRepository
	discountService DiscountService
	engine          *inventory.Engine
	fulfillment     queue.FulfillmentQueue
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	ticketTypeRepo repository.TicketTypeRepository,
	ticketRepo repository.TicketRepository,
	discountRepo repository.DiscountRepository,
	discountService DiscountService,
	engine *inventory.Engine,
	fulfillment queue.FulfillmentQueue,
) OrderService {
	return &OrderServiceImpl{
		orderRepo:       orderRepo,
		ticketTypeRepo:  ticketTypeRepo,
		ticketRepo:      ticketRepo,
		discountRepo:    discountRepo,
		discountService: discountService,
		engine:          engine,
		fulfillment:     fulfillment,
	}
}

func (s *OrderServiceImpl) CreateOrder(ctx context.Context, req model.CreateOrderRequest) (*model.Order, error) {
	if len(req.Lines) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	lines := make([]model.OrderLine, 0, len(req.Lines))
	var subtotal float64

	for _, lineReq := range req.Lines {
		if lineReq.Quantity <= 0 {
			return nil, apperrors.ErrInvalidInput
		}

		ticketType, err := s.ticketTypeRepo.FindByID(ctx, lineReq.TicketTypeID)
		if err != nil {
			return nil, err
		}
		if ticketType.EventID != req.EventID {
			return nil, apperrors.ErrInvalidInput
		}

		if ticketType.MaxPerUser > 0 {
			bought, err := s.orderRepo.GetUserTicketTypeOrderCount(ctx, req.UserID, ticketType.ID)
			if err != nil {
				return nil, err
			}
			if bought+lineReq.Quantity > ticketType.MaxPerUser {
				return nil, apperrors.ErrExceedsMaxPerUser
			}
		}

		lines = append(lines, model.OrderLine{
			TicketTypeID: ticketType.ID,
			UnitPrice:    ticketType.Price,
			Quantity:     lineReq.Quantity,
		})
		subtotal += ticketType.Price * float64(lineReq.Quantity)
	}

	var discountAmount float64
	var discountCode *string
	if req.DiscountCode != "" {
		normalized := NormalizeDiscountCode(req.DiscountCode)
		amount, err := s.discountService.Validate(ctx, normalized, req.EventID, subtotal)
		if err != nil {
			// 折扣碼無效時整筆請求拒絕
			return nil, err
		}
		discountAmount = amount
		discountCode = &normalized
	}

	total := subtotal - discountAmount
	if total < 0 {
		total = 0
	}

	order := &model.Order{
		OrderID:        uuid.New(),
		UserID:         req.UserID,
		EventID:        req.EventID,
		Lines:          lines,
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		Total:          total,
		DiscountCode:   discountCode,
		PaymentMethod:  req.PaymentMethod,
		Status:         model.OrderStatusPending,
	}

	return s.orderRepo.CreateWithLines(ctx, order)
}

func (s *OrderServiceImpl) ConfirmPayment(ctx context.Context, id int, outcome model.PaymentOutcome) (*model.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !outcome.Success {
		return s.orderRepo.UpdateStatus(ctx, id, model.OrderStatusPending, model.OrderStatusCancelled)
	}

	if order.Status != model.OrderStatusPending {
		return nil, apperrors.ErrStateViolation
	}

	invLines := toInventoryLines(order.Lines)

	// 衝突屬暫時性失敗，這層自動重試一次；再失敗就放棄並取消訂單
	err = s.engine.Reserve(ctx, order.EventID, invLines)
	if errors.Is(err, apperrors.ErrConflict) {
		err = s.engine.Reserve(ctx, order.EventID, invLines)
	}
	if err != nil {
		if _, cancelErr := s.orderRepo.UpdateStatus(ctx, id, model.OrderStatusPending, model.OrderStatusCancelled); cancelErr != nil {
			logger.WithComponent("order").Error("cancel after failed reservation",
				zap.Int("order_id", id), zap.Error(cancelErr))
		}
		return nil, err
	}

	// 折扣使用次數在此原子消耗：驗證只讀，消耗才是閘門
	if order.DiscountCode != nil {
		if err := s.discountRepo.Redeem(ctx, *order.DiscountCode); err != nil {
			s.releaseQuietly(order.EventID, invLines, id)
			if _, cancelErr := s.orderRepo.UpdateStatus(ctx, id, model.OrderStatusPending, model.OrderStatusCancelled); cancelErr != nil {
				logger.WithComponent("order").Error("cancel after failed redemption",
					zap.Int("order_id", id), zap.Error(cancelErr))
			}
			return nil, err
		}
	}

	paid, err := s.orderRepo.UpdateStatus(ctx, id, model.OrderStatusPending, model.OrderStatusPaid)
	if err != nil {
		// 狀態被並發轉走（例如同時取消），把剛預訂的庫存還回去
		s.releaseQuietly(order.EventID, invLines, id)
		return nil, err
	}

	if err := s.mintTickets(ctx, paid); err != nil {
		logger.WithComponent("order").Error("ticket minting failed",
			zap.Int("order_id", id), zap.Error(err))
		return nil, err
	}

	s.publishEvent(ctx, queue.EventOrderPaid, paid)

	return paid, nil
}

func (s *OrderServiceImpl) CancelOrder(ctx context.Context, id int) error {
	// pending 階段尚未預訂庫存，無需回補
	_, err := s.orderRepo.UpdateStatus(ctx, id, model.OrderStatusPending, model.OrderStatusCancelled)
	return err
}

func (s *OrderServiceImpl) RefundOrder(ctx context.Context, id int) error {
	// 先轉狀態再回補：paid -> refunded 只會成功一次，防止重複回補
	refunded, err := s.orderRepo.UpdateStatus(ctx, id, model.OrderStatusPaid, model.OrderStatusRefunded)
	if err != nil {
		return err
	}

	if err := s.engine.Release(ctx, refunded.EventID, toInventoryLines(refunded.Lines)); err != nil {
		logger.WithComponent("order").Error("stock release on refund failed",
			zap.Int("order_id", id), zap.Error(err))
		return err
	}

	// 票券作廢不刪除：已被掃描過的核銷碼不能重發
	if err := s.ticketRepo.VoidByOrderID(ctx, refunded.ID); err != nil {
		return err
	}

	s.publishEvent(ctx, queue.EventOrderRefunded, refunded)

	return nil
}

func (s *OrderServiceImpl) GetOrderByID(ctx context.Context, id int) (*model.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

func (s *OrderServiceImpl) OrderList(ctx context.Context) ([]*model.Order, error) {
	return s.orderRepo.List(ctx)
}

func (s *OrderServiceImpl) ListOrderTickets(ctx context.Context, id int) ([]*model.Ticket, error) {
	if _, err := s.orderRepo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.ticketRepo.ListByOrderID(ctx, id)
}

func (s *OrderServiceImpl) ValidateCart(ctx context.Context, cart model.Cart) (*model.CartValidation, error) {
	if len(cart.Lines) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	validation := &model.CartValidation{
		Lines: make([]model.CartLineStatus, 0, len(cart.Lines)),
	}

	for _, line := range cart.Lines {
		if line.Quantity <= 0 {
			return nil, apperrors.ErrInvalidInput
		}

		ticketType, err := s.ticketTypeRepo.FindByID(ctx, line.TicketTypeID)
		if err != nil {
			return nil, err
		}
		if ticketType.EventID != cart.EventID {
			return nil, apperrors.ErrInvalidInput
		}

		av, err := s.engine.Availability(ctx, cart.EventID, line.TicketTypeID)
		if err != nil {
			return nil, err
		}

		validation.Lines = append(validation.Lines, model.CartLineStatus{
			TicketTypeID: line.TicketTypeID,
			Quantity:     line.Quantity,
			UnitPrice:    ticketType.Price,
			Available:    av.Available,
			Sufficient:   av.Available >= line.Quantity,
		})
		validation.Subtotal += ticketType.Price * float64(line.Quantity)
	}

	if cart.DiscountCode != "" {
		amount, err := s.discountService.Validate(ctx, cart.DiscountCode, cart.EventID, validation.Subtotal)
		if err != nil {
			validation.DiscountError = err.Error()
		} else {
			validation.DiscountAmount = amount
		}
	}

	validation.Total = validation.Subtotal - validation.DiscountAmount
	if validation.Total < 0 {
		validation.Total = 0
	}

	return validation, nil
}

// mintTickets 每單位數量鑄造一張票，核銷碼全域唯一
func (s *OrderServiceImpl) mintTickets(ctx context.Context, order *model.Order) error {
	tickets := make([]*model.Ticket, 0, order.TotalQuantity())
	for _, line := range order.Lines {
		for i := 0; i < line.Quantity; i++ {
			tickets = append(tickets, &model.Ticket{
				TicketID:       uuid.New(),
				OrderID:        order.ID,
				EventID:        order.EventID,
				TicketTypeID:   line.TicketTypeID,
				RedemptionCode: model.NewRedemptionCode(),
			})
		}
	}
	return s.ticketRepo.CreateBatch(ctx, tickets)
}

// releaseQuietly 補償性回補：用 context.Background() 確保一定執行
func (s *OrderServiceImpl) releaseQuietly(eventID int, lines []inventory.Line, orderID int) {
	if err := s.engine.Release(context.Background(), eventID, lines); err != nil {
		logger.WithComponent("order").Error("compensating release failed",
			zap.Int("order_id", orderID), zap.Error(err))
	}
}

func (s *OrderServiceImpl) publishEvent(ctx context.Context, eventType queue.FulfillmentEventType, order *model.Order) {
	if s.fulfillment == nil {
		return
	}
	err := s.fulfillment.Publish(ctx, &queue.FulfillmentEvent{
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		EventID:    order.EventID,
		Total:      order.Total,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		// 通知屬盡力而為，不影響訂單結果
		logger.WithComponent("order").Warn("publish fulfillment event failed",
			zap.Int("order_id", order.ID), zap.Error(err))
	}
}

func toInventoryLines(lines []model.OrderLine) []inventory.Line {
	invLines := make([]inventory.Line, 0, len(lines))
	for _, line := range lines {
		invLines = append(invLines, inventory.Line{
			TicketTypeID: line.TicketTypeID,
			Quantity:     line.Quantity,
		})
	}
	return invLines
}
