package service

import (
	"context"
	"sync"
	"time"

	"go-ticket-storefront/internal/model"
	apperrors "go-ticket-storefront/pkg/app_errors"

	"github.com/google/uuid"
)

// 記憶體版 repository，行為對齊資料庫實作的條件式更新語意

type memTicketTypeRepo struct {
	byID map[int]*model.TicketType
}

func newMemTicketTypeRepo(ticketTypes ...*model.TicketType) *memTicketTypeRepo {
	repo := &memTicketTypeRepo{byID: map[int]*model.TicketType{}}
	for _, tt := range ticketTypes {
		repo.byID[tt.ID] = tt
	}
	return repo
}

func (r *memTicketTypeRepo) Create(ctx context.Context, ticketType *model.TicketType) (*model.TicketType, error) {
	ticketType.ID = len(r.byID) + 1
	r.byID[ticketType.ID] = ticketType
	return ticketType, nil
}

func (r *memTicketTypeRepo) ListByEventID(ctx context.Context, eventID int) ([]*model.TicketType, error) {
	var result []*model.TicketType
	for _, tt := range r.byID {
		if tt.EventID == eventID {
			result = append(result, tt)
		}
	}
	return result, nil
}

func (r *memTicketTypeRepo) FindByID(ctx context.Context, id int) (*model.TicketType, error) {
	tt, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrTicketTypeNotFound
	}
	return tt, nil
}

func (r *memTicketTypeRepo) FindByTicketTypeID(ctx context.Context, ticketTypeID uuid.UUID) (*model.TicketType, error) {
	for _, tt := range r.byID {
		if tt.TicketTypeID == ticketTypeID {
			return tt, nil
		}
	}
	return nil, apperrors.ErrTicketTypeNotFound
}

func (r *memTicketTypeRepo) Update(ctx context.Context, id int, values map[string]interface{}) (*model.TicketType, error) {
	return r.FindByID(ctx, id)
}

func (r *memTicketTypeRepo) Delete(ctx context.Context, id int) error {
	delete(r.byID, id)
	return nil
}

type memOrderRepo struct {
	mu     sync.Mutex
	byID   map[int]*model.Order
	nextID int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{byID: map[int]*model.Order{}, nextID: 1}
}

func (r *memOrderRepo) CreateWithLines(ctx context.Context, order *model.Order) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order.ID = r.nextID
	r.nextID++
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Lines {
		order.Lines[i].ID = i + 1
		order.Lines[i].OrderID = order.ID
	}
	r.byID[order.ID] = order
	return order, nil
}

func (r *memOrderRepo) List(ctx context.Context) ([]*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*model.Order
	for _, order := range r.byID {
		result = append(result, order)
	}
	return result, nil
}

func (r *memOrderRepo) FindByID(ctx context.Context, id int) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	return order, nil
}

func (r *memOrderRepo) FindByUserID(ctx context.Context, userID int) ([]*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*model.Order
	for _, order := range r.byID {
		if order.UserID == userID {
			result = append(result, order)
		}
	}
	return result, nil
}

// UpdateStatus 與資料庫實作一樣只在目前狀態等於 from 時轉換
func (r *memOrderRepo) UpdateStatus(ctx context.Context, id int, from, to model.OrderStatus) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrOrderNotFound
	}
	if order.Status != from {
		return nil, apperrors.ErrStateViolation
	}

	order.Status = to
	now := time.Now()
	order.UpdatedAt = now
	switch to {
	case model.OrderStatusPaid:
		order.PaidAt = &now
	case model.OrderStatusCancelled:
		order.CancelledAt = &now
	}
	return order, nil
}

func (r *memOrderRepo) GetUserTicketTypeOrderCount(ctx context.Context, userID int, ticketTypeID int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, order := range r.byID {
		if order.UserID != userID {
			continue
		}
		if order.Status == model.OrderStatusCancelled || order.Status == model.OrderStatusRefunded {
			continue
		}
		for _, line := range order.Lines {
			if line.TicketTypeID == ticketTypeID {
				count += line.Quantity
			}
		}
	}
	return count, nil
}

func (r *memOrderRepo) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, id)
	return nil
}

type memTicketRepo struct {
	mu      sync.Mutex
	tickets []*model.Ticket
	nextID  int
}

func newMemTicketRepo() *memTicketRepo {
	return &memTicketRepo{nextID: 1}
}

func (r *memTicketRepo) CreateBatch(ctx context.Context, tickets []*model.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range tickets {
		ticket.ID = r.nextID
		r.nextID++
		ticket.CreatedAt = time.Now()
		r.tickets = append(r.tickets, ticket)
	}
	return nil
}

func (r *memTicketRepo) ListByOrderID(ctx context.Context, orderID int) ([]*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*model.Ticket
	for _, ticket := range r.tickets {
		if ticket.OrderID == orderID {
			result = append(result, ticket)
		}
	}
	return result, nil
}

func (r *memTicketRepo) FindByRedemptionCode(ctx context.Context, code string) (*model.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.RedemptionCode == code {
			return ticket, nil
		}
	}
	return nil, apperrors.ErrTicketNotFound
}

// MarkUsed 對齊條件式更新：已用過或已作廢即回報 ErrTicketUsed
func (r *memTicketRepo) MarkUsed(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.ID == id {
			if ticket.Used || ticket.Void {
				return apperrors.ErrTicketUsed
			}
			ticket.Used = true
			now := time.Now()
			ticket.UsedAt = &now
			return nil
		}
	}
	return apperrors.ErrTicketNotFound
}

func (r *memTicketRepo) VoidByOrderID(ctx context.Context, orderID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.OrderID == orderID {
			ticket.Void = true
		}
	}
	return nil
}

type memDiscountRepo struct {
	mu     sync.Mutex
	byCode map[string]*model.DiscountCode
}

func newMemDiscountRepo(discounts ...*model.DiscountCode) *memDiscountRepo {
	repo := &memDiscountRepo{byCode: map[string]*model.DiscountCode{}}
	for _, discount := range discounts {
		repo.byCode[discount.Code] = discount
	}
	return repo
}

func (r *memDiscountRepo) Create(ctx context.Context, discount *model.DiscountCode) (*model.DiscountCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	discount.ID = len(r.byCode) + 1
	r.byCode[discount.Code] = discount
	return discount, nil
}

func (r *memDiscountRepo) FindByCode(ctx context.Context, code string) (*model.DiscountCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	discount, ok := r.byCode[code]
	if !ok {
		return nil, apperrors.ErrDiscountNotFound
	}
	return discount, nil
}

// Redeem 對齊條件式更新：次數用盡即回報 ErrDiscountExhausted
func (r *memDiscountRepo) Redeem(ctx context.Context, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	discount, ok := r.byCode[code]
	if !ok {
		return apperrors.ErrDiscountNotFound
	}
	if discount.MaxUses != nil && discount.UsedCount >= *discount.MaxUses {
		return apperrors.ErrDiscountExhausted
	}
	discount.UsedCount++
	return nil
}

func intPtr(v int) *int { return &v }
