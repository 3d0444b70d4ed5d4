package model

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus 訂單狀態類型
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// IsValid 驗證狀態是否有效
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	transitions := map[OrderStatus][]OrderStatus{
		OrderStatusPending:   {OrderStatusPaid, OrderStatusCancelled},
		OrderStatusPaid:      {OrderStatusRefunded},
		OrderStatusCancelled: {}, // 終態
		OrderStatusRefunded:  {}, // 終態
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// Order 訂單模型
type Order struct {
	ID             int         `json:"id" db:"id"`
	OrderID        uuid.UUID   `json:"order_id" db:"order_id"`
	UserID         int         `json:"user_id" db:"user_id"`
	EventID        int         `json:"event_id" db:"event_id"`
	Lines          []OrderLine `json:"lines" db:"-"`
	Subtotal       float64     `json:"subtotal" db:"subtotal"`
	DiscountAmount float64     `json:"discount_amount" db:"discount_amount"`
	// Total = max(0, Subtotal - DiscountAmount)
	Total         float64     `json:"total" db:"total"`
	DiscountCode  *string     `json:"discount_code,omitempty" db:"discount_code"`
	PaymentMethod string      `json:"payment_method" db:"payment_method"`
	Status        OrderStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
	PaidAt        *time.Time  `json:"paid_at,omitempty" db:"paid_at"`
	CancelledAt   *time.Time  `json:"cancelled_at,omitempty" db:"cancelled_at"`
	DeletedAt     *time.Time  `json:"deleted_at,omitempty" db:"deleted_at"`
}

// OrderLine 訂單明細：一個票種一行
type OrderLine struct {
	ID           int     `json:"id" db:"id"`
	OrderID      int     `json:"order_id" db:"order_id"`
	TicketTypeID int     `json:"ticket_type_id" db:"ticket_type_id"`
	UnitPrice    float64 `json:"unit_price" db:"unit_price"`
	Quantity     int     `json:"quantity" db:"quantity"`
}

// IsDeleted 檢查訂單是否已刪除
func (o *Order) IsDeleted() bool {
	return o.DeletedAt != nil
}

// TotalQuantity 訂單總票數
func (o *Order) TotalQuantity() int {
	total := 0
	for _, line := range o.Lines {
		total += line.Quantity
	}
	return total
}

// CreateOrderRequest 創建訂單請求
type CreateOrderRequest struct {
	UserID        int                `json:"user_id" binding:"required"`
	EventID       int                `json:"event_id" binding:"required"`
	Lines         []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
	DiscountCode  string             `json:"discount_code"`
	PaymentMethod string             `json:"payment_method" binding:"required"`
}

type OrderLineRequest struct {
	TicketTypeID int `json:"ticket_type_id" binding:"required"`
	Quantity     int `json:"quantity" binding:"required,min=1"`
}

// PaymentOutcome 支付結果：由外部金流回報，本系統只記錄結果
type PaymentOutcome struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference"`
}
