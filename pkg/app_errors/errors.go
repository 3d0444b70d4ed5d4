package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrEventNotFound      = errors.New("event not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrDiscountNotFound   = errors.New("discount code not found")

	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict 樂觀鎖重試次數用盡，屬暫時性錯誤，呼叫方可重試
	ErrConflict = errors.New("transaction conflict")

	ErrInvalidInput        = errors.New("invalid input")
	ErrStateViolation      = errors.New("order state transition not allowed")
	ErrExceedsMaxPerUser   = errors.New("exceeds max per user")
	ErrInternalServerError = errors.New("internal server error")

	ErrDiscountNotYetActive = errors.New("discount code not yet active")
	ErrDiscountExpired      = errors.New("discount code expired")
	ErrDiscountNotEligible  = errors.New("discount code not eligible for event")
	ErrDiscountExhausted    = errors.New("discount code usage exhausted")

	ErrTicketUsed = errors.New("ticket already used")
	ErrTicketVoid = errors.New("ticket voided")
)

// InsufficientStockError 庫存不足的詳細資訊，讓 UI 可以提示剩餘數量
type InsufficientStockError struct {
	TicketTypeID int
	Requested    int
	Available    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for ticket type %d: requested %d, available %d",
		e.TicketTypeID, e.Requested, e.Available)
}

// Is 讓 errors.Is(err, ErrInsufficientStock) 成立
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}
