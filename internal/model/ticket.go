package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Ticket 已售出票券，訂單付款後才鑄造
type Ticket struct {
	ID           int       `json:"id" db:"id"`
	TicketID     uuid.UUID `json:"ticket_id" db:"ticket_id"`
	OrderID      int       `json:"order_id" db:"order_id"`
	EventID      int       `json:"event_id" db:"event_id"`
	TicketTypeID int       `json:"ticket_type_id" db:"ticket_type_id"`
	// RedemptionCode 全域唯一入場核銷碼
	RedemptionCode string     `json:"redemption_code" db:"redemption_code"`
	Used           bool       `json:"used" db:"used"`
	UsedAt         *time.Time `json:"used_at,omitempty" db:"used_at"`
	// Void 退款後作廢，保留紀錄避免核銷碼被重發
	Void      bool      `json:"void" db:"void"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewRedemptionCode 產生全域唯一核銷碼
func NewRedemptionCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
}

// RedeemTicketRequest 掃描核銷請求
type RedeemTicketRequest struct {
	Code string `json:"code" binding:"required"`
}
