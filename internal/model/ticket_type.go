package model

import (
	"time"

	"github.com/google/uuid"
)

// TicketType 票種模型，同時是庫存帳本：capacity / sold 由預訂引擎獨佔寫入
type TicketType struct {
	ID           int       `json:"id" db:"id"`
	TicketTypeID uuid.UUID `json:"ticket_type_id" db:"ticket_type_id"`
	EventID      int       `json:"event_id" db:"event_id"`
	Name         string    `json:"name" db:"name"`
	Price        float64   `json:"price" db:"price"`
	Capacity     int       `json:"capacity" db:"capacity"`
	Sold         int       `json:"sold" db:"sold"`
	// Version 樂觀鎖版本號，CAS 寫入時比對
	Version    int64      `json:"-" db:"version"`
	MaxPerUser int        `json:"max_per_user" db:"max_per_user"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

type UpdateTicketTypeParams struct {
	Name       *string
	Price      *float64
	MaxPerUser *int
}

// IsDeleted 檢查票種是否已刪除
func (t *TicketType) IsDeleted() bool {
	return t.DeletedAt != nil
}

// Available 剩餘可售數量
func (t *TicketType) Available() int {
	return t.Capacity - t.Sold
}

// TicketTypeResponse 票種響應
type TicketTypeResponse struct {
	ID         int     `json:"id"`
	EventID    int     `json:"event_id"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Capacity   int     `json:"capacity"`
	Available  int     `json:"available"`
	MaxPerUser int     `json:"max_per_user"`
}
