package model

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID          int        `json:"id" db:"id"`
	EventID     uuid.UUID  `json:"event_id" db:"event_id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description,omitempty" db:"description"`
	// OnSale 開賣後票種容量凍結，不可再調整
	OnSale    bool       `json:"on_sale" db:"on_sale"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

type UpdateEventParams struct {
	Name        *string
	Description *string
}

// IsDeleted 檢查活動是否已刪除
func (e *Event) IsDeleted() bool {
	return e.DeletedAt != nil
}
