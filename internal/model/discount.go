package model

import "time"

// DiscountType 折扣類型
type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

// IsValid 驗證折扣類型是否有效
func (t DiscountType) IsValid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFixedAmount
}

// DiscountCode 折扣碼，以大寫正規化後的字串為唯一鍵
type DiscountCode struct {
	ID         int          `json:"id" db:"id"`
	Code       string       `json:"code" db:"code"`
	Type       DiscountType `json:"type" db:"type"`
	Value      float64      `json:"value" db:"value"`
	ValidFrom  time.Time    `json:"valid_from" db:"valid_from"`
	ValidUntil time.Time    `json:"valid_until" db:"valid_until"`
	// MaxUses nil 表示不限次數
	MaxUses   *int `json:"max_uses,omitempty" db:"max_uses"`
	UsedCount int  `json:"used_count" db:"used_count"`
	// ApplicableEventIDs 空表示適用全部活動
	ApplicableEventIDs []int64   `json:"applicable_event_ids,omitempty" db:"applicable_event_ids"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// AppliesToEvent 檢查折扣碼是否適用於指定活動
func (d *DiscountCode) AppliesToEvent(eventID int) bool {
	if len(d.ApplicableEventIDs) == 0 {
		return true
	}
	for _, id := range d.ApplicableEventIDs {
		if int(id) == eventID {
			return true
		}
	}
	return false
}

// ValidateDiscountRequest 折扣碼驗證請求（唯讀，不消耗次數）
type ValidateDiscountRequest struct {
	Code     string  `json:"code" binding:"required"`
	EventID  int     `json:"event_id"`
	Subtotal float64 `json:"subtotal" binding:"required"`
}

// ValidateDiscountResponse 折扣碼驗證響應
type ValidateDiscountResponse struct {
	Valid          bool    `json:"valid"`
	DiscountAmount float64 `json:"discount_amount"`
	Reason         string  `json:"reason,omitempty"`
}
