package model

// Cart 購物車，由客戶端持有、非權威：結帳時一律重新驗證
type Cart struct {
	EventID      int        `json:"event_id" binding:"required"`
	Lines        []CartLine `json:"lines" binding:"required,min=1,dive"`
	DiscountCode string     `json:"discount_code"`
}

type CartLine struct {
	TicketTypeID int `json:"ticket_type_id" binding:"required"`
	Quantity     int `json:"quantity" binding:"required,min=1"`
}

// CartLineStatus 購物車單行的即時可售狀態，僅供 UI 提示，非保證
type CartLineStatus struct {
	TicketTypeID int     `json:"ticket_type_id"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	Available    int     `json:"available"`
	Sufficient   bool    `json:"sufficient"`
}

// CartValidation 整車驗證結果
type CartValidation struct {
	Lines          []CartLineStatus `json:"lines"`
	Subtotal       float64          `json:"subtotal"`
	DiscountAmount float64          `json:"discount_amount"`
	Total          float64          `json:"total"`
	DiscountError  string           `json:"discount_error,omitempty"`
}
