package inventory

import "context"

// Key 庫存帳本的鍵：一個 (活動, 票種) 一筆
type Key struct {
	EventID      int
	TicketTypeID int
}

// Entry 庫存帳本紀錄。Sold 恆在 [0, Capacity] 內，由引擎的 CAS 迴圈保證
type Entry struct {
	Key      Key
	Capacity int
	Sold     int
	Version  int64
}

// Availability 供 UI 輪詢的剩餘數量，允許過期，權威檢查永遠是 Reserve
type Availability struct {
	Available int `json:"available"`
	Capacity  int `json:"capacity"`
}

// LedgerStore 底層儲存的原子操作抽象：讀取單筆紀錄、帶版本比對寫回。
// CompareAndSwap 在版本不符時回傳 apperrors.ErrConflict，由引擎重試。
type LedgerStore interface {
	Get(ctx context.Context, key Key) (Entry, error)
	CompareAndSwap(ctx context.Context, next Entry) error
}

// AvailabilityCache 非交易性的可售數量快取，查不到或失敗時退回 LedgerStore
type AvailabilityCache interface {
	GetAvailability(ctx context.Context, key Key) (Availability, error)
	SetAvailability(ctx context.Context, key Key, av Availability) error
}
