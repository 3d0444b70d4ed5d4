package inventory

import (
	"context"
	"errors"

	apperrors "go-ticket-storefront/pkg/app_errors"
	"go-ticket-storefront/pkg/logger"

	"go.uber.org/zap"
)

const DefaultMaxRetries = 5

// Line 預訂請求的一行：一個票種與數量
type Line struct {
	TicketTypeID int
	Quantity     int
}

// Engine 庫存預訂引擎。每筆 (活動, 票種) 各自用帶上限的 CAS 迴圈扣減，
// 不同票種之間互不阻塞；多行請求為全有或全無。
type Engine struct {
	store      LedgerStore
	cache      AvailabilityCache // 可為 nil，寫入後盡力刷新
	maxRetries int
}

func NewEngine(store LedgerStore, cache AvailabilityCache, maxRetries int) *Engine {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Engine{
		store:      store,
		cache:      cache,
		maxRetries: maxRetries,
	}
}

// Reserve 原子扣減各行庫存。任何一行不足時，已扣減的行會逆序回補，
// 帳本保持未動。庫存不足回傳 *apperrors.InsufficientStockError，
// 重試用盡回傳 apperrors.ErrConflict。
func (e *Engine) Reserve(ctx context.Context, eventID int, lines []Line) error {
	if err := validateLines(lines); err != nil {
		return err
	}

	committed := make([]Line, 0, len(lines))
	for _, line := range lines {
		if err := e.adjust(ctx, Key{EventID: eventID, TicketTypeID: line.TicketTypeID}, line.Quantity); err != nil {
			e.rollback(eventID, committed)
			return err
		}
		committed = append(committed, line)
	}
	return nil
}

// Release 回補先前成功預訂的數量（取消/退款路徑）。
// 回補量若會讓 sold 低於零，回傳 ErrInvalidInput 且不動帳本。
func (e *Engine) Release(ctx context.Context, eventID int, lines []Line) error {
	if err := validateLines(lines); err != nil {
		return err
	}

	for _, line := range lines {
		if err := e.adjust(ctx, Key{EventID: eventID, TicketTypeID: line.TicketTypeID}, -line.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Availability 單筆查詢：先讀快取，未命中退回帳本並回填
func (e *Engine) Availability(ctx context.Context, eventID, ticketTypeID int) (Availability, error) {
	key := Key{EventID: eventID, TicketTypeID: ticketTypeID}

	if e.cache != nil {
		av, err := e.cache.GetAvailability(ctx, key)
		if err == nil {
			return av, nil
		}
	}

	entry, err := e.store.Get(ctx, key)
	if err != nil {
		return Availability{}, err
	}
	av := Availability{Available: entry.Capacity - entry.Sold, Capacity: entry.Capacity}
	e.refreshCache(key, av)
	return av, nil
}

// AvailabilityBatch 批次查詢，供購物車整車輪詢，避免一行一個來回
func (e *Engine) AvailabilityBatch(ctx context.Context, keys []Key) (map[Key]Availability, error) {
	result := make(map[Key]Availability, len(keys))
	for _, key := range keys {
		av, err := e.Availability(ctx, key.EventID, key.TicketTypeID)
		if err != nil {
			return nil, err
		}
		result[key] = av
	}
	return result, nil
}

// adjust 對單筆帳本紀錄做帶重試的讀-改-寫。delta 為正是預訂、為負是回補。
func (e *Engine) adjust(ctx context.Context, key Key, delta int) error {
	for attempt := 0; attempt < e.maxRetries; attempt++ {
		entry, err := e.store.Get(ctx, key)
		if err != nil {
			return err
		}

		next := entry.Sold + delta
		if next > entry.Capacity {
			return &apperrors.InsufficientStockError{
				TicketTypeID: key.TicketTypeID,
				Requested:    delta,
				Available:    entry.Capacity - entry.Sold,
			}
		}
		if next < 0 {
			return apperrors.ErrInvalidInput
		}

		entry.Sold = next
		err = e.store.CompareAndSwap(ctx, entry)
		if err == nil {
			e.refreshCache(key, Availability{Available: entry.Capacity - entry.Sold, Capacity: entry.Capacity})
			return nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return err
		}
	}
	return apperrors.ErrConflict
}

// rollback 回補本次呼叫已扣減的行，逆序執行。
// 使用 context.Background()：即使請求已取消也要把庫存還回去。
func (e *Engine) rollback(eventID int, committed []Line) {
	ctx := context.Background()
	for i := len(committed) - 1; i >= 0; i-- {
		line := committed[i]
		if err := e.adjust(ctx, Key{EventID: eventID, TicketTypeID: line.TicketTypeID}, -line.Quantity); err != nil {
			logger.WithComponent("inventory").Error("rollback failed",
				zap.Int("event_id", eventID),
				zap.Int("ticket_type_id", line.TicketTypeID),
				zap.Int("quantity", line.Quantity),
				zap.Error(err))
		}
	}
}

func (e *Engine) refreshCache(key Key, av Availability) {
	if e.cache == nil {
		return
	}
	if err := e.cache.SetAvailability(context.Background(), key, av); err != nil {
		logger.WithComponent("inventory").Warn("availability cache refresh failed",
			zap.Int("ticket_type_id", key.TicketTypeID), zap.Error(err))
	}
}

func validateLines(lines []Line) error {
	if len(lines) == 0 {
		return apperrors.ErrInvalidInput
	}
	for _, line := range lines {
		if line.Quantity <= 0 {
			return apperrors.ErrInvalidInput
		}
	}
	return nil
}
