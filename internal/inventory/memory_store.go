package inventory

import (
	"context"
	"sync"

	apperrors "go-ticket-storefront/pkg/app_errors"
)

// MemoryLedgerStore 記憶體版帳本，實作與底層儲存相同的 CAS 契約。
// 測試與單機執行使用。
type MemoryLedgerStore struct {
	mu      sync.Mutex
	entries map[Key]Entry
}

func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{
		entries: make(map[Key]Entry),
	}
}

// Put 建立或覆寫一筆帳本紀錄（票種定義時呼叫）
func (s *MemoryLedgerStore) Put(entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Key] = entry
}

func (s *MemoryLedgerStore) Get(ctx context.Context, key Key) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return Entry{}, apperrors.ErrTicketTypeNotFound
	}
	return entry, nil
}

func (s *MemoryLedgerStore) CompareAndSwap(ctx context.Context, next Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.entries[next.Key]
	if !ok {
		return apperrors.ErrTicketTypeNotFound
	}
	if current.Version != next.Version {
		return apperrors.ErrConflict
	}

	next.Version++
	s.entries[next.Key] = next
	return nil
}
