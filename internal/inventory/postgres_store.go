package inventory

import (
	"context"
	"time"

	apperrors "go-ticket-storefront/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedgerStore 把票種資料列上的 capacity / sold / version 當作帳本。
// 條件式 UPDATE 帶版本比對就是 CAS：0 列受影響即為衝突，交給引擎重試。
type PostgresLedgerStore struct {
	pool *pgxpool.Pool
}

func NewPostgresLedgerStore(pool *pgxpool.Pool) *PostgresLedgerStore {
	return &PostgresLedgerStore{
		pool: pool,
	}
}

func (s *PostgresLedgerStore) Get(ctx context.Context, key Key) (Entry, error) {
	query := `
		SELECT capacity, sold, version
		FROM ticket_types
		WHERE id = $1 AND event_id = $2 AND deleted_at IS NULL
	`

	entry := Entry{Key: key}
	err := s.pool.QueryRow(ctx, query, key.TicketTypeID, key.EventID).Scan(
		&entry.Capacity,
		&entry.Sold,
		&entry.Version,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Entry{}, apperrors.ErrTicketTypeNotFound
		}
		return Entry{}, err
	}

	return entry, nil
}

func (s *PostgresLedgerStore) CompareAndSwap(ctx context.Context, next Entry) error {
	query := `
		UPDATE ticket_types
		SET sold = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND event_id = $4 AND version = $5
		  AND $1 BETWEEN 0 AND capacity
		  AND deleted_at IS NULL
	`

	result, err := s.pool.Exec(ctx, query,
		next.Sold, time.Now().UTC(), next.Key.TicketTypeID, next.Key.EventID, next.Version,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		// 版本不符或守門條件擋下，讓引擎重讀後決定
		return apperrors.ErrConflict
	}

	return nil
}
