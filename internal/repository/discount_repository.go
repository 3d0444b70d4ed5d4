package repository

import (
	"context"
	"time"

	"go-ticket-storefront/internal/model"
	apperrors "go-ticket-storefront/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DiscountRepository interface {
	Create(ctx context.Context, discount *model.DiscountCode) (*model.DiscountCode, error)
	// FindByCode 唯讀查詢，驗證用，不消耗使用次數
	FindByCode(ctx context.Context, code string) (*model.DiscountCode, error)
	// Redeem 原子消耗一次使用：used_count < max_uses 的條件式更新就是
	// 每個折扣碼自己的 CAS，兩張訂單搶最後一次只會有一張成功
	Redeem(ctx context.Context, code string) error
}

type DiscountRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewDiscountRepository(pool *pgxpool.Pool) DiscountRepository {
	return &DiscountRepositoryImpl{
		pool: pool,
	}
}

func (r *DiscountRepositoryImpl) Create(ctx context.Context, discount *model.DiscountCode) (*model.DiscountCode, error) {
	query := `
		INSERT INTO discount_codes (
			code, type, value, valid_from, valid_until, max_uses, applicable_event_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, used_count, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		discount.Code, discount.Type, discount.Value,
		discount.ValidFrom, discount.ValidUntil,
		discount.MaxUses, discount.ApplicableEventIDs,
	).Scan(
		&discount.ID,
		&discount.UsedCount,
		&discount.CreatedAt,
		&discount.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return discount, nil
}

func (r *DiscountRepositoryImpl) FindByCode(ctx context.Context, code string) (*model.DiscountCode, error) {
	query := `
		SELECT id, code, type, value, valid_from, valid_until,
		       max_uses, used_count, applicable_event_ids, created_at, updated_at
		FROM discount_codes
		WHERE code = $1
	`

	var discount model.DiscountCode
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&discount.ID,
		&discount.Code,
		&discount.Type,
		&discount.Value,
		&discount.ValidFrom,
		&discount.ValidUntil,
		&discount.MaxUses,
		&discount.UsedCount,
		&discount.ApplicableEventIDs,
		&discount.CreatedAt,
		&discount.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrDiscountNotFound
		}
		return nil, err
	}

	return &discount, nil
}

func (r *DiscountRepositoryImpl) Redeem(ctx context.Context, code string) error {
	query := `
		UPDATE discount_codes
		SET used_count = used_count + 1, updated_at = $1
		WHERE code = $2 AND (max_uses IS NULL OR used_count < max_uses)
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), code)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		if _, findErr := r.FindByCode(ctx, code); findErr != nil {
			return findErr
		}
		return apperrors.ErrDiscountExhausted
	}

	return nil
}
