package service

import (
	"context"
	"strings"
	"time"

	"go-ticket-storefront/internal/model"
	"go-ticket-storefront/internal/repository"
	apperrors "go-ticket-storefront/pkg/app_errors"
)

// NormalizeDiscountCode 折扣碼以大寫正規化後查找
func NormalizeDiscountCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type DiscountService interface {
	// Validate 唯讀驗證：回傳折扣金額，不消耗使用次數。
	// 消耗發生在付款確認時，避免折扣碼被不會成單的購物車吃掉。
	Validate(ctx context.Context, code string, eventID int, subtotal float64) (float64, error)
	Create(ctx context.Context, discount *model.DiscountCode) (*model.DiscountCode, error)
}

type DiscountServiceImpl struct {
	repo repository.DiscountRepository
	// now 可注入的時鐘，測試時固定時間
	now func() time.Time
}

func NewDiscountService(repo repository.DiscountRepository) *DiscountServiceImpl {
	return &DiscountServiceImpl{
		repo: repo,
		now:  time.Now,
	}
}

// NewDiscountServiceWithClock 測試用：注入固定時鐘
func NewDiscountServiceWithClock(repo repository.DiscountRepository, now func() time.Time) *DiscountServiceImpl {
	return &DiscountServiceImpl{
		repo: repo,
		now:  now,
	}
}

func (s *DiscountServiceImpl) Validate(ctx context.Context, code string, eventID int, subtotal float64) (float64, error) {
	if subtotal < 0 {
		return 0, apperrors.ErrInvalidInput
	}

	discount, err := s.repo.FindByCode(ctx, NormalizeDiscountCode(code))
	if err != nil {
		return 0, err
	}

	now := s.now()
	if now.Before(discount.ValidFrom) {
		return 0, apperrors.ErrDiscountNotYetActive
	}
	if now.After(discount.ValidUntil) {
		return 0, apperrors.ErrDiscountExpired
	}
	if !discount.AppliesToEvent(eventID) {
		return 0, apperrors.ErrDiscountNotEligible
	}
	if discount.MaxUses != nil && discount.UsedCount >= *discount.MaxUses {
		return 0, apperrors.ErrDiscountExhausted
	}

	return discountAmount(discount, subtotal), nil
}

func (s *DiscountServiceImpl) Create(ctx context.Context, discount *model.DiscountCode) (*model.DiscountCode, error) {
	discount.Code = NormalizeDiscountCode(discount.Code)
	if discount.Code == "" || !discount.Type.IsValid() {
		return nil, apperrors.ErrInvalidInput
	}
	if discount.Type == model.DiscountTypePercentage && (discount.Value <= 0 || discount.Value > 100) {
		return nil, apperrors.ErrInvalidInput
	}
	if discount.Type == model.DiscountTypeFixedAmount && discount.Value <= 0 {
		return nil, apperrors.ErrInvalidInput
	}
	if discount.MaxUses != nil && *discount.MaxUses <= 0 {
		return nil, apperrors.ErrInvalidInput
	}

	return s.repo.Create(ctx, discount)
}

// discountAmount 折扣金額永不超過小計，保證 total >= 0
func discountAmount(discount *model.DiscountCode, subtotal float64) float64 {
	var amount float64
	switch discount.Type {
	case model.DiscountTypePercentage:
		amount = subtotal * discount.Value / 100
	case model.DiscountTypeFixedAmount:
		amount = discount.Value
	}
	if amount > subtotal {
		amount = subtotal
	}
	return amount
}
