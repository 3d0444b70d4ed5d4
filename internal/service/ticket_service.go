package service

import (
	"context"
	"strings"

	"go-ticket-storefront/internal/model"
	"go-ticket-storefront/internal/repository"
	apperrors "go-ticket-storefront/pkg/app_errors"
)

// TicketService 掃描端核銷介面：單文件更新，不屬於預訂核心
type TicketService interface {
	// RedeemTicket 以核銷碼核銷：翻轉 used，第二次掃描會被拒絕
	RedeemTicket(ctx context.Context, code string) (*model.Ticket, error)
}

type TicketServiceImpl struct {
	repo repository.TicketRepository
}

func NewTicketService(repo repository.TicketRepository) TicketService {
	return &TicketServiceImpl{repo: repo}
}

func (s *TicketServiceImpl) RedeemTicket(ctx context.Context, code string) (*model.Ticket, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, apperrors.ErrInvalidInput
	}

	ticket, err := s.repo.FindByRedemptionCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if ticket.Void {
		return nil, apperrors.ErrTicketVoid
	}
	if ticket.Used {
		return nil, apperrors.ErrTicketUsed
	}

	if err := s.repo.MarkUsed(ctx, ticket.ID); err != nil {
		return nil, err
	}

	ticket.Used = true
	return ticket, nil
}
