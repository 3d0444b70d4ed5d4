package service

import (
	"context"

	"go-ticket-storefront/internal/model"
	"go-ticket-storefront/internal/repository"
	apperrors "go-ticket-storefront/pkg/app_errors"

	"github.com/google/uuid"
)

type TicketTypeService interface {
	ListByEventID(ctx context.Context, eventID uuid.UUID) ([]*model.TicketType, error)
	GetByTicketTypeID(ctx context.Context, ticketTypeID uuid.UUID) (*model.TicketType, error)
	Create(ctx context.Context, ticketType *model.TicketType) (*model.TicketType, error)
	UpdateByTicketTypeID(ctx context.Context, ticketTypeID uuid.UUID, params model.UpdateTicketTypeParams) (*model.TicketType, error)
	DeleteByTicketTypeID(ctx context.Context, ticketTypeID uuid.UUID) error
}

type TicketTypeServiceImpl struct {
	repo      repository.TicketTypeRepository
	eventRepo repository.EventRepository
}

func NewTicketTypeService(repo repository.TicketTypeRepository, eventRepo repository.EventRepository) TicketTypeService {
	return &TicketTypeServiceImpl{repo: repo, eventRepo: eventRepo}
}

func (s *TicketTypeServiceImpl) ListByEventID(ctx context.Context, eventID uuid.UUID) ([]*model.TicketType, error) {
	event, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByEventID(ctx, event.ID)
}

func (s *TicketTypeServiceImpl) GetByTicketTypeID(ctx context.Context, ticketTypeID uuid.UUID) (*model.TicketType, error) {
	return s.repo.FindByTicketTypeID(ctx, ticketTypeID)
}

func (s *TicketTypeServiceImpl) Create(ctx context.Context, ticketType *model.TicketType) (*model.TicketType, error) {
	if ticketType.Capacity < 0 || ticketType.Price < 0 {
		return nil, apperrors.ErrInvalidInput
	}

	event, err := s.eventRepo.FindByID(ctx, ticketType.EventID)
	if err != nil {
		return nil, err
	}
	// 開賣後容量凍結，不再接受新票種
	if event.OnSale {
		return nil, apperrors.ErrInvalidInput
	}

	ticketType.TicketTypeID = uuid.New()
	return s.repo.Create(ctx, ticketType)
}

func (s *TicketTypeServiceImpl) UpdateByTicketTypeID(ctx context.Context, ticketTypeID uuid.UUID, params model.UpdateTicketTypeParams) (*model.TicketType, error) {
	ticketType, err := s.repo.FindByTicketTypeID(ctx, ticketTypeID)
	if err != nil {
		return nil, err
	}

	values := map[string]interface{}{}
	if params.Name != nil {
		values["name"] = *params.Name
	}
	if params.Price != nil {
		values["price"] = *params.Price
	}
	if params.MaxPerUser != nil {
		values["max_per_user"] = *params.MaxPerUser
	}

	return s.repo.Update(ctx, ticketType.ID, values)
}

func (s *TicketTypeServiceImpl) DeleteByTicketTypeID(ctx context.Context, ticketTypeID uuid.UUID) error {
	ticketType, err := s.repo.FindByTicketTypeID(ctx, ticketTypeID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, ticketType.ID)
}
