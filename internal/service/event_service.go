package service

import (
	"context"

	"go-ticket-storefront/internal/inventory"
	"go-ticket-storefront/internal/model"
	"go-ticket-storefront/internal/repository"

	"github.com/google/uuid"
)

// AvailabilityWarmer 開賣時預熱可售數量快取
type AvailabilityWarmer interface {
	WarmUp(ctx context.Context, key inventory.Key, capacity, sold int) error
}

type EventService interface {
	List(ctx context.Context) ([]*model.Event, error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	Create(ctx context.Context, event *model.Event) (*model.Event, error)
	UpdateByEventID(ctx context.Context, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error)
	DeleteByEventID(ctx context.Context, eventID uuid.UUID) error
	// OpenForSale 活動開賣：容量凍結，並預熱所有票種的可售數量快取
	OpenForSale(ctx context.Context, eventID uuid.UUID) error
}

type EventServiceImpl struct {
	repo           repository.EventRepository
	ticketTypeRepo repository.TicketTypeRepository
	warmer         AvailabilityWarmer
}

func NewEventService(repo repository.EventRepository, ticketTypeRepo repository.TicketTypeRepository, warmer AvailabilityWarmer) EventService {
	return &EventServiceImpl{repo: repo, ticketTypeRepo: ticketTypeRepo, warmer: warmer}
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventServiceImpl) GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	return s.repo.FindByEventID(ctx, eventID)
}

func (s *EventServiceImpl) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	if event.EventID == uuid.Nil {
		event.EventID = uuid.New()
	}
	return s.repo.Create(ctx, event)
}

func (s *EventServiceImpl) UpdateByEventID(ctx context.Context, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	values := map[string]interface{}{}
	if params.Name != nil {
		values["name"] = *params.Name
	}
	if params.Description != nil {
		values["description"] = *params.Description
	}

	return s.repo.Update(ctx, event.ID, values)
}

func (s *EventServiceImpl) DeleteByEventID(ctx context.Context, eventID uuid.UUID) error {
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, event.ID)
}

func (s *EventServiceImpl) OpenForSale(ctx context.Context, eventID uuid.UUID) error {
	event, err := s.repo.FindByEventID(ctx, eventID)
	if err != nil {
		return err
	}

	if err := s.repo.MarkOnSale(ctx, event.ID); err != nil {
		return err
	}

	if s.warmer == nil {
		return nil
	}

	ticketTypes, err := s.ticketTypeRepo.ListByEventID(ctx, event.ID)
	if err != nil {
		return err
	}
	for _, t := range ticketTypes {
		key := inventory.Key{EventID: event.ID, TicketTypeID: t.ID}
		if err := s.warmer.WarmUp(ctx, key, t.Capacity, t.Sold); err != nil {
			return err
		}
	}
	return nil
}
