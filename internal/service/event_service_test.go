package service

import (
	"context"
	"testing"

	"go-ticket-storefront/internal/inventory"
	"go-ticket-storefront/internal/model"
	apperrors "go-ticket-storefront/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memEventRepo struct {
	byID   map[int]*model.Event
	nextID int
}

func newMemEventRepo(events ...*model.Event) *memEventRepo {
	repo := &memEventRepo{byID: map[int]*model.Event{}, nextID: 1}
	for _, event := range events {
		repo.byID[event.ID] = event
		if event.ID >= repo.nextID {
			repo.nextID = event.ID + 1
		}
	}
	return repo
}

func (r *memEventRepo) Create(ctx context.Context, event *model.Event) (*model.Event, error) {
	event.ID = r.nextID
	r.nextID++
	r.byID[event.ID] = event
	return event, nil
}

func (r *memEventRepo) List(ctx context.Context) ([]*model.Event, error) {
	var result []*model.Event
	for _, event := range r.byID {
		result = append(result, event)
	}
	return result, nil
}

func (r *memEventRepo) FindByID(ctx context.Context, id int) (*model.Event, error) {
	event, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	return event, nil
}

func (r *memEventRepo) FindByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	for _, event := range r.byID {
		if event.EventID == eventID {
			return event, nil
		}
	}
	return nil, apperrors.ErrEventNotFound
}

func (r *memEventRepo) Update(ctx context.Context, id int, values map[string]interface{}) (*model.Event, error) {
	event, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if name, ok := values["name"].(string); ok {
		event.Name = name
	}
	return event, nil
}

func (r *memEventRepo) MarkOnSale(ctx context.Context, id int) error {
	event, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	event.OnSale = true
	return nil
}

func (r *memEventRepo) Delete(ctx context.Context, id int) error {
	delete(r.byID, id)
	return nil
}

// recordingWarmer 記錄預熱呼叫
type recordingWarmer struct {
	warmed map[inventory.Key][2]int
}

func (w *recordingWarmer) WarmUp(ctx context.Context, key inventory.Key, capacity, sold int) error {
	if w.warmed == nil {
		w.warmed = map[inventory.Key][2]int{}
	}
	w.warmed[key] = [2]int{capacity, sold}
	return nil
}

func TestOpenForSale_WarmsAvailability(t *testing.T) {
	ctx := context.Background()
	eventID := uuid.New()
	eventRepo := newMemEventRepo(&model.Event{ID: 1, EventID: eventID, Name: "Concert"})
	ticketTypeRepo := newMemTicketTypeRepo(
		&model.TicketType{ID: 10, EventID: 1, Price: 500, Capacity: 100, Sold: 3},
		&model.TicketType{ID: 11, EventID: 1, Price: 800, Capacity: 20},
	)
	warmer := &recordingWarmer{}
	svc := NewEventService(eventRepo, ticketTypeRepo, warmer)

	require.NoError(t, svc.OpenForSale(ctx, eventID))

	event, _ := eventRepo.FindByID(ctx, 1)
	assert.True(t, event.OnSale)

	require.Len(t, warmer.warmed, 2)
	assert.Equal(t, [2]int{100, 3}, warmer.warmed[inventory.Key{EventID: 1, TicketTypeID: 10}])
	assert.Equal(t, [2]int{20, 0}, warmer.warmed[inventory.Key{EventID: 1, TicketTypeID: 11}])
}

func TestOpenForSale_UnknownEvent(t *testing.T) {
	svc := NewEventService(newMemEventRepo(), newMemTicketTypeRepo(), nil)

	err := svc.OpenForSale(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrEventNotFound)
}

func TestEventCreate_AssignsEventID(t *testing.T) {
	svc := NewEventService(newMemEventRepo(), newMemTicketTypeRepo(), nil)

	created, err := svc.Create(context.Background(), &model.Event{Name: "Expo"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.EventID)
}
