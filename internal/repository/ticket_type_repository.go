package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-ticket-storefront/internal/model"
	apperrors "go-ticket-storefront/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketTypeRepository interface {
	Create(ctx context.Context, ticketType *model.TicketType) (*model.TicketType, error)
	ListByEventID(ctx context.Context, eventID int) ([]*model.TicketType, error)
	FindByID(ctx context.Context, id int) (*model.TicketType, error)
	FindByTicketTypeID(ctx context.Context, ticketTypeID uuid.UUID) (*model.TicketType, error)
	Update(ctx context.Context, id int, values map[string]interface{}) (*model.TicketType, error)
	Delete(ctx context.Context, id int) error
}

type TicketTypeRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketTypeRepository(pool *pgxpool.Pool) TicketTypeRepository {
	return &TicketTypeRepositoryImpl{
		pool: pool,
	}
}

func (r *TicketTypeRepositoryImpl) Create(ctx context.Context, ticketType *model.TicketType) (*model.TicketType, error) {
	query := `
		INSERT INTO ticket_types (
		ticket_type_id, event_id, name, price, capacity, sold, max_per_user)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		RETURNING id, ticket_type_id, event_id, name, price, capacity, sold,
			version, max_per_user, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		ticketType.TicketTypeID, ticketType.EventID, ticketType.Name,
		ticketType.Price, ticketType.Capacity, ticketType.MaxPerUser,
	).Scan(
		&ticketType.ID,
		&ticketType.TicketTypeID,
		&ticketType.EventID,
		&ticketType.Name,
		&ticketType.Price,
		&ticketType.Capacity,
		&ticketType.Sold,
		&ticketType.Version,
		&ticketType.MaxPerUser,
		&ticketType.CreatedAt,
		&ticketType.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return ticketType, nil
}

func (r *TicketTypeRepositoryImpl) ListByEventID(ctx context.Context, eventID int) ([]*model.TicketType, error) {
	query := `
		SELECT id, ticket_type_id, event_id, name, price, capacity, sold,
				version, max_per_user, created_at, updated_at, deleted_at
		FROM ticket_types
		WHERE event_id = $1 AND deleted_at IS NULL
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ticketTypes := make([]*model.TicketType, 0)

	for rows.Next() {
		var ticketType model.TicketType
		err := rows.Scan(
			&ticketType.ID,
			&ticketType.TicketTypeID,
			&ticketType.EventID,
			&ticketType.Name,
			&ticketType.Price,
			&ticketType.Capacity,
			&ticketType.Sold,
			&ticketType.Version,
			&ticketType.MaxPerUser,
			&ticketType.CreatedAt,
			&ticketType.UpdatedAt,
			&ticketType.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		ticketTypes = append(ticketTypes, &ticketType)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return ticketTypes, nil
}

func (r *TicketTypeRepositoryImpl) FindByID(ctx context.Context, id int) (*model.TicketType, error) {
	query := `
		SELECT id, ticket_type_id, event_id, name, price, capacity, sold,
				version, max_per_user, created_at, updated_at, deleted_at
		FROM ticket_types
		WHERE id = $1 AND deleted_at IS NULL
	`

	var ticketType model.TicketType
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticketType.ID,
		&ticketType.TicketTypeID,
		&ticketType.EventID,
		&ticketType.Name,
		&ticketType.Price,
		&ticketType.Capacity,
		&ticketType.Sold,
		&ticketType.Version,
		&ticketType.MaxPerUser,
		&ticketType.CreatedAt,
		&ticketType.UpdatedAt,
		&ticketType.DeletedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketTypeNotFound
		}
		return nil, err
	}

	return &ticketType, nil
}

func (r *TicketTypeRepositoryImpl) FindByTicketTypeID(ctx context.Context, ticketTypeID uuid.UUID) (*model.TicketType, error) {
	query := `
		SELECT id, ticket_type_id, event_id, name, price, capacity, sold,
				version, max_per_user, created_at, updated_at, deleted_at
		FROM ticket_types
		WHERE ticket_type_id = $1 AND deleted_at IS NULL
	`

	var ticketType model.TicketType
	err := r.pool.QueryRow(ctx, query, ticketTypeID).Scan(
		&ticketType.ID,
		&ticketType.TicketTypeID,
		&ticketType.EventID,
		&ticketType.Name,
		&ticketType.Price,
		&ticketType.Capacity,
		&ticketType.Sold,
		&ticketType.Version,
		&ticketType.MaxPerUser,
		&ticketType.CreatedAt,
		&ticketType.UpdatedAt,
		&ticketType.DeletedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketTypeNotFound
		}
		return nil, err
	}

	return &ticketType, nil
}

func (r *TicketTypeRepositoryImpl) Update(ctx context.Context, id int, values map[string]interface{}) (*model.TicketType, error) {
	// capacity 與 sold 不在可更新欄位：活動開賣後容量凍結，sold 只有引擎能動
	allowedFields := map[string]bool{
		"name":         true,
		"price":        true,
		"max_per_user": true,
	}

	sets := []string{}
	args := []interface{}{}
	argPos := 1

	for column, value := range values {
		if ok := allowedFields[column]; !ok {
			return nil, apperrors.ErrInvalidInput
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}

	// add updated_at
	sets = append(sets, fmt.Sprintf("updated_at = $%d", argPos))
	args = append(args, time.Now().UTC())
	argPos++

	// add id
	args = append(args, id)

	query := fmt.Sprintf(`
		UPDATE ticket_types
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING id, ticket_type_id, event_id, name, price, capacity, sold,
			version, max_per_user, created_at, updated_at
	`, strings.Join(sets, ", "), argPos)

	var ticketType model.TicketType

	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&ticketType.ID,
		&ticketType.TicketTypeID,
		&ticketType.EventID,
		&ticketType.Name,
		&ticketType.Price,
		&ticketType.Capacity,
		&ticketType.Sold,
		&ticketType.Version,
		&ticketType.MaxPerUser,
		&ticketType.CreatedAt,
		&ticketType.UpdatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketTypeNotFound
		}
		return nil, err
	}

	return &ticketType, nil
}

func (r *TicketTypeRepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `
		UPDATE ticket_types
		SET deleted_at = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	now := time.Now().UTC()
	result, err := r.pool.Exec(ctx, query, now, now, id)
	if err != nil {
		return err
	}

	// check if ticket type exists and not already deleted
	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketTypeNotFound
	}

	return nil
}
