package repository

import (
	"context"
	"fmt"
	"time"

	"go-ticket-storefront/internal/model"
	apperrors "go-ticket-storefront/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TicketRepository interface {
	// CreateBatch 在單一交易內鑄造一張以上的票券
	CreateBatch(ctx context.Context, tickets []*model.Ticket) error
	ListByOrderID(ctx context.Context, orderID int) ([]*model.Ticket, error)
	FindByRedemptionCode(ctx context.Context, code string) (*model.Ticket, error)
	// MarkUsed 核銷：只在未使用且未作廢時翻轉，0 列受影響即為已用過
	MarkUsed(ctx context.Context, id int) error
	// VoidByOrderID 退款時作廢，保留紀錄不刪除
	VoidByOrderID(ctx context.Context, orderID int) error
}

type TicketRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &TicketRepositoryImpl{
		pool: pool,
	}
}

func (r *TicketRepositoryImpl) CreateBatch(ctx context.Context, tickets []*model.Ticket) error {
	if len(tickets) == 0 {
		return apperrors.ErrInvalidInput
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO tickets (
			ticket_id, order_id, event_id, ticket_type_id, redemption_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	for _, ticket := range tickets {
		err = tx.QueryRow(ctx, query,
			ticket.TicketID, ticket.OrderID, ticket.EventID,
			ticket.TicketTypeID, ticket.RedemptionCode,
		).Scan(&ticket.ID, &ticket.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create ticket: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *TicketRepositoryImpl) ListByOrderID(ctx context.Context, orderID int) ([]*model.Ticket, error) {
	query := `
		SELECT id, ticket_id, order_id, event_id, ticket_type_id,
		       redemption_code, used, used_at, void, created_at
		FROM tickets
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*model.Ticket, 0)

	for rows.Next() {
		var ticket model.Ticket
		err := rows.Scan(
			&ticket.ID,
			&ticket.TicketID,
			&ticket.OrderID,
			&ticket.EventID,
			&ticket.TicketTypeID,
			&ticket.RedemptionCode,
			&ticket.Used,
			&ticket.UsedAt,
			&ticket.Void,
			&ticket.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, &ticket)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *TicketRepositoryImpl) FindByRedemptionCode(ctx context.Context, code string) (*model.Ticket, error) {
	query := `
		SELECT id, ticket_id, order_id, event_id, ticket_type_id,
		       redemption_code, used, used_at, void, created_at
		FROM tickets
		WHERE redemption_code = $1
	`

	var ticket model.Ticket
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&ticket.ID,
		&ticket.TicketID,
		&ticket.OrderID,
		&ticket.EventID,
		&ticket.TicketTypeID,
		&ticket.RedemptionCode,
		&ticket.Used,
		&ticket.UsedAt,
		&ticket.Void,
		&ticket.CreatedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}

	return &ticket, nil
}

func (r *TicketRepositoryImpl) MarkUsed(ctx context.Context, id int) error {
	query := `
		UPDATE tickets
		SET used = TRUE, used_at = $1
		WHERE id = $2 AND used = FALSE AND void = FALSE
	`

	result, err := r.pool.Exec(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrTicketUsed
	}

	return nil
}

func (r *TicketRepositoryImpl) VoidByOrderID(ctx context.Context, orderID int) error {
	query := `
		UPDATE tickets
		SET void = TRUE
		WHERE order_id = $1
	`

	_, err := r.pool.Exec(ctx, query, orderID)
	return err
}
