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

type OrderRepository interface {
	// CreateWithLines 在單一交易內寫入訂單與明細
	CreateWithLines(ctx context.Context, order *model.Order) (*model.Order, error)
	List(ctx context.Context) ([]*model.Order, error)
	FindByID(ctx context.Context, id int) (*model.Order, error)
	FindByUserID(ctx context.Context, userID int) ([]*model.Order, error)
	// UpdateStatus 只在目前狀態等於 from 時轉換，狀態機在資料庫層線性化
	UpdateStatus(ctx context.Context, id int, from, to model.OrderStatus) (*model.Order, error)
	GetUserTicketTypeOrderCount(ctx context.Context, userID int, ticketTypeID int) (int, error)
	Delete(ctx context.Context, id int) error
}

type OrderRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) OrderRepository {
	return &OrderRepositoryImpl{
		pool: pool,
	}
}

func (r *OrderRepositoryImpl) CreateWithLines(ctx context.Context, order *model.Order) (*model.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO orders (
			order_id, user_id, event_id, subtotal, discount_amount, total,
			discount_code, payment_method, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		order.OrderID, order.UserID, order.EventID,
		order.Subtotal, order.DiscountAmount, order.Total,
		order.DiscountCode, order.PaymentMethod, order.Status,
	).Scan(
		&order.ID,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	lineQuery := `
		INSERT INTO order_lines (order_id, ticket_type_id, unit_price, quantity)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	for i := range order.Lines {
		line := &order.Lines[i]
		line.OrderID = order.ID
		err = tx.QueryRow(ctx, lineQuery,
			line.OrderID, line.TicketTypeID, line.UnitPrice, line.Quantity,
		).Scan(&line.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to create order line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *OrderRepositoryImpl) List(ctx context.Context) ([]*model.Order, error) {
	query := `
		SELECT id, order_id, user_id, event_id, subtotal, discount_amount, total,
		       discount_code, payment_method, status,
		       created_at, updated_at, paid_at, cancelled_at, deleted_at
		FROM orders
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanOrders(ctx, rows)
}

func (r *OrderRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Order, error) {
	query := `
		SELECT id, order_id, user_id, event_id, subtotal, discount_amount, total,
		       discount_code, payment_method, status,
		       created_at, updated_at, paid_at, cancelled_at, deleted_at
		FROM orders
		WHERE id = $1 AND deleted_at IS NULL
	`

	var order model.Order
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.OrderID,
		&order.UserID,
		&order.EventID,
		&order.Subtotal,
		&order.DiscountAmount,
		&order.Total,
		&order.DiscountCode,
		&order.PaymentMethod,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.PaidAt,
		&order.CancelledAt,
		&order.DeletedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}

	lines, err := r.findLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return &order, nil
}

func (r *OrderRepositoryImpl) FindByUserID(ctx context.Context, userID int) ([]*model.Order, error) {
	query := `
		SELECT id, order_id, user_id, event_id, subtotal, discount_amount, total,
		       discount_code, payment_method, status,
		       created_at, updated_at, paid_at, cancelled_at, deleted_at
		FROM orders
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanOrders(ctx, rows)
}

func (r *OrderRepositoryImpl) UpdateStatus(ctx context.Context, id int, from, to model.OrderStatus) (*model.Order, error) {
	sets := "status = $1, updated_at = $2"
	switch to {
	case model.OrderStatusPaid:
		sets += ", paid_at = $2"
	case model.OrderStatusCancelled, model.OrderStatusRefunded:
		sets += ", cancelled_at = $2"
	}

	query := fmt.Sprintf(`
		UPDATE orders
		SET %s
		WHERE id = $3 AND status = $4 AND deleted_at IS NULL
		RETURNING id, order_id, user_id, event_id, subtotal, discount_amount, total,
			discount_code, payment_method, status, created_at, updated_at, paid_at, cancelled_at
	`, sets)

	var order model.Order

	err := r.pool.QueryRow(ctx, query, to, time.Now().UTC(), id, from).Scan(
		&order.ID,
		&order.OrderID,
		&order.UserID,
		&order.EventID,
		&order.Subtotal,
		&order.DiscountAmount,
		&order.Total,
		&order.DiscountCode,
		&order.PaymentMethod,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.PaidAt,
		&order.CancelledAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			// 訂單不存在，或狀態已被並發轉換走
			if _, findErr := r.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, apperrors.ErrStateViolation
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	lines, err := r.findLines(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	order.Lines = lines

	return &order, nil
}

func (r *OrderRepositoryImpl) GetUserTicketTypeOrderCount(ctx context.Context, userID int, ticketTypeID int) (int, error) {
	query := `
		SELECT COALESCE(SUM(l.quantity), 0)
		FROM order_lines l
		JOIN orders o ON o.id = l.order_id
		WHERE o.user_id = $1
		  AND l.ticket_type_id = $2
		  AND o.status NOT IN ($3, $4)
		  AND o.deleted_at IS NULL
	`

	var totalQuantity int
	err := r.pool.QueryRow(ctx, query,
		userID, ticketTypeID, model.OrderStatusCancelled, model.OrderStatusRefunded,
	).Scan(&totalQuantity)
	if err != nil {
		return 0, err
	}

	return totalQuantity, nil
}

func (r *OrderRepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `
		UPDATE orders
		SET deleted_at = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	now := time.Now().UTC()
	result, err := r.pool.Exec(ctx, query, now, now, id)
	if err != nil {
		return err
	}

	// check if order exists and not already deleted
	if result.RowsAffected() == 0 {
		return apperrors.ErrOrderNotFound
	}

	return nil
}

func (r *OrderRepositoryImpl) findLines(ctx context.Context, orderID int) ([]model.OrderLine, error) {
	query := `
		SELECT id, order_id, ticket_type_id, unit_price, quantity
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]model.OrderLine, 0)

	for rows.Next() {
		var line model.OrderLine
		err := rows.Scan(
			&line.ID,
			&line.OrderID,
			&line.TicketTypeID,
			&line.UnitPrice,
			&line.Quantity,
		)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return lines, nil
}

func (r *OrderRepositoryImpl) scanOrders(ctx context.Context, rows pgx.Rows) ([]*model.Order, error) {
	var orders []*model.Order

	for rows.Next() {
		var order model.Order
		err := rows.Scan(
			&order.ID,
			&order.OrderID,
			&order.UserID,
			&order.EventID,
			&order.Subtotal,
			&order.DiscountAmount,
			&order.Total,
			&order.DiscountCode,
			&order.PaymentMethod,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
			&order.PaidAt,
			&order.CancelledAt,
			&order.DeletedAt,
		)
		if err != nil {
			return nil, err
		}
		orders = append(orders, &order)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, order := range orders {
		lines, err := r.findLines(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		order.Lines = lines
	}

	return orders, nil
}
