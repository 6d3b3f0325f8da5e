package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"restobill/internal/order/app/core"
	"restobill/internal/order/domain/dto"
	"restobill/internal/status"
	"restobill/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderRepo struct {
	pool *pgxpool.Pool
}

func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

func (or *OrderRepo) Create(ctx context.Context, order models.Order) (models.Order, error) {
	tx, err := or.pool.Begin(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Order numbers are per hotel per day: ORD_YYYYMMDD_NNN.
	currentDate := time.Now().UTC().Format("20060102")
	var orderCount int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE hotel_id = $1 AND created_at::DATE = CURRENT_DATE
	`, order.HotelID).Scan(&orderCount)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to count today's orders: %w", err)
	}
	order.OrderNumber = fmt.Sprintf("ORD_%s_%03d", currentDate, orderCount+1)

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (
			hotel_id,
			order_number,
			customer_name,
			phone_number,
			dining_type,
			table_number,
			car_details,
			session_id,
			status,
			total_amount
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`,
		order.HotelID,
		order.OrderNumber,
		order.CustomerName,
		order.PhoneNumber,
		order.DiningType,
		order.TableNumber,
		order.CarDetails,
		order.SessionID,
		order.Status,
		order.TotalAmount,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	for i, item := range order.Items {
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`, order.ID, item.ProductID, item.Name, item.Quantity, item.Price).Scan(&order.Items[i].ID)
		if err != nil {
			return models.Order{}, fmt.Errorf("failed to insert item: %w", err)
		}
		order.Items[i].OrderID = order.ID
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`, order.ID, order.Status, "order-service", time.Now().UTC())
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to insert order status log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return order, nil
}

func (or *OrderRepo) GetByID(ctx context.Context, id int64) (models.Order, error) {
	order, err := scanOrder(or.pool.QueryRow(ctx, selectOrder+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, core.ErrOrderNotFound
		}
		return models.Order{}, err
	}

	order.Items, err = or.loadItems(ctx, or.pool, order.ID)
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (or *OrderRepo) ListByHotel(ctx context.Context, hotelID string, filter dto.ListFilter) ([]models.Order, error) {
	query := selectOrder + ` WHERE hotel_id = $1`
	args := []any{hotelID}

	if filter.StaffID != nil {
		args = append(args, *filter.StaffID)
		query += fmt.Sprintf(` AND staff_id = $%d`, len(args))
	}
	if filter.SessionID != nil {
		args = append(args, *filter.SessionID)
		query += fmt.Sprintf(` AND session_id = $%d`, len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(` AND created_at < $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := or.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		orders[i].Items, err = or.loadItems(ctx, or.pool, orders[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return orders, nil
}

// ReplaceItems swaps the order's item lines and recomputes the stored
// total from them inside one transaction, so the total can never disagree
// with the lines.
func (or *OrderRepo) ReplaceItems(ctx context.Context, id int64, items []models.OrderItem) (models.Order, error) {
	tx, err := or.pool.Begin(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return models.Order{}, fmt.Errorf("failed to clear items: %w", err)
	}

	total := 0.0
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
		_, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
		`, id, item.ProductID, item.Name, item.Quantity, item.Price)
		if err != nil {
			return models.Order{}, fmt.Errorf("failed to insert item: %w", err)
		}
	}

	order, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders SET total_amount = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns, id, total))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, core.ErrOrderNotFound
		}
		return models.Order{}, fmt.Errorf("failed to update order total: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.Items, err = or.loadItems(ctx, or.pool, id)
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// UpdateStatus applies a validated transition. The row is locked for the
// duration of the transaction and the transition is re-checked under the
// lock, so two concurrent writers cannot both advance the same order.
func (or *OrderRepo) UpdateStatus(ctx context.Context, id int64, target status.Status, upd dto.StatusChange) (models.Order, error) {
	tx, err := or.pool.Begin(ctx)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, core.ErrOrderNotFound
		}
		return models.Order{}, fmt.Errorf("failed to lock order: %w", err)
	}

	result, err := status.Validate(status.Status(current), target)
	if err != nil {
		return models.Order{}, err
	}
	if result == status.Noop {
		// Someone else already applied it; re-read and report success.
		tx.Rollback(ctx)
		return or.GetByID(ctx, id)
	}

	order, err := scanOrder(tx.QueryRow(ctx, `
		UPDATE orders
		SET status = $2,
		    staff_id = COALESCE($3, staff_id),
		    payment_method = COALESCE($4, payment_method),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+orderColumns, id, string(target), upd.StaffID, upd.PaymentMethod))
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to update status: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
		VALUES ($1, $2, $3, $4)
	`, id, string(target), upd.ChangedBy, time.Now().UTC())
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to insert order status log: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Order{}, fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.Items, err = or.loadItems(ctx, or.pool, id)
	if err != nil {
		return models.Order{}, err
	}
	return order, nil
}

const orderColumns = `id, hotel_id, order_number, customer_name, phone_number, dining_type,
	table_number, car_details, session_id, status, payment_method, staff_id,
	total_amount, created_at, updated_at`

const selectOrder = `SELECT ` + orderColumns + ` FROM orders`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (models.Order, error) {
	var order models.Order
	err := row.Scan(
		&order.ID,
		&order.HotelID,
		&order.OrderNumber,
		&order.CustomerName,
		&order.PhoneNumber,
		&order.DiningType,
		&order.TableNumber,
		&order.CarDetails,
		&order.SessionID,
		&order.Status,
		&order.PaymentMethod,
		&order.StaffID,
		&order.TotalAmount,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	return order, err
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (or *OrderRepo) loadItems(ctx context.Context, q querier, orderID int64) ([]models.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, name, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
