package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"restobill/internal/billing/app/core"
	"restobill/internal/status"
	"restobill/pkg/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BillRepo struct {
	pool *pgxpool.Pool
}

func NewBillRepo(pool *pgxpool.Pool) *BillRepo {
	return &BillRepo{pool: pool}
}

func (br *BillRepo) GetOrderForBilling(ctx context.Context, orderID int64) (models.Order, error) {
	var order models.Order
	err := br.pool.QueryRow(ctx, `
		SELECT id, hotel_id, order_number, customer_name, phone_number, status, staff_id, total_amount
		FROM orders WHERE id = $1
	`, orderID).Scan(
		&order.ID,
		&order.HotelID,
		&order.OrderNumber,
		&order.CustomerName,
		&order.PhoneNumber,
		&order.Status,
		&order.StaffID,
		&order.TotalAmount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Order{}, core.ErrOrderNotFound
		}
		return models.Order{}, fmt.Errorf("failed to load order: %w", err)
	}

	rows, err := br.pool.Query(ctx, `
		SELECT id, order_id, product_id, name, quantity, unit_price
		FROM order_items WHERE order_id = $1 ORDER BY id
	`, orderID)
	if err != nil {
		return models.Order{}, fmt.Errorf("failed to load items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return models.Order{}, err
		}
		order.Items = append(order.Items, item)
	}
	return order, rows.Err()
}

func (br *BillRepo) CreateForOrder(ctx context.Context, bill models.Bill) (models.Bill, error) {
	itemsJSON, err := json.Marshal(bill.Items)
	if err != nil {
		return models.Bill{}, fmt.Errorf("failed to encode items: %w", err)
	}

	tx, err := br.pool.Begin(ctx)
	if err != nil {
		return models.Bill{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO bills (
			id, order_id, hotel_id, customer_name, phone_number,
			items, total, tax_percentage, tax_amount, payment_type, staff_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at
	`,
		bill.ID,
		bill.OrderID,
		bill.HotelID,
		bill.CustomerName,
		bill.PhoneNumber,
		itemsJSON,
		bill.Total,
		bill.TaxPercentage,
		bill.TaxAmount,
		bill.PaymentType,
		bill.StaffID,
	).Scan(&bill.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23505: the unique constraint on bills.order_id fired, the order
		// is already billed.
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return models.Bill{}, core.ErrBillExists
		}
		return models.Bill{}, fmt.Errorf("failed to insert bill: %w", err)
	}

	if bill.OrderID != nil {
		_, err = tx.Exec(ctx, `
			UPDATE orders
			SET status = $2, staff_id = COALESCE($3, staff_id), updated_at = now()
			WHERE id = $1
		`, *bill.OrderID, string(status.Completed), bill.StaffID)
		if err != nil {
			return models.Bill{}, fmt.Errorf("failed to complete order: %w", err)
		}

		changedBy := "billing-service"
		if bill.StaffID != nil {
			changedBy = *bill.StaffID
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_status_log (order_id, status, changed_by, changed_at)
			VALUES ($1, $2, $3, $4)
		`, *bill.OrderID, string(status.Completed), changedBy, time.Now().UTC())
		if err != nil {
			return models.Bill{}, fmt.Errorf("failed to insert order status log: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Bill{}, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return bill, nil
}

func (br *BillRepo) GetByID(ctx context.Context, id string) (models.Bill, error) {
	bill, itemsJSON, err := scanBill(br.pool.QueryRow(ctx, selectBill+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Bill{}, core.ErrBillNotFound
		}
		return models.Bill{}, err
	}
	if err := json.Unmarshal(itemsJSON, &bill.Items); err != nil {
		return models.Bill{}, fmt.Errorf("failed to decode items: %w", err)
	}
	return bill, nil
}

func (br *BillRepo) ListByHotel(ctx context.Context, hotelID string) ([]models.Bill, error) {
	rows, err := br.pool.Query(ctx, selectBill+` WHERE hotel_id = $1 ORDER BY created_at DESC`, hotelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var bills []models.Bill
	for rows.Next() {
		bill, itemsJSON, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(itemsJSON, &bill.Items); err != nil {
			return nil, fmt.Errorf("failed to decode items: %w", err)
		}
		bills = append(bills, bill)
	}
	return bills, rows.Err()
}

func (br *BillRepo) Delete(ctx context.Context, id string) error {
	tag, err := br.pool.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrBillNotFound
	}
	return nil
}

const selectBill = `SELECT id, order_id, hotel_id, customer_name, phone_number,
	items, total, tax_percentage, tax_amount, payment_type, staff_id, created_at
	FROM bills`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (models.Bill, []byte, error) {
	var bill models.Bill
	var itemsJSON []byte
	err := row.Scan(
		&bill.ID,
		&bill.OrderID,
		&bill.HotelID,
		&bill.CustomerName,
		&bill.PhoneNumber,
		&itemsJSON,
		&bill.Total,
		&bill.TaxPercentage,
		&bill.TaxAmount,
		&bill.PaymentType,
		&bill.StaffID,
		&bill.CreatedAt,
	)
	return bill, itemsJSON, err
}
