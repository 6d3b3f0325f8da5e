package core

import (
	"context"

	"restobill/pkg/models"
)

type IBillRepo interface {
	// GetOrderForBilling loads the order with its current item lines.
	GetOrderForBilling(ctx context.Context, orderID int64) (models.Order, error)
	// CreateForOrder inserts the bill and advances its order to completed
	// in one transaction. Returns ErrBillExists if the order is already
	// billed.
	CreateForOrder(ctx context.Context, bill models.Bill) (models.Bill, error)
	GetByID(ctx context.Context, id string) (models.Bill, error)
	ListByHotel(ctx context.Context, hotelID string) ([]models.Bill, error)
	Delete(ctx context.Context, id string) error
}
