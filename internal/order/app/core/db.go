package core

import (
	"context"

	"restobill/internal/order/domain/dto"
	"restobill/internal/status"
	"restobill/pkg/models"
)

type IOrderRepo interface {
	Create(ctx context.Context, order models.Order) (models.Order, error)
	GetByID(ctx context.Context, id int64) (models.Order, error)
	ListByHotel(ctx context.Context, hotelID string, filter dto.ListFilter) ([]models.Order, error)
	ReplaceItems(ctx context.Context, id int64, items []models.OrderItem) (models.Order, error)
	UpdateStatus(ctx context.Context, id int64, target status.Status, upd dto.StatusChange) (models.Order, error)
}
