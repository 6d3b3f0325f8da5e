package core

import (
	"context"
	"errors"
	"time"

	"restobill/pkg/models"
)

var (
	ErrHelp     = errors.New("command help requested")
	ErrNotFound = errors.New("resource not found")
)

// PollInterval is the backstop refresh period. Events only make the view
// faster; the poll alone keeps it correct.
const PollInterval = 2 * time.Second

type DashboardParams struct {
	Role        string
	HotelID     string
	StaffID     string
	TableNumber int
	OrderAPI    string
	BillingAPI  string
}

// ISource is the read side of the order and billing services as the view
// sees it. Fetches carry the loop context so in-flight requests die with
// the view.
type ISource interface {
	Order(ctx context.Context, id int64) (models.Order, error)
	Orders(ctx context.Context, hotelID string) ([]models.Order, error)
	Bills(ctx context.Context, hotelID string) ([]models.Bill, error)
	RecycleBin(ctx context.Context, hotelID string) ([]models.RecycleBinEntry, error)
}
