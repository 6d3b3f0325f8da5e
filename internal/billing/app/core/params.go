package core

import (
	"context"

	"restobill/internal/broadcast"
	"restobill/pkg/models"
)

const WaitTime = 10 // seconds given to graceful shutdown

type BillingParams struct {
	Port int
}

type IPublisher interface {
	Publish(ctx context.Context, event broadcast.Event) error
}

// IPrinter is the external receipt printer collaborator. Only its
// success/failure contract is consumed: a print error never rolls back
// billing.
type IPrinter interface {
	PrintReceipt(ctx context.Context, bill models.Bill) error
}
