package core

import (
	"context"

	"restobill/internal/broadcast"
)

type IPublisher interface {
	Publish(ctx context.Context, event broadcast.Event) error
}
