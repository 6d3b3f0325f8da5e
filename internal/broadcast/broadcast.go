// Package broadcast is the hotel room fan-out layer. One topic exchange
// carries every event; a room is nothing more than the set of consumers
// bound to one hotel's routing keys. Delivery is advisory: receivers use
// events as hints to re-fetch, never as authoritative deltas, and poll as
// a backstop for dropped messages.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"restobill/pkg/logger"
	"restobill/pkg/rabbitmq"
)

type Kind string

const (
	NewOrder           Kind = "new_order"
	OrderUpdated       Kind = "order_updated"
	OrderStatusChanged Kind = "order_status_changed"
	OrderFinalized     Kind = "order_finalized"
	BillCreated        Kind = "bill_created"
	StaffHelpRequested Kind = "staff_help_requested"
)

// Event is the envelope published for every order and bill mutation.
// Optional fields are set per kind; receivers re-fetch rather than trust
// the payload.
type Event struct {
	Kind       Kind      `json:"event"`
	HotelID    string    `json:"hotel_id"`
	OrderID    *int64    `json:"order_id,omitempty"`
	BillID     *string   `json:"bill_id,omitempty"`
	Status     *string   `json:"status,omitempty"`
	StaffID    *string   `json:"staff_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (e Event) routingKey() string {
	return fmt.Sprintf("hotel.%s.%s", e.HotelID, e.Kind)
}

type Publisher struct {
	mb  *rabbitmq.RabbitMQ
	log logger.Logger
}

func NewPublisher(mb *rabbitmq.RabbitMQ, log logger.Logger) *Publisher {
	return &Publisher{mb: mb, log: log}
}

// Publish sends the event to the hotel's room. Failures are returned but
// callers treat them as warnings: the event layer is not authoritative
// and polling heals missed deliveries.
func (p *Publisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.mb.PublishMessage(ctx, event.routingKey(), body); err != nil {
		return fmt.Errorf("publish %s: %w", event.Kind, err)
	}
	p.log.Action("event_published").With("event", string(event.Kind), "hotel_id", event.HotelID).Debug("Event published to hotel room")
	return nil
}

// JoinHotelRoom binds a fresh exclusive queue to one hotel's routing keys
// and returns a typed event stream. The stream closes when ctx is done or
// the broker drops the consumer. Events whose hotel_id does not match the
// joined room are discarded: room bindings are advisory, not enforced.
func JoinHotelRoom(ctx context.Context, mb *rabbitmq.RabbitMQ, hotelID string, log logger.Logger) (<-chan Event, error) {
	deliveries, err := mb.DeclareRoomQueue(hotelID)
	if err != nil {
		return nil, fmt.Errorf("join hotel room %s: %w", hotelID, err)
	}

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case delivery, ok := <-deliveries:
				if !ok {
					return
				}
				event, ok := Decode(delivery.Body, hotelID)
				if !ok {
					continue
				}
				select {
				case events <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	log.Action("room_joined").With("hotel_id", hotelID).Info("Joined hotel room")
	return events, nil
}

// Decode parses an event envelope and filters it against the subscribed
// hotel. Malformed payloads and foreign-hotel events are dropped.
func Decode(body []byte, hotelID string) (Event, bool) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return Event{}, false
	}
	if event.Kind == "" || event.HotelID != hotelID {
		return Event{}, false
	}
	return event, true
}
