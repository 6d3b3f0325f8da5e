package rabbitmq

import (
	"context"
	"fmt"
	"time"

	"restobill/internal/config"
	"restobill/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// HotelEventsExchange carries every order, bill and help-request event,
// routed by "hotel.<hotel_id>.<event>" keys so that a single binding to
// "hotel.<hotel_id>.#" subscribes one hotel's room.
const HotelEventsExchange = "hotel_events"

const publishTimeout = 5 * time.Second

type RabbitMQ struct {
	Conn    *amqp.Connection
	Channel *amqp.Channel
	Logger  logger.Logger
}

func ConnectRabbitMQ(cfg *config.RabbitMQ, log logger.Logger) (*RabbitMQ, error) {
	connStr := fmt.Sprintf("amqp://%s:%s@%s:%s/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.VHost)

	conn, err := amqp.Dial(connStr)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = channel.ExchangeDeclare(
		HotelEventsExchange, // name
		"topic",             // type
		true,                // durable
		false,               // auto-deleted
		false,               // internal
		false,               // no-wait
		nil,                 // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	log.Action("rabbitmq_connected").Info("Connected to RabbitMQ")
	return &RabbitMQ{
		Conn:    conn,
		Channel: channel,
		Logger:  log,
	}, nil
}

func (r *RabbitMQ) Close() error {
	if r.Channel != nil {
		r.Channel.Close()
	}
	if r.Conn != nil {
		return r.Conn.Close()
	}
	return nil
}

// PublishMessage sends a fire-and-forget JSON payload to the hotel events
// exchange. Delivery is at most once from the sender's perspective: there
// is no confirm or retry, receivers compensate by polling.
func (r *RabbitMQ) PublishMessage(ctx context.Context, routingKey string, message []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	return r.Channel.PublishWithContext(pubCtx,
		HotelEventsExchange, // exchange
		routingKey,          // routing key
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Transient,
			ContentType:  "application/json",
			Body:         message,
		})
}

// DeclareRoomQueue sets up an exclusive auto-delete queue bound to one
// hotel's routing keys and returns its delivery channel.
func (r *RabbitMQ) DeclareRoomQueue(hotelID string) (<-chan amqp.Delivery, error) {
	queue, err := r.Channel.QueueDeclare(
		"",    // name, broker-generated
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}

	err = r.Channel.QueueBind(
		queue.Name,
		fmt.Sprintf("hotel.%s.#", hotelID),
		HotelEventsExchange,
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}

	return r.Channel.Consume(
		queue.Name,
		"",    // consumer tag
		true,  // auto-ack, events are advisory hints only
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
}
