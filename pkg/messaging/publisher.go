package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/attendly/attendance-backend/pkg/logger"
)

// Publisher publishes events to RabbitMQ
type Publisher struct {
	rabbitmq *RabbitMQ
	exchange string
	log      *logger.Logger
}

// NewPublisher creates a new event publisher bound to an exchange
func NewPublisher(rabbitmq *RabbitMQ, exchange string, log *logger.Logger) (*Publisher, error) {
	if err := rabbitmq.DeclareExchange(exchange); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &Publisher{
		rabbitmq: rabbitmq,
		exchange: exchange,
		log:      log.WithComponent("publisher"),
	}, nil
}

// Publish publishes an event with the given routing key
func (p *Publisher) Publish(ctx context.Context, routingKey string, event interface{}) error {
	ch, err := p.rabbitmq.Channel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = ch.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.log.Debug().
		Str("exchange", p.exchange).
		Str("routing_key", routingKey).
		Msg("event published")

	return nil
}
