package messaging

import (
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/attendly/attendance-backend/pkg/config"
	"github.com/attendly/attendance-backend/pkg/logger"
)

// RabbitMQ manages the connection to RabbitMQ
type RabbitMQ struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     *config.RabbitMQConfig
	log     *logger.Logger
	mu      sync.Mutex
	closed  bool
}

// NewRabbitMQ creates a new RabbitMQ connection with retry
func NewRabbitMQ(cfg *config.RabbitMQConfig, log *logger.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{
		cfg: cfg,
		log: log.WithComponent("rabbitmq"),
	}

	if err := r.connect(); err != nil {
		return nil, err
	}

	return r, nil
}

func (r *RabbitMQ) connect() error {
	var err error

	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		r.conn, err = amqp.Dial(r.cfg.URL)
		if err == nil {
			break
		}

		r.log.Warn().
			Int("attempt", attempt).
			Err(err).
			Msg("failed to connect to RabbitMQ, retrying")

		time.Sleep(r.cfg.ReconnectDelay)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", r.cfg.MaxRetries, err)
	}

	r.channel, err = r.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := r.channel.Qos(r.cfg.PrefetchCount, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	r.log.Info().Msg("connected to RabbitMQ")
	return nil
}

// Channel returns the active channel, reconnecting if needed
func (r *RabbitMQ) Channel() (*amqp.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("rabbitmq connection is closed")
	}

	if r.conn == nil || r.conn.IsClosed() {
		if err := r.connect(); err != nil {
			return nil, err
		}
	}

	return r.channel, nil
}

// DeclareExchange declares a durable topic exchange
func (r *RabbitMQ) DeclareExchange(name string) error {
	ch, err := r.Channel()
	if err != nil {
		return err
	}

	return ch.ExchangeDeclare(
		name,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
}

// Health checks RabbitMQ connectivity
func (r *RabbitMQ) Health() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.conn == nil || r.conn.IsClosed() {
		return fmt.Errorf("rabbitmq connection is not available")
	}
	return nil
}

// Close closes the connection
func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
