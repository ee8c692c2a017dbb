// Package rabbitmq publishes report lifecycle events to a RabbitMQ topic
// exchange. The routing key is the event type, so consumers can bind to
// "report.*" or to a single transition.
package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/couchcryptid/marine-pollution-reports/internal/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher implements reports.Publisher over an AMQP channel.
type Publisher struct {
	conn     *amqp.Connection
	exchange string
	logger   *slog.Logger

	mu sync.Mutex // amqp channels are not safe for concurrent publishing
	ch channel
}

// Dial connects to url and declares a durable topic exchange.
func Dial(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	logger.Info("rabbitmq publisher ready", "exchange", exchange)
	return &Publisher{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

// Publish sends event as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, event domain.ReportEvent) error {
	msg, err := newPublishing(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey(event), false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	p.logger.Debug("report event published",
		"exchange", p.exchange,
		"routing_key", routingKey(event),
		"report_id", event.ReportID,
	)
	return nil
}

// Close closes the channel and then the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	chErr := p.ch.Close()
	if p.conn == nil {
		return chErr
	}
	if err := p.conn.Close(); err != nil {
		return err
	}
	return chErr
}

func routingKey(event domain.ReportEvent) string {
	return string(event.Type)
}

func newPublishing(event domain.ReportEvent) (amqp.Publishing, error) {
	body, err := event.Marshal()
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    event.OccurredAt,
		Type:         string(event.Type),
		Headers:      amqp.Table{"report_id": event.Key()},
		Body:         body,
	}, nil
}
