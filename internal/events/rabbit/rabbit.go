// Package rabbit publishes outbox events to a RabbitMQ topic exchange.
package rabbit

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"grove/internal/events"
)

const (
	ExchangeEvents = "grove.events"
	ExchangeDLX    = "grove.dlx"
)

type Conn struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func Connect(url string) (*Conn, error) {
	c, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := c.Channel()
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	return &Conn{Conn: c, Ch: ch}, nil
}

func (c *Conn) Close() error {
	if c.Ch != nil {
		_ = c.Ch.Close()
	}
	if c.Conn != nil {
		return c.Conn.Close()
	}
	return nil
}

func DeclareBase(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ExchangeEvents, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	return ch.ExchangeDeclare(ExchangeDLX, "topic", true, false, false, false, nil)
}

type QueueSpec struct {
	Name     string
	BindKeys []string
	DLQKey   string
}

// DeclareQueueWithDLQ declares a durable queue bound to ExchangeEvents whose
// rejected messages dead-letter to "<name>.dlq".
func DeclareQueueWithDLQ(ch *amqp.Channel, spec QueueSpec) error {
	dlqName := spec.Name + ".dlq"
	if _, err := ch.QueueDeclare(dlqName, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(dlqName, spec.DLQKey, ExchangeDLX, false, nil); err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    ExchangeDLX,
		"x-dead-letter-routing-key": spec.DLQKey,
	}
	if _, err := ch.QueueDeclare(spec.Name, true, false, false, false, args); err != nil {
		return err
	}
	for _, key := range spec.BindKeys {
		if err := ch.QueueBind(spec.Name, key, ExchangeEvents, false, nil); err != nil {
			return err
		}
	}
	return nil
}

type Publisher struct {
	conn     *Conn
	exchange string
}

func NewPublisher(conn *Conn, exchange string) *Publisher {
	return &Publisher{conn: conn, exchange: exchange}
}

// Publish routes by event type, e.g. "orders.created".
func (p *Publisher) Publish(ctx context.Context, m events.Message) error {
	return p.conn.Ch.PublishWithContext(ctx, p.exchange, m.Type, false, false, Publishing(m))
}

func (p *Publisher) Close() error { return p.conn.Close() }

// Publishing builds the AMQP message for an outbox event.
func Publishing(m events.Message) amqp.Publishing {
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    m.ID,
		Type:         m.Type,
		Timestamp:    time.Now(),
		Body:         m.Body,
		Headers: amqp.Table{
			"x-aggregate-id": m.Key,
			"x-attempts":     int32(m.Attempts),
		},
	}
}
