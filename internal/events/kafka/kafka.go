// Package kafka publishes outbox events to a Kafka topic keyed by aggregate,
// so every event of one order lands on the same partition.
package kafka

import (
	"context"
	"errors"

	sdk "github.com/segmentio/kafka-go"

	"grove/internal/events"
)

type Params struct {
	Brokers []string
	Topic   string
}

func (p Params) Validate() error {
	if len(p.Brokers) == 0 {
		return errors.New("kafka brokers are required")
	}
	if p.Topic == "" {
		return errors.New("kafka topic is required")
	}
	return nil
}

type Publisher struct {
	writer *sdk.Writer
}

func NewPublisher(p Params) (*Publisher, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Publisher{writer: &sdk.Writer{
		Addr:         sdk.TCP(p.Brokers...),
		Topic:        p.Topic,
		RequiredAcks: sdk.RequireAll,
		Balancer:     &sdk.Hash{},
	}}, nil
}

func (p *Publisher) Publish(ctx context.Context, m events.Message) error {
	return p.writer.WriteMessages(ctx, Message(m))
}

func (p *Publisher) Close() error { return p.writer.Close() }

func Message(m events.Message) sdk.Message {
	return sdk.Message{
		Key:   []byte(m.Key),
		Value: m.Body,
		Headers: []sdk.Header{
			{Key: "event-id", Value: []byte(m.ID)},
			{Key: "event-type", Value: []byte(m.Type)},
		},
	}
}
