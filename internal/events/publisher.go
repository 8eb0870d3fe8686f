package events

import (
	"context"

	"github.com/rs/zerolog"
)

// Message is a serialized event ready for a broker.
type Message struct {
	ID       string
	Type     string
	Key      string
	Body     []byte
	Attempts int
}

type Publisher interface {
	Publish(ctx context.Context, m Message) error
	Close() error
}

// LogPublisher writes events to the log; used when no broker is configured.
type LogPublisher struct {
	Log zerolog.Logger
}

func (p *LogPublisher) Publish(_ context.Context, m Message) error {
	p.Log.Info().
		Str("event_id", m.ID).
		Str("type", m.Type).
		Str("key", m.Key).
		RawJSON("body", m.Body).
		Msg("event published")
	return nil
}

func (p *LogPublisher) Close() error { return nil }
