package events

import (
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"grove/internal/models"
)

const (
	TypeOrderCreated       = "orders.created"
	TypeOrderStatusChanged = "orders.status_changed"
	TypeReviewCreated      = "reviews.created"
)

// Event is the envelope every message on the bus carries.
type Event[T any] struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Version     int       `json:"version"`
	Time        time.Time `json:"time"`
	AggregateID string    `json:"aggregate_id"`

	Payload T `json:"payload"`
}

func New[T any](eventType, aggregateID string, payload T) Event[T] {
	return Event[T]{
		ID:          uuid.NewString(),
		Type:        eventType,
		Version:     1,
		Time:        time.Now(),
		AggregateID: aggregateID,
		Payload:     payload,
	}
}

type OrderItemPayload struct {
	ProductID  uint  `json:"product_id"`
	Quantity   int   `json:"quantity"`
	PriceCents int64 `json:"price_cents"`
}

type OrderCreatedPayload struct {
	UserID         uint               `json:"user_id"`
	DeliveryOption string             `json:"delivery_option"`
	TotalCents     int64              `json:"total_cents"`
	Items          []OrderItemPayload `json:"items"`
}

type OrderStatusChangedPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type ReviewCreatedPayload struct {
	ProductID     uint    `json:"product_id"`
	UserID        uint    `json:"user_id"`
	Rating        int     `json:"rating"`
	AverageRating float64 `json:"average_rating"`
}

// Record turns an event into an outbox row due immediately.
func Record[T any](e Event[T]) (models.OutboxEvent, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return models.OutboxEvent{}, err
	}
	return models.OutboxEvent{
		ID:            e.ID,
		AggregateID:   e.AggregateID,
		EventType:     e.Type,
		Payload:       string(b),
		NextAttemptAt: e.Time,
		CreatedAt:     e.Time,
	}, nil
}
