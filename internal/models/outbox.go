package models

import "time"

// OutboxEvent is written in the same transaction as the change it
// describes and relayed to the broker afterwards.
type OutboxEvent struct {
	ID            string     `gorm:"type:varchar(36);primaryKey"`
	AggregateID   string     `gorm:"type:varchar(64);index"`
	EventType     string     `gorm:"type:varchar(64);not null"`
	Payload       string     `gorm:"type:text;not null"`
	Attempts      int        `gorm:"not null;default:0"`
	NextAttemptAt time.Time  `gorm:"index;not null"`
	SentAt        *time.Time `gorm:"index"`
	LastError     string     `gorm:"type:text"`
	CreatedAt     time.Time
}

// All lists every table for automigration, parents first.
func All() []any {
	return []any{
		&User{}, &Product{}, &Review{}, &Address{}, &PaymentMethod{},
		&Order{}, &OrderItem{}, &OutboxEvent{},
	}
}
