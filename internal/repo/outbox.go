package repo

import (
	"gorm.io/gorm"

	"grove/internal/db"
	"grove/internal/events"
	"grove/internal/models"
	"grove/internal/outbox"
)

// enqueue writes the event inside tx and, on Postgres, wakes the relay once
// the transaction commits.
func enqueue[T any](tx *gorm.DB, e events.Event[T]) error {
	row, err := events.Record(e)
	if err != nil {
		return err
	}
	if err := tx.Create(&row).Error; err != nil {
		return err
	}
	if db.IsPostgres(tx) {
		return tx.Exec("SELECT pg_notify(?, ?)", outbox.Channel, row.ID).Error
	}
	return nil
}

// PendingEvents counts rows not yet relayed.
func PendingEvents(gdb *gorm.DB) (int64, error) {
	var n int64
	err := gdb.Model(&models.OutboxEvent{}).Where("sent_at IS NULL").Count(&n).Error
	return n, err
}

func isPostgres(tx *gorm.DB) bool { return db.IsPostgres(tx) }
