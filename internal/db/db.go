package db

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"grove/internal/models"
)

// Open connects to Postgres with gorm and routes its logging to zerolog.
func Open(dsn string, log zerolog.Logger, slow time.Duration) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("db: empty dsn")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: NewLogger(log, slow),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}
	return gdb, nil
}

// Migrate creates or alters every table the service owns.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(models.All()...)
}

// IsPostgres reports whether the handle talks to Postgres, which gates
// row locking and LISTEN/NOTIFY.
func IsPostgres(gdb *gorm.DB) bool {
	return gdb.Dialector.Name() == "postgres"
}
