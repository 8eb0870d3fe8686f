package repo

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrOutOfStock = errors.New("insufficient stock")
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Page is a 0-based page request.
type Page struct {
	Page    int
	PerPage int
}

func (p Page) scope(db *gorm.DB) *gorm.DB {
	per := p.PerPage
	if per <= 0 {
		per = 10
	}
	page := p.Page
	if page < 0 {
		page = 0
	}
	return db.Offset(page * per).Limit(per)
}

func nameOnly(db *gorm.DB) *gorm.DB { return db.Select("id", "name") }

func unscoped(db *gorm.DB) *gorm.DB { return db.Unscoped() }
