package service

import (
	"errors"
	"fmt"

	"grove/internal/pricing"
	"grove/internal/repo"
)

var (
	ErrNotFound     = repo.ErrNotFound
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
)

// QuoteMismatchError carries the server's quote when the totals a client
// displayed no longer match it.
type QuoteMismatchError struct {
	Quote pricing.Quote
}

func (e *QuoteMismatchError) Error() string {
	return fmt.Sprintf("order totals changed: total is now %s", pricing.Format(e.Quote.TotalCents))
}

func (e *QuoteMismatchError) Unwrap() error { return ErrConflict }

func notFound(what string, id uint) error {
	return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
