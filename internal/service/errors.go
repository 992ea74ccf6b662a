package service

import (
	"errors"
	"fmt"

	"github.com/mmynk/ticketsplit/internal/storage"
)

var (
	// ErrNotFound is returned when a referenced user, ticket or assignment
	// does not exist.
	ErrNotFound = storage.ErrNotFound

	// ErrInsufficientQuantity is returned when an assignment asks for more
	// than the ticket has left.
	ErrInsufficientQuantity = storage.ErrInsufficientQuantity

	// ErrInvalidInput is returned for missing or malformed fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidQuantity is returned for a non-positive assignment quantity.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
