package card

import "errors"

var (
	// ErrCardNotFound is returned when a card id doesn't resolve for the user
	ErrCardNotFound = errors.New("card not found")

	ErrInternal = errors.New("internal error")
)
