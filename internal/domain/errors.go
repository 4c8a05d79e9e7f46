package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrInvalidReference is returned when an item names a storage area that
	// does not exist.
	ErrInvalidReference   = errors.New("storage area does not exist")
	ErrValidation         = errors.New("invalid input")
	ErrQuantityOutOfRange = errors.New("quantity out of range")
	ErrAlreadyOpened      = errors.New("item is already opened")
	// ErrLoading is returned by mutations issued before the initial load
	// from persistence has completed.
	ErrLoading = errors.New("inventory is still loading")
)
