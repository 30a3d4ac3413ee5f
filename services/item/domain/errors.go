package domain

import "errors"

// Sentinel errors for the item domain. Use errors.Is() to check these.
var (
	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrEventNotFound indicates the item exists but has no matching event.
	ErrEventNotFound = errors.New("event not found")

	// ErrInvalidItemName indicates the item name violates domain constraints.
	ErrInvalidItemName = errors.New("invalid item name")

	// ErrInvalidEvent indicates an event draft violates domain constraints.
	ErrInvalidEvent = errors.New("invalid event")
)
