// Package domain defines the core business entities and errors.
package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidRating is returned when a review rating is not one of
	// again, hard, good, easy.
	ErrInvalidRating = errors.New("invalid review rating")

	// ErrInvalidItemType is returned when a card's item type is not valid.
	ErrInvalidItemType = errors.New("invalid item type")

	// ErrInvalidCardState is returned when a card's scheduling state is not valid.
	ErrInvalidCardState = errors.New("invalid card state")

	// ErrInconsistentCard is returned when a card's fields contradict each
	// other, e.g. a reviewed state with no last-reviewed timestamp.
	ErrInconsistentCard = errors.New("inconsistent card state")

	// ErrInvalidScope is returned when a metric scope is not student,
	// classroom or school.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrInvalidActionType is returned when a quick action type is unknown.
	ErrInvalidActionType = errors.New("invalid action type")

	// ErrInvalidActionStatus is returned when a quick action status is unknown.
	ErrInvalidActionStatus = errors.New("invalid action status")

	// ErrUnauthorized is returned when an operation is not permitted for the
	// requesting principal.
	ErrUnauthorized = errors.New("unauthorized operation")
)
