// Package store provides abstractions and implementations for data persistence.
package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. This is the generic form of the entity-specific variants below.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrUnavailable is returned when the backing store cannot be reached
	// or a materialized rollup cannot serve the request. Callers on the
	// fast path should fall back to a live query before surfacing this.
	ErrUnavailable = errors.New("store unavailable")

	// ErrCardNotFound indicates that the requested card does not exist.
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)

	// ErrActionNotFound indicates that the requested quick action record
	// does not exist.
	ErrActionNotFound = fmt.Errorf("%w: quick action", ErrNotFound)

	// ErrRollupNotFound indicates that no materialized rollup row exists
	// for the requested scope.
	ErrRollupNotFound = fmt.Errorf("%w: rollup", ErrNotFound)

	// ErrScopeNotFound indicates that the requested scope entity (student,
	// classroom or school) is unknown to the roster.
	ErrScopeNotFound = fmt.Errorf("%w: scope", ErrNotFound)

	// ErrActionExists indicates that a quick action with the given
	// idempotency key already exists.
	ErrActionExists = fmt.Errorf("%w: quick action", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
