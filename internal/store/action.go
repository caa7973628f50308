package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

// QuickActionStore is the idempotency store for quick actions. It is the
// single source of truth for "has this action already run": executors may
// be spread across processes, so claiming an action MUST go through the
// store's atomic primitives rather than any in-process lock.
type QuickActionStore interface {
	// CreatePending inserts the action with Pending status if and only if
	// no record with the same ID exists (insert-if-absent, backed by the
	// primary key). On conflict it returns created=false together with
	// the existing record, which the caller replays or re-claims.
	CreatePending(ctx context.Context, action *domain.QuickAction) (created bool, existing *domain.QuickAction, err error)

	// ClaimStuck atomically takes over a Pending record whose last update
	// is older than stuckBefore, resetting its updated timestamp so other
	// retries see it as fresh. Returns false if the record is not Pending
	// or not stuck.
	ClaimStuck(ctx context.Context, id uuid.UUID, stuckBefore, now time.Time) (bool, error)

	// Reattempt atomically flips a Failed record back to Pending so a
	// resubmission with the same ID can retry the body. Returns false if
	// the record is not in the Failed state.
	Reattempt(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// Complete marks the action Completed and stores its result payload.
	Complete(ctx context.Context, id uuid.UUID, result json.RawMessage, at time.Time) error

	// Fail marks the action Failed and stores the failure cause.
	Fail(ctx context.Context, id uuid.UUID, result json.RawMessage, at time.Time) error

	// GetByID retrieves an action record.
	// Returns ErrActionNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.QuickAction, error)
}
