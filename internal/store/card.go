package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

// HealthCounts holds the raw per-scope aggregates a live query produces.
// Counts are additive across child scopes by construction: classroom and
// school queries sum the same card rows their students' queries would.
type HealthCounts struct {
	CardCount        int
	DueCount         int
	OverdueCount     int
	NewCount         int
	AverageStability float64
}

// CardStore defines the interface for card state persistence.
// Card scheduling fields are written only through the review flow and
// load-reduction quick actions.
type CardStore interface {
	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// Create saves a new card.
	// Returns ErrDuplicate if a card for the same (student, item, item
	// type) already exists.
	Create(ctx context.Context, card *domain.Card) error

	// UpdateScheduling persists the card's scheduling fields (state,
	// stability, difficulty, lapses, due and last-reviewed timestamps).
	// Returns ErrCardNotFound if the card does not exist.
	UpdateScheduling(ctx context.Context, card *domain.Card) error

	// ListDue returns the student's cards with DueAt <= asOf, ordered
	// overdue-first (relative to the grace period) and then by ascending
	// stability, capped at limit.
	ListDue(
		ctx context.Context,
		studentID uuid.UUID,
		asOf time.Time,
		grace time.Duration,
		limit int,
	) ([]*domain.Card, error)

	// CountHealth computes due/overdue/new counts and average stability
	// for the scope directly from card rows. This is the live-query slow
	// path behind the materialized rollups.
	CountHealth(
		ctx context.Context,
		scope domain.Scope,
		scopeID uuid.UUID,
		asOf time.Time,
		grace time.Duration,
	) (*HealthCounts, error)

	// WithTx returns a CardStore bound to the given transaction. The
	// transaction is created and managed by the caller, typically via
	// RunInTransaction.
	WithTx(tx *sql.Tx) CardStore
}
