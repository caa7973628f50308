package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// PostgresCardStore implements the store.CardStore interface using a
// PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the
// CardStore interface. It accepts a database connection or transaction
// managed by the caller. If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

const cardColumns = `id, student_id, item_id, item_type, state, stability, difficulty,
	lapses, due_at, last_reviewed_at, created_at, updated_at`

// GetByID implements store.CardStore.GetByID.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}

	return card, nil
}

// Create implements store.CardStore.Create.
func (s *PostgresCardStore) Create(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.db.ExecContext(ctx, query,
		card.ID,
		card.StudentID,
		card.ItemID,
		card.ItemType,
		card.State,
		card.Stability,
		card.Difficulty,
		card.Lapses,
		card.DueAt,
		nullableTime(card.LastReviewedAt),
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to create card: %w", err)
	}

	return nil
}

// UpdateScheduling implements store.CardStore.UpdateScheduling.
func (s *PostgresCardStore) UpdateScheduling(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE cards
		SET state = $1, stability = $2, difficulty = $3, lapses = $4,
			due_at = $5, last_reviewed_at = $6, updated_at = $7
		WHERE id = $8
	`

	result, err := s.db.ExecContext(ctx, query,
		card.State,
		card.Stability,
		card.Difficulty,
		card.Lapses,
		card.DueAt,
		nullableTime(card.LastReviewedAt),
		card.UpdatedAt,
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card scheduling: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrCardNotFound
	}

	return nil
}

// ListDue implements store.CardStore.ListDue. Overdue cards sort before
// merely-due ones, then lower stability wins; this is the priority order
// review sessions and load reduction both rely on.
func (s *PostgresCardStore) ListDue(
	ctx context.Context,
	studentID uuid.UUID,
	asOf time.Time,
	grace time.Duration,
	limit int,
) ([]*domain.Card, error) {
	overdueBefore := asOf.Add(-grace)

	query := `
		SELECT ` + cardColumns + `
		FROM cards
		WHERE student_id = $1 AND due_at <= $2
		ORDER BY (due_at < $3) DESC, stability ASC, due_at ASC
		LIMIT $4
	`

	rows, err := s.db.QueryContext(ctx, query, studentID, asOf, overdueBefore, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating card rows: %w", err)
	}

	return cards, nil
}

// CountHealth implements store.CardStore.CountHealth. Classroom and
// school scopes aggregate the same card rows their students would, so
// the counts are additive with the per-student numbers by construction.
func (s *PostgresCardStore) CountHealth(
	ctx context.Context,
	scope domain.Scope,
	scopeID uuid.UUID,
	asOf time.Time,
	grace time.Duration,
) (*store.HealthCounts, error) {
	var filter string
	switch scope {
	case domain.ScopeStudent:
		filter = `c.student_id = $1`
	case domain.ScopeClassroom:
		filter = `c.student_id IN (
			SELECT e.student_id FROM classroom_enrollments e WHERE e.classroom_id = $1)`
	case domain.ScopeSchool:
		filter = `c.student_id IN (
			SELECT e.student_id
			FROM classroom_enrollments e
			JOIN classrooms cl ON cl.id = e.classroom_id
			WHERE cl.school_id = $1)`
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidScope, scope)
	}

	query := `
		SELECT
			COUNT(*) AS card_count,
			COUNT(*) FILTER (WHERE c.due_at <= $2) AS due_count,
			COUNT(*) FILTER (WHERE c.due_at < $3) AS overdue_count,
			COUNT(*) FILTER (WHERE c.state = 'new') AS new_count,
			COALESCE(AVG(c.stability), 0) AS average_stability
		FROM cards c
		WHERE ` + filter

	overdueBefore := asOf.Add(-grace)

	var counts store.HealthCounts
	err := s.db.QueryRowContext(ctx, query, scopeID, asOf, overdueBefore).Scan(
		&counts.CardCount,
		&counts.DueCount,
		&counts.OverdueCount,
		&counts.NewCount,
		&counts.AverageStability,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count scope health: %w", err)
	}

	return &counts, nil
}

// WithTx implements store.CardStore.WithTx.
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var card domain.Card
	var lastReviewedAt sql.NullTime

	err := row.Scan(
		&card.ID,
		&card.StudentID,
		&card.ItemID,
		&card.ItemType,
		&card.State,
		&card.Stability,
		&card.Difficulty,
		&card.Lapses,
		&card.DueAt,
		&lastReviewedAt,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lastReviewedAt.Valid {
		t := lastReviewedAt.Time
		card.LastReviewedAt = &t
	}

	return &card, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
