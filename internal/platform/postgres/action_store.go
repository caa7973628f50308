package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// PostgresQuickActionStore implements the store.QuickActionStore
// interface using a PostgreSQL database as the storage backend. The
// primary key on the action ID provides the atomic insert-if-absent
// primitive the idempotency contract requires, so it is safe with
// executors spread across processes.
type PostgresQuickActionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuickActionStore creates a new PostgreSQL implementation of
// the QuickActionStore interface. If logger is nil, a default logger
// will be used.
func NewPostgresQuickActionStore(db store.DBTX, logger *slog.Logger) *PostgresQuickActionStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresQuickActionStore{
		db:     db,
		logger: logger.With(slog.String("component", "quick_action_store")),
	}
}

// Ensure PostgresQuickActionStore implements store.QuickActionStore interface
var _ store.QuickActionStore = (*PostgresQuickActionStore)(nil)

const actionColumns = `id, action_type, scope, scope_id, requested_by, parameters,
	status, result, executed_at, created_at, updated_at`

// CreatePending implements store.QuickActionStore.CreatePending.
func (s *PostgresQuickActionStore) CreatePending(
	ctx context.Context,
	action *domain.QuickAction,
) (bool, *domain.QuickAction, error) {
	if err := action.Validate(); err != nil {
		return false, nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO quick_actions (` + actionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query,
		action.ID,
		action.Type,
		action.Scope,
		action.ScopeID,
		action.RequestedBy,
		nullableJSON(action.Parameters),
		action.Status,
		nullableJSON(action.Result),
		nullableTime(action.ExecutedAt),
		action.CreatedAt,
		action.UpdatedAt,
	)
	if err != nil {
		return false, nil, fmt.Errorf("failed to create pending action: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows > 0 {
		return true, nil, nil
	}

	// Lost the race (or a replay): hand back the record that won.
	existing, err := s.GetByID(ctx, action.ID)
	if err != nil {
		return false, nil, err
	}
	return false, existing, nil
}

// ClaimStuck implements store.QuickActionStore.ClaimStuck.
func (s *PostgresQuickActionStore) ClaimStuck(
	ctx context.Context,
	id uuid.UUID,
	stuckBefore, now time.Time,
) (bool, error) {
	query := `
		UPDATE quick_actions
		SET updated_at = $1
		WHERE id = $2 AND status = $3 AND updated_at < $4
	`

	result, err := s.db.ExecContext(ctx, query, now, id, domain.ActionStatusPending, stuckBefore)
	if err != nil {
		return false, fmt.Errorf("failed to claim stuck action: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// Reattempt implements store.QuickActionStore.Reattempt.
func (s *PostgresQuickActionStore) Reattempt(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	query := `
		UPDATE quick_actions
		SET status = $1, result = NULL, executed_at = NULL, updated_at = $2
		WHERE id = $3 AND status = $4
	`

	result, err := s.db.ExecContext(ctx, query,
		domain.ActionStatusPending, now, id, domain.ActionStatusFailed)
	if err != nil {
		return false, fmt.Errorf("failed to reattempt action: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// Complete implements store.QuickActionStore.Complete.
func (s *PostgresQuickActionStore) Complete(
	ctx context.Context,
	id uuid.UUID,
	result json.RawMessage,
	at time.Time,
) error {
	return s.finish(ctx, id, domain.ActionStatusCompleted, result, at)
}

// Fail implements store.QuickActionStore.Fail.
func (s *PostgresQuickActionStore) Fail(
	ctx context.Context,
	id uuid.UUID,
	result json.RawMessage,
	at time.Time,
) error {
	return s.finish(ctx, id, domain.ActionStatusFailed, result, at)
}

func (s *PostgresQuickActionStore) finish(
	ctx context.Context,
	id uuid.UUID,
	status domain.ActionStatus,
	result json.RawMessage,
	at time.Time,
) error {
	query := `
		UPDATE quick_actions
		SET status = $1, result = $2, executed_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`

	res, err := s.db.ExecContext(ctx, query,
		status, nullableJSON(result), at, id, domain.ActionStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark action %s: %w", status, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Either unknown or already terminal; distinguish for the caller.
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		s.logger.Warn("action already finished, leaving record untouched",
			slog.String("action_id", id.String()),
			slog.String("attempted_status", string(status)))
	}

	return nil
}

// GetByID implements store.QuickActionStore.GetByID.
func (s *PostgresQuickActionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuickAction, error) {
	query := `SELECT ` + actionColumns + ` FROM quick_actions WHERE id = $1`

	var action domain.QuickAction
	var parameters, result []byte
	var executedAt sql.NullTime

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&action.ID,
		&action.Type,
		&action.Scope,
		&action.ScopeID,
		&action.RequestedBy,
		&parameters,
		&action.Status,
		&result,
		&executedAt,
		&action.CreatedAt,
		&action.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrActionNotFound
		}
		return nil, fmt.Errorf("failed to get action: %w", err)
	}

	action.Parameters = parameters
	action.Result = result
	if executedAt.Valid {
		t := executedAt.Time
		action.ExecutedAt = &t
	}

	return &action, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
