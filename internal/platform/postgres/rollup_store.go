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

// PostgresRollupStore implements the store.RollupStore interface on top
// of the srs_*_rollups materialized views and the refresh history table.
type PostgresRollupStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRollupStore creates a new PostgreSQL implementation of the
// RollupStore interface. If logger is nil, a default logger will be used.
func NewPostgresRollupStore(db store.DBTX, logger *slog.Logger) *PostgresRollupStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRollupStore{
		db:     db,
		logger: logger.With(slog.String("component", "rollup_store")),
	}
}

// Ensure PostgresRollupStore implements store.RollupStore interface
var _ store.RollupStore = (*PostgresRollupStore)(nil)

// GetCounts implements store.RollupStore.GetCounts.
func (s *PostgresRollupStore) GetCounts(
	ctx context.Context,
	scope domain.Scope,
	scopeID uuid.UUID,
) (*store.HealthCounts, time.Time, error) {
	view := store.ViewForScope(scope)
	if err := validateViewName(view); err != nil {
		return nil, time.Time{}, err
	}

	// View names come from the fixed allowlist above, never from input.
	query := fmt.Sprintf(`
		SELECT card_count, due_count, overdue_count, new_count, average_stability, computed_at
		FROM %s
		WHERE scope_id = $1
	`, view)

	var counts store.HealthCounts
	var computedAt time.Time
	err := s.db.QueryRowContext(ctx, query, scopeID).Scan(
		&counts.CardCount,
		&counts.DueCount,
		&counts.OverdueCount,
		&counts.NewCount,
		&counts.AverageStability,
		&computedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, store.ErrRollupNotFound
		}
		if isUndefinedTable(err) {
			return nil, time.Time{}, fmt.Errorf("%w: view %s missing: %v", store.ErrUnavailable, view, err)
		}
		return nil, time.Time{}, fmt.Errorf("%w: failed to read rollup: %v", store.ErrUnavailable, err)
	}

	return &counts, computedAt, nil
}

// Refresh implements store.RollupStore.Refresh.
func (s *PostgresRollupStore) Refresh(ctx context.Context, view string, concurrently bool) error {
	if err := validateViewName(view); err != nil {
		return err
	}

	stmt := "REFRESH MATERIALIZED VIEW "
	if concurrently {
		stmt += "CONCURRENTLY "
	}
	stmt += view

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		if concurrently && isConcurrentRefreshUnsupported(err) {
			return fmt.Errorf("concurrent refresh of %s unsupported: %w", view, err)
		}
		return fmt.Errorf("failed to refresh %s: %w", view, err)
	}

	s.logger.Debug("refreshed materialized view",
		slog.String("view", view),
		slog.Bool("concurrently", concurrently))

	return nil
}

// MarkRefreshed implements store.RollupStore.MarkRefreshed.
func (s *PostgresRollupStore) MarkRefreshed(ctx context.Context, view string, at time.Time) error {
	if err := validateViewName(view); err != nil {
		return err
	}

	query := `
		INSERT INTO srs_rollup_refreshes (view_name, refreshed_at)
		VALUES ($1, $2)
		ON CONFLICT (view_name) DO UPDATE SET refreshed_at = EXCLUDED.refreshed_at
	`

	if _, err := s.db.ExecContext(ctx, query, view, at); err != nil {
		return fmt.Errorf("failed to record refresh of %s: %w", view, err)
	}

	return nil
}

// ViewStatuses implements store.RollupStore.ViewStatuses.
func (s *PostgresRollupStore) ViewStatuses(ctx context.Context) ([]store.ViewStatus, error) {
	query := `SELECT view_name, refreshed_at FROM srs_rollup_refreshes`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read refresh history: %v", store.ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	recorded := make(map[string]time.Time, len(store.AllRollupViews))
	for rows.Next() {
		var view string
		var at time.Time
		if err := rows.Scan(&view, &at); err != nil {
			return nil, fmt.Errorf("failed to scan refresh row: %w", err)
		}
		recorded[view] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating refresh rows: %w", err)
	}

	// Views never refreshed still appear, with a zero time.
	statuses := make([]store.ViewStatus, 0, len(store.AllRollupViews))
	for _, view := range store.AllRollupViews {
		statuses = append(statuses, store.ViewStatus{
			View:          view,
			LastRefreshed: recorded[view],
		})
	}

	return statuses, nil
}

// validateViewName rejects anything outside the fixed rollup view list.
// View names are interpolated into SQL, so this is load-bearing.
func validateViewName(view string) error {
	for _, known := range store.AllRollupViews {
		if view == known {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown rollup view %q", store.ErrRollupNotFound, view)
}
