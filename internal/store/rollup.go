package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

// Materialized view names backing the fast health path, one per scope.
const (
	ViewStudentRollups   = "srs_student_rollups"
	ViewClassroomRollups = "srs_classroom_rollups"
	ViewSchoolRollups    = "srs_school_rollups"
)

// AllRollupViews lists every rollup view in refresh order (children
// before parents, so a single refresh pass is internally consistent).
var AllRollupViews = []string{
	ViewStudentRollups,
	ViewClassroomRollups,
	ViewSchoolRollups,
}

// ViewForScope maps a scope to the materialized view that serves it.
func ViewForScope(scope domain.Scope) string {
	switch scope {
	case domain.ScopeClassroom:
		return ViewClassroomRollups
	case domain.ScopeSchool:
		return ViewSchoolRollups
	default:
		return ViewStudentRollups
	}
}

// ViewStatus reports when a rollup view was last refreshed.
type ViewStatus struct {
	View          string
	LastRefreshed time.Time
}

// RollupStore defines the interface for the pre-aggregated rollups and
// their refresh bookkeeping.
type RollupStore interface {
	// GetCounts reads the scope's row from its materialized view.
	// Returns ErrRollupNotFound if the scope has no row, or ErrUnavailable
	// if the view cannot be read.
	GetCounts(ctx context.Context, scope domain.Scope, scopeID uuid.UUID) (*HealthCounts, time.Time, error)

	// Refresh recomputes one materialized view. With concurrently set it
	// uses a non-blocking refresh that allows reads during the rebuild;
	// that strategy requires a supporting unique index and fails without
	// one, in which case the caller falls back to an exclusive refresh.
	Refresh(ctx context.Context, view string, concurrently bool) error

	// MarkRefreshed records a successful refresh in the refresh history.
	MarkRefreshed(ctx context.Context, view string, at time.Time) error

	// ViewStatuses returns the last recorded refresh time for every known
	// rollup view. Views never refreshed report a zero time. This is a
	// cheap read and never triggers a refresh.
	ViewStatuses(ctx context.Context) ([]ViewStatus, error)
}
