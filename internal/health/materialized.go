package health

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// MaterializedViewSource reads health from the pre-aggregated rollup
// views. Cheap, but may lag real card state by up to one refresh
// interval; the freshness probe decides when that lag is acceptable.
type MaterializedViewSource struct {
	rollups store.RollupStore
	cfg     Config
}

// NewMaterializedViewSource creates a rollup-backed data source.
func NewMaterializedViewSource(rollups store.RollupStore, cfg Config) *MaterializedViewSource {
	if rollups == nil {
		panic("rollups cannot be nil")
	}

	return &MaterializedViewSource{rollups: rollups, cfg: cfg}
}

// Ensure MaterializedViewSource implements DataSource
var _ DataSource = (*MaterializedViewSource)(nil)

// ComputeHealth implements DataSource.ComputeHealth. A scope with no
// rollup row (no cards yet) yields an empty metric rather than an error;
// unknown scopes are rejected upstream against the roster.
func (s *MaterializedViewSource) ComputeHealth(
	ctx context.Context,
	scope domain.Scope,
	scopeID uuid.UUID,
	asOf time.Time,
) (*domain.RollupMetric, error) {
	counts, computedAt, err := s.rollups.GetCounts(ctx, scope, scopeID)
	if err != nil {
		if errors.Is(err, store.ErrRollupNotFound) {
			empty := &store.HealthCounts{}
			return metricFromCounts(scope, scopeID, empty, asOf, domain.SourceMaterializedView, s.cfg.OverloadThreshold), nil
		}
		return nil, err
	}

	return metricFromCounts(scope, scopeID, counts, computedAt, domain.SourceMaterializedView, s.cfg.OverloadThreshold), nil
}
