package health

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// LiveQuerySource computes health directly from card rows. Always
// correct as of the query time, but the most expensive read path; the
// probe uses it as the fallback behind the materialized rollups.
type LiveQuerySource struct {
	cards store.CardStore
	cfg   Config
}

// NewLiveQuerySource creates a live-query data source.
func NewLiveQuerySource(cards store.CardStore, cfg Config) *LiveQuerySource {
	if cards == nil {
		panic("cards cannot be nil")
	}

	return &LiveQuerySource{cards: cards, cfg: cfg}
}

// Ensure LiveQuerySource implements DataSource
var _ DataSource = (*LiveQuerySource)(nil)

// ComputeHealth implements DataSource.ComputeHealth.
func (s *LiveQuerySource) ComputeHealth(
	ctx context.Context,
	scope domain.Scope,
	scopeID uuid.UUID,
	asOf time.Time,
) (*domain.RollupMetric, error) {
	counts, err := s.cards.CountHealth(ctx, scope, scopeID, asOf, s.cfg.GracePeriod)
	if err != nil {
		return nil, fmt.Errorf("live health query failed: %w", err)
	}

	return metricFromCounts(scope, scopeID, counts, asOf, domain.SourceLiveQuery, s.cfg.OverloadThreshold), nil
}
