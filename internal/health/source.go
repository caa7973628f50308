// Package health computes multi-scope review-health metrics. It houses
// the two interchangeable data source strategies (materialized rollup
// and live query), the freshness probe that selects between them, and
// the cached service the API layer talks to.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// ErrStaleDataUnavailable is surfaced when the fast path is stale or
// broken and the live-query fallback failed too. The wrapped
// store.ErrUnavailable lets the API layer map it to 503.
var ErrStaleDataUnavailable = fmt.Errorf("%w: stale data unavailable", store.ErrUnavailable)

// Config holds the thresholds shared by every data source.
type Config struct {
	// OverloadThreshold is the overdue-to-due ratio above which a scope
	// is flagged overloaded.
	OverloadThreshold float64

	// GracePeriod is how far past due a card must be to count as overdue.
	GracePeriod time.Duration

	// StaleAfter is how old a rollup refresh may be before the probe
	// routes reads to the live query instead.
	StaleAfter time.Duration
}

// DataSource is the strategy interface for computing a scope's health.
// Implementations must satisfy the additivity invariant: parent-scope
// counts equal the sum of their children's at a consistent snapshot.
type DataSource interface {
	ComputeHealth(
		ctx context.Context,
		scope domain.Scope,
		scopeID uuid.UUID,
		asOf time.Time,
	) (*domain.RollupMetric, error)
}

// metricFromCounts assembles a RollupMetric from raw counts.
func metricFromCounts(
	scope domain.Scope,
	scopeID uuid.UUID,
	counts *store.HealthCounts,
	computedAt time.Time,
	source domain.MetricSource,
	threshold float64,
) *domain.RollupMetric {
	return &domain.RollupMetric{
		Scope:            scope,
		ScopeID:          scopeID,
		CardCount:        counts.CardCount,
		DueCount:         counts.DueCount,
		OverdueCount:     counts.OverdueCount,
		NewCount:         counts.NewCount,
		AverageStability: counts.AverageStability,
		OverloadFlag:     domain.Overloaded(counts.OverdueCount, counts.DueCount, threshold),
		ComputedAt:       computedAt,
		Source:           source,
	}
}
