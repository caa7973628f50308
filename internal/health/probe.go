package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/platform/logger"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/refresher"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// RefreshHealthChecker is the slice of the rollup refresher the probe
// needs: a cheap freshness read that never triggers a refresh.
type RefreshHealthChecker interface {
	CheckHealth(ctx context.Context) (map[string]refresher.ViewHealth, error)
}

// FreshnessProbeSource selects between the materialized-view fast path
// and the live-query fallback per request. The fast path is used only
// when the scope's view passed its last refresh recently enough; any
// fast-path failure degrades transparently to the live query, and only
// when both paths fail is an error surfaced.
type FreshnessProbeSource struct {
	fast    DataSource
	slow    DataSource
	checker RefreshHealthChecker
	logger  *slog.Logger
}

// NewFreshnessProbeSource wires the probe over the two strategies.
// If log is nil, a default logger will be used.
func NewFreshnessProbeSource(
	fast, slow DataSource,
	checker RefreshHealthChecker,
	log *slog.Logger,
) *FreshnessProbeSource {
	if fast == nil || slow == nil {
		panic("data sources cannot be nil")
	}
	if checker == nil {
		panic("checker cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &FreshnessProbeSource{
		fast:    fast,
		slow:    slow,
		checker: checker,
		logger:  log.With(slog.String("component", "health_probe")),
	}
}

// Ensure FreshnessProbeSource implements DataSource
var _ DataSource = (*FreshnessProbeSource)(nil)

// ComputeHealth implements DataSource.ComputeHealth.
func (s *FreshnessProbeSource) ComputeHealth(
	ctx context.Context,
	scope domain.Scope,
	scopeID uuid.UUID,
	asOf time.Time,
) (*domain.RollupMetric, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if s.rollupFresh(ctx, scope, log) {
		metric, err := s.fast.ComputeHealth(ctx, scope, scopeID, asOf)
		if err == nil {
			return metric, nil
		}
		log.Warn("materialized rollup read failed, falling back to live query",
			slog.String("scope", string(scope)),
			slog.String("scope_id", scopeID.String()),
			slog.String("error", err.Error()))
	}

	metric, err := s.slow.ComputeHealth(ctx, scope, scopeID, asOf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStaleDataUnavailable, err)
	}

	return metric, nil
}

// rollupFresh probes the refresher's health for the scope's view.
// Probe failures route to the live query rather than failing the request.
func (s *FreshnessProbeSource) rollupFresh(ctx context.Context, scope domain.Scope, log *slog.Logger) bool {
	health, err := s.checker.CheckHealth(ctx)
	if err != nil {
		log.Warn("rollup freshness probe failed",
			slog.String("error", err.Error()))
		return false
	}

	view, ok := health[store.ViewForScope(scope)]
	return ok && !view.IsStale
}
