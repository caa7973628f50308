package health

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/cache"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

// CacheKey returns the metrics-cache key for a scope. Quick actions use
// the same format to invalidate a mutated scope and its ancestors.
func CacheKey(scope domain.Scope, scopeID uuid.UUID) string {
	return fmt.Sprintf("health:%s:%s", scope, scopeID)
}

// Service is the cached front of the health data source. All reads from
// the API layer go through here; only administrative endpoints touch the
// cache directly.
type Service struct {
	cache  *cache.MetricsCache
	source DataSource
	ttl    time.Duration
	logger *slog.Logger
}

// NewService creates the cached health service.
// If log is nil, a default logger will be used.
func NewService(c *cache.MetricsCache, source DataSource, ttl time.Duration, log *slog.Logger) *Service {
	if c == nil {
		panic("cache cannot be nil")
	}
	if source == nil {
		panic("source cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Service{
		cache:  c,
		source: source,
		ttl:    ttl,
		logger: log.With(slog.String("component", "health_service")),
	}
}

// GetHealth returns the scope's rollup metric, from cache when possible,
// plus quick-action recommendations when includeDetails is set.
// Recommendations are derived from the metric and never cached
// separately.
func (s *Service) GetHealth(
	ctx context.Context,
	scope domain.Scope,
	scopeID uuid.UUID,
	includeDetails bool,
) (*domain.RollupMetric, []domain.Recommendation, error) {
	key := CacheKey(scope, scopeID)

	value, err := s.cache.Get(ctx, key, s.ttl, func(ctx context.Context) (any, error) {
		return s.source.ComputeHealth(ctx, scope, scopeID, time.Now().UTC())
	})
	if err != nil {
		return nil, nil, err
	}

	metric, ok := value.(*domain.RollupMetric)
	if !ok {
		return nil, nil, fmt.Errorf("unexpected cache value type %T for key %s", value, key)
	}

	var recs []domain.Recommendation
	if includeDetails {
		recs = Recommend(metric)
	}

	return metric, recs, nil
}
