package domain

import (
	"time"

	"github.com/google/uuid"
)

// MetricSource records which read path produced a rollup metric.
type MetricSource string

// Possible metric sources.
const (
	// SourceMaterializedView means the metric was read from a
	// pre-aggregated rollup and may lag by up to one refresh interval.
	SourceMaterializedView MetricSource = "materialized_view"

	// SourceLiveQuery means the metric was computed directly from card
	// state and is exact as of ComputedAt.
	SourceLiveQuery MetricSource = "live_query"
)

// RollupMetric is the aggregated review-health snapshot for one scope.
// Counts are additive across child scopes: a classroom's DueCount is the
// sum of its students' DueCounts at a consistent snapshot.
type RollupMetric struct {
	Scope            Scope        `json:"scope"`
	ScopeID          uuid.UUID    `json:"scope_id"`
	CardCount        int          `json:"card_count"`
	DueCount         int          `json:"due_count"`
	OverdueCount     int          `json:"overdue_count"`
	NewCount         int          `json:"new_count"`
	AverageStability float64      `json:"average_stability"`
	OverloadFlag     bool         `json:"overload_flag"`
	ComputedAt       time.Time    `json:"computed_at"`
	Source           MetricSource `json:"source"`
}

// Overloaded reports whether the overdue-to-due ratio exceeds the given
// threshold. The denominator is floored at 1 so empty scopes are never
// flagged.
func Overloaded(overdueCount, dueCount int, threshold float64) bool {
	due := dueCount
	if due < 1 {
		due = 1
	}
	return float64(overdueCount)/float64(due) > threshold
}

// Recommendation suggests a quick action to remediate an unhealthy scope.
// Rank orders recommendations from most to least urgent, starting at 1.
type Recommendation struct {
	Rank       int            `json:"rank"`
	ActionType ActionType     `json:"action_type"`
	Reason     string         `json:"reason"`
	Parameters map[string]any `json:"parameters,omitempty"`
}
