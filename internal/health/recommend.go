package health

import (
	"fmt"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

// Default parameters suggested with quick-action recommendations.
const (
	suggestedCardLimit = 20
	suggestedDeferDays = 1
)

// Recommend produces a ranked list of quick actions for an unhealthy
// scope. A scope that is not overloaded gets no recommendations.
func Recommend(metric *domain.RollupMetric) []domain.Recommendation {
	if metric == nil || !metric.OverloadFlag {
		return nil
	}

	recs := []domain.Recommendation{
		{
			Rank:       1,
			ActionType: domain.ActionReduceLoad,
			Reason: fmt.Sprintf("%d of %d due cards are overdue; defer the lowest-priority ones",
				metric.OverdueCount, metric.DueCount),
			Parameters: map[string]any{
				"card_limit": suggestedCardLimit,
				"defer_days": suggestedDeferDays,
			},
		},
		{
			Rank:       2,
			ActionType: domain.ActionReviewSession,
			Reason:     "work through the most urgent cards in a capped session",
			Parameters: map[string]any{
				"card_limit": suggestedCardLimit,
			},
		},
	}

	switch metric.Scope {
	case domain.ScopeStudent:
		recs = append(recs, domain.Recommendation{
			Rank:       3,
			ActionType: domain.ActionSendReminder,
			Reason:     "nudge the student to resume daily reviews",
		})
	default:
		recs = append(recs, domain.Recommendation{
			Rank:       3,
			ActionType: domain.ActionTeacherAlert,
			Reason:     "alert the responsible teachers to the overload",
		})
	}

	return recs
}
