package quickaction

import (
	"encoding/json"
	"fmt"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

// Params are the caller-supplied knobs of a quick action. Every field is
// optional; absent fields fall back to configured defaults.
type Params struct {
	// CardLimit caps review_session results and sets how many due cards a
	// reduce_load action keeps on today's plate.
	CardLimit *int `json:"card_limit,omitempty"`

	// DeferDays is how far reduce_load pushes the dropped cards.
	DeferDays *int `json:"defer_days,omitempty"`

	// Message overrides the default reminder or alert text.
	Message string `json:"message,omitempty"`
}

// parseParams decodes the raw parameter payload, tolerating an absent one.
func parseParams(raw json.RawMessage) (Params, error) {
	var p Params
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("%w: malformed action parameters: %v", domain.ErrValidation, err)
	}
	if p.CardLimit != nil && *p.CardLimit < 1 {
		return p, fmt.Errorf("%w: card_limit must be at least 1", domain.ErrValidation)
	}
	if p.DeferDays != nil && *p.DeferDays < 1 {
		return p, fmt.Errorf("%w: defer_days must be at least 1", domain.ErrValidation)
	}
	return p, nil
}

// validateScopeForType enforces which scope levels each action type
// accepts, sharing the predicate the policy layer uses for listings.
func validateScopeForType(actionType domain.ActionType, scope domain.Scope) error {
	if actionType.AppliesToScope(scope) {
		return nil
	}
	if actionType == domain.ActionTeacherAlert {
		return fmt.Errorf("%w: action %q applies to classroom or school scope", domain.ErrValidation, actionType)
	}
	return fmt.Errorf("%w: action %q applies to student scope only", domain.ErrValidation, actionType)
}
