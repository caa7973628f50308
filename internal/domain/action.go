package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ActionType identifies a quick remediation action.
type ActionType string

// Supported quick action types.
const (
	// ActionReviewSession returns a prioritized, capped list of due cards.
	ActionReviewSession ActionType = "review_session"

	// ActionReduceLoad defers the lowest-priority due cards to later days.
	ActionReduceLoad ActionType = "reduce_load"

	// ActionSendReminder hands a study reminder to the notification collaborator.
	ActionSendReminder ActionType = "send_reminder"

	// ActionTeacherAlert hands an overload alert for a scope to the
	// notification collaborator.
	ActionTeacherAlert ActionType = "teacher_alert"

	// ActionBreakSession marks a session boundary. Advisory only.
	ActionBreakSession ActionType = "break_session"
)

// AllActionTypes lists every supported action type in a stable order.
var AllActionTypes = []ActionType{
	ActionReviewSession,
	ActionReduceLoad,
	ActionSendReminder,
	ActionTeacherAlert,
	ActionBreakSession,
}

// IsValid reports whether the action type is supported.
func (t ActionType) IsValid() bool {
	switch t {
	case ActionReviewSession, ActionReduceLoad, ActionSendReminder,
		ActionTeacherAlert, ActionBreakSession:
		return true
	default:
		return false
	}
}

// AppliesToScope reports whether the action type can target the given
// scope level. Per-student remediations make no sense on a classroom,
// and a teacher alert about a single student goes through the student's
// classroom instead.
func (t ActionType) AppliesToScope(scope Scope) bool {
	switch t {
	case ActionReviewSession, ActionReduceLoad, ActionSendReminder, ActionBreakSession:
		return scope == ScopeStudent
	case ActionTeacherAlert:
		return scope == ScopeClassroom || scope == ScopeSchool
	default:
		return false
	}
}

// Mutating reports whether executing the action changes scheduling state.
// Only mutating actions require cache invalidation afterwards.
func (t ActionType) Mutating() bool {
	return t == ActionReduceLoad
}

// ActionStatus is the lifecycle state of a quick action record.
type ActionStatus string

// Quick action lifecycle states. Pending records are claimed atomically;
// Completed and Failed are terminal, though a Failed record may be
// re-attempted by resubmitting the same action ID.
const (
	ActionStatusPending   ActionStatus = "pending"
	ActionStatusCompleted ActionStatus = "completed"
	ActionStatusFailed    ActionStatus = "failed"
)

// IsValid reports whether the status is one of the known values.
func (s ActionStatus) IsValid() bool {
	switch s {
	case ActionStatusPending, ActionStatusCompleted, ActionStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status is Completed or Failed.
func (s ActionStatus) Terminal() bool {
	return s == ActionStatusCompleted || s == ActionStatusFailed
}

// QuickAction is the idempotency record for one remediation request.
// The ID doubles as the caller-supplied idempotency key: a replay with
// the same ID returns the stored record instead of re-running the body.
type QuickAction struct {
	ID          uuid.UUID       `json:"id"`
	Type        ActionType      `json:"action_type"`
	Scope       Scope           `json:"scope"`
	ScopeID     uuid.UUID       `json:"scope_id"`
	RequestedBy uuid.UUID       `json:"requested_by"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
	Status      ActionStatus    `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	ExecutedAt  *time.Time      `json:"executed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// NewQuickAction creates a Pending action record for the given request.
func NewQuickAction(
	id uuid.UUID,
	actionType ActionType,
	scope Scope,
	scopeID uuid.UUID,
	requestedBy uuid.UUID,
	parameters json.RawMessage,
) (*QuickAction, error) {
	now := time.Now().UTC()
	action := &QuickAction{
		ID:          id,
		Type:        actionType,
		Scope:       scope,
		ScopeID:     scopeID,
		RequestedBy: requestedBy,
		Parameters:  parameters,
		Status:      ActionStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := action.Validate(); err != nil {
		return nil, err
	}

	return action, nil
}

// Validate checks the action record's fields.
func (a *QuickAction) Validate() error {
	if a.ID == uuid.Nil {
		return fmt.Errorf("%w: action ID cannot be empty", ErrValidation)
	}

	if !a.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidActionType, a.Type)
	}

	if err := (ScopeRef{Scope: a.Scope, ScopeID: a.ScopeID}).Validate(); err != nil {
		return err
	}

	if a.RequestedBy == uuid.Nil {
		return fmt.Errorf("%w: requested-by cannot be empty", ErrValidation)
	}

	if !a.Status.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidActionStatus, a.Status)
	}

	return nil
}
