package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

func TestActionTypeMutating(t *testing.T) {
	t.Parallel()

	for _, actionType := range domain.AllActionTypes {
		want := actionType == domain.ActionReduceLoad
		assert.Equal(t, want, actionType.Mutating(), "action %s", actionType)
	}
}

func TestActionTypeAppliesToScope(t *testing.T) {
	t.Parallel()

	studentOnly := []domain.ActionType{
		domain.ActionReviewSession,
		domain.ActionReduceLoad,
		domain.ActionSendReminder,
		domain.ActionBreakSession,
	}

	for _, actionType := range studentOnly {
		assert.True(t, actionType.AppliesToScope(domain.ScopeStudent), "action %s", actionType)
		assert.False(t, actionType.AppliesToScope(domain.ScopeClassroom), "action %s", actionType)
		assert.False(t, actionType.AppliesToScope(domain.ScopeSchool), "action %s", actionType)
	}

	assert.False(t, domain.ActionTeacherAlert.AppliesToScope(domain.ScopeStudent))
	assert.True(t, domain.ActionTeacherAlert.AppliesToScope(domain.ScopeClassroom))
	assert.True(t, domain.ActionTeacherAlert.AppliesToScope(domain.ScopeSchool))

	assert.False(t, domain.ActionType("celebrate").AppliesToScope(domain.ScopeStudent))
}

func TestActionStatusTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, domain.ActionStatusPending.Terminal())
	assert.True(t, domain.ActionStatusCompleted.Terminal())
	assert.True(t, domain.ActionStatusFailed.Terminal())
}

func TestNewQuickAction(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	scopeID := uuid.New()
	requestedBy := uuid.New()
	params := json.RawMessage(`{"card_limit": 10}`)

	action, err := domain.NewQuickAction(
		id, domain.ActionReduceLoad, domain.ScopeStudent, scopeID, requestedBy, params)
	require.NoError(t, err)

	assert.Equal(t, id, action.ID)
	assert.Equal(t, domain.ActionStatusPending, action.Status)
	assert.Nil(t, action.ExecutedAt)
	assert.Nil(t, action.Result)
}

func TestNewQuickActionValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		id          uuid.UUID
		actionType  domain.ActionType
		scope       domain.Scope
		scopeID     uuid.UUID
		requestedBy uuid.UUID
		wantErr     error
	}{
		{
			name:        "empty id",
			actionType:  domain.ActionReviewSession,
			scope:       domain.ScopeStudent,
			scopeID:     uuid.New(),
			requestedBy: uuid.New(),
			wantErr:     domain.ErrValidation,
		},
		{
			name:        "unknown action type",
			id:          uuid.New(),
			actionType:  domain.ActionType("celebrate"),
			scope:       domain.ScopeStudent,
			scopeID:     uuid.New(),
			requestedBy: uuid.New(),
			wantErr:     domain.ErrInvalidActionType,
		},
		{
			name:        "unknown scope",
			id:          uuid.New(),
			actionType:  domain.ActionReviewSession,
			scope:       domain.Scope("district"),
			scopeID:     uuid.New(),
			requestedBy: uuid.New(),
			wantErr:     domain.ErrInvalidScope,
		},
		{
			name:       "missing requester",
			id:         uuid.New(),
			actionType: domain.ActionReviewSession,
			scope:      domain.ScopeStudent,
			scopeID:    uuid.New(),
			wantErr:    domain.ErrValidation,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := domain.NewQuickAction(tc.id, tc.actionType, tc.scope, tc.scopeID, tc.requestedBy, nil)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}
