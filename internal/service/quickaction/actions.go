package quickaction

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/notify"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// deferBatchLimit bounds how many due cards one reduce_load pass will
// consider. Anything beyond it stays due and is picked up by a later run.
const deferBatchLimit = 500

// runBody dispatches to the per-type action body. Bodies return the
// result payload stored on the Completed record.
func (e *Executor) runBody(ctx context.Context, action *domain.QuickAction) (json.RawMessage, error) {
	params, err := parseParams(action.Parameters)
	if err != nil {
		return nil, err
	}

	switch action.Type {
	case domain.ActionReviewSession:
		return e.runReviewSession(ctx, action, params)
	case domain.ActionReduceLoad:
		return e.runReduceLoad(ctx, action, params)
	case domain.ActionSendReminder:
		return e.runSendReminder(ctx, action, params)
	case domain.ActionTeacherAlert:
		return e.runTeacherAlert(ctx, action, params)
	case domain.ActionBreakSession:
		return e.runBreakSession(action)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidActionType, action.Type)
	}
}

func (e *Executor) cardLimit(params Params) int {
	if params.CardLimit != nil {
		return *params.CardLimit
	}
	return e.cfg.DefaultCardLimit
}

// sessionCard is one entry of a review_session plan.
type sessionCard struct {
	CardID         uuid.UUID `json:"card_id"`
	Retrievability float64   `json:"retrievability"`
	Overdue        bool      `json:"overdue"`
}

// runReviewSession assembles a capped, urgency-ordered study plan from
// the student's due cards, annotating each with its estimated recall
// probability. Read-only: nothing is rescheduled.
func (e *Executor) runReviewSession(
	ctx context.Context,
	action *domain.QuickAction,
	params Params,
) (json.RawMessage, error) {
	limit := e.cardLimit(params)
	now := time.Now().UTC()

	due, err := e.cards.ListDue(ctx, action.ScopeID, now, e.cfg.GracePeriod, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due cards: %w", err)
	}

	plan := make([]sessionCard, len(due))
	for i, card := range due {
		plan[i] = sessionCard{
			CardID:         card.ID,
			Retrievability: e.scheduler.Retrievability(*card, now),
			Overdue:        card.IsOverdue(now, e.cfg.GracePeriod),
		}
	}

	return json.Marshal(map[string]any{
		"cards":      plan,
		"card_count": len(plan),
	})
}

// runReduceLoad keeps the most urgent due cards on today's plate and
// postpones the rest. Only due dates move: stability and difficulty are
// untouched, so the memory model is not distorted by workload tweaks.
// The deferrals commit atomically; a partial failure reschedules nothing.
func (e *Executor) runReduceLoad(
	ctx context.Context,
	action *domain.QuickAction,
	params Params,
) (json.RawMessage, error) {
	keep := e.cardLimit(params)
	deferDays := 1
	if params.DeferDays != nil {
		deferDays = *params.DeferDays
	}
	if deferDays > e.cfg.MaxDeferDays {
		deferDays = e.cfg.MaxDeferDays
	}

	now := time.Now().UTC()
	due, err := e.cards.ListDue(ctx, action.ScopeID, now, e.cfg.GracePeriod, deferBatchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due cards: %w", err)
	}

	if len(due) <= keep {
		return json.Marshal(map[string]any{
			"kept":       len(due),
			"deferred":   0,
			"defer_days": deferDays,
		})
	}

	toDefer := due[keep:]
	err = store.RunInTransaction(ctx, e.db, func(ctx context.Context, tx *sql.Tx) error {
		txCards := e.cards.WithTx(tx)
		for _, card := range toDefer {
			postponed, err := e.scheduler.PostponeCard(*card, deferDays, now)
			if err != nil {
				return fmt.Errorf("failed to postpone card %s: %w", card.ID, err)
			}
			if err := txCards.UpdateScheduling(ctx, &postponed); err != nil {
				return fmt.Errorf("failed to save card %s: %w", card.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return json.Marshal(map[string]any{
		"kept":       keep,
		"deferred":   len(toDefer),
		"defer_days": deferDays,
	})
}

func (e *Executor) runSendReminder(
	ctx context.Context,
	action *domain.QuickAction,
	params Params,
) (json.RawMessage, error) {
	message := params.Message
	if message == "" {
		message = "You have reviews waiting. A short session now keeps your streak alive."
	}

	err := e.notifier.Send(ctx, notify.Payload{
		Kind:        domain.ActionSendReminder,
		Scope:       action.Scope,
		ScopeID:     action.ScopeID,
		RequestedBy: action.RequestedBy,
		Message:     message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send reminder: %w", err)
	}

	return json.Marshal(map[string]any{"notified": true})
}

func (e *Executor) runTeacherAlert(
	ctx context.Context,
	action *domain.QuickAction,
	params Params,
) (json.RawMessage, error) {
	message := params.Message
	if message == "" {
		message = fmt.Sprintf("Review backlog alert for %s %s.", action.Scope, action.ScopeID)
	}

	err := e.notifier.Send(ctx, notify.Payload{
		Kind:        domain.ActionTeacherAlert,
		Scope:       action.Scope,
		ScopeID:     action.ScopeID,
		RequestedBy: action.RequestedBy,
		Message:     message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to send alert: %w", err)
	}

	return json.Marshal(map[string]any{"notified": true})
}

// runBreakSession is advisory: the record itself is the outcome, giving
// clients a shared marker that a session boundary was requested.
func (e *Executor) runBreakSession(action *domain.QuickAction) (json.RawMessage, error) {
	return json.Marshal(map[string]any{
		"acknowledged": true,
		"student_id":   action.ScopeID,
	})
}
