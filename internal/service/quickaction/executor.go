// Package quickaction executes idempotent remediation actions against a
// scope: capped review sessions, load reduction, reminders, alerts and
// session breaks. Every execution is recorded under a caller-supplied
// idempotency key; replays return the stored outcome instead of running
// the action twice.
package quickaction

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/cache"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain/srs"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/health"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/notify"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/platform/logger"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/service/authz"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// Config holds the executor's tunables.
type Config struct {
	// GracePeriod matches the health data source's overdue grace window so
	// session prioritization agrees with the metrics.
	GracePeriod time.Duration

	// StuckAfter is how old a Pending record must be before a retry with
	// the same ID may claim and re-run it.
	StuckAfter time.Duration

	// DefaultCardLimit is used when the caller supplies no card_limit.
	DefaultCardLimit int

	// MaxDeferDays caps how far reduce_load may push cards out.
	MaxDeferDays int
}

// Request is one quick action submission. A zero ID asks the executor to
// mint one; callers that want replay protection across retries supply
// their own.
type Request struct {
	ID         uuid.UUID
	Type       domain.ActionType
	Scope      domain.Scope
	ScopeID    uuid.UUID
	Parameters json.RawMessage
	Principal  domain.Principal
}

// Executor runs quick actions. It owns the idempotency protocol and the
// cache invalidation that follows mutating actions; the action bodies
// themselves live in actions.go.
type Executor struct {
	db        *sql.DB
	actions   store.QuickActionStore
	cards     store.CardStore
	roster    store.RosterStore
	policy    *authz.Policy
	scheduler srs.Service
	notifier  notify.Notifier
	cache     *cache.MetricsCache
	cfg       Config
	logger    *slog.Logger
}

// NewExecutor creates an Executor.
// If log is nil, a default logger will be used.
func NewExecutor(
	db *sql.DB,
	actions store.QuickActionStore,
	cards store.CardStore,
	roster store.RosterStore,
	policy *authz.Policy,
	scheduler srs.Service,
	notifier notify.Notifier,
	metricsCache *cache.MetricsCache,
	cfg Config,
	log *slog.Logger,
) *Executor {
	if db == nil {
		panic("db cannot be nil")
	}
	if actions == nil {
		panic("actions cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if roster == nil {
		panic("roster cannot be nil")
	}
	if policy == nil {
		panic("policy cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if notifier == nil {
		panic("notifier cannot be nil")
	}
	if metricsCache == nil {
		panic("cache cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Executor{
		db:        db,
		actions:   actions,
		cards:     cards,
		roster:    roster,
		policy:    policy,
		scheduler: scheduler,
		notifier:  notifier,
		cache:     metricsCache,
		cfg:       cfg,
		logger:    log.With(slog.String("component", "quick_action_executor")),
	}
}

// Execute validates, authorizes and runs the action. Authorization
// failures happen before any record is written, so a rejected request
// leaves no trace. A failed body is recorded on the action record and
// returned as a Failed record, not as an error; only infrastructure
// problems surface as errors.
func (e *Executor) Execute(ctx context.Context, req Request) (*domain.QuickAction, error) {
	log := logger.FromContextOrDefault(ctx, e.logger)

	if !req.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidActionType, req.Type)
	}
	if err := (domain.ScopeRef{Scope: req.Scope, ScopeID: req.ScopeID}).Validate(); err != nil {
		return nil, err
	}
	if err := validateScopeForType(req.Type, req.Scope); err != nil {
		return nil, err
	}
	if _, err := parseParams(req.Parameters); err != nil {
		return nil, err
	}

	allowed, err := e.policy.CanAct(ctx, req.Principal, req.Type, req.Scope, req.ScopeID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s on %s %s", domain.ErrUnauthorized, req.Type, req.Scope, req.ScopeID)
	}

	exists, err := e.roster.ScopeExists(ctx, req.Scope, req.ScopeID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scope: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s %s", store.ErrScopeNotFound, req.Scope, req.ScopeID)
	}

	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	action, err := domain.NewQuickAction(id, req.Type, req.Scope, req.ScopeID, req.Principal.UserID, req.Parameters)
	if err != nil {
		return nil, err
	}

	created, existing, err := e.actions.CreatePending(ctx, action)
	if err != nil {
		return nil, fmt.Errorf("failed to record action: %w", err)
	}
	if !created {
		return e.resolveExisting(ctx, log, existing)
	}

	return e.run(ctx, log, action)
}

// resolveExisting handles a submission whose idempotency key already has
// a record: replay a Completed outcome, retry a Failed one, take over a
// stuck Pending one, or report the in-flight record untouched.
func (e *Executor) resolveExisting(
	ctx context.Context,
	log *slog.Logger,
	existing *domain.QuickAction,
) (*domain.QuickAction, error) {
	switch existing.Status {
	case domain.ActionStatusCompleted:
		log.Debug("quick action replayed",
			slog.String("action_id", existing.ID.String()),
			slog.String("action_type", string(existing.Type)))
		return existing, nil

	case domain.ActionStatusFailed:
		now := time.Now().UTC()
		claimed, err := e.actions.Reattempt(ctx, existing.ID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to reattempt action: %w", err)
		}
		if !claimed {
			// Lost the race to another retry; return whatever it produced.
			return e.actions.GetByID(ctx, existing.ID)
		}
		return e.run(ctx, log, existing)

	default:
		now := time.Now().UTC()
		claimed, err := e.actions.ClaimStuck(ctx, existing.ID, now.Add(-e.cfg.StuckAfter), now)
		if err != nil {
			return nil, fmt.Errorf("failed to claim action: %w", err)
		}
		if !claimed {
			// Another executor is still working on it.
			return existing, nil
		}
		log.Warn("claimed stuck quick action",
			slog.String("action_id", existing.ID.String()),
			slog.String("action_type", string(existing.Type)))
		return e.run(ctx, log, existing)
	}
}

// run executes the action body and records the terminal outcome.
func (e *Executor) run(
	ctx context.Context,
	log *slog.Logger,
	action *domain.QuickAction,
) (*domain.QuickAction, error) {
	result, runErr := e.runBody(ctx, action)
	now := time.Now().UTC()

	if runErr != nil {
		log.Error("quick action failed",
			slog.String("action_id", action.ID.String()),
			slog.String("action_type", string(action.Type)),
			slog.String("error", runErr.Error()))

		failure, mErr := json.Marshal(map[string]string{"error": runErr.Error()})
		if mErr != nil {
			failure = nil
		}
		if err := e.actions.Fail(ctx, action.ID, failure, now); err != nil {
			return nil, fmt.Errorf("failed to record action failure: %w", err)
		}
		return e.actions.GetByID(ctx, action.ID)
	}

	if err := e.actions.Complete(ctx, action.ID, result, now); err != nil {
		return nil, fmt.Errorf("failed to record action result: %w", err)
	}

	if action.Type.Mutating() {
		e.invalidateScope(ctx, log, action.Scope, action.ScopeID)
	}

	log.Info("quick action completed",
		slog.String("action_id", action.ID.String()),
		slog.String("action_type", string(action.Type)),
		slog.String("scope", string(action.Scope)),
		slog.String("scope_id", action.ScopeID.String()))

	return e.actions.GetByID(ctx, action.ID)
}

// invalidateScope flushes cached metrics for the mutated scope and every
// scope above it. A failure to walk the ancestors degrades to flushing
// only the scope itself; stale ancestor entries expire on their TTL.
func (e *Executor) invalidateScope(
	ctx context.Context,
	log *slog.Logger,
	scope domain.Scope,
	scopeID uuid.UUID,
) {
	e.cache.InvalidateByPrefix(health.CacheKey(scope, scopeID))

	ancestors, err := e.roster.Ancestors(ctx, scope, scopeID)
	if err != nil {
		log.Warn("failed to resolve scope ancestors for cache invalidation",
			slog.String("scope", string(scope)),
			slog.String("scope_id", scopeID.String()),
			slog.String("error", err.Error()))
		return
	}

	for _, ref := range ancestors {
		e.cache.InvalidateByPrefix(health.CacheKey(ref.Scope, ref.ScopeID))
	}
}
