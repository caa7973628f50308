// Package review wires review submissions through the scheduler: load
// the card, compute its next memory state, persist it and flush the
// cached metrics the change invalidates.
package review

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/cache"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain/srs"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/health"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/platform/logger"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// Service handles card review and postpone operations.
type Service struct {
	db        *sql.DB
	cards     store.CardStore
	roster    store.RosterStore
	scheduler srs.Service
	cache     *cache.MetricsCache
	logger    *slog.Logger
}

// NewService creates a review Service.
// If log is nil, a default logger will be used.
func NewService(
	db *sql.DB,
	cards store.CardStore,
	roster store.RosterStore,
	scheduler srs.Service,
	metricsCache *cache.MetricsCache,
	log *slog.Logger,
) *Service {
	if db == nil {
		panic("db cannot be nil")
	}
	if cards == nil {
		panic("cards cannot be nil")
	}
	if roster == nil {
		panic("roster cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}
	if metricsCache == nil {
		panic("cache cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}

	return &Service{
		db:        db,
		cards:     cards,
		roster:    roster,
		scheduler: scheduler,
		cache:     metricsCache,
		logger:    log.With(slog.String("component", "review_service")),
	}
}

// SubmitReview applies a rating to the card and persists the resulting
// memory state. Students may review only their own cards; a request for
// another student's card is rejected without revealing whether it exists.
func (s *Service) SubmitReview(
	ctx context.Context,
	principal domain.Principal,
	cardID uuid.UUID,
	rating domain.Rating,
) (*domain.Card, error) {
	if !rating.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRating, rating)
	}

	return s.mutateCard(ctx, principal, cardID, func(card domain.Card, now time.Time) (domain.Card, error) {
		return s.scheduler.UpdateCard(card, rating, now)
	})
}

// Postpone pushes the card's due date forward by days without touching
// its memory state.
func (s *Service) Postpone(
	ctx context.Context,
	principal domain.Principal,
	cardID uuid.UUID,
	days int,
) (*domain.Card, error) {
	return s.mutateCard(ctx, principal, cardID, func(card domain.Card, now time.Time) (domain.Card, error) {
		return s.scheduler.PostponeCard(card, days, now)
	})
}

// mutateCard runs the load-authorize-compute-save cycle shared by review
// and postpone inside one transaction.
func (s *Service) mutateCard(
	ctx context.Context,
	principal domain.Principal,
	cardID uuid.UUID,
	compute func(card domain.Card, now time.Time) (domain.Card, error),
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := principal.Validate(); err != nil {
		return nil, err
	}
	if cardID == uuid.Nil {
		return nil, fmt.Errorf("%w: card ID cannot be empty", domain.ErrInvalidID)
	}

	var updated domain.Card
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txCards := s.cards.WithTx(tx)

		card, err := txCards.GetByID(ctx, cardID)
		if err != nil {
			return err
		}

		if err := s.authorizeCard(ctx, principal, card); err != nil {
			return err
		}

		next, err := compute(*card, time.Now().UTC())
		if err != nil {
			return err
		}

		if err := txCards.UpdateScheduling(ctx, &next); err != nil {
			return err
		}

		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateStudent(ctx, log, updated.StudentID)

	log.Debug("card scheduling updated",
		slog.String("card_id", updated.ID.String()),
		slog.String("state", string(updated.State)),
		slog.Time("due_at", updated.DueAt))

	return &updated, nil
}

// authorizeCard checks the principal's relationship to the card's owner.
func (s *Service) authorizeCard(ctx context.Context, principal domain.Principal, card *domain.Card) error {
	switch principal.Role {
	case domain.RoleAdmin, domain.RoleSystem:
		return nil

	case domain.RoleStudent:
		if card.StudentID != principal.StudentID {
			return fmt.Errorf("%w: card belongs to another student", domain.ErrUnauthorized)
		}
		return nil

	case domain.RoleTeacher:
		owns, err := s.roster.TeacherOwnsStudent(ctx, principal.UserID, card.StudentID)
		if err != nil {
			return fmt.Errorf("failed to check student ownership: %w", err)
		}
		if !owns {
			return fmt.Errorf("%w: student not in any of the teacher's classrooms", domain.ErrUnauthorized)
		}
		return nil

	default:
		return fmt.Errorf("%w: unknown role", domain.ErrUnauthorized)
	}
}

// invalidateStudent flushes cached metrics for the student and every
// scope above them. Ancestor resolution failures degrade to flushing the
// student scope only.
func (s *Service) invalidateStudent(ctx context.Context, log *slog.Logger, studentID uuid.UUID) {
	s.cache.InvalidateByPrefix(health.CacheKey(domain.ScopeStudent, studentID))

	ancestors, err := s.roster.Ancestors(ctx, domain.ScopeStudent, studentID)
	if err != nil {
		log.Warn("failed to resolve ancestors for cache invalidation",
			slog.String("student_id", studentID.String()),
			slog.String("error", err.Error()))
		return
	}

	for _, ref := range ancestors {
		s.cache.InvalidateByPrefix(health.CacheKey(ref.Scope, ref.ScopeID))
	}
}
