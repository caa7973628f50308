package srs

import (
	"fmt"
	"time"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

// Service defines the interface for SRS scheduling operations. All
// methods are pure: they return new card values and perform no I/O.
type Service interface {
	// UpdateCard computes the card's next memory state from a review rating.
	UpdateCard(card domain.Card, rating domain.Rating, now time.Time) (domain.Card, error)

	// PostponeCard pushes the card's due date forward by the given number
	// of days without touching stability or difficulty. Used by
	// load-reduction quick actions.
	PostponeCard(card domain.Card, days int, now time.Time) (domain.Card, error)

	// Retrievability estimates the probability that the learner can still
	// recall the card at the given time. Returns 0 for unreviewed cards.
	Retrievability(card domain.Card, now time.Time) float64
}

// defaultService is the standard implementation of the Service interface.
type defaultService struct {
	params *Params
}

// NewDefaultService creates an SRS service with the default parameters.
func NewDefaultService() Service {
	return &defaultService{params: NewDefaultParams()}
}

// NewService creates an SRS service with custom parameters.
// Returns an error if the parameter set is inconsistent.
func NewService(params *Params) (Service, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: params cannot be nil", domain.ErrValidation)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return &defaultService{params: params}, nil
}

// UpdateCard implements Service.UpdateCard.
func (s *defaultService) UpdateCard(
	card domain.Card,
	rating domain.Rating,
	now time.Time,
) (domain.Card, error) {
	if !rating.IsValid() {
		return domain.Card{}, fmt.Errorf("%w: %q", domain.ErrInvalidRating, rating)
	}

	if err := card.Validate(); err != nil {
		return domain.Card{}, err
	}

	return updateCard(card, rating, now.UTC(), s.params), nil
}

// PostponeCard implements Service.PostponeCard.
func (s *defaultService) PostponeCard(
	card domain.Card,
	days int,
	now time.Time,
) (domain.Card, error) {
	if days < 1 {
		return domain.Card{}, fmt.Errorf("%w: postpone days must be at least 1", domain.ErrValidation)
	}

	if err := card.Validate(); err != nil {
		return domain.Card{}, err
	}

	next := card
	next.DueAt = card.DueAt.AddDate(0, 0, days)
	next.UpdatedAt = now.UTC()
	return next, nil
}

// Retrievability implements Service.Retrievability.
func (s *defaultService) Retrievability(card domain.Card, now time.Time) float64 {
	if card.LastReviewedAt == nil || card.Stability <= 0 {
		return 0
	}
	elapsed := now.Sub(*card.LastReviewedAt).Hours() / 24.0
	if elapsed < 0 {
		elapsed = 0
	}
	return retrievability(elapsed, card.Stability, s.params)
}
