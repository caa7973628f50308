package srs_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain/srs"
)

func newCard(t *testing.T) domain.Card {
	t.Helper()

	card, err := domain.NewCard(uuid.New(), uuid.New(), domain.ItemTypeVocabulary)
	require.NoError(t, err)
	return *card
}

func reviewedCard(t *testing.T, stability, difficulty float64, lastReviewed time.Time) domain.Card {
	t.Helper()

	card := newCard(t)
	card.State = domain.CardStateReview
	card.Stability = stability
	card.Difficulty = difficulty
	card.LastReviewedAt = &lastReviewed
	card.DueAt = lastReviewed.AddDate(0, 0, int(stability))
	return card
}

func TestUpdateCardFirstReview(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := srs.NewDefaultService()

	tests := []struct {
		name          string
		rating        domain.Rating
		wantStability float64
		wantDue       time.Time
	}{
		{"again", domain.RatingAgain, 0.4, now.Add(10 * time.Minute)},
		{"hard", domain.RatingHard, 0.9, now.Add(12 * time.Hour)},
		{"good", domain.RatingGood, 2.3, now.Add(24 * time.Hour)},
		{"easy", domain.RatingEasy, 5.8, now.Add(48 * time.Hour)},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			card := newCard(t)
			next, err := svc.UpdateCard(card, tc.rating, now)
			require.NoError(t, err)

			assert.Equal(t, domain.CardStateLearning, next.State)
			assert.InDelta(t, tc.wantStability, next.Stability, 1e-9)
			assert.Equal(t, tc.wantDue, next.DueAt)
			require.NotNil(t, next.LastReviewedAt)
			assert.Equal(t, now, *next.LastReviewedAt)
			assert.Equal(t, 0, next.Lapses)
		})
	}
}

func TestUpdateCardFirstGoodReviewDueInOneDay(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	svc := srs.NewDefaultService()

	next, err := svc.UpdateCard(newCard(t), domain.RatingGood, now)
	require.NoError(t, err)

	assert.Equal(t, now.Add(24*time.Hour), next.DueAt)
}

func TestUpdateCardAgainTriggersLapse(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := srs.NewDefaultService()

	card := reviewedCard(t, 10.0, 5.0, now.AddDate(0, 0, -12))
	card.Lapses = 2

	next, err := svc.UpdateCard(card, domain.RatingAgain, now)
	require.NoError(t, err)

	assert.Equal(t, domain.CardStateRelearning, next.State)
	assert.Equal(t, 3, next.Lapses)
	assert.InDelta(t, 5.0, next.Stability, 1e-9)
	assert.Less(t, next.Stability, card.Stability)
	assert.Equal(t, now.Add(10*time.Minute), next.DueAt)
}

func TestUpdateCardLapseStabilityFloored(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	svc := srs.NewDefaultService()

	card := reviewedCard(t, 0.15, 5.0, now.Add(-time.Hour))

	next, err := svc.UpdateCard(card, domain.RatingAgain, now)
	require.NoError(t, err)

	assert.InDelta(t, 0.1, next.Stability, 1e-9)
}

func TestUpdateCardSuccessNeverReducesStability(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := srs.NewDefaultService()

	stabilities := []float64{0.5, 2.3, 10, 80, 300}
	ratings := []domain.Rating{domain.RatingHard, domain.RatingGood, domain.RatingEasy}

	for _, stability := range stabilities {
		for _, rating := range ratings {
			card := reviewedCard(t, stability, 6.0, now.AddDate(0, 0, -5))

			next, err := svc.UpdateCard(card, rating, now)
			require.NoError(t, err)

			assert.GreaterOrEqual(t, next.Stability, card.Stability,
				"stability %.1f rating %s", stability, rating)
			assert.Equal(t, domain.CardStateReview, next.State)
			assert.GreaterOrEqual(t, next.Difficulty, 1.0)
			assert.LessOrEqual(t, next.Difficulty, 10.0)
			assert.True(t, next.DueAt.After(now))
		}
	}
}

func TestUpdateCardRatingOrdering(t *testing.T) {
	t.Parallel()

	// A stronger rating on the same card never yields a shorter interval.
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := srs.NewDefaultService()
	card := reviewedCard(t, 8.0, 5.0, now.AddDate(0, 0, -8))

	hard, err := svc.UpdateCard(card, domain.RatingHard, now)
	require.NoError(t, err)
	good, err := svc.UpdateCard(card, domain.RatingGood, now)
	require.NoError(t, err)
	easy, err := svc.UpdateCard(card, domain.RatingEasy, now)
	require.NoError(t, err)

	assert.LessOrEqual(t, hard.Stability, good.Stability)
	assert.LessOrEqual(t, good.Stability, easy.Stability)
	assert.False(t, good.DueAt.Before(hard.DueAt))
	assert.False(t, easy.DueAt.Before(good.DueAt))
}

func TestUpdateCardDifficultyDrift(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := srs.NewDefaultService()
	card := reviewedCard(t, 5.0, 5.0, now.AddDate(0, 0, -5))

	hard, err := svc.UpdateCard(card, domain.RatingHard, now)
	require.NoError(t, err)
	assert.InDelta(t, 5.8, hard.Difficulty, 1e-9)

	good, err := svc.UpdateCard(card, domain.RatingGood, now)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, good.Difficulty, 1e-9)

	easy, err := svc.UpdateCard(card, domain.RatingEasy, now)
	require.NoError(t, err)
	assert.InDelta(t, 4.4, easy.Difficulty, 1e-9)
}

func TestUpdateCardIntervalCapped(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	params := srs.NewDefaultParams()
	params.MaxIntervalDays = 30
	svc, err := srs.NewService(params)
	require.NoError(t, err)

	card := reviewedCard(t, 200.0, 2.0, now.AddDate(0, 0, -200))

	next, err := svc.UpdateCard(card, domain.RatingEasy, now)
	require.NoError(t, err)

	assert.Equal(t, now.AddDate(0, 0, 30), next.DueAt)
}

func TestUpdateCardInvalidRating(t *testing.T) {
	t.Parallel()

	svc := srs.NewDefaultService()

	_, err := svc.UpdateCard(newCard(t), domain.Rating("perfect"), time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrInvalidRating)
}

func TestUpdateCardInconsistentCard(t *testing.T) {
	t.Parallel()

	svc := srs.NewDefaultService()

	card := newCard(t)
	card.State = domain.CardStateReview // reviewed state without timestamp

	_, err := svc.UpdateCard(card, domain.RatingGood, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrInconsistentCard)
}

func TestPostponeCardMovesDueDateOnly(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := srs.NewDefaultService()
	card := reviewedCard(t, 7.5, 4.2, now.AddDate(0, 0, -7))
	originalDue := card.DueAt

	next, err := svc.PostponeCard(card, 3, now)
	require.NoError(t, err)

	assert.Equal(t, originalDue.AddDate(0, 0, 3), next.DueAt)
	assert.Equal(t, card.Stability, next.Stability)
	assert.Equal(t, card.Difficulty, next.Difficulty)
	assert.Equal(t, card.State, next.State)
	assert.Equal(t, card.Lapses, next.Lapses)
	assert.Equal(t, card.LastReviewedAt, next.LastReviewedAt)
}

func TestPostponeCardRejectsNonPositiveDays(t *testing.T) {
	t.Parallel()

	svc := srs.NewDefaultService()
	card := newCard(t)

	for _, days := range []int{0, -1} {
		_, err := svc.PostponeCard(card, days, time.Now().UTC())
		assert.ErrorIs(t, err, domain.ErrValidation)
	}
}

func TestRetrievability(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := srs.NewDefaultService()

	// Unreviewed cards have no memory state to estimate.
	assert.Zero(t, svc.Retrievability(newCard(t), now))

	// At elapsed == stability, recall probability is 90% by construction.
	card := reviewedCard(t, 10.0, 5.0, now.AddDate(0, 0, -10))
	assert.InDelta(t, 0.9, svc.Retrievability(card, now), 1e-9)

	// Just after a review recall is near certain.
	fresh := reviewedCard(t, 10.0, 5.0, now.Add(-time.Minute))
	assert.Greater(t, svc.Retrievability(fresh, now), 0.99)
}

func TestNewServiceValidatesParams(t *testing.T) {
	t.Parallel()

	_, err := srs.NewService(nil)
	assert.ErrorIs(t, err, domain.ErrValidation)

	params := srs.NewDefaultParams()
	params.LapseDecay = 1.5
	_, err = srs.NewService(params)
	assert.ErrorIs(t, err, domain.ErrValidation)

	params = srs.NewDefaultParams()
	params.DecayExponent = 0.5
	_, err = srs.NewService(params)
	assert.ErrorIs(t, err, domain.ErrValidation)

	params = srs.NewDefaultParams()
	params.InitialStability[domain.RatingEasy] = 0.1
	_, err = srs.NewService(params)
	assert.ErrorIs(t, err, domain.ErrValidation)
}
