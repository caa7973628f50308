package srs

import (
	"math"
	"time"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

// retrievability estimates the probability of recall after elapsedDays
// using the FSRS power forgetting curve:
//
//	R(t, S) = (1 + FACTOR * t / S) ^ DECAY
//
// where FACTOR = 0.9^(1/DECAY) - 1, so R(S, S) = 0.9 by construction:
// stability is the number of days until retrievability decays to 90%.
func retrievability(elapsedDays, stability float64, params *Params) float64 {
	if stability <= 0 {
		return 0
	}
	factor := math.Pow(0.9, 1.0/params.DecayExponent) - 1.0
	return math.Pow(1+factor*elapsedDays/stability, params.DecayExponent)
}

// initialStability returns the base stability for a first review.
func initialStability(rating domain.Rating, params *Params) float64 {
	return params.InitialStability[rating]
}

// initialDifficulty returns the starting difficulty for a first review.
// Harder first impressions start above the baseline, easy ones below,
// clamped to the configured bounds.
func initialDifficulty(rating domain.Rating, params *Params) float64 {
	var offset float64
	switch rating {
	case domain.RatingAgain:
		offset = 2.0
	case domain.RatingHard:
		offset = 1.0
	case domain.RatingGood:
		offset = 0.0
	case domain.RatingEasy:
		offset = -1.0
	}
	return clampDifficulty(params.InitialDifficulty+offset, params)
}

// nextDifficulty applies the rating-dependent delta and clamps the result.
func nextDifficulty(difficulty float64, rating domain.Rating, params *Params) float64 {
	return clampDifficulty(difficulty+params.DifficultyDelta[rating], params)
}

// growthFactor computes the multiplicative stability increase for a
// successful review (Hard/Good/Easy):
//
//	factor = 1 + e^GrowthRate * (11 - D) * S^(-damping) * (e^((1-R)*w) - 1) * penalty
//
// The factor grows with rating strength (Hard penalty < 1, Easy bonus > 1),
// shrinks as difficulty rises, and shrinks as stability itself grows.
// Because R <= 1 the bracketed term is never negative, so the factor is
// never below 1: a successful review cannot reduce stability.
func growthFactor(
	difficulty, stability, retr float64,
	rating domain.Rating,
	params *Params,
) float64 {
	modifier := 1.0
	switch rating {
	case domain.RatingHard:
		modifier = params.HardPenalty
	case domain.RatingEasy:
		modifier = params.EasyBonus
	}

	gain := math.Exp(params.GrowthRate) *
		(11 - difficulty) *
		math.Pow(stability, -params.StabilityDamping) *
		(math.Exp((1-retr)*params.RetrievabilityWeight) - 1) *
		modifier

	if gain < 0 {
		gain = 0
	}
	return 1 + gain
}

// lapseStability applies the Again penalty. The result is floored at
// MinStability and can never exceed the previous stability.
func lapseStability(stability float64, params *Params) float64 {
	return math.Max(params.MinStability, stability*params.LapseDecay)
}

// nextIntervalDays rounds stability to whole days and clamps the result
// to [1, MaxIntervalDays].
func nextIntervalDays(stability float64, params *Params) int {
	days := int(math.Round(stability))
	if days < 1 {
		days = 1
	}
	if days > params.MaxIntervalDays {
		days = params.MaxIntervalDays
	}
	return days
}

// clampDifficulty bounds difficulty to [MinDifficulty, MaxDifficulty].
func clampDifficulty(d float64, params *Params) float64 {
	return math.Min(math.Max(d, params.MinDifficulty), params.MaxDifficulty)
}

// updateCard computes the card's next memory state for the given rating.
// It returns a new card value and never mutates its input; persistence is
// the caller's responsibility.
func updateCard(card domain.Card, rating domain.Rating, now time.Time, params *Params) domain.Card {
	next := card

	switch {
	case card.State == domain.CardStateNew:
		// First review: seed the memory model from the rating tables.
		next.Stability = initialStability(rating, params)
		next.Difficulty = initialDifficulty(rating, params)
		next.State = domain.CardStateLearning
		next.DueAt = now.Add(params.ShortIntervals[rating])

	case rating == domain.RatingAgain:
		// Lapse path. Stability only ever decays here.
		next.Lapses = card.Lapses + 1
		next.Stability = lapseStability(card.Stability, params)
		next.State = domain.CardStateRelearning
		next.DueAt = now.Add(params.RelearnInterval)

	default:
		// Successful review of a previously seen card.
		elapsed := now.Sub(*card.LastReviewedAt).Hours() / 24.0
		if elapsed < 0 {
			elapsed = 0
		}
		retr := retrievability(elapsed, card.Stability, params)

		next.Difficulty = nextDifficulty(card.Difficulty, rating, params)
		next.Stability = card.Stability * growthFactor(next.Difficulty, card.Stability, retr, rating, params)
		next.State = domain.CardStateReview
		next.DueAt = now.AddDate(0, 0, nextIntervalDays(next.Stability, params))
	}

	reviewedAt := now
	next.LastReviewedAt = &reviewedAt
	next.UpdatedAt = now

	return next
}
