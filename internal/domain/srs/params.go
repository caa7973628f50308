package srs

import (
	"fmt"
	"time"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

// Params defines all configurable parameters for the SRS algorithm.
//
// The stability and difficulty formulas follow the published FSRS
// parameterization (see algorithm.go for the exact formulas). The legacy
// system did not pin numeric constants, so the defaults here are the
// FSRS reference weights; rounding and clamping rules are documented on
// the functions that apply them.
type Params struct {
	// InitialStability is the base stability table for the first review,
	// indexed by rating. Values must be strictly increasing from Again
	// through Easy.
	InitialStability map[domain.Rating]float64

	// InitialDifficulty is the difficulty baseline assigned on the first
	// review before the rating offset is applied.
	InitialDifficulty float64

	// DifficultyDelta is the per-rating difficulty adjustment applied on
	// each subsequent review. Results are clamped to [MinDifficulty,
	// MaxDifficulty].
	DifficultyDelta map[domain.Rating]float64

	MinDifficulty float64
	MaxDifficulty float64

	// Stability growth weights for successful reviews (Hard/Good/Easy).
	// Growth scales with e^GrowthRate, shrinks as difficulty rises, and
	// shrinks as stability itself grows (diminishing returns).
	GrowthRate           float64
	StabilityDamping     float64
	RetrievabilityWeight float64
	HardPenalty          float64
	EasyBonus            float64

	// DecayExponent shapes the power forgetting curve used to estimate
	// retrievability from elapsed days. Must be negative.
	DecayExponent float64

	// LapseDecay is the multiplicative stability penalty on an Again
	// review. Must be in (0, 1]: the lapse path never increases stability.
	LapseDecay float64

	// MinStability is the floor applied to stability after a lapse.
	MinStability float64

	// MaxIntervalDays caps the scheduling interval to avoid runaway growth.
	MaxIntervalDays int

	// ShortIntervals schedules the first review per rating; cards stay in
	// the Learning state until their first successful long interval.
	ShortIntervals map[domain.Rating]time.Duration

	// RelearnInterval schedules the next attempt after a lapse.
	RelearnInterval time.Duration
}

// NewDefaultParams creates a new Params instance with the FSRS reference
// weights.
func NewDefaultParams() *Params {
	return &Params{
		// FSRS initial stability w0..w3
		InitialStability: map[domain.Rating]float64{
			domain.RatingAgain: 0.4,
			domain.RatingHard:  0.9,
			domain.RatingGood:  2.3,
			domain.RatingEasy:  5.8,
		},

		InitialDifficulty: 5.0,

		DifficultyDelta: map[domain.Rating]float64{
			domain.RatingHard: 0.8,
			domain.RatingGood: 0.0,
			domain.RatingEasy: -0.6,
		},

		MinDifficulty: 1.0,
		MaxDifficulty: 10.0,

		GrowthRate:           1.1,
		StabilityDamping:     0.2,
		RetrievabilityWeight: 1.26,
		HardPenalty:          0.6,
		EasyBonus:            1.5,

		DecayExponent: -0.5,

		LapseDecay:   0.5,
		MinStability: 0.1,

		MaxIntervalDays: 365,

		ShortIntervals: map[domain.Rating]time.Duration{
			domain.RatingAgain: 10 * time.Minute,
			domain.RatingHard:  12 * time.Hour,
			domain.RatingGood:  24 * time.Hour,
			domain.RatingEasy:  48 * time.Hour,
		},

		RelearnInterval: 10 * time.Minute,
	}
}

// Validate checks that the parameter set is internally consistent.
func (p *Params) Validate() error {
	for _, r := range []domain.Rating{domain.RatingAgain, domain.RatingHard, domain.RatingGood, domain.RatingEasy} {
		if p.InitialStability[r] <= 0 {
			return fmt.Errorf("initial stability for %q must be positive", r)
		}
		if p.ShortIntervals[r] <= 0 {
			return fmt.Errorf("short interval for %q must be positive", r)
		}
	}

	if p.InitialStability[domain.RatingAgain] >= p.InitialStability[domain.RatingHard] ||
		p.InitialStability[domain.RatingHard] >= p.InitialStability[domain.RatingGood] ||
		p.InitialStability[domain.RatingGood] >= p.InitialStability[domain.RatingEasy] {
		return fmt.Errorf("initial stability table must increase from again to easy")
	}

	if p.MinDifficulty < 1 || p.MaxDifficulty > 10 || p.MinDifficulty >= p.MaxDifficulty {
		return fmt.Errorf("difficulty bounds [%f, %f] invalid", p.MinDifficulty, p.MaxDifficulty)
	}

	if p.InitialDifficulty < p.MinDifficulty || p.InitialDifficulty > p.MaxDifficulty {
		return fmt.Errorf("initial difficulty %f outside bounds", p.InitialDifficulty)
	}

	if p.LapseDecay <= 0 || p.LapseDecay > 1 {
		return fmt.Errorf("lapse decay %f must be in (0, 1]", p.LapseDecay)
	}

	if p.MinStability <= 0 {
		return fmt.Errorf("minimum stability must be positive")
	}

	if p.DecayExponent >= 0 {
		return fmt.Errorf("decay exponent %f must be negative", p.DecayExponent)
	}

	if p.MaxIntervalDays < 1 {
		return fmt.Errorf("maximum interval %d must be at least one day", p.MaxIntervalDays)
	}

	if p.RelearnInterval <= 0 {
		return fmt.Errorf("relearn interval must be positive")
	}

	return nil
}
