package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Rating represents the learner's self-reported result of a card review.
type Rating string

// Possible review rating values.
const (
	RatingAgain Rating = "again"
	RatingHard  Rating = "hard"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

// IsValid reports whether the rating is one of the four known values.
func (r Rating) IsValid() bool {
	switch r {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return true
	default:
		return false
	}
}

// ItemType identifies the kind of learning item a card drills.
type ItemType string

// Supported item types.
const (
	ItemTypeVocabulary ItemType = "vocabulary"
	ItemTypeSentence   ItemType = "sentence"
)

// IsValid reports whether the item type is supported.
func (t ItemType) IsValid() bool {
	return t == ItemTypeVocabulary || t == ItemTypeSentence
}

// CardState represents a card's position in the scheduling state machine.
type CardState string

// Possible card states.
const (
	CardStateNew        CardState = "new"
	CardStateLearning   CardState = "learning"
	CardStateReview     CardState = "review"
	CardStateRelearning CardState = "relearning"
)

// IsValid reports whether the state is one of the four known values.
func (s CardState) IsValid() bool {
	switch s {
	case CardStateNew, CardStateLearning, CardStateReview, CardStateRelearning:
		return true
	default:
		return false
	}
}

// Card tracks a learner's spaced-repetition memory state for one item.
// There is exactly one card per (student, item, item type). Scheduling
// fields are mutated only by the SRS algorithm on review and by
// load-reduction quick actions, which may push DueAt forward but never
// touch Stability or Difficulty.
type Card struct {
	ID             uuid.UUID  `json:"id"`
	StudentID      uuid.UUID  `json:"student_id"`
	ItemID         uuid.UUID  `json:"item_id"`
	ItemType       ItemType   `json:"item_type"`
	State          CardState  `json:"state"`
	Stability      float64    `json:"stability"`  // Expected days until recall decays to the reference threshold
	Difficulty     float64    `json:"difficulty"` // Intrinsic hardness, bounded [1, 10]
	Lapses         int        `json:"lapses"`
	DueAt          time.Time  `json:"due_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at"` // nil before the first review
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewCard creates a card in the New state, due immediately.
func NewCard(studentID, itemID uuid.UUID, itemType ItemType) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		StudentID: studentID,
		ItemID:    itemID,
		ItemType:  itemType,
		State:     CardStateNew,
		DueAt:     now,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks the card's fields and cross-field invariants.
// A New card must have no last-reviewed timestamp; any other state
// must have one.
func (c *Card) Validate() error {
	if c.StudentID == uuid.Nil {
		return fmt.Errorf("%w: student ID cannot be empty", ErrValidation)
	}

	if c.ItemID == uuid.Nil {
		return fmt.Errorf("%w: item ID cannot be empty", ErrValidation)
	}

	if !c.ItemType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidItemType, c.ItemType)
	}

	if !c.State.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidCardState, c.State)
	}

	if c.Stability < 0 {
		return fmt.Errorf("%w: stability must be >= 0", ErrValidation)
	}

	if c.Lapses < 0 {
		return fmt.Errorf("%w: lapses must be >= 0", ErrValidation)
	}

	if c.State == CardStateNew && c.LastReviewedAt != nil {
		return fmt.Errorf("%w: new card has a last-reviewed timestamp", ErrInconsistentCard)
	}

	if c.State != CardStateNew {
		if c.LastReviewedAt == nil {
			return fmt.Errorf("%w: %s card has no last-reviewed timestamp", ErrInconsistentCard, c.State)
		}
		if c.Difficulty < 1 || c.Difficulty > 10 {
			return fmt.Errorf("%w: difficulty %.2f outside [1, 10]", ErrValidation, c.Difficulty)
		}
	}

	return nil
}

// IsOverdue reports whether the card's due date has slipped past the
// configured grace period.
func (c *Card) IsOverdue(asOf time.Time, grace time.Duration) bool {
	return c.DueAt.Before(asOf.Add(-grace))
}
