package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
)

func TestNewCard(t *testing.T) {
	t.Parallel()

	studentID := uuid.New()
	itemID := uuid.New()

	card, err := domain.NewCard(studentID, itemID, domain.ItemTypeVocabulary)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, card.ID)
	assert.Equal(t, studentID, card.StudentID)
	assert.Equal(t, itemID, card.ItemID)
	assert.Equal(t, domain.CardStateNew, card.State)
	assert.Nil(t, card.LastReviewedAt)
	assert.WithinDuration(t, time.Now().UTC(), card.DueAt, time.Second)
}

func TestNewCardInvalidItemType(t *testing.T) {
	t.Parallel()

	_, err := domain.NewCard(uuid.New(), uuid.New(), domain.ItemType("grammar"))
	assert.ErrorIs(t, err, domain.ErrInvalidItemType)
}

func TestCardValidate(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	valid := func() domain.Card {
		return domain.Card{
			ID:             uuid.New(),
			StudentID:      uuid.New(),
			ItemID:         uuid.New(),
			ItemType:       domain.ItemTypeSentence,
			State:          domain.CardStateReview,
			Stability:      4.2,
			Difficulty:     5.0,
			DueAt:          now.AddDate(0, 0, 4),
			LastReviewedAt: &now,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *domain.Card)
		wantErr error
	}{
		{
			name:   "valid card",
			mutate: func(c *domain.Card) {},
		},
		{
			name:    "missing student",
			mutate:  func(c *domain.Card) { c.StudentID = uuid.Nil },
			wantErr: domain.ErrValidation,
		},
		{
			name:    "unknown state",
			mutate:  func(c *domain.Card) { c.State = domain.CardState("archived") },
			wantErr: domain.ErrInvalidCardState,
		},
		{
			name:    "negative stability",
			mutate:  func(c *domain.Card) { c.Stability = -1 },
			wantErr: domain.ErrValidation,
		},
		{
			name: "new card with review timestamp",
			mutate: func(c *domain.Card) {
				c.State = domain.CardStateNew
			},
			wantErr: domain.ErrInconsistentCard,
		},
		{
			name: "reviewed card without timestamp",
			mutate: func(c *domain.Card) {
				c.LastReviewedAt = nil
			},
			wantErr: domain.ErrInconsistentCard,
		},
		{
			name: "difficulty out of bounds",
			mutate: func(c *domain.Card) {
				c.Difficulty = 10.5
			},
			wantErr: domain.ErrValidation,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			card := valid()
			tc.mutate(&card)

			err := card.Validate()
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestCardIsOverdue(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	grace := 24 * time.Hour

	card := domain.Card{DueAt: now.Add(-2 * time.Hour)}
	assert.False(t, card.IsOverdue(now, grace), "due within the grace period is not overdue")

	card.DueAt = now.Add(-25 * time.Hour)
	assert.True(t, card.IsOverdue(now, grace))
}
