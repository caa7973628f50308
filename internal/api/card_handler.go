package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api/middleware"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api/shared"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/platform/logger"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/service/review"
)

// CardResponse is the response body for card scheduling operations.
type CardResponse struct {
	ID             string     `json:"id"`
	StudentID      string     `json:"student_id"`
	ItemID         string     `json:"item_id"`
	ItemType       string     `json:"item_type"`
	State          string     `json:"state"`
	Stability      float64    `json:"stability"`
	Difficulty     float64    `json:"difficulty"`
	Lapses         int        `json:"lapses"`
	DueAt          time.Time  `json:"due_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

func cardToResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:             card.ID.String(),
		StudentID:      card.StudentID.String(),
		ItemID:         card.ItemID.String(),
		ItemType:       string(card.ItemType),
		State:          string(card.State),
		Stability:      card.Stability,
		Difficulty:     card.Difficulty,
		Lapses:         card.Lapses,
		DueAt:          card.DueAt,
		LastReviewedAt: card.LastReviewedAt,
	}
}

// SubmitReviewRequest is the request body for submitting a review rating.
type SubmitReviewRequest struct {
	Rating string `json:"rating" validate:"required,oneof=again hard good easy"`
}

// PostponeRequest is the request body for postponing a card.
type PostponeRequest struct {
	Days int `json:"days" validate:"required,min=1,max=30"`
}

// CardHandler handles card scheduling HTTP requests.
type CardHandler struct {
	reviews *review.Service
	logger  *slog.Logger
}

// NewCardHandler creates a CardHandler.
func NewCardHandler(reviews *review.Service, log *slog.Logger) *CardHandler {
	if reviews == nil {
		panic("review service cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil for CardHandler")
	}

	return &CardHandler{
		reviews: reviews,
		logger:  log.With(slog.String("component", "card_handler")),
	}
}

// cardIDFromPath parses the {id} path parameter.
func cardIDFromPath(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// SubmitReview handles POST /api/cards/{id}/review requests.
func (h *CardHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	principal, ok := middleware.GetPrincipal(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Principal not found")
		return
	}

	cardID, ok := cardIDFromPath(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Malformed card ID")
		return
	}

	var req SubmitReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+SanitizeValidationError(err))
		return
	}

	card, err := h.reviews.SubmitReview(r.Context(), principal, cardID, domain.Rating(req.Rating))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("review submitted",
		slog.String("card_id", card.ID.String()),
		slog.String("rating", req.Rating),
		slog.String("state", string(card.State)))

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// PostponeCard handles POST /api/cards/{id}/postpone requests.
func (h *CardHandler) PostponeCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	principal, ok := middleware.GetPrincipal(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Principal not found")
		return
	}

	cardID, ok := cardIDFromPath(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Malformed card ID")
		return
	}

	var req PostponeRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+SanitizeValidationError(err))
		return
	}

	card, err := h.reviews.Postpone(r.Context(), principal, cardID, req.Days)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("card postponed",
		slog.String("card_id", card.ID.String()),
		slog.Int("days", req.Days))

	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}
