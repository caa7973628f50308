package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api/middleware"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api/shared"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/platform/logger"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/service/authz"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/service/quickaction"
)

// AllowedActionsResponse lists the actions a principal may run on a scope.
type AllowedActionsResponse struct {
	Scope   domain.Scope        `json:"scope"`
	ScopeID uuid.UUID           `json:"scope_id"`
	Actions []domain.ActionType `json:"actions"`
}

// ExecuteActionRequest is the request body for executing a quick action.
// ID is the optional idempotency key; retries that reuse it get the
// first execution's outcome back.
type ExecuteActionRequest struct {
	ID         string          `json:"id,omitempty"         validate:"omitempty,uuid"`
	ActionType string          `json:"action_type"          validate:"required"`
	Scope      string          `json:"scope"                validate:"required,oneof=student classroom school"`
	ScopeID    string          `json:"scope_id"             validate:"required,uuid"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// ActionHandler handles quick-action HTTP requests.
type ActionHandler struct {
	executor *quickaction.Executor
	policy   *authz.Policy
	logger   *slog.Logger
}

// NewActionHandler creates an ActionHandler.
func NewActionHandler(executor *quickaction.Executor, policy *authz.Policy, log *slog.Logger) *ActionHandler {
	if executor == nil {
		panic("executor cannot be nil")
	}
	if policy == nil {
		panic("policy cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil for ActionHandler")
	}

	return &ActionHandler{
		executor: executor,
		policy:   policy,
		logger:   log.With(slog.String("component", "action_handler")),
	}
}

// ListAllowedActions handles GET /api/metrics/srs/actions requests. The
// scope is selected the same way as for health reads.
func (h *ActionHandler) ListAllowedActions(w http.ResponseWriter, r *http.Request) {
	principal, ok := middleware.GetPrincipal(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Principal not found")
		return
	}

	scope, scopeID, err := scopeFromQuery(r)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	actions, err := h.policy.AllowedActions(r.Context(), principal, scope, scopeID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AllowedActionsResponse{
		Scope:   scope,
		ScopeID: scopeID,
		Actions: actions,
	})
}

// ExecuteAction handles POST /api/metrics/srs/actions requests.
func (h *ActionHandler) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	principal, ok := middleware.GetPrincipal(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Principal not found")
		return
	}

	var req ExecuteActionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request: "+SanitizeValidationError(err))
		return
	}

	scopeID, err := uuid.Parse(req.ScopeID)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Malformed scope ID")
		return
	}

	var actionID uuid.UUID
	if req.ID != "" {
		if actionID, err = uuid.Parse(req.ID); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Malformed action ID")
			return
		}
	}

	action, err := h.executor.Execute(r.Context(), quickaction.Request{
		ID:         actionID,
		Type:       domain.ActionType(req.ActionType),
		Scope:      domain.Scope(req.Scope),
		ScopeID:    scopeID,
		Parameters: req.Parameters,
		Principal:  principal,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("quick action handled",
		slog.String("action_id", action.ID.String()),
		slog.String("status", string(action.Status)))

	shared.RespondWithJSON(w, r, http.StatusOK, action)
}
