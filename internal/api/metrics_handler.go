// Package api provides HTTP handlers for the API.
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api/middleware"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api/shared"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/health"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/platform/logger"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/refresher"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/service/authz"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// HealthMetricsResponse is the response body for scope health reads.
type HealthMetricsResponse struct {
	Metric          *domain.RollupMetric    `json:"metric"`
	Recommendations []domain.Recommendation `json:"recommendations,omitempty"`
}

// MetricsHandler serves scope health metrics and rollup refreshes.
type MetricsHandler struct {
	healthService *health.Service
	policy        *authz.Policy
	roster        store.RosterStore
	refresher     *refresher.Refresher
	logger        *slog.Logger
}

// NewMetricsHandler creates a MetricsHandler.
func NewMetricsHandler(
	healthService *health.Service,
	policy *authz.Policy,
	roster store.RosterStore,
	rollupRefresher *refresher.Refresher,
	log *slog.Logger,
) *MetricsHandler {
	if healthService == nil {
		panic("health service cannot be nil")
	}
	if policy == nil {
		panic("policy cannot be nil")
	}
	if roster == nil {
		panic("roster cannot be nil")
	}
	if rollupRefresher == nil {
		panic("refresher cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil for MetricsHandler")
	}

	return &MetricsHandler{
		healthService: healthService,
		policy:        policy,
		roster:        roster,
		refresher:     rollupRefresher,
		logger:        log.With(slog.String("component", "metrics_handler")),
	}
}

// GetScopeHealth handles GET /api/metrics/srs requests. The scope is
// selected with exactly one of the student_id, classroom_id or school_id
// query parameters; include_details=true adds recommendations.
func (h *MetricsHandler) GetScopeHealth(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

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

	allowed, err := h.policy.CanView(r.Context(), principal, scope, scopeID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if !allowed {
		err := fmt.Errorf("%w: view %s %s", domain.ErrUnauthorized, scope, scopeID)
		shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, GetSafeErrorMessage(err), err)
		return
	}

	// An unknown scope ID would otherwise read as an empty-but-healthy
	// scope, since the rollup sources report zero counts for it.
	exists, err := h.roster.ScopeExists(r.Context(), scope, scopeID)
	if err != nil {
		err = fmt.Errorf("failed to resolve scope: %w", err)
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	if !exists {
		err := fmt.Errorf("%w: %s %s", store.ErrScopeNotFound, scope, scopeID)
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	includeDetails := r.URL.Query().Get("include_details") == "true"

	metric, recs, err := h.healthService.GetHealth(r.Context(), scope, scopeID, includeDetails)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("served scope health",
		slog.String("scope", string(scope)),
		slog.String("scope_id", scopeID.String()),
		slog.String("source", string(metric.Source)))

	shared.RespondWithJSON(w, r, http.StatusOK, HealthMetricsResponse{
		Metric:          metric,
		Recommendations: recs,
	})
}

// RefreshRollupsRequest is the request body for a rollup refresh. An
// empty Views list refreshes every rollup view.
type RefreshRollupsRequest struct {
	Views []string `json:"views,omitempty"`
}

// RefreshRollups handles POST /api/metrics/srs/refresh requests.
// Restricted to admin and system principals; the endpoint is how an
// external scheduler triggers rollup recomputation.
func (h *MetricsHandler) RefreshRollups(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	principal, ok := middleware.GetPrincipal(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Principal not found")
		return
	}

	if principal.Role != domain.RoleAdmin && principal.Role != domain.RoleSystem {
		err := fmt.Errorf("%w: rollup refresh requires admin or system role", domain.ErrUnauthorized)
		shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, GetSafeErrorMessage(err), err)
		return
	}

	var req RefreshRollupsRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
	}

	report := h.refresher.Refresh(r.Context(), req.Views)

	log.Info("rollup refresh completed",
		slog.Int("refreshed", len(report.Refreshed)),
		slog.Int("failed", len(report.Failed)))

	shared.RespondWithJSON(w, r, http.StatusOK, report)
}
