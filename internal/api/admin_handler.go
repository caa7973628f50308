package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api/middleware"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api/shared"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/cache"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/platform/logger"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/refresher"
)

// MetricsHealthResponse reports the health of the metrics machinery
// itself: cache effectiveness and rollup freshness.
type MetricsHealthResponse struct {
	Cache   cache.Stats                     `json:"cache"`
	Rollups map[string]refresher.ViewHealth `json:"rollups"`
}

// InvalidateCacheRequest selects what to drop from the metrics cache.
// Exactly one of Key, Prefix or Clear must be set.
type InvalidateCacheRequest struct {
	Key    string `json:"key,omitempty"`
	Prefix string `json:"prefix,omitempty"`
	Clear  bool   `json:"clear,omitempty"`
}

// InvalidateCacheResponse reports how many entries were dropped.
type InvalidateCacheResponse struct {
	Removed int `json:"removed"`
}

// AdminHandler serves the operator endpoints: metrics-machinery health
// and manual cache invalidation. Every route requires admin or system role.
type AdminHandler struct {
	cache     *cache.MetricsCache
	refresher *refresher.Refresher
	logger    *slog.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(metricsCache *cache.MetricsCache, rollupRefresher *refresher.Refresher, log *slog.Logger) *AdminHandler {
	if metricsCache == nil {
		panic("cache cannot be nil")
	}
	if rollupRefresher == nil {
		panic("refresher cannot be nil")
	}
	if log == nil {
		panic("logger cannot be nil for AdminHandler")
	}

	return &AdminHandler{
		cache:     metricsCache,
		refresher: rollupRefresher,
		logger:    log.With(slog.String("component", "admin_handler")),
	}
}

// requireOperator rejects principals without admin or system role.
func (h *AdminHandler) requireOperator(w http.ResponseWriter, r *http.Request) (domain.Principal, bool) {
	principal, ok := middleware.GetPrincipal(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Principal not found")
		return domain.Principal{}, false
	}

	if principal.Role != domain.RoleAdmin && principal.Role != domain.RoleSystem {
		err := fmt.Errorf("%w: operator endpoints require admin or system role", domain.ErrUnauthorized)
		shared.RespondWithErrorAndLog(w, r, http.StatusForbidden, GetSafeErrorMessage(err), err)
		return domain.Principal{}, false
	}

	return principal, true
}

// GetMetricsHealth handles GET /api/metrics/health requests.
func (h *AdminHandler) GetMetricsHealth(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireOperator(w, r); !ok {
		return
	}

	rollups, err := h.refresher.CheckHealth(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, MetricsHealthResponse{
		Cache:   h.cache.Stats(),
		Rollups: rollups,
	})
}

// InvalidateCache handles POST /api/metrics/cache/invalidate requests.
func (h *AdminHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	principal, ok := h.requireOperator(w, r)
	if !ok {
		return
	}

	var req InvalidateCacheRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	selectors := 0
	if req.Key != "" {
		selectors++
	}
	if req.Prefix != "" {
		selectors++
	}
	if req.Clear {
		selectors++
	}
	if selectors != 1 {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Exactly one of key, prefix or clear is required")
		return
	}

	var removed int
	switch {
	case req.Clear:
		removed = h.cache.Clear()
	case req.Prefix != "":
		removed = h.cache.InvalidateByPrefix(req.Prefix)
	default:
		if h.cache.Invalidate(req.Key) {
			removed = 1
		}
	}

	log.Info("cache invalidated manually",
		slog.String("requested_by", principal.UserID.String()),
		slog.Int("removed", removed))

	shared.RespondWithJSON(w, r, http.StatusOK, InvalidateCacheResponse{Removed: removed})
}
