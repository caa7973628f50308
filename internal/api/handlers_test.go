package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/api/shared"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/cache"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/domain/srs"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/health"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/notify"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/refresher"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/service/authz"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/service/quickaction"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/service/review"
	"github.com/Reading-Advantage-Thailand/reading-advantage-sub010/internal/store"
)

// fakeRoster knows one student enrolled in one classroom of one school,
// taught by one teacher.
type fakeRoster struct {
	teacherID   uuid.UUID
	studentID   uuid.UUID
	classroomID uuid.UUID
	schoolID    uuid.UUID
}

func (f *fakeRoster) TeacherOwnsClassroom(ctx context.Context, teacherID, classroomID uuid.UUID) (bool, error) {
	return teacherID == f.teacherID && classroomID == f.classroomID, nil
}

func (f *fakeRoster) TeacherOwnsStudent(ctx context.Context, teacherID, studentID uuid.UUID) (bool, error) {
	return teacherID == f.teacherID && studentID == f.studentID, nil
}

func (f *fakeRoster) Ancestors(ctx context.Context, scope domain.Scope, scopeID uuid.UUID) ([]domain.ScopeRef, error) {
	if scope == domain.ScopeStudent && scopeID == f.studentID {
		return []domain.ScopeRef{
			{Scope: domain.ScopeClassroom, ScopeID: f.classroomID},
			{Scope: domain.ScopeSchool, ScopeID: f.schoolID},
		}, nil
	}
	return nil, nil
}

func (f *fakeRoster) ScopeExists(ctx context.Context, scope domain.Scope, scopeID uuid.UUID) (bool, error) {
	switch scope {
	case domain.ScopeStudent:
		return scopeID == f.studentID, nil
	case domain.ScopeClassroom:
		return scopeID == f.classroomID, nil
	case domain.ScopeSchool:
		return scopeID == f.schoolID, nil
	default:
		return false, nil
	}
}

// fakeCardStore holds one card per ID and serves fixed due lists.
type fakeCardStore struct {
	cards map[uuid.UUID]*domain.Card
	due   []*domain.Card
}

func (f *fakeCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	card, ok := f.cards[id]
	if !ok {
		return nil, store.ErrCardNotFound
	}
	clone := *card
	return &clone, nil
}

func (f *fakeCardStore) Create(ctx context.Context, card *domain.Card) error { return nil }

func (f *fakeCardStore) UpdateScheduling(ctx context.Context, card *domain.Card) error {
	clone := *card
	f.cards[card.ID] = &clone
	return nil
}

func (f *fakeCardStore) ListDue(
	ctx context.Context,
	studentID uuid.UUID,
	asOf time.Time,
	grace time.Duration,
	limit int,
) ([]*domain.Card, error) {
	if limit < len(f.due) {
		return f.due[:limit], nil
	}
	return f.due, nil
}

func (f *fakeCardStore) CountHealth(
	ctx context.Context,
	scope domain.Scope,
	scopeID uuid.UUID,
	asOf time.Time,
	grace time.Duration,
) (*store.HealthCounts, error) {
	return &store.HealthCounts{CardCount: 60, DueCount: 17, OverdueCount: 10, NewCount: 4, AverageStability: 6.0}, nil
}

func (f *fakeCardStore) WithTx(tx *sql.Tx) store.CardStore { return f }

// fakeRollupStore reports fresh views and mirrors the live counts.
type fakeRollupStore struct{}

func (f *fakeRollupStore) GetCounts(
	ctx context.Context,
	scope domain.Scope,
	scopeID uuid.UUID,
) (*store.HealthCounts, time.Time, error) {
	counts := &store.HealthCounts{CardCount: 60, DueCount: 17, OverdueCount: 10, NewCount: 4, AverageStability: 6.0}
	return counts, time.Now().UTC().Add(-time.Minute), nil
}

func (f *fakeRollupStore) Refresh(ctx context.Context, view string, concurrently bool) error {
	return nil
}

func (f *fakeRollupStore) MarkRefreshed(ctx context.Context, view string, at time.Time) error {
	return nil
}

func (f *fakeRollupStore) ViewStatuses(ctx context.Context) ([]store.ViewStatus, error) {
	now := time.Now().UTC()
	statuses := make([]store.ViewStatus, 0, len(store.AllRollupViews))
	for _, view := range store.AllRollupViews {
		statuses = append(statuses, store.ViewStatus{View: view, LastRefreshed: now})
	}
	return statuses, nil
}

type fakeNotifier struct{}

func (f *fakeNotifier) Send(ctx context.Context, payload notify.Payload) error { return nil }

type apiFixture struct {
	metrics *api.MetricsHandler
	actions *api.ActionHandler
	admin   *api.AdminHandler
	cards   *api.CardHandler
	roster  *fakeRoster
	store   *fakeCardStore
	cache   *cache.MetricsCache
	mock    sqlmock.Sqlmock
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	roster := &fakeRoster{
		teacherID:   uuid.New(),
		studentID:   uuid.New(),
		classroomID: uuid.New(),
		schoolID:    uuid.New(),
	}
	cardStore := &fakeCardStore{cards: make(map[uuid.UUID]*domain.Card)}
	rollups := &fakeRollupStore{}
	metricsCache := cache.New(log)

	cfg := health.Config{OverloadThreshold: 0.3, GracePeriod: 24 * time.Hour, StaleAfter: 30 * time.Minute}
	rollupRefresher := refresher.New(rollups, cfg.StaleAfter, log)
	fast := health.NewMaterializedViewSource(rollups, cfg)
	slow := health.NewLiveQuerySource(cardStore, cfg)
	probe := health.NewFreshnessProbeSource(fast, slow, rollupRefresher, log)
	healthService := health.NewService(metricsCache, probe, time.Minute, log)

	policy := authz.NewPolicy(roster)
	scheduler := srs.NewDefaultService()
	reviews := review.NewService(db, cardStore, roster, scheduler, metricsCache, log)
	executor := quickaction.NewExecutor(
		db, newFakeActionStore(), cardStore, roster, policy, scheduler, &fakeNotifier{},
		metricsCache,
		quickaction.Config{GracePeriod: cfg.GracePeriod, StuckAfter: 10 * time.Minute, DefaultCardLimit: 20, MaxDeferDays: 7},
		log,
	)

	return &apiFixture{
		metrics: api.NewMetricsHandler(healthService, policy, roster, rollupRefresher, log),
		actions: api.NewActionHandler(executor, policy, log),
		admin:   api.NewAdminHandler(metricsCache, rollupRefresher, log),
		cards:   api.NewCardHandler(reviews, log),
		roster:  roster,
		store:   cardStore,
		cache:   metricsCache,
		mock:    mock,
	}
}

// fakeActionStore is a minimal in-memory idempotency store.
type fakeActionStore struct {
	records map[uuid.UUID]*domain.QuickAction
}

func newFakeActionStore() *fakeActionStore {
	return &fakeActionStore{records: make(map[uuid.UUID]*domain.QuickAction)}
}

func (f *fakeActionStore) CreatePending(ctx context.Context, action *domain.QuickAction) (bool, *domain.QuickAction, error) {
	if existing, ok := f.records[action.ID]; ok {
		clone := *existing
		return false, &clone, nil
	}
	clone := *action
	f.records[action.ID] = &clone
	return true, nil, nil
}

func (f *fakeActionStore) ClaimStuck(ctx context.Context, id uuid.UUID, stuckBefore, now time.Time) (bool, error) {
	return false, nil
}

func (f *fakeActionStore) Reattempt(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	return false, nil
}

func (f *fakeActionStore) Complete(ctx context.Context, id uuid.UUID, result json.RawMessage, at time.Time) error {
	record := f.records[id]
	record.Status = domain.ActionStatusCompleted
	record.Result = result
	record.ExecutedAt = &at
	return nil
}

func (f *fakeActionStore) Fail(ctx context.Context, id uuid.UUID, result json.RawMessage, at time.Time) error {
	record := f.records[id]
	record.Status = domain.ActionStatusFailed
	record.Result = result
	record.ExecutedAt = &at
	return nil
}

func (f *fakeActionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuickAction, error) {
	record, ok := f.records[id]
	if !ok {
		return nil, store.ErrActionNotFound
	}
	clone := *record
	return &clone, nil
}

func withPrincipal(r *http.Request, principal domain.Principal) *http.Request {
	ctx := context.WithValue(r.Context(), shared.PrincipalContextKey, principal)
	return r.WithContext(ctx)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestGetScopeHealth(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	student := domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent, StudentID: f.roster.studentID}

	r := httptest.NewRequest(http.MethodGet, "/api/metrics/srs?student_id="+f.roster.studentID.String(), nil)
	rec := httptest.NewRecorder()
	f.metrics.GetScopeHealth(rec, withPrincipal(r, student))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[api.HealthMetricsResponse](t, rec)
	require.NotNil(t, resp.Metric)
	assert.Equal(t, 17, resp.Metric.DueCount)
	assert.True(t, resp.Metric.OverloadFlag)
	assert.Empty(t, resp.Recommendations, "details were not requested")
}

func TestGetScopeHealthWithDetails(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	admin := domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}

	url := "/api/metrics/srs?classroom_id=" + f.roster.classroomID.String() + "&include_details=true"
	r := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	f.metrics.GetScopeHealth(rec, withPrincipal(r, admin))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[api.HealthMetricsResponse](t, rec)
	require.Len(t, resp.Recommendations, 3)
	assert.Equal(t, domain.ActionReduceLoad, resp.Recommendations[0].ActionType)
}

func TestGetScopeHealthForbidden(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	student := domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent, StudentID: uuid.New()}

	r := httptest.NewRequest(http.MethodGet, "/api/metrics/srs?student_id="+f.roster.studentID.String(), nil)
	rec := httptest.NewRecorder()
	f.metrics.GetScopeHealth(rec, withPrincipal(r, student))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetScopeHealthUnknownScope(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	admin := domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}

	// An ID the roster has never seen must not come back as a healthy
	// zero-count scope.
	r := httptest.NewRequest(http.MethodGet, "/api/metrics/srs?student_id="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	f.metrics.GetScopeHealth(rec, withPrincipal(r, admin))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetScopeHealthMissingSelector(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	admin := domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}

	r := httptest.NewRequest(http.MethodGet, "/api/metrics/srs", nil)
	rec := httptest.NewRecorder()
	f.metrics.GetScopeHealth(rec, withPrincipal(r, admin))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetScopeHealthNoPrincipal(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	r := httptest.NewRequest(http.MethodGet, "/api/metrics/srs?student_id="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	f.metrics.GetScopeHealth(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRollups(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	teacher := domain.Principal{UserID: uuid.New(), Role: domain.RoleTeacher}
	r := httptest.NewRequest(http.MethodPost, "/api/metrics/srs/refresh", nil)
	rec := httptest.NewRecorder()
	f.metrics.RefreshRollups(rec, withPrincipal(r, teacher))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}
	r = httptest.NewRequest(http.MethodPost, "/api/metrics/srs/refresh", strings.NewReader(`{"views": ["srs_student_rollups"]}`))
	rec = httptest.NewRecorder()
	f.metrics.RefreshRollups(rec, withPrincipal(r, admin))

	require.Equal(t, http.StatusOK, rec.Code)
	report := decodeBody[refresher.Report](t, rec)
	assert.Equal(t, []string{store.ViewStudentRollups}, report.Refreshed)
	assert.Empty(t, report.Failed)
}

func TestListAllowedActions(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	student := domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent, StudentID: f.roster.studentID}

	r := httptest.NewRequest(http.MethodGet, "/api/metrics/srs/actions?student_id="+f.roster.studentID.String(), nil)
	rec := httptest.NewRecorder()
	f.actions.ListAllowedActions(rec, withPrincipal(r, student))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[api.AllowedActionsResponse](t, rec)
	assert.Equal(t, domain.ScopeStudent, resp.Scope)
	assert.Contains(t, resp.Actions, domain.ActionReviewSession)
	assert.NotContains(t, resp.Actions, domain.ActionTeacherAlert)
}

func TestExecuteAction(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	now := time.Now().UTC()
	reviewed := now.Add(-48 * time.Hour)
	f.store.due = []*domain.Card{{
		ID:             uuid.New(),
		StudentID:      f.roster.studentID,
		ItemID:         uuid.New(),
		ItemType:       domain.ItemTypeVocabulary,
		State:          domain.CardStateReview,
		Stability:      3.0,
		Difficulty:     5.0,
		DueAt:          now.Add(-time.Hour),
		LastReviewedAt: &reviewed,
	}}

	student := domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent, StudentID: f.roster.studentID}
	body := `{"action_type": "review_session", "scope": "student", "scope_id": "` + f.roster.studentID.String() + `"}`

	r := httptest.NewRequest(http.MethodPost, "/api/metrics/srs/actions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.actions.ExecuteAction(rec, withPrincipal(r, student))

	require.Equal(t, http.StatusOK, rec.Code)
	action := decodeBody[domain.QuickAction](t, rec)
	assert.Equal(t, domain.ActionStatusCompleted, action.Status)
	assert.Contains(t, string(action.Result), `"card_count":1`)
	assert.Contains(t, string(action.Result), `"retrievability"`)
}

func TestExecuteActionValidation(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	admin := domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"action_type": `},
		{"missing action type", `{"scope": "student", "scope_id": "` + uuid.NewString() + `"}`},
		{"unknown scope value", `{"action_type": "review_session", "scope": "galaxy", "scope_id": "` + uuid.NewString() + `"}`},
		{"malformed scope id", `{"action_type": "review_session", "scope": "student", "scope_id": "nope"}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPost, "/api/metrics/srs/actions", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			f.actions.ExecuteAction(rec, withPrincipal(r, admin))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestExecuteActionForbidden(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	student := domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent, StudentID: uuid.New()}
	body := `{"action_type": "review_session", "scope": "student", "scope_id": "` + f.roster.studentID.String() + `"}`

	r := httptest.NewRequest(http.MethodPost, "/api/metrics/srs/actions", strings.NewReader(body))
	rec := httptest.NewRecorder()
	f.actions.ExecuteAction(rec, withPrincipal(r, student))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGetMetricsHealth(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	teacher := domain.Principal{UserID: uuid.New(), Role: domain.RoleTeacher}
	r := httptest.NewRequest(http.MethodGet, "/api/metrics/health", nil)
	rec := httptest.NewRecorder()
	f.admin.GetMetricsHealth(rec, withPrincipal(r, teacher))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin := domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}
	r = httptest.NewRequest(http.MethodGet, "/api/metrics/health", nil)
	rec = httptest.NewRecorder()
	f.admin.GetMetricsHealth(rec, withPrincipal(r, admin))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[api.MetricsHealthResponse](t, rec)
	assert.Len(t, resp.Rollups, len(store.AllRollupViews))
	for _, view := range store.AllRollupViews {
		assert.False(t, resp.Rollups[view].IsStale)
	}
}

func TestInvalidateCache(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	admin := domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}

	_, err := f.cache.Get(context.Background(), "health:student:abc", time.Hour, func(ctx context.Context) (any, error) {
		return "cached", nil
	})
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/metrics/cache/invalidate", strings.NewReader(`{"clear": true}`))
	rec := httptest.NewRecorder()
	f.admin.InvalidateCache(rec, withPrincipal(r, admin))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[api.InvalidateCacheResponse](t, rec)
	assert.Equal(t, 1, resp.Removed)
}

func TestInvalidateCacheSelectorRequired(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	admin := domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}

	tests := []struct {
		name string
		body string
	}{
		{"no selector", `{}`},
		{"two selectors", `{"key": "a", "clear": true}`},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodPost, "/api/metrics/cache/invalidate", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			f.admin.InvalidateCache(rec, withPrincipal(r, admin))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func cardRouter(f *apiFixture) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/cards/{id}/review", f.cards.SubmitReview)
	r.Post("/api/cards/{id}/postpone", f.cards.PostponeCard)
	return r
}

func seedCard(f *apiFixture) *domain.Card {
	now := time.Now().UTC()
	reviewed := now.Add(-48 * time.Hour)
	card := &domain.Card{
		ID:             uuid.New(),
		StudentID:      f.roster.studentID,
		ItemID:         uuid.New(),
		ItemType:       domain.ItemTypeVocabulary,
		State:          domain.CardStateReview,
		Stability:      3.0,
		Difficulty:     5.0,
		DueAt:          now.Add(-time.Hour),
		LastReviewedAt: &reviewed,
	}
	f.store.cards[card.ID] = card
	return card
}

func TestSubmitReviewEndpoint(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	card := seedCard(f)
	student := domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent, StudentID: card.StudentID}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	r := httptest.NewRequest(http.MethodPost, "/api/cards/"+card.ID.String()+"/review", strings.NewReader(`{"rating": "good"}`))
	rec := httptest.NewRecorder()
	cardRouter(f).ServeHTTP(rec, withPrincipal(r, student))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[api.CardResponse](t, rec)
	assert.Equal(t, card.ID.String(), resp.ID)
	assert.Greater(t, resp.Stability, card.Stability)
}

func TestSubmitReviewEndpointValidation(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	card := seedCard(f)
	student := domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent, StudentID: card.StudentID}

	r := httptest.NewRequest(http.MethodPost, "/api/cards/"+card.ID.String()+"/review", strings.NewReader(`{"rating": "perfect"}`))
	rec := httptest.NewRecorder()
	cardRouter(f).ServeHTTP(rec, withPrincipal(r, student))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	r = httptest.NewRequest(http.MethodPost, "/api/cards/not-a-uuid/review", strings.NewReader(`{"rating": "good"}`))
	rec = httptest.NewRecorder()
	cardRouter(f).ServeHTTP(rec, withPrincipal(r, student))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReviewEndpointNotFound(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	admin := domain.Principal{UserID: uuid.New(), Role: domain.RoleAdmin}

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	r := httptest.NewRequest(http.MethodPost, "/api/cards/"+uuid.NewString()+"/review", strings.NewReader(`{"rating": "good"}`))
	rec := httptest.NewRecorder()
	cardRouter(f).ServeHTTP(rec, withPrincipal(r, admin))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostponeCardEndpoint(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	card := seedCard(f)
	student := domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent, StudentID: card.StudentID}

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	r := httptest.NewRequest(http.MethodPost, "/api/cards/"+card.ID.String()+"/postpone", strings.NewReader(`{"days": 3}`))
	rec := httptest.NewRecorder()
	cardRouter(f).ServeHTTP(rec, withPrincipal(r, student))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[api.CardResponse](t, rec)
	assert.True(t, resp.DueAt.Equal(card.DueAt.AddDate(0, 0, 3)))
	assert.Equal(t, card.Stability, resp.Stability)
}

func TestPostponeCardEndpointValidation(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	card := seedCard(f)
	student := domain.Principal{UserID: uuid.New(), Role: domain.RoleStudent, StudentID: card.StudentID}

	for _, body := range []string{`{"days": 0}`, `{"days": 31}`, `{}`} {
		r := httptest.NewRequest(http.MethodPost, "/api/cards/"+card.ID.String()+"/postpone", strings.NewReader(body))
		rec := httptest.NewRecorder()
		cardRouter(f).ServeHTTP(rec, withPrincipal(r, student))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "body %s", body)
	}
}
