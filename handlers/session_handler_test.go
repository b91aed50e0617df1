package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Dosada05/sports-sessions/middleware"
	"github.com/Dosada05/sports-sessions/models"
	"github.com/Dosada05/sports-sessions/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSessionService возвращает заранее заданный результат, чтобы проверить
// маппинг ошибок сервиса в HTTP-статусы.
type mockSessionService struct {
	session *models.Session
	err     error

	lastUserID    int
	lastSessionID int
	lastFilter    services.SessionListFilter
	lastReason    string
}

func (m *mockSessionService) CreateSession(ctx context.Context, creatorID int, input services.CreateSessionInput) (*models.Session, error) {
	m.lastUserID = creatorID
	return m.session, m.err
}

func (m *mockSessionService) ListSessions(ctx context.Context, userID int, filter services.SessionListFilter) ([]models.Session, error) {
	m.lastUserID = userID
	m.lastFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return []models.Session{}, nil
}

func (m *mockSessionService) JoinSession(ctx context.Context, userID, sessionID int) (*models.Session, error) {
	m.lastUserID = userID
	m.lastSessionID = sessionID
	return m.session, m.err
}

func (m *mockSessionService) CancelSession(ctx context.Context, userID, sessionID int, reason string) (*models.Session, error) {
	m.lastUserID = userID
	m.lastSessionID = sessionID
	m.lastReason = reason
	return m.session, m.err
}

func newSessionRouter(svc services.SessionService) *chi.Mux {
	h := NewSessionHandler(svc)
	router := chi.NewRouter()
	router.Get("/sessions", h.ListSessions)
	router.Post("/sessions", h.CreateSession)
	router.Post("/sessions/{sessionID}/join", h.JoinSession)
	router.Put("/sessions/{sessionID}/cancel", h.CancelSession)
	return router
}

func authenticatedRequest(method, target, body string, userID int, role models.UserRole) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return r.WithContext(middleware.WithUserClaims(r.Context(), userID, role))
}

func sampleSession() *models.Session {
	return &models.Session{
		ID:        1,
		SportID:   1,
		CreatedBy: 1,
		Date:      time.Date(2026, 9, 1, 18, 0, 0, 0, time.UTC),
		Venue:     "Central Park",
		Status:    models.SessionStatusActive,
	}
}

func TestCreateSessionHandler(t *testing.T) {
	svc := &mockSessionService{session: sampleSession()}
	router := newSessionRouter(svc)

	body := `{"sport_id":1,"date":"2026-09-01T18:00:00Z","venue":"Central Park"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authenticatedRequest(http.MethodPost, "/sessions", body, 7, models.RolePlayer))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 7, svc.lastUserID)
	assert.Contains(t, rec.Body.String(), `"session"`)
}

func TestCreateSessionHandler_ValidationError(t *testing.T) {
	svc := &mockSessionService{err: services.ErrSessionVenueRequired}
	router := newSessionRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authenticatedRequest(http.MethodPost, "/sessions", `{"sport_id":1}`, 7, models.RolePlayer))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateSessionHandler_Unauthenticated(t *testing.T) {
	svc := &mockSessionService{session: sampleSession()}
	router := newSessionRouter(svc)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"sport_id":1}`))
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListSessionsHandler_FilterParsing(t *testing.T) {
	tests := []struct {
		target string
		want   services.SessionListFilter
	}{
		{"/sessions", services.SessionFilterAll},
		{"/sessions?mine=true", services.SessionFilterMine},
		{"/sessions?joined=true", services.SessionFilterJoined},
		{"/sessions?mine=false&joined=true", services.SessionFilterJoined},
	}

	for _, tt := range tests {
		svc := &mockSessionService{}
		router := newSessionRouter(svc)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authenticatedRequest(http.MethodGet, tt.target, "", 2, models.RolePlayer))

		require.Equal(t, http.StatusOK, rec.Code, tt.target)
		assert.Equal(t, tt.want, svc.lastFilter, tt.target)
		assert.Equal(t, 2, svc.lastUserID)
	}
}

func TestJoinSessionHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", services.ErrSessionNotFound, http.StatusNotFound},
		{"cancelled", services.ErrSessionCancelled, http.StatusBadRequest},
		{"past", services.ErrSessionInPast, http.StatusBadRequest},
		{"already joined", services.ErrSessionAlreadyJoined, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockSessionService{err: tt.err}
			router := newSessionRouter(svc)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, authenticatedRequest(http.MethodPost, "/sessions/5/join", "", 2, models.RolePlayer))

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, 5, svc.lastSessionID)
		})
	}
}

func TestJoinSessionHandler_InvalidID(t *testing.T) {
	svc := &mockSessionService{session: sampleSession()}
	router := newSessionRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authenticatedRequest(http.MethodPost, "/sessions/abc/join", "", 2, models.RolePlayer))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCancelSessionHandler(t *testing.T) {
	cancelled := sampleSession()
	cancelled.Status = models.SessionStatusCancelled
	reason := "rain"
	cancelled.CancelReason = &reason

	svc := &mockSessionService{session: cancelled}
	router := newSessionRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authenticatedRequest(http.MethodPut, "/sessions/1/cancel", `{"reason":"rain"}`, 1, models.RolePlayer))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rain", svc.lastReason)
	assert.Contains(t, rec.Body.String(), `"cancelled"`)
}

func TestCancelSessionHandler_NonCreatorForbidden(t *testing.T) {
	svc := &mockSessionService{err: services.ErrForbiddenOperation}
	router := newSessionRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authenticatedRequest(http.MethodPut, "/sessions/1/cancel", `{"reason":"x"}`, 2, models.RoleAdmin))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
