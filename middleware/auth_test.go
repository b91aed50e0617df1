package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/sports-sessions/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	require.NoError(t, err)
	return signed
}

func okHandler() (http.Handler, *bool) {
	called := false
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}), &called
}

func TestAuthenticate_ValidToken(t *testing.T) {
	next, called := okHandler()
	handler := Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		assert.Equal(t, 42, userID)

		role, err := GetUserRoleFromContext(r.Context())
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, role)

		next.ServeHTTP(w, r)
	}))

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": 42,
		"role":    "admin",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *called)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	next, called := okHandler()
	handler := Authenticate(testSecret)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	next, called := okHandler()
	handler := Authenticate(testSecret)(next)

	token := signToken(t, []byte("other-secret"), jwt.MapClaims{
		"user_id": 1,
		"role":    "player",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	next, called := okHandler()
	handler := Authenticate(testSecret)(next)

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": 1,
		"role":    "player",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name     string
		role     models.UserRole
		required []models.UserRole
		want     int
	}{
		{"admin allowed", models.RoleAdmin, []models.UserRole{models.RoleAdmin}, http.StatusOK},
		{"player forbidden", models.RolePlayer, []models.UserRole{models.RoleAdmin}, http.StatusForbidden},
		{"any of several", models.RolePlayer, []models.UserRole{models.RoleAdmin, models.RolePlayer}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, _ := okHandler()
			handler := RequireRole(tt.required...)(next)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(WithUserClaims(req.Context(), 1, tt.role))
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireRole_NoClaims(t *testing.T) {
	next, called := okHandler()
	handler := RequireRole(models.RoleAdmin)(next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *called)
}
