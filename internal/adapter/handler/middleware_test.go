package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/clubcouncil/registration-engine/internal/adapter/handler"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()

	claims := handler.Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	assert.NoError(t, err)
	return token
}

func protected(t *testing.T, role string) http.Handler {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := handler.ClaimsFrom(r.Context())
		assert.NotNil(t, claims)
		w.WriteHeader(http.StatusNoContent)
	})
	return handler.Auth(testSecret)(handler.RequireRole(role)(inner))
}

func TestAuth_MissingToken(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/registrations/pending", nil)

	protected(t, handler.RoleOrganizer).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/registrations/pending", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")

	protected(t, handler.RoleOrganizer).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_WrongSigningKey(t *testing.T) {
	claims := handler.Claims{UserID: uuid.New(), Role: handler.RoleOrganizer}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	assert.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/registrations/pending", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	protected(t, handler.RoleOrganizer).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_RejectsUnexpectedAlgorithm(t *testing.T) {
	claims := handler.Claims{
		UserID: uuid.New(),
		Role:   handler.RoleOrganizer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(testSecret)
	assert.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/registrations/pending", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	protected(t, handler.RoleOrganizer).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole_Mismatch(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/registrations/pending", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, uuid.New(), handler.RoleParticipant))

	protected(t, handler.RoleOrganizer).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuth_ValidTokenPassesClaims(t *testing.T) {
	userID := uuid.New()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := handler.ClaimsFrom(r.Context())
		if assert.NotNil(t, claims) {
			assert.Equal(t, userID, claims.UserID)
			assert.Equal(t, handler.RoleOrganizer, claims.Role)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/registrations/pending", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, userID, handler.RoleOrganizer))

	handler.Auth(testSecret)(handler.RequireRole(handler.RoleOrganizer)(inner)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
