package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk-backend/internal/auth"
	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
)

func TestAuthenticateHeader(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	subjectID := uuid.New()

	validToken, err := tm.Issue(subjectID, domain.RoleAgent)
	require.NoError(t, err)

	tests := []struct {
		name        string
		headerValue string
		wantErr     error
	}{
		{"missing header", "", apperrors.ErrMissingCredential},
		{"no bearer prefix", validToken, apperrors.ErrMissingCredential},
		{"wrong scheme", "Basic " + validToken, apperrors.ErrMissingCredential},
		{"bearer without token", "Bearer ", apperrors.ErrMissingCredential},
		{"well-formed but invalid token", "Bearer not-a-real-token", apperrors.ErrInvalidCredential},
		{"valid token", "Bearer " + validToken, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := AuthenticateHeader(tm, tt.headerValue)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, identity)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, subjectID, identity.SubjectID)
			assert.Equal(t, domain.RoleAgent, identity.Role)
		})
	}
}

func TestAuthenticate_StatusCodes(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)

	validToken, err := tm.Issue(uuid.New(), domain.RoleCustomer)
	require.NoError(t, err)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		require.True(t, ok, "identity must be attached on success")
		assert.Equal(t, domain.RoleCustomer, identity.Role)
		w.WriteHeader(http.StatusOK)
	})

	handler := Authenticate(tm)(next)

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"missing credential is 401", "", http.StatusUnauthorized},
		{"malformed header is 401", "nonsense", http.StatusUnauthorized},
		{"invalid token is 403", "Bearer bogus", http.StatusForbidden},
		{"valid token proceeds", "Bearer " + validToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestAuthenticate_ExpiredTokenIs403(t *testing.T) {
	// Zero TTL means the token is expired the moment it is issued.
	tm := auth.NewTokenManager("test-secret", -time.Minute)

	token, err := tm.Issue(uuid.New(), domain.RoleAdmin)
	require.NoError(t, err)

	handler := Authenticate(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for an expired token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireRole(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(tm)(RequireRole(domain.RoleAdmin, domain.RoleAgent)(next))

	tests := []struct {
		name       string
		role       domain.Role
		wantStatus int
	}{
		{"admin allowed", domain.RoleAdmin, http.StatusOK},
		{"agent allowed", domain.RoleAgent, http.StatusOK},
		{"customer forbidden", domain.RoleCustomer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tm.Issue(uuid.New(), tt.role)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodPatch, "/tickets/1/status", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
