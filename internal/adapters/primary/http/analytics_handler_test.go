package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/opsdesk/opsdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/opsdesk/opsdesk-backend/internal/auth"
	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
)

// stubAnalyticsService returns canned reports without touching a store.
type stubAnalyticsService struct {
	agents        []domain.AgentPerformance
	resolution    *domain.ResolutionReport
	resolutionErr error
	overview      *domain.AnalyticsOverview
}

func (s *stubAnalyticsService) AgentPerformance(ctx context.Context) ([]domain.AgentPerformance, error) {
	return s.agents, nil
}

func (s *stubAnalyticsService) AverageResolutionTime(ctx context.Context) (*domain.ResolutionReport, error) {
	if s.resolutionErr != nil {
		return nil, s.resolutionErr
	}
	return s.resolution, nil
}

func (s *stubAnalyticsService) Overview(ctx context.Context) (*domain.AnalyticsOverview, error) {
	return s.overview, nil
}

func newAnalyticsRouter(svc *stubAnalyticsService, tm *auth.TokenManager) chi.Router {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewAnalyticsHandler(svc, NewErrorHandler(logger), logger)

	r := chi.NewRouter()
	r.Route("/analytics", func(r chi.Router) {
		r.Use(mw.Authenticate(tm))
		r.Use(mw.RequireRole(domain.RoleAdmin))
		handler.RegisterRoutes(r)
	})
	return r
}

func TestAnalyticsHandler_AgentPerformance(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	agentID := uuid.New()

	svc := &stubAnalyticsService{
		agents: []domain.AgentPerformance{
			{AgentID: &agentID, ResolvedTickets: 3},
			{AgentID: nil, ResolvedTickets: 2},
		},
	}
	router := newAnalyticsRouter(svc, tm)

	_, token := issueToken(t, tm, domain.RoleAdmin)

	req := httptest.NewRequest(stdhttp.MethodGet, "/analytics/agents", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, stdhttp.StatusOK, rec.Code)

	var response ListResponse[domain.AgentPerformance]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.Equal(t, 2, response.Count)
	assert.Equal(t, int64(3), response.Data[0].ResolvedTickets)
	assert.Nil(t, response.Data[1].AgentID)
}

func TestAnalyticsHandler_ResolutionTime(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)

	t.Run("returns average", func(t *testing.T) {
		svc := &stubAnalyticsService{
			resolution: &domain.ResolutionReport{Average: 90 * time.Minute, ResolvedCount: 4},
		}
		router := newAnalyticsRouter(svc, tm)
		_, token := issueToken(t, tm, domain.RoleAdmin)

		req := httptest.NewRequest(stdhttp.MethodGet, "/analytics/resolution-time", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		require.Equal(t, stdhttp.StatusOK, rec.Code)

		var response ResolutionTimeResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, float64(5400), response.AverageSeconds)
		assert.Equal(t, int64(4), response.ResolvedCount)
	})

	t.Run("no resolved tickets is 404", func(t *testing.T) {
		svc := &stubAnalyticsService{resolutionErr: apperrors.ErrNoResolvedTickets}
		router := newAnalyticsRouter(svc, tm)
		_, token := issueToken(t, tm, domain.RoleAdmin)

		req := httptest.NewRequest(stdhttp.MethodGet, "/analytics/resolution-time", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

		var response ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
		assert.Equal(t, "NO_RESOLVED_TICKETS", response.Code)
	})
}

func TestAnalyticsHandler_Overview(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)

	svc := &stubAnalyticsService{
		overview: &domain.AnalyticsOverview{
			StatusCounts: []domain.StatusCount{
				{Status: domain.StatusOpen, Count: 5},
			},
			MTTRHours: 2.5,
		},
	}
	router := newAnalyticsRouter(svc, tm)
	_, token := issueToken(t, tm, domain.RoleAdmin)

	req := httptest.NewRequest(stdhttp.MethodGet, "/analytics/overview", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	require.Equal(t, stdhttp.StatusOK, rec.Code)

	var response domain.AnalyticsOverview
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, 2.5, response.MTTRHours)
	require.Len(t, response.StatusCounts, 1)
}

func TestAnalyticsHandler_RequiresAdmin(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	router := newAnalyticsRouter(&stubAnalyticsService{}, tm)

	for _, role := range []domain.Role{domain.RoleAgent, domain.RoleCustomer} {
		_, token := issueToken(t, tm, role)

		req := httptest.NewRequest(stdhttp.MethodGet, "/analytics/agents", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, stdhttp.StatusForbidden, rec.Code, "role %s must be rejected", role)
	}
}
