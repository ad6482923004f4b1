package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
)

// AnalyticsHandler exposes aggregated reporting endpoints.
type AnalyticsHandler struct {
	analyticsService ports.AnalyticsService
	errorHandler     *ErrorHandler
	logger           *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(
	analyticsService ports.AnalyticsService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		errorHandler:     errorHandler,
		logger:           logger.With("handler", "analytics"),
	}
}

// RegisterRoutes sets up the routing for analytics endpoints.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/agents", h.HandleAgentPerformance)
	r.Get("/resolution-time", h.HandleResolutionTime)
	r.Get("/overview", h.HandleOverview)
}

// ResolutionTimeResponse is the JSON shape of the average-resolution report.
type ResolutionTimeResponse struct {
	AverageSeconds float64 `json:"averageSeconds"`
	Average        string  `json:"average"`
	ResolvedCount  int64   `json:"resolvedCount"`
}

// HandleAgentPerformance handles GET /analytics/agents
func (h *AnalyticsHandler) HandleAgentPerformance(w http.ResponseWriter, r *http.Request) {
	report, err := h.analyticsService.AgentPerformance(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, report)
}

// HandleResolutionTime handles GET /analytics/resolution-time
func (h *AnalyticsHandler) HandleResolutionTime(w http.ResponseWriter, r *http.Request) {
	report, err := h.analyticsService.AverageResolutionTime(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, ResolutionTimeResponse{
		AverageSeconds: report.Average.Seconds(),
		Average:        report.Average.Round(time.Second).String(),
		ResolvedCount:  report.ResolvedCount,
	})
}

// HandleOverview handles GET /analytics/overview
func (h *AnalyticsHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.analyticsService.Overview(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	if overview.StatusCounts == nil {
		overview.StatusCounts = []domain.StatusCount{}
	}

	WriteJSON(w, http.StatusOK, overview)
}
