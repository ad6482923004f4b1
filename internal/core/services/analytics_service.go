package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
)

// AnalyticsService computes derived metrics over a point-in-time snapshot of
// the ticket collection. Mutations racing the computation never affect a
// report in progress.
type AnalyticsService struct {
	ticketRepo    ports.TicketRepository
	analyticsRepo ports.AnalyticsRepository
}

var _ ports.AnalyticsService = (*AnalyticsService)(nil)

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(ticketRepo ports.TicketRepository, analyticsRepo ports.AnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{
		ticketRepo:    ticketRepo,
		analyticsRepo: analyticsRepo,
	}
}

// AgentPerformance groups tickets by assignee and counts every ticket in each
// group, whatever its status. Unassigned tickets form their own group with a
// nil agent id.
func (s *AnalyticsService) AgentPerformance(ctx context.Context) ([]domain.AgentPerformance, error) {
	tickets, err := s.ticketRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int64)
	var unassigned int64
	for _, t := range tickets {
		if t.AssigneeID == nil {
			unassigned++
			continue
		}
		counts[*t.AssigneeID]++
	}

	report := make([]domain.AgentPerformance, 0, len(counts)+1)
	for id, n := range counts {
		agentID := id
		report = append(report, domain.AgentPerformance{
			AgentID:         &agentID,
			ResolvedTickets: n,
		})
	}
	if unassigned > 0 {
		report = append(report, domain.AgentPerformance{
			AgentID:         nil,
			ResolvedTickets: unassigned,
		})
	}

	// Stable output order: busiest agents first, unassigned last.
	sort.Slice(report, func(i, j int) bool {
		if report[i].AgentID == nil {
			return false
		}
		if report[j].AgentID == nil {
			return true
		}
		if report[i].ResolvedTickets != report[j].ResolvedTickets {
			return report[i].ResolvedTickets > report[j].ResolvedTickets
		}
		return report[i].AgentID.String() < report[j].AgentID.String()
	})

	return report, nil
}

// AverageResolutionTime averages created-to-resolved durations over resolved
// tickets only. Returns ErrNoResolvedTickets when none qualify, so callers
// can distinguish "no data" from a zero average.
func (s *AnalyticsService) AverageResolutionTime(ctx context.Context) (*domain.ResolutionReport, error) {
	tickets, err := s.ticketRepo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var total time.Duration
	var count int64
	for _, t := range tickets {
		if t.Status != domain.StatusResolved || t.ResolvedAt == nil {
			continue
		}
		total += t.ResolvedAt.Sub(t.CreatedAt)
		count++
	}

	if count == 0 {
		return nil, apperrors.ErrNoResolvedTickets
	}

	return &domain.ResolutionReport{
		Average:       total / time.Duration(count),
		ResolvedCount: count,
	}, nil
}

// Overview returns the store-side status breakdown and MTTR figures.
func (s *AnalyticsService) Overview(ctx context.Context) (*domain.AnalyticsOverview, error) {
	return s.analyticsRepo.GetOverview(ctx)
}
