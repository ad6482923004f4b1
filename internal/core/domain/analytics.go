package domain

import (
	"time"

	"github.com/google/uuid"
)

// AgentPerformance is one row of the per-assignee grouping. The count covers
// every ticket assigned to the agent regardless of status; the field name
// mirrors what the reporting consumers already expect.
type AgentPerformance struct {
	AgentID         *uuid.UUID `json:"agentId"`
	ResolvedTickets int64      `json:"resolvedTickets"`
}

type StatusCount struct {
	Status TicketStatus `json:"status"`
	Count  int64        `json:"count"`
}

// AnalyticsOverview aggregates store-level reporting figures.
type AnalyticsOverview struct {
	StatusCounts []StatusCount `json:"statusCounts"`
	MTTRHours    float64       `json:"mttrHours"`
}

// ResolutionReport is the result of the average-resolution-time query.
type ResolutionReport struct {
	Average       time.Duration `json:"averageNs"`
	ResolvedCount int64         `json:"resolvedCount"`
}
