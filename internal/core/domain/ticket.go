package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
)

const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 10000
)

// TicketStatus represents the possible states of a ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "OPEN"
	StatusInProgress TicketStatus = "IN_PROGRESS"
	StatusResolved   TicketStatus = "RESOLVED"
	StatusClosed     TicketStatus = "CLOSED"
)

// IsValid reports whether the status is one of the known states.
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved, StatusClosed:
		return true
	}
	return false
}

// TicketPriority represents the urgency of a ticket.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "LOW"
	PriorityMedium TicketPriority = "MEDIUM"
	PriorityHigh   TicketPriority = "HIGH"
)

// IsValid reports whether the priority is one of the known levels.
func (p TicketPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Ticket is the core domain entity.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	Tags        []string
	RequesterID uuid.UUID
	AssigneeID  *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   *time.Time
	ResolvedAt  *time.Time
}

// TicketParams holds the input for creating a new ticket.
type TicketParams struct {
	Title       string
	Description string
	Priority    TicketPriority
	Tags        []string
	RequesterID uuid.UUID
}

// NewTicket is a factory function to create a valid new ticket.
func NewTicket(params TicketParams) (*Ticket, error) {
	if params.Title == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if len(params.Title) > MaxTitleLength {
		return nil, apperrors.ErrTitleTooLong
	}
	if params.Description == "" {
		return nil, apperrors.ErrDescriptionRequired
	}

	priority := params.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperrors.ErrInvalidPriority
	}

	return &Ticket{
		Title:       params.Title,
		Description: params.Description,
		Status:      StatusOpen,
		Priority:    priority,
		Tags:        params.Tags,
		RequesterID: params.RequesterID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// validTransitions defines the allowed state machine edges.
// RESOLVED tickets may be reopened; CLOSED is terminal.
var validTransitions = map[TicketStatus][]TicketStatus{
	StatusOpen:       {StatusInProgress, StatusResolved, StatusClosed},
	StatusInProgress: {StatusOpen, StatusResolved, StatusClosed},
	StatusResolved:   {StatusOpen, StatusClosed},
	StatusClosed:     {},
}

// UpdateStatus changes the ticket's status, enforcing business rules.
// Transitioning into RESOLVED stamps ResolvedAt.
func (t *Ticket) UpdateStatus(newStatus TicketStatus) error {
	if !newStatus.IsValid() {
		return apperrors.ErrInvalidStatus
	}

	allowed, ok := validTransitions[t.Status]
	if !ok {
		return apperrors.ErrInvalidStatusTransition
	}

	for _, s := range allowed {
		if s == newStatus {
			t.Status = newStatus
			now := time.Now().UTC()
			t.UpdatedAt = &now
			if newStatus == StatusResolved {
				t.ResolvedAt = &now
			}
			return nil
		}
	}

	return apperrors.ErrInvalidStatusTransition
}

// Assign sets or changes the assignee of the ticket.
func (t *Ticket) Assign(assigneeID uuid.UUID) error {
	if t.Status == StatusClosed {
		return apperrors.ErrCannotAssignClosed
	}
	t.AssigneeID = &assigneeID
	now := time.Now().UTC()
	t.UpdatedAt = &now
	return nil
}

// IsOwnedBy reports whether the given user opened the ticket.
func (t *Ticket) IsOwnedBy(userID uuid.UUID) bool {
	return t.RequesterID == userID
}

// IsAssignedTo reports whether the given user is the current assignee.
func (t *Ticket) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
