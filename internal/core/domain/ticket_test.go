package domain_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
)

func TestTicketPriority_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		priority domain.TicketPriority
		want     bool
	}{
		{"LOW is valid", domain.PriorityLow, true},
		{"MEDIUM is valid", domain.PriorityMedium, true},
		{"HIGH is valid", domain.PriorityHigh, true},
		{"empty is invalid", domain.TicketPriority(""), false},
		{"URGENT is invalid", domain.TicketPriority("URGENT"), false},
		{"lowercase is invalid", domain.TicketPriority("low"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.priority.IsValid())
		})
	}
}

func TestTicketStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status domain.TicketStatus
		want   bool
	}{
		{"OPEN is valid", domain.StatusOpen, true},
		{"IN_PROGRESS is valid", domain.StatusInProgress, true},
		{"RESOLVED is valid", domain.StatusResolved, true},
		{"CLOSED is valid", domain.StatusClosed, true},
		{"empty is invalid", domain.TicketStatus(""), false},
		{"PENDING is invalid", domain.TicketStatus("PENDING"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsValid())
		})
	}
}

func TestNewTicket(t *testing.T) {
	requesterID := uuid.New()

	tests := []struct {
		name    string
		params  domain.TicketParams
		wantErr error
	}{
		{
			name: "valid ticket",
			params: domain.TicketParams{
				Title:       "Test Ticket",
				Description: "Test description",
				Priority:    domain.PriorityHigh,
				RequesterID: requesterID,
			},
		},
		{
			name: "missing title",
			params: domain.TicketParams{
				Description: "Test description",
				RequesterID: requesterID,
			},
			wantErr: apperrors.ErrTitleRequired,
		},
		{
			name: "title too long",
			params: domain.TicketParams{
				Title:       strings.Repeat("a", 256),
				Description: "Test description",
				RequesterID: requesterID,
			},
			wantErr: apperrors.ErrTitleTooLong,
		},
		{
			name: "missing description",
			params: domain.TicketParams{
				Title:       "Test Ticket",
				RequesterID: requesterID,
			},
			wantErr: apperrors.ErrDescriptionRequired,
		},
		{
			name: "invalid priority",
			params: domain.TicketParams{
				Title:       "Test Ticket",
				Description: "Test description",
				Priority:    domain.TicketPriority("URGENT"),
				RequesterID: requesterID,
			},
			wantErr: apperrors.ErrInvalidPriority,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, err := domain.NewTicket(tt.params)

			if tt.wantErr != nil {
				assert.Nil(t, ticket)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, ticket)
			assert.Equal(t, tt.params.Title, ticket.Title)
			assert.Equal(t, tt.params.Priority, ticket.Priority)
			assert.Equal(t, domain.StatusOpen, ticket.Status)
			assert.False(t, ticket.CreatedAt.IsZero())
			assert.Nil(t, ticket.ResolvedAt)
		})
	}

	t.Run("priority defaults to MEDIUM", func(t *testing.T) {
		ticket, err := domain.NewTicket(domain.TicketParams{
			Title:       "Test Ticket",
			Description: "Test description",
			RequesterID: requesterID,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.PriorityMedium, ticket.Priority)
	})
}

func TestTicket_UpdateStatus(t *testing.T) {
	requesterID := uuid.New()

	tests := []struct {
		name          string
		initialStatus domain.TicketStatus
		newStatus     domain.TicketStatus
		expectError   bool
	}{
		// From OPEN
		{"OPEN to IN_PROGRESS", domain.StatusOpen, domain.StatusInProgress, false},
		{"OPEN to RESOLVED", domain.StatusOpen, domain.StatusResolved, false},
		{"OPEN to CLOSED", domain.StatusOpen, domain.StatusClosed, false},
		{"OPEN to OPEN (no change)", domain.StatusOpen, domain.StatusOpen, true},

		// From IN_PROGRESS
		{"IN_PROGRESS to OPEN", domain.StatusInProgress, domain.StatusOpen, false},
		{"IN_PROGRESS to RESOLVED", domain.StatusInProgress, domain.StatusResolved, false},
		{"IN_PROGRESS to CLOSED", domain.StatusInProgress, domain.StatusClosed, false},

		// RESOLVED may be reopened or closed, nothing else
		{"RESOLVED to OPEN (reopen)", domain.StatusResolved, domain.StatusOpen, false},
		{"RESOLVED to CLOSED", domain.StatusResolved, domain.StatusClosed, false},
		{"RESOLVED to IN_PROGRESS", domain.StatusResolved, domain.StatusInProgress, true},

		// CLOSED is terminal
		{"CLOSED to OPEN", domain.StatusClosed, domain.StatusOpen, true},
		{"CLOSED to RESOLVED", domain.StatusClosed, domain.StatusResolved, true},

		// Invalid status
		{"OPEN to INVALID", domain.StatusOpen, domain.TicketStatus("INVALID"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := &domain.Ticket{
				ID:          1,
				Title:       "Test",
				Status:      tt.initialStatus,
				Priority:    domain.PriorityMedium,
				RequesterID: requesterID,
			}

			err := ticket.UpdateStatus(tt.newStatus)

			if tt.expectError {
				assert.Error(t, err)
				assert.Equal(t, tt.initialStatus, ticket.Status) // Status unchanged
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.newStatus, ticket.Status)
				assert.NotNil(t, ticket.UpdatedAt)
			}
		})
	}

	t.Run("resolving stamps ResolvedAt", func(t *testing.T) {
		ticket := &domain.Ticket{
			ID:          1,
			Status:      domain.StatusInProgress,
			RequesterID: requesterID,
		}

		require.NoError(t, ticket.UpdateStatus(domain.StatusResolved))
		require.NotNil(t, ticket.ResolvedAt)
		assert.Equal(t, *ticket.UpdatedAt, *ticket.ResolvedAt)
	})

	t.Run("non-resolving transition leaves ResolvedAt alone", func(t *testing.T) {
		ticket := &domain.Ticket{
			ID:          1,
			Status:      domain.StatusOpen,
			RequesterID: requesterID,
		}

		require.NoError(t, ticket.UpdateStatus(domain.StatusInProgress))
		assert.Nil(t, ticket.ResolvedAt)
	})
}

func TestTicket_Assign(t *testing.T) {
	requesterID := uuid.New()
	assigneeID := uuid.New()

	tests := []struct {
		name        string
		status      domain.TicketStatus
		expectError bool
	}{
		{"assign to OPEN ticket", domain.StatusOpen, false},
		{"assign to IN_PROGRESS ticket", domain.StatusInProgress, false},
		{"assign to RESOLVED ticket", domain.StatusResolved, false},
		{"assign to CLOSED ticket", domain.StatusClosed, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := &domain.Ticket{
				ID:          1,
				Title:       "Test",
				Status:      tt.status,
				Priority:    domain.PriorityMedium,
				RequesterID: requesterID,
			}

			err := ticket.Assign(assigneeID)

			if tt.expectError {
				assert.ErrorIs(t, err, apperrors.ErrCannotAssignClosed)
				assert.Nil(t, ticket.AssigneeID)
			} else {
				assert.NoError(t, err)
				require.NotNil(t, ticket.AssigneeID)
				assert.Equal(t, assigneeID, *ticket.AssigneeID)
				assert.NotNil(t, ticket.UpdatedAt)
			}
		})
	}
}

func TestTicket_IsOwnedBy(t *testing.T) {
	ownerID := uuid.New()
	otherID := uuid.New()

	ticket := &domain.Ticket{
		ID:          1,
		RequesterID: ownerID,
	}

	assert.True(t, ticket.IsOwnedBy(ownerID))
	assert.False(t, ticket.IsOwnedBy(otherID))
}

func TestTicket_IsAssignedTo(t *testing.T) {
	assigneeID := uuid.New()
	otherID := uuid.New()

	unassignedTicket := &domain.Ticket{ID: 1}
	assert.False(t, unassignedTicket.IsAssignedTo(assigneeID))

	assignedTicket := &domain.Ticket{
		ID:         1,
		AssigneeID: &assigneeID,
	}
	assert.True(t, assignedTicket.IsAssignedTo(assigneeID))
	assert.False(t, assignedTicket.IsAssignedTo(otherID))
}

func TestNewTicketUpdateEvent(t *testing.T) {
	assigneeID := uuid.New()

	t.Run("assigned ticket carries assignee as string", func(t *testing.T) {
		ticket, err := domain.NewTicket(domain.TicketParams{
			Title:       "Test",
			Description: "Test",
			RequesterID: uuid.New(),
		})
		require.NoError(t, err)
		ticket.ID = 42
		require.NoError(t, ticket.Assign(assigneeID))

		event := domain.NewTicketUpdateEvent(ticket)

		assert.Equal(t, int64(42), event.TicketID)
		assert.Equal(t, domain.StatusOpen, event.Status)
		require.NotNil(t, event.AssignedTo)
		assert.Equal(t, assigneeID.String(), *event.AssignedTo)
		assert.Equal(t, ticket.UpdatedAt.UTC(), event.UpdatedAt)
	})

	t.Run("unassigned ticket has nil assignee", func(t *testing.T) {
		ticket, err := domain.NewTicket(domain.TicketParams{
			Title:       "Test",
			Description: "Test",
			RequesterID: uuid.New(),
		})
		require.NoError(t, err)

		event := domain.NewTicketUpdateEvent(ticket)

		assert.Nil(t, event.AssignedTo)
		// Falls back to CreatedAt when the ticket was never updated.
		assert.Equal(t, ticket.CreatedAt.UTC(), event.UpdatedAt)
	})
}
