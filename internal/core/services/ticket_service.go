package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
)

// TicketService implements business logic for ticket management
type TicketService struct {
	ticketRepo  ports.TicketRepository
	notifier    ports.Notifier
	broadcaster ports.EventBroadcaster
	wg          sync.WaitGroup
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service
func NewTicketService(
	ticketRepo ports.TicketRepository,
	notifier ports.Notifier,
	broadcaster ports.EventBroadcaster,
) *TicketService {
	return &TicketService{
		ticketRepo:  ticketRepo,
		notifier:    notifier,
		broadcaster: broadcaster,
	}
}

// CreateTicket handles the use case for submitting a new ticket
func (s *TicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	ticketParams := domain.TicketParams{
		Title:       params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		Tags:        params.Tags,
		RequesterID: params.RequesterID,
	}

	ticket, err := domain.NewTicket(ticketParams)
	if err != nil {
		return nil, err // Validation errors are returned here
	}

	return s.ticketRepo.Create(ctx, ticket)
}

// GetTicket retrieves a specific ticket. Customers may only read tickets
// they opened or are assigned to; agents and admins may read any.
func (s *TicketService) GetTicket(ctx context.Context, ticketID int64, viewerID uuid.UUID, viewerRole domain.Role) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if viewerRole == domain.RoleCustomer && !ticket.IsOwnedBy(viewerID) && !ticket.IsAssignedTo(viewerID) {
		return nil, apperrors.ErrForbidden
	}

	return ticket, nil
}

// UpdateStatus changes a ticket's status with business rule enforcement.
// On success the update is broadcast to connected clients and the requester
// is notified asynchronously.
func (s *TicketService) UpdateStatus(ctx context.Context, params ports.UpdateStatusParams) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	// Customers may only move their own tickets.
	if params.ActorRole == domain.RoleCustomer && !ticket.IsOwnedBy(params.ActorID) {
		return nil, apperrors.ErrForbidden
	}

	// Apply status change (domain validates the transition)
	if err := ticket.UpdateStatus(params.Status); err != nil {
		return nil, err
	}

	updatedTicket, err := s.ticketRepo.Update(ctx, ticket)
	if err != nil {
		return nil, err
	}

	if updatedTicket.RequesterID != params.ActorID {
		s.notifyStatusUpdate(updatedTicket)
	}

	s.broadcastUpdate(updatedTicket)

	return updatedTicket, nil
}

// AssignTicket assigns a ticket to an agent and broadcasts the change.
func (s *TicketService) AssignTicket(ctx context.Context, params ports.AssignTicketParams) (*domain.Ticket, error) {
	if params.ActorRole == domain.RoleCustomer {
		return nil, apperrors.ErrForbidden
	}

	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	// Apply assignment (domain validates business rules)
	if err := ticket.Assign(params.AssigneeID); err != nil {
		return nil, err
	}

	updatedTicket, err := s.ticketRepo.Update(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.broadcastUpdate(updatedTicket)

	return updatedTicket, nil
}

// ListTickets retrieves tickets based on the viewer's role: agents and
// admins see all tickets, customers see only their own.
func (s *TicketService) ListTickets(ctx context.Context, params ports.ListTicketsParams) ([]*domain.Ticket, error) {
	if params.ViewerRole == domain.RoleCustomer {
		return s.ticketRepo.ListByRequester(ctx, params.ViewerID)
	}
	return s.ticketRepo.ListAll(ctx)
}

// notifyStatusUpdate sends an email notification for status changes as an
// explicit asynchronous task. Failures are the notifier's to log; they never
// surface to the mutation caller.
func (s *TicketService) notifyStatusUpdate(ticket *domain.Ticket) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		// Use a background context since the HTTP request may be done.
		ctx := context.Background()

		s.notifier.Notify(ctx, ports.NotificationParams{
			RecipientUserID: ticket.RequesterID,
			Subject:         fmt.Sprintf("Your ticket status has been updated: #%d", ticket.ID),
			Message:         fmt.Sprintf("The status of your ticket '%s' was changed to %s.", ticket.Title, ticket.Status),
			TicketID:        ticket.ID,
		})
	}()
}

// broadcastUpdate constructs the immutable update event once and hands it to
// the fanout hub.
func (s *TicketService) broadcastUpdate(ticket *domain.Ticket) {
	event := domain.NewTicketUpdateEvent(ticket)
	s.broadcaster.Broadcast(event)
}

// Shutdown waits for in-flight notification tasks to finish.
func (s *TicketService) Shutdown() {
	s.wg.Wait()
}
