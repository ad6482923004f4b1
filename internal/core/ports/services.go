package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
)

// Connection represents one live client channel. It is owned by the
// ConnectionRegistry for its lifetime; no other component may hold it past a
// broadcast call. Send must not block indefinitely: a full buffer or closed
// peer returns an error, which the broadcaster treats as a disconnect.
type Connection interface {
	ID() uuid.UUID
	Send(payload []byte) error
	Close() error
}

// ConnectionRegistry is the authoritative set of currently-reachable client
// channels. All implementations must be safe for concurrent use.
type ConnectionRegistry interface {
	Register(conn Connection) uuid.UUID
	Unregister(id uuid.UUID)
	Snapshot() []Connection
	Len() int
}

// EventBroadcaster is the port for fanning out ticket update events.
type EventBroadcaster interface {
	Broadcast(event domain.TicketUpdateEvent)
}

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Register(ctx context.Context, params domain.UserRegistrationParams) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.User, error)
}

// CreateTicketParams defines the required input for creating a new ticket.
type CreateTicketParams struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Tags        []string
	RequesterID uuid.UUID
}

// UpdateStatusParams defines the input for changing a ticket's status.
type UpdateStatusParams struct {
	TicketID  int64
	Status    domain.TicketStatus
	ActorID   uuid.UUID
	ActorRole domain.Role
}

// AssignTicketParams defines the input for assigning a ticket.
type AssignTicketParams struct {
	TicketID   int64
	AssigneeID uuid.UUID
	ActorID    uuid.UUID
	ActorRole  domain.Role
}

// ListTicketsParams defines the input for listing tickets.
type ListTicketsParams struct {
	ViewerID   uuid.UUID
	ViewerRole domain.Role
}

// NotificationParams defines the input for sending a notification.
type NotificationParams struct {
	RecipientUserID uuid.UUID
	Subject         string
	Message         string
	TicketID        int64
}

// TicketService defines the core business operations for managing tickets.
type TicketService interface {
	CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	GetTicket(ctx context.Context, ticketID int64, viewerID uuid.UUID, viewerRole domain.Role) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, params UpdateStatusParams) (*domain.Ticket, error)
	AssignTicket(ctx context.Context, params AssignTicketParams) (*domain.Ticket, error)
	ListTickets(ctx context.Context, params ListTicketsParams) ([]*domain.Ticket, error)
	Shutdown()
}

// AnalyticsService defines the port for derived read-only metrics over the
// ticket history.
type AnalyticsService interface {
	AgentPerformance(ctx context.Context) ([]domain.AgentPerformance, error)
	AverageResolutionTime(ctx context.Context) (*domain.ResolutionReport, error)
	Overview(ctx context.Context) (*domain.AnalyticsOverview, error)
}

// Notifier defines the port for sending asynchronous notifications.
type Notifier interface {
	Notify(ctx context.Context, params NotificationParams)
}
