package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
)

// UserRepository is the port for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// TicketRepository is the port for ticket persistence. ListAll returns a
// point-in-time snapshot of the collection; aggregation queries iterate the
// snapshot, never the live store.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	ListAll(ctx context.Context) ([]*domain.Ticket, error)
	ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*domain.Ticket, error)
}

// AnalyticsRepository is the port for store-side reporting queries.
type AnalyticsRepository interface {
	GetOverview(ctx context.Context) (*domain.AnalyticsOverview, error)
}
