package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
)

const ticketColumns = `id, title, description, status, priority, tags, requester_id, assignee_id, created_at, updated_at, resolved_at`

// TicketRepository is the secondary adapter for ticket persistence.
type TicketRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

// NewTicketRepository creates a new ticket repository.
func NewTicketRepository(pool *pgxpool.Pool) ports.TicketRepository {
	return &TicketRepository{pool: pool}
}

// scanTicket maps one row onto a domain ticket.
func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket      domain.Ticket
		requesterID pgtype.UUID
		assigneeID  pgtype.UUID
		updatedAt   pgtype.Timestamptz
		resolvedAt  pgtype.Timestamptz
	)

	err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.Tags,
		&requesterID,
		&assigneeID,
		&ticket.CreatedAt,
		&updatedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	if requesterID.Valid {
		ticket.RequesterID = requesterID.Bytes
	}
	if assigneeID.Valid {
		value := uuid.UUID(assigneeID.Bytes)
		ticket.AssigneeID = &value
	}
	if updatedAt.Valid {
		ticket.UpdatedAt = &updatedAt.Time
	}
	if resolvedAt.Valid {
		ticket.ResolvedAt = &resolvedAt.Time
	}

	return &ticket, nil
}

// Create persists a new ticket entity.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	const query = `
INSERT INTO tickets (title, description, status, priority, tags, requester_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + ticketColumns

	tags := ticket.Tags
	if tags == nil {
		tags = []string{}
	}

	row := r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		string(ticket.Status),
		string(ticket.Priority),
		tags,
		pgtype.UUID{Bytes: ticket.RequesterID, Valid: true},
		ticket.CreatedAt,
	)

	return scanTicket(row)
}

// GetByID retrieves a single ticket by its ID.
func (r *TicketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

// Update persists changes to an existing ticket entity.
func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	const query = `
UPDATE tickets
SET status = $2, priority = $3, assignee_id = $4, updated_at = $5, resolved_at = $6
WHERE id = $1
RETURNING ` + ticketColumns

	assigneeID := pgtype.UUID{}
	if ticket.AssigneeID != nil {
		assigneeID = pgtype.UUID{Bytes: *ticket.AssigneeID, Valid: true}
	}

	updatedAt := pgtype.Timestamptz{}
	if ticket.UpdatedAt != nil {
		updatedAt = pgtype.Timestamptz{Time: *ticket.UpdatedAt, Valid: true}
	}

	resolvedAt := pgtype.Timestamptz{}
	if ticket.ResolvedAt != nil {
		resolvedAt = pgtype.Timestamptz{Time: *ticket.ResolvedAt, Valid: true}
	}

	updated, err := scanTicket(r.pool.QueryRow(ctx, query,
		ticket.ID,
		string(ticket.Status),
		string(ticket.Priority),
		assigneeID,
		updatedAt,
		resolvedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return updated, nil
}

// ListAll retrieves the full ticket collection, newest first. The result is
// the point-in-time snapshot aggregation queries iterate over.
func (r *TicketRepository) ListAll(ctx context.Context) ([]*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTickets(rows)
}

// ListByRequester retrieves tickets opened by the given user, newest first.
func (r *TicketRepository) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE requester_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, pgtype.UUID{Bytes: requesterID, Valid: true})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTickets(rows)
}

func collectTickets(rows pgx.Rows) ([]*domain.Ticket, error) {
	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}
