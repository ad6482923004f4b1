package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/opsdesk/opsdesk-backend/internal/adapters/primary/http/middleware"
	"github.com/opsdesk/opsdesk-backend/internal/auth"
	"github.com/opsdesk/opsdesk-backend/internal/core/domain"
	apperrors "github.com/opsdesk/opsdesk-backend/internal/core/errors"
	"github.com/opsdesk/opsdesk-backend/internal/core/ports"
)

// TicketHandler handles HTTP requests for tickets
type TicketHandler struct {
	ticketService ports.TicketService
	errorHandler  *ErrorHandler
	logger        *slog.Logger
}

// NewTicketHandler creates a new ticket handler
func NewTicketHandler(
	ticketService ports.TicketService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "ticket"),
	}
}

// RegisterRoutes sets up the routing for all ticket endpoints. Status and
// assignment mutations are gated to staff roles.
func (h *TicketHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleListTickets)
	r.Post("/", h.HandleCreateTicket)

	r.Route("/{ticketID}", func(r chi.Router) {
		r.Get("/", h.HandleGetTicket)

		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(domain.RoleAdmin, domain.RoleAgent))
			r.Patch("/status", h.HandleUpdateTicketStatus)
			r.Patch("/assignee", h.HandleAssignTicket)
		})
	})
}

// --- Request/Response DTOs ---

// CreateTicketRequest defines the expected JSON body for creating a ticket
type CreateTicketRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    string   `json:"priority,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UpdateStatusRequest defines the expected JSON body for status updates
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AssignTicketRequest defines the expected JSON body for assigning a ticket
type AssignTicketRequest struct {
	AssigneeID string `json:"assigneeId"`
}

// TicketDTO defines the JSON response for tickets.
type TicketDTO struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Tags        []string `json:"tags"`
	RequesterID string   `json:"requesterId"`
	AssigneeID  *string  `json:"assigneeId"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   *string  `json:"updatedAt"`
	ResolvedAt  *string  `json:"resolvedAt"`
}

func toTicketDTO(ticket *domain.Ticket) TicketDTO {
	var assigneeID *string
	if ticket.AssigneeID != nil {
		value := ticket.AssigneeID.String()
		assigneeID = &value
	}

	var updatedAt *string
	if ticket.UpdatedAt != nil {
		value := ticket.UpdatedAt.Format(time.RFC3339)
		updatedAt = &value
	}

	var resolvedAt *string
	if ticket.ResolvedAt != nil {
		value := ticket.ResolvedAt.Format(time.RFC3339)
		resolvedAt = &value
	}

	tags := ticket.Tags
	if tags == nil {
		tags = []string{}
	}

	return TicketDTO{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      string(ticket.Status),
		Priority:    string(ticket.Priority),
		Tags:        tags,
		RequesterID: ticket.RequesterID.String(),
		AssigneeID:  assigneeID,
		CreatedAt:   ticket.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   updatedAt,
		ResolvedAt:  resolvedAt,
	}
}

func toTicketDTOs(tickets []*domain.Ticket) []TicketDTO {
	response := make([]TicketDTO, 0, len(tickets))
	for _, ticket := range tickets {
		response = append(response, toTicketDTO(ticket))
	}
	return response
}

// --- Handlers ---

// HandleListTickets handles GET /tickets
func (h *TicketHandler) HandleListTickets(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.getIdentity(w, r)
	if !ok {
		return
	}

	tickets, err := h.ticketService.ListTickets(r.Context(), ports.ListTicketsParams{
		ViewerID:   identity.SubjectID,
		ViewerRole: identity.Role,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toTicketDTOs(tickets))
}

// HandleCreateTicket handles POST /tickets
func (h *TicketHandler) HandleCreateTicket(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.getIdentity(w, r)
	if !ok {
		return
	}

	var req CreateTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.CreateTicket(r.Context(), ports.CreateTicketParams{
		Title:       req.Title,
		Description: req.Description,
		Priority:    domain.TicketPriority(req.Priority),
		Tags:        req.Tags,
		RequesterID: identity.SubjectID,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket created",
		"ticket_id", ticket.ID,
		"user_id", identity.SubjectID,
	)

	WriteCreated(w, toTicketDTO(ticket))
}

// HandleGetTicket handles GET /tickets/{ticketID}
func (h *TicketHandler) HandleGetTicket(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.GetTicket(r.Context(), ticketID, identity.SubjectID, identity.Role)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleUpdateTicketStatus handles PATCH /tickets/{ticketID}/status
func (h *TicketHandler) HandleUpdateTicketStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	ticket, err := h.ticketService.UpdateStatus(r.Context(), ports.UpdateStatusParams{
		TicketID:  ticketID,
		Status:    domain.TicketStatus(req.Status),
		ActorID:   identity.SubjectID,
		ActorRole: identity.Role,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket status updated",
		"ticket_id", ticketID,
		"new_status", req.Status,
		"user_id", identity.SubjectID,
	)

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// HandleAssignTicket handles PATCH /tickets/{ticketID}/assignee
func (h *TicketHandler) HandleAssignTicket(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.getIdentity(w, r)
	if !ok {
		return
	}

	ticketID, err := h.parseTicketID(r)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	var req AssignTicketRequest
	if err := decodeJSON(r, &req); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	assigneeID, err := uuid.Parse(req.AssigneeID)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "assigneeId must be a valid UUID"))
		return
	}

	ticket, err := h.ticketService.AssignTicket(r.Context(), ports.AssignTicketParams{
		TicketID:   ticketID,
		AssigneeID: assigneeID,
		ActorID:    identity.SubjectID,
		ActorRole:  identity.Role,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("ticket assigned",
		"ticket_id", ticketID,
		"assignee_id", assigneeID,
		"user_id", identity.SubjectID,
	)

	WriteJSON(w, http.StatusOK, toTicketDTO(ticket))
}

// --- Helper methods ---

// getIdentity extracts the verified identity from the request context
func (h *TicketHandler) getIdentity(w http.ResponseWriter, r *http.Request) (*auth.Identity, bool) {
	identity, ok := mw.IdentityFromContext(r.Context())
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error: "Authentication credential missing",
			Code:  "MISSING_CREDENTIAL",
		})
		return nil, false
	}
	return identity, true
}

// parseTicketID extracts and validates the ticket ID from the URL
func (h *TicketHandler) parseTicketID(r *http.Request) (int64, error) {
	ticketIDStr := chi.URLParam(r, "ticketID")
	ticketID, err := strconv.ParseInt(ticketIDStr, 10, 64)
	if err != nil || ticketID <= 0 {
		return 0, apperrors.NewBadRequestError(apperrors.ErrBadRequest, "Invalid ticket ID")
	}
	return ticketID, nil
}
