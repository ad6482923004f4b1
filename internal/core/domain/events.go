package domain

import (
	"time"
)

// MessageType identifies the kind of payload pushed to a client.
type MessageType string

const (
	MessageWelcome      MessageType = "WELCOME"
	MessageTicketUpdate MessageType = "TICKET_UPDATED"
	MessagePong         MessageType = "PONG"
)

// TicketUpdateEvent is the immutable notification payload fanned out to
// connected clients after a ticket mutation. It is constructed once and
// never modified afterwards.
type TicketUpdateEvent struct {
	TicketID   int64          `json:"ticketId"`
	Status     TicketStatus   `json:"status"`
	Priority   TicketPriority `json:"priority"`
	AssignedTo *string        `json:"assignedTo"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// NewTicketUpdateEvent builds an update event from the ticket's current state.
func NewTicketUpdateEvent(ticket *Ticket) TicketUpdateEvent {
	var assignedTo *string
	if ticket.AssigneeID != nil {
		value := ticket.AssigneeID.String()
		assignedTo = &value
	}

	updatedAt := ticket.CreatedAt
	if ticket.UpdatedAt != nil {
		updatedAt = *ticket.UpdatedAt
	}

	return TicketUpdateEvent{
		TicketID:   ticket.ID,
		Status:     ticket.Status,
		Priority:   ticket.Priority,
		AssignedTo: assignedTo,
		UpdatedAt:  updatedAt.UTC(),
	}
}

// WelcomePayload is sent to a client once, before it joins the fanout set.
type WelcomePayload struct {
	Type         MessageType `json:"type"`
	ConnectionID string      `json:"connectionId"`
	ServerTime   time.Time   `json:"serverTime"`
}
